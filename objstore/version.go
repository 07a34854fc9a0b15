// Package objstore implements the §3 data model: the Store/Bucket/Object
// typed records and the VersionedKeyStore that indexes them, grounded on the
// teacher's cluster.BMD / cmn.Bck bucket-metadata conventions
// (cluster/map.go, cmn/bucket.go) generalized from a single flat namespace
// to per-key version history.
package objstore

import "time"

// Version is the tagged-variant contract §9 calls for: Object and
// DeleteMarker coexist in the VersionedKeyStore and must be distinguishable
// at every read site, never merged into one record with nullable fields.
type Version interface {
	// VersionID returns the version's opaque id, "null" for a legacy/
	// suspended-versioning entry, or "" when versioning was never enabled.
	VersionID() string
	// LastModified returns the version's creation timestamp.
	LastModified() time.Time
	// IsCurrent reports whether this is the newest live version for its key.
	IsCurrent() bool
	setCurrent(bool)
	// IsDeleteMarker distinguishes the two variants without a type switch at
	// every call site.
	IsDeleteMarker() bool
}

// DeleteMarker is a tombstone version: it hides the key from unversioned
// GET/HEAD but remains listable and individually deletable (§3).
type DeleteMarker struct {
	Key       string
	Version   string
	Modified  time.Time
	Current   bool
}

func (d *DeleteMarker) VersionID() string        { return d.Version }
func (d *DeleteMarker) LastModified() time.Time  { return d.Modified }
func (d *DeleteMarker) IsCurrent() bool          { return d.Current }
func (d *DeleteMarker) setCurrent(c bool)        { d.Current = c }
func (d *DeleteMarker) IsDeleteMarker() bool     { return true }
