package objstore

import (
	"time"

	"github.com/cristiangiann/localstack/cksum"
)

// SystemMetadata holds the handful of object headers the Service treats
// specially rather than as arbitrary user metadata (§3).
type SystemMetadata struct {
	ContentType        string
	ContentEncoding    string
	ContentLanguage    string
	ContentDisposition string
	CacheControl       string
	Expires            string
}

// LockMode is the object-lock retention mode (§3 lock_mode).
type LockMode string

const (
	LockModeNone       LockMode = ""
	LockModeGovernance LockMode = "GOVERNANCE"
	LockModeCompliance LockMode = "COMPLIANCE"
)

// LegalHoldStatus is the object-lock legal-hold switch (§3 lock_legal_status).
type LegalHoldStatus string

const (
	LegalHoldOff LegalHoldStatus = "OFF"
	LegalHoldOn  LegalHoldStatus = "ON"
)

// PartRange records one completed part's byte extent within the final
// object, used to answer range-read requests and GetObjectAttributes
// without re-deriving offsets from part sizes each time (§3 Object.parts).
type PartRange struct {
	PartNumber int
	Offset     int64
	Length     int64
	ETag       string
}

// Object is the §3 record for one live, non-tombstone version of a key.
type Object struct {
	Key     string
	Version string // "" unset, "null" suspended/legacy, opaque token when Enabled

	Size int64
	// ETag is lowercase hex, unquoted; QuotedETag is the derived wire form.
	ETag string

	Modified         time.Time // last_modified, second precision, UTC
	InternalModified time.Time // internal cross-check, full precision

	StorageClass string

	UserMetadata   map[string]string
	SystemMetadata SystemMetadata

	ChecksumAlgorithm cksum.Algorithm
	ChecksumValue     string // base64
	ChecksumType      cksum.Type

	Encryption        string // e.g. "AES256", "aws:kms"
	KMSKeyID          string
	BucketKeyEnabled  bool
	SSECKeyMD5        string

	LockMode    LockMode
	LegalHold   LegalHoldStatus
	LockUntil   time.Time

	WebsiteRedirectLocation string
	ACL                     string
	Owner                   string

	Restore    string // restore marker, e.g. `ongoing-request="false", expiry-date="..."`
	Expiration string // lifecycle expiration header value, cache-populated

	Tagging map[string]string

	Parts []PartRange // set only for objects produced by CompleteMultipartUpload

	current bool
}

func (o *Object) VersionID() string       { return o.Version }
func (o *Object) LastModified() time.Time { return o.Modified }
func (o *Object) IsCurrent() bool         { return o.current }
func (o *Object) setCurrent(c bool)       { o.current = c }
func (o *Object) IsDeleteMarker() bool    { return false }

// QuotedETag returns the double-quoted wire form the Service always returns
// (§6).
func (o *Object) QuotedETag() string {
	if o.ETag == "" {
		return ""
	}
	return `"` + o.ETag + `"`
}

var _ Version = (*Object)(nil)
var _ Version = (*DeleteMarker)(nil)
