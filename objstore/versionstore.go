package objstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// VersionedKeyStore is the §3/§4.2 ordered multi-version map from object key
// to its sequence of live versions. It is generalized from the teacher's
// flat `cluster.BMD`-style name→metadata map (cluster/map.go) into a
// key→history map, since a single AIStore bucket never carries version
// history the way a versioned S3 bucket does.
type VersionedKeyStore struct {
	mu   sync.RWMutex
	data map[string][]Version
}

// NewVersionedKeyStore returns an empty store.
func NewVersionedKeyStore() *VersionedKeyStore {
	return &VersionedKeyStore{data: make(map[string][]Version)}
}

// Put inserts v as a new version of key. When versioned is false (bucket
// versioning_status == unset), the store behaves as a flat map: any prior
// version(s) for key are discarded first, so the key ends up with exactly
// one entry, satisfying the §8 invariant
// "∀ bucket with versioning unset: every key has exactly one version".
// When versioned is true, v is prepended as the new current version and the
// previous current (if any) is demoted.
func (s *VersionedKeyStore) Put(key string, v Version, versioned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.setCurrent(true)
	if !versioned {
		s.data[key] = []Version{v}
		return
	}
	existing := s.data[key]
	for _, old := range existing {
		old.setCurrent(false)
	}
	s.data[key] = append([]Version{v}, existing...)
}

// Get returns the current version for key.
func (s *VersionedKeyStore) Get(key string) (Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.data[key]
	if len(versions) == 0 {
		return nil, false
	}
	return versions[0], true
}

// GetVersion returns the named version of key, current or not.
func (s *VersionedKeyStore) GetVersion(key, versionID string) (Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.data[key] {
		if v.VersionID() == versionID {
			return v, true
		}
	}
	return nil, false
}

// Pop removes every version of key and returns what was removed, for the
// caller to release the corresponding ContentStore bytes.
func (s *VersionedKeyStore) Pop(key string) []Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.data[key]
	delete(s.data, key)
	return removed
}

// PopVersion removes one named version of key. If it was the current
// version, the next-newest remaining version (if any) is promoted to
// current, per §3's pop(key, version_id) contract.
func (s *VersionedKeyStore) PopVersion(key, versionID string) (Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.data[key]
	idx := -1
	for i, v := range versions {
		if v.VersionID() == versionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, false
	}
	removed := versions[idx]
	wasCurrent := removed.IsCurrent()
	versions = append(versions[:idx], versions[idx+1:]...)
	if len(versions) == 0 {
		delete(s.data, key)
	} else {
		if wasCurrent {
			versions[0].setCurrent(true)
		}
		s.data[key] = versions
	}
	return removed, true
}

// Keys returns every key with at least one version, lexicographic ascending.
func (s *VersionedKeyStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k, versions := range s.data {
		if len(versions) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether no key has any version at all (§4.2).
func (s *VersionedKeyStore) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, versions := range s.data {
		if len(versions) > 0 {
			return false
		}
	}
	return true
}

// Values returns one entry per key: its current version, key-ascending.
func (s *VersionedKeyStore) Values() []Version {
	return s.values(false)
}

// ValuesWithVersions returns every live version and delete marker,
// key-ascending, and within a key last-modified descending with ties
// broken by version_id lexicographic descending (§4.2).
func (s *VersionedKeyStore) ValuesWithVersions() []Version {
	return s.values(true)
}

func (s *VersionedKeyStore) values(withVersions bool) []Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Version
	for _, k := range keys {
		versions := s.data[k]
		if len(versions) == 0 {
			continue
		}
		if !withVersions {
			out = append(out, versions[0])
			continue
		}
		ordered := append([]Version(nil), versions...)
		sort.SliceStable(ordered, func(i, j int) bool {
			mi, mj := ordered[i].LastModified(), ordered[j].LastModified()
			if !mi.Equal(mj) {
				return mi.After(mj)
			}
			return ordered[i].VersionID() > ordered[j].VersionID()
		})
		out = append(out, ordered...)
	}
	return out
}

// versionWire is VersionedKeyStore's persisted shape for one Version:
// Kind discriminates Object from DeleteMarker so Unmarshal can reconstruct
// the right concrete type, per §9's "never merged into one record"
// requirement surviving the round trip through flush/load (§6).
type versionWire struct {
	Kind         string        `json:"kind"`
	Object       *Object       `json:"object,omitempty"`
	DeleteMarker *DeleteMarker `json:"delete_marker,omitempty"`
}

// MarshalJSON implements §6's persisted-state round-trip for the version
// index. Built on encoding/json rather than the module's usual
// json-iterator, since this is a handful of bytes encoded once per flush,
// not a hot request-serving path, and implementing json.Marshaler this way
// lets jsoniter's ConfigCompatibleWithStandardLibrary (used by the caller)
// invoke it transparently.
func (s *VersionedKeyStore) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]versionWire, len(s.data))
	for k, versions := range s.data {
		wire := make([]versionWire, 0, len(versions))
		for _, v := range versions {
			switch o := v.(type) {
			case *Object:
				wire = append(wire, versionWire{Kind: "object", Object: o})
			case *DeleteMarker:
				wire = append(wire, versionWire{Kind: "delete_marker", DeleteMarker: o})
			default:
				return nil, fmt.Errorf("objstore: unknown Version implementation %T", v)
			}
		}
		out[k] = wire
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON, restoring each key's version history
// and current-version flags.
func (s *VersionedKeyStore) UnmarshalJSON(b []byte) error {
	var in map[string][]versionWire
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]Version, len(in))
	for k, wire := range in {
		versions := make([]Version, 0, len(wire))
		for _, w := range wire {
			switch w.Kind {
			case "object":
				versions = append(versions, w.Object)
			case "delete_marker":
				versions = append(versions, w.DeleteMarker)
			default:
				return fmt.Errorf("objstore: unknown persisted version kind %q", w.Kind)
			}
		}
		s.data[k] = versions
	}
	return nil
}

// MigrateToVersioned implements §3's transition rule: "on transition to
// Enabled all existing objects migrate with version_id = null". It is a
// no-op for keys that already carry a version id (e.g. a bucket that went
// Enabled -> Suspended -> Enabled again).
func (s *VersionedKeyStore) MigrateToVersioned() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, versions := range s.data {
		for _, v := range versions {
			switch o := v.(type) {
			case *Object:
				if o.Version == "" {
					o.Version = "null"
				}
			case *DeleteMarker:
				if o.Version == "" {
					o.Version = "null"
				}
			}
		}
	}
}
