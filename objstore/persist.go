package objstore

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/cristiangiann/localstack/lifecycle"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// StateVisitor is the §6 persistence collaborator: something that wants to
// enumerate every store and its bucket set, e.g. to mirror the asset
// directory layout alongside the index snapshot.
type StateVisitor interface {
	VisitStore(accountID, region string, buckets []*Bucket)
}

// snapshot is the on-disk shape for one Stores value; only the index
// metadata is persisted here; object bytes already live in ContentStore's
// own directory tree and round-trip by virtue of never moving.
type snapshot struct {
	Stores []storeSnapshot `json:"stores"`
}

type storeSnapshot struct {
	AccountID       string                       `json:"account_id"`
	Region          string                       `json:"region"`
	Buckets         []*Bucket                    `json:"buckets"`
	Tags            map[string]map[string]string `json:"tags"`
	ManagedKMSKeyID string                       `json:"managed_kms_key_id,omitempty"`
}

// Flush writes the full index (every Store's buckets, objects, versions,
// multiparts and tags) to path as JSON, satisfying §6's "write pending
// ContentStore bytes to disk" contract for the index half of persisted
// state (object bytes are already durable as soon as ContentStore commits
// them).
func (s *Stores) Flush(path string) error {
	s.mu.RLock()
	snap := snapshot{Stores: make([]storeSnapshot, 0, len(s.stores))}
	for key, st := range s.stores {
		accountID, region := splitStoreKey(key)
		snap.Stores = append(snap.Stores, storeSnapshot{
			AccountID:       accountID,
			Region:          region,
			Buckets:         st.Buckets(),
			Tags:            st.Tags(),
			ManagedKMSKeyID: st.RawManagedKMSKeyID(),
		})
	}
	s.mu.RUnlock()

	b, err := jsonCodec.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reverses Flush, replacing s's entire contents with what path holds.
// Callers should call InvalidateCaches afterward (§6), which main.go's
// bootstrap does immediately after Load.
func (s *Stores) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap snapshot
	if err := jsonCodec.Unmarshal(b, &snap); err != nil {
		return err
	}

	s.mu.Lock()
	s.stores = make(map[string]*Store, len(snap.Stores))
	s.globalBucketMap = make(map[string]string)
	s.mu.Unlock()

	for _, ss := range snap.Stores {
		st := s.ForAccount(ss.AccountID, ss.Region)
		st.RestoreTags(ss.Tags)
		st.RestoreManagedKMSKeyID(ss.ManagedKMSKeyID)
		for _, bkt := range ss.Buckets {
			if bkt.Expiration == nil {
				bkt.Expiration = lifecycle.New()
			}
			st.RestoreBucket(bkt)
			s.mu.Lock()
			s.globalBucketMap[bkt.Name] = ss.AccountID
			s.mu.Unlock()
		}
	}
	return nil
}

// AcceptStateVisitor calls v.VisitStore once per (account, region) store,
// per §6's accept_state_visitor(v) contract.
func (s *Stores) AcceptStateVisitor(v StateVisitor) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, st := range s.stores {
		accountID, region := splitStoreKey(key)
		v.VisitStore(accountID, region, st.Buckets())
	}
}

// InvalidateCaches clears every bucket's Expiration cache, called after a
// state reload so a stale lifecycle rule from before the reload can never
// answer a post-reload lookup (§6).
func (s *Stores) InvalidateCaches() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.stores {
		for _, b := range st.Buckets() {
			b.Expiration.Invalidate()
		}
	}
}

func splitStoreKey(key string) (accountID, region string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
