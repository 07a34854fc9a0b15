package objstore

import (
	"regexp"
	"sync"

	"github.com/cristiangiann/localstack/s3err"
)

// Store is the per-(account, region) process-wide state of §3: every bucket
// owned by that account in that region, plus the bucket-ARN/object tag
// table and the lazily-created region-scoped AWS-managed KMS key id.
type Store struct {
	mu sync.RWMutex

	AccountID string
	Region    string

	buckets map[string]*Bucket
	// tags maps a resource identifier (bucket ARN or "bucket/key/version-id")
	// to its tag set, per §3.
	tags map[string]map[string]string

	managedKMSKeyID string
}

func newStore(accountID, region string) *Store {
	return &Store{
		AccountID: accountID,
		Region:    region,
		buckets:   make(map[string]*Bucket),
		tags:      make(map[string]map[string]string),
	}
}

func (s *Store) bucket(name string) (*Bucket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[name]
	return b, ok
}

func (s *Store) put(b *Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[b.Name] = b
}

func (s *Store) delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, name)
}

func (s *Store) Buckets() []*Bucket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Bucket, 0, len(s.buckets))
	for _, b := range s.buckets {
		out = append(out, b)
	}
	return out
}

// TagResource stores the tag set for a resource identifier (§6 TagTable
// boundary is implemented directly here since tags live in Store per §3,
// rather than behind an external collaborator, for the bucket-ARN/object
// tag table the core itself owns).
func (s *Store) TagResource(resourceID string, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tags) == 0 {
		delete(s.tags, resourceID)
		return
	}
	s.tags[resourceID] = tags
}

func (s *Store) ListTags(resourceID string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tags[resourceID]
}

func (s *Store) PopTags(resourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tags, resourceID)
}

// Tags returns a snapshot copy of every resource's tag set, for Flush.
func (s *Store) Tags() map[string]map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]string, len(s.tags))
	for k, v := range s.tags {
		out[k] = v
	}
	return out
}

// RestoreTags replaces the tag table wholesale, for Load.
func (s *Store) RestoreTags(tags map[string]map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tags == nil {
		tags = make(map[string]map[string]string)
	}
	s.tags = tags
}

// RawManagedKMSKeyID returns the already-minted key id, if any, without
// lazily creating one (unlike ManagedKMSKeyID), for Flush.
func (s *Store) RawManagedKMSKeyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.managedKMSKeyID
}

// RestoreManagedKMSKeyID sets the already-minted key id directly, for Load.
func (s *Store) RestoreManagedKMSKeyID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managedKMSKeyID = id
}

// RestoreBucket installs a bucket record directly, bypassing CreateBucket's
// collision rules, for Load.
func (s *Store) RestoreBucket(b *Bucket) { s.put(b) }

// ManagedKMSKeyID lazily creates this region's AWS-managed KMS key id
// sentinel (§3 aws_managed_kms_key_id), via the supplied facade's
// CreateManagedKey the first time it is needed.
func (s *Store) ManagedKMSKeyID(create func() string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.managedKMSKeyID == "" {
		s.managedKMSKeyID = create()
	}
	return s.managedKMSKeyID
}

// Stores is the top-level process-wide value (§9 "a single Stores value
// threaded through all entry points"): a (account, region) -> Store map plus
// the cross-account global bucket name map (§3/§4.7).
type Stores struct {
	mu     sync.RWMutex
	stores map[string]*Store // key: accountID+"/"+region
	// globalBucketMap tracks bucket-name -> owning account, enforcing that
	// bucket names are globally unique across accounts (§3).
	globalBucketMap map[string]string
}

// NewStores constructs empty process-wide state. Call Init at process start
// per §9; this constructor is the in-memory allocation step.
func NewStores() *Stores {
	return &Stores{
		stores:          make(map[string]*Store),
		globalBucketMap: make(map[string]string),
	}
}

func storeKey(accountID, region string) string { return accountID + "/" + region }

// ForAccount returns (creating if necessary) the Store for (accountID,
// region).
func (s *Stores) ForAccount(accountID, region string) *Store {
	key := storeKey(accountID, region)
	s.mu.RLock()
	st, ok := s.stores[key]
	s.mu.RUnlock()
	if ok {
		return st
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.stores[key]; ok {
		return st
	}
	st = newStore(accountID, region)
	s.stores[key] = st
	return st
}

// CreateBucket registers a brand-new bucket for (accountID, region),
// enforcing the cross-account name-collision rules of §7:
//   - another account already owns the name -> BucketAlreadyExists
//   - same account, region != us-east-1       -> BucketAlreadyOwnedByYou
//   - same account, region == us-east-1        -> idempotent success
func (s *Stores) CreateBucket(accountID, region, name string) (*Bucket, error) {
	s.mu.Lock()
	owner, exists := s.globalBucketMap[name]
	if exists && owner != accountID {
		s.mu.Unlock()
		return nil, s3err.NewBucketAlreadyExists(name)
	}
	s.mu.Unlock()

	store := s.ForAccount(accountID, region)
	if exists && owner == accountID {
		if existing, ok := store.bucket(name); ok {
			if region == "us-east-1" {
				return existing, nil
			}
			return nil, s3err.NewBucketAlreadyOwnedByYou(name)
		}
	}

	b := NewBucket(name, accountID, region, accountID)
	store.put(b)

	s.mu.Lock()
	s.globalBucketMap[name] = accountID
	s.mu.Unlock()
	return b, nil
}

// DeleteBucket removes bucket name from both the owning Store and the
// global bucket map. Callers must have already verified the bucket is
// empty (§7 BucketNotEmpty).
func (s *Stores) DeleteBucket(accountID, region, name string) {
	s.ForAccount(accountID, region).delete(name)
	s.mu.Lock()
	delete(s.globalBucketMap, name)
	s.mu.Unlock()
}

var accountIDPattern = regexp.MustCompile(`^\w{12}$`)

// Resolve implements §4.7's cross-account bucket resolution.
func (s *Stores) Resolve(accountID, region, bucket, expectedOwner string) (*Store, *Bucket, error) {
	if expectedOwner != "" && !accountIDPattern.MatchString(expectedOwner) {
		return nil, nil, s3err.InvalidBucketOwnerAWSAccountID
	}

	store := s.ForAccount(accountID, region)
	if b, ok := store.bucket(bucket); ok {
		if err := checkOwner(b, expectedOwner); err != nil {
			return nil, nil, err
		}
		return store, b, nil
	}

	s.mu.RLock()
	owner, ok := s.globalBucketMap[bucket]
	s.mu.RUnlock()
	if ok {
		ownerStore := s.ForAccount(owner, region)
		if b, ok := ownerStore.bucket(bucket); ok {
			if err := checkOwner(b, expectedOwner); err != nil {
				return nil, nil, err
			}
			return ownerStore, b, nil
		}
	}
	return nil, nil, s3err.NewNoSuchBucket(bucket)
}

func checkOwner(b *Bucket, expectedOwner string) error {
	if expectedOwner != "" && expectedOwner != b.AccountID {
		return s3err.NewAccessDenied("bucket owner does not match expected owner")
	}
	return nil
}
