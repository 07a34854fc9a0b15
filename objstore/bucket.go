package objstore

import (
	"sync"
	"time"

	"github.com/cristiangiann/localstack/lifecycle"
)

// VersioningStatus is the §3 Bucket.versioning_status enum.
type VersioningStatus string

const (
	VersioningUnset     VersioningStatus = ""
	VersioningEnabled   VersioningStatus = "Enabled"
	VersioningSuspended VersioningStatus = "Suspended"
)

// Versioned reports whether new writes should receive a freshly generated
// version id and accumulate history (true only for Enabled; both Unset and
// Suspended behave as a flat map per VersionedKeyStore.Put's `versioned`
// argument, though Suspended stamps "null" rather than leaving it empty).
func (v VersioningStatus) Versioned() bool { return v == VersioningEnabled }

// DefaultRetention is the bucket-level object-lock default (§3).
type DefaultRetention struct {
	Mode  LockMode
	Days  int
	Years int
}

// EncryptionRule mirrors §3's encryption_rule, defaulting to the AES256
// sentinel AWS itself assumes absent any PutBucketEncryption call.
type EncryptionRule struct {
	SSEAlgorithm   string // "AES256" or "aws:kms"
	KMSMasterKeyID string
	BucketKeyEnabled bool
}

var DefaultEncryptionRule = EncryptionRule{SSEAlgorithm: "AES256"}

// CORSRule, LifecycleRule, NotificationConfig, WebsiteConfig and the other
// bucket sub-resources are intentionally opaque JSON-ish bags: §1's
// Non-goals exclude CORS-preflight evaluation, access-control enforcement,
// and storage-tier transition, so the core only needs to store and return
// whatever was last written for each (§SUPPLEMENT bucket sub-resource CRUD).
type (
	CORSRule           map[string]any
	LifecycleRule       map[string]any
	NotificationConfig  map[string]any
	WebsiteConfig       map[string]any
	ReplicationConfig   map[string]any
	LoggingConfig       map[string]any
	PublicAccessBlock   map[string]any
	AnalyticsConfig     map[string]any
	IntelligentTierConfig map[string]any
	InventoryConfig     map[string]any
)

// ObjectOwnership mirrors the bucket-level S3 Object Ownership setting.
type ObjectOwnership string

const (
	OwnershipBucketOwnerEnforced ObjectOwnership = "BucketOwnerEnforced"
	OwnershipBucketOwnerPreferred ObjectOwnership = "BucketOwnerPreferred"
	OwnershipObjectWriter         ObjectOwnership = "ObjectWriter"
)

// Bucket is the §3 record. All sub-resource fields default to their
// zero/unset value, returned as "not configured" (a typed NoSuch* error,
// see s3err) until explicitly set by the corresponding Put operation.
type Bucket struct {
	mu sync.RWMutex

	Name      string
	AccountID string
	Region    string
	Created   time.Time
	Owner     string
	ACL       string

	ObjectOwnership ObjectOwnership
	Versioning      VersioningStatus

	ObjectLockEnabled     bool
	DefaultRetention      *DefaultRetention

	Encryption EncryptionRule

	CORS      []CORSRule
	Lifecycle []LifecycleRule
	// ExpirationRules is Lifecycle's fields re-shaped for lifecycle.Header;
	// kept alongside the opaque echo since rendering x-amz-expiration needs
	// typed prefix/days/date fields, not an any-bag.
	ExpirationRules []lifecycle.Rule
	// TransitionDefaultMinimumObjectSize mirrors the bucket-level lifecycle
	// knob gating small-object transitions; state-only (§1 Non-goals).
	TransitionDefaultMinimumObjectSize string

	Notification NotificationConfig
	Website      *WebsiteConfig
	Policy       string // raw JSON

	AccelerateStatus string
	Logging          *LoggingConfig
	Replication      *ReplicationConfig
	PublicAccess     *PublicAccessBlock
	Payer            string

	Analytics          map[string]AnalyticsConfig
	IntelligentTiering map[string]IntelligentTierConfig
	Inventory          map[string]InventoryConfig

	Tagging map[string]string

	Objects    *VersionedKeyStore
	Multiparts map[string]*Multipart

	// Expiration is a cache, not persisted state (§5); reconstructed fresh
	// by NewBucket and by Load, never round-tripped through JSON.
	Expiration *lifecycle.Cache `json:"-"`
}

// NewBucket constructs an empty bucket record with sane defaults mirroring
// what a fresh CreateBucket produces upstream.
func NewBucket(name, accountID, region, owner string) *Bucket {
	return &Bucket{
		Name:            name,
		AccountID:       accountID,
		Region:          region,
		Created:         time.Now().UTC(),
		Owner:           owner,
		ACL:             "private",
		ObjectOwnership: OwnershipBucketOwnerEnforced,
		Encryption:      DefaultEncryptionRule,
		Payer:           "BucketOwner",
		Objects:         NewVersionedKeyStore(),
		Multiparts:      make(map[string]*Multipart),
		Expiration:      lifecycle.New(),
	}
}

// Lock/Unlock/RLock/RUnlock implement cmn.NLP-style bucket-level mutual
// exclusion for sub-resource mutations (versioning, lifecycle, encryption,
// ...), which per §5 "are not coordinated with ongoing per-object writes"
// but must still be atomic with respect to each other.
func (b *Bucket) Lock()    { b.mu.Lock() }
func (b *Bucket) Unlock()  { b.mu.Unlock() }
func (b *Bucket) RLock()   { b.mu.RLock() }
func (b *Bucket) RUnlock() { b.mu.RUnlock() }

// SetVersioning applies a PutBucketVersioning transition, migrating
// existing flat-mapped objects to "null" version ids the first time the
// bucket goes Enabled (§3).
func (b *Bucket) SetVersioning(status VersioningStatus) {
	b.Lock()
	defer b.Unlock()
	wasUnset := b.Versioning == VersioningUnset
	b.Versioning = status
	if wasUnset && status == VersioningEnabled {
		b.Objects.MigrateToVersioned()
	}
}

// SetLifecycle applies a PutBucketLifecycleConfiguration, storing both the
// opaque echo and the typed rules lifecycle.Header renders from, and
// invalidates the bucket's Expiration cache (§5).
func (b *Bucket) SetLifecycle(raw []LifecycleRule, rules []lifecycle.Rule) {
	b.Lock()
	b.Lifecycle = raw
	b.ExpirationRules = rules
	b.Unlock()
	b.Expiration.Invalidate()
}

// ClearLifecycle implements DeleteBucketLifecycle, also invalidating the
// Expiration cache (§5).
func (b *Bucket) ClearLifecycle() {
	b.Lock()
	b.Lifecycle = nil
	b.ExpirationRules = nil
	b.Unlock()
	b.Expiration.Invalidate()
}

// ExpirationFor returns the x-amz-expiration header value for key, consulting
// the Expiration cache first and populating it on a miss (§5 "populated
// lazily on GET/HEAD/PUT responses").
func (b *Bucket) ExpirationFor(key string) string {
	if v, ok := b.Expiration.Get(key); ok {
		return v
	}
	b.RLock()
	rules := b.ExpirationRules
	b.RUnlock()
	v := lifecycle.Header(key, rules)
	b.Expiration.Put(key, v)
	return v
}

// GetMultipart returns the in-progress upload, keyed by (key, uploadID) per
// §4.4; the key must match or the upload is treated as not found (mirrors
// CompleteMultipartUpload/UploadPart's "NoSuchUpload ... or mismatching
// key", §7).
func (b *Bucket) GetMultipart(key, uploadID string) (*Multipart, bool) {
	b.RLock()
	defer b.RUnlock()
	m, ok := b.Multiparts[uploadID]
	if !ok || m.Key != key {
		return nil, false
	}
	return m, true
}
