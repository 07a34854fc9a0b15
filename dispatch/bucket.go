package dispatch

import (
	"github.com/cristiangiann/localstack/lifecycle"
	"github.com/cristiangiann/localstack/notify"
	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/s3err"
)

// CreateBucket wraps Stores.CreateBucket with the physical namespace
// creation ContentStore needs alongside the index record (§4.1/§4.7).
func (d *Dispatcher) createBucket(caller Caller, name string) (*objstore.Bucket, error) {
	if name == "" {
		return nil, s3err.NewInvalidBucketName(name)
	}
	b, err := d.Stores.CreateBucket(caller.AccountID, caller.Region, name)
	if err != nil {
		return nil, err
	}
	if err := d.Content.CreateBucket(name); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBucket wraps Stores.DeleteBucket, rejecting non-empty buckets
// (§7 BucketNotEmpty) before removing the physical namespace.
func (d *Dispatcher) deleteBucket(caller Caller, name, expectedOwner string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.RLock()
	empty := bucket.Objects.IsEmpty()
	bucket.RUnlock()
	if !empty {
		return s3err.NewBucketNotEmpty(name)
	}
	d.Stores.DeleteBucket(bucket.AccountID, bucket.Region, name)
	return d.Content.DeleteBucket(name)
}

// HeadBucket resolves a bucket purely for existence/ownership checking.
func (d *Dispatcher) HeadBucket(caller Caller, name, expectedOwner string) (*objstore.Bucket, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	return bucket, err
}

// PutBucketVersioning wraps Bucket.SetVersioning.
func (d *Dispatcher) PutBucketVersioning(caller Caller, name, expectedOwner string, status objstore.VersioningStatus) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.SetVersioning(status)
	return nil
}

// GetBucketVersioning returns the bucket's current versioning status.
func (d *Dispatcher) GetBucketVersioning(caller Caller, name, expectedOwner string) (objstore.VersioningStatus, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	return bucket.Versioning, nil
}

// PutBucketLifecycleConfiguration wraps Bucket.SetLifecycle.
func (d *Dispatcher) PutBucketLifecycleConfiguration(caller Caller, name, expectedOwner string, raw []objstore.LifecycleRule, rules []lifecycle.Rule) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.SetLifecycle(raw, rules)
	return nil
}

// GetBucketLifecycleConfiguration returns the bucket's lifecycle rules, or
// NoSuchLifecycleConfiguration when none is set (§7).
func (d *Dispatcher) GetBucketLifecycleConfiguration(caller Caller, name, expectedOwner string) ([]objstore.LifecycleRule, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if len(bucket.Lifecycle) == 0 {
		return nil, s3err.NoSuchLifecycleConfiguration
	}
	return bucket.Lifecycle, nil
}

// DeleteBucketLifecycle wraps Bucket.ClearLifecycle.
func (d *Dispatcher) DeleteBucketLifecycle(caller Caller, name, expectedOwner string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.ClearLifecycle()
	return nil
}

// PutBucketEncryption sets the bucket's default server-side-encryption rule.
func (d *Dispatcher) PutBucketEncryption(caller Caller, name, expectedOwner string, rule objstore.EncryptionRule) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Encryption = rule
	bucket.Unlock()
	return nil
}

// GetBucketEncryption returns the bucket's current encryption rule.
func (d *Dispatcher) GetBucketEncryption(caller Caller, name, expectedOwner string) (objstore.EncryptionRule, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return objstore.EncryptionRule{}, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	return bucket.Encryption, nil
}

// PutBucketPolicy stores the raw JSON policy document.
func (d *Dispatcher) PutBucketPolicy(caller Caller, name, expectedOwner, policy string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Policy = policy
	bucket.Unlock()
	return nil
}

// GetBucketPolicy returns the raw policy document, or NoSuchBucketPolicy.
func (d *Dispatcher) GetBucketPolicy(caller Caller, name, expectedOwner string) (string, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if bucket.Policy == "" {
		return "", s3err.NoSuchBucketPolicy
	}
	return bucket.Policy, nil
}

// DeleteBucketPolicy clears the policy document.
func (d *Dispatcher) DeleteBucketPolicy(caller Caller, name, expectedOwner string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Policy = ""
	bucket.Unlock()
	return nil
}

// PutBucketCors sets the bucket's CORS rule set.
func (d *Dispatcher) PutBucketCors(caller Caller, name, expectedOwner string, rules []objstore.CORSRule) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.CORS = rules
	bucket.Unlock()
	return nil
}

// GetBucketCors returns the bucket's CORS rules, or NoSuchCORSConfiguration.
func (d *Dispatcher) GetBucketCors(caller Caller, name, expectedOwner string) ([]objstore.CORSRule, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if len(bucket.CORS) == 0 {
		return nil, s3err.NoSuchCORSConfiguration
	}
	return bucket.CORS, nil
}

// DeleteBucketCors clears the CORS configuration.
func (d *Dispatcher) DeleteBucketCors(caller Caller, name, expectedOwner string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.CORS = nil
	bucket.Unlock()
	return nil
}

// PutBucketWebsite sets the bucket's static-website configuration.
func (d *Dispatcher) PutBucketWebsite(caller Caller, name, expectedOwner string, cfg objstore.WebsiteConfig) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Website = &cfg
	bucket.Unlock()
	return nil
}

// GetBucketWebsite returns the website configuration, or
// NoSuchWebsiteConfiguration.
func (d *Dispatcher) GetBucketWebsite(caller Caller, name, expectedOwner string) (objstore.WebsiteConfig, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if bucket.Website == nil {
		return nil, s3err.NoSuchWebsiteConfiguration
	}
	return *bucket.Website, nil
}

// DeleteBucketWebsite clears the website configuration.
func (d *Dispatcher) DeleteBucketWebsite(caller Caller, name, expectedOwner string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Website = nil
	bucket.Unlock()
	return nil
}

// PutBucketNotificationConfiguration sets the event-notification targets a
// PutObject/DeleteObject/CompleteMultipartUpload sendEvent call reads.
func (d *Dispatcher) PutBucketNotificationConfiguration(caller Caller, name, expectedOwner string, cfg objstore.NotificationConfig) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	if err := d.Notify.Verify(notify.Config(cfg), false, name); err != nil {
		return err
	}
	bucket.Lock()
	bucket.Notification = cfg
	bucket.Unlock()
	return nil
}

// GetBucketNotificationConfiguration returns the current configuration
// (empty, never NotFound: an un-configured bucket has an empty config per
// the Service's actual behavior).
func (d *Dispatcher) GetBucketNotificationConfiguration(caller Caller, name, expectedOwner string) (objstore.NotificationConfig, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	return bucket.Notification, nil
}

// PutBucketReplication sets the replication configuration.
func (d *Dispatcher) PutBucketReplication(caller Caller, name, expectedOwner string, cfg objstore.ReplicationConfig) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Replication = &cfg
	bucket.Unlock()
	return nil
}

// GetBucketReplication returns the replication configuration, or
// ReplicationConfigurationNotFoundError.
func (d *Dispatcher) GetBucketReplication(caller Caller, name, expectedOwner string) (objstore.ReplicationConfig, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if bucket.Replication == nil {
		return nil, s3err.ReplicationConfigurationNotFound
	}
	return *bucket.Replication, nil
}

// DeleteBucketReplication clears the replication configuration.
func (d *Dispatcher) DeleteBucketReplication(caller Caller, name, expectedOwner string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Replication = nil
	bucket.Unlock()
	return nil
}

// PutBucketAccelerateConfiguration sets the transfer-acceleration status
// echo (§1 Non-goals excludes actually accelerating anything).
func (d *Dispatcher) PutBucketAccelerateConfiguration(caller Caller, name, expectedOwner, status string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.AccelerateStatus = status
	bucket.Unlock()
	return nil
}

// GetBucketAccelerateConfiguration returns the current status echo.
func (d *Dispatcher) GetBucketAccelerateConfiguration(caller Caller, name, expectedOwner string) (string, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	return bucket.AccelerateStatus, nil
}

// PutBucketLogging sets the server-access-logging configuration.
func (d *Dispatcher) PutBucketLogging(caller Caller, name, expectedOwner string, cfg objstore.LoggingConfig) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Logging = &cfg
	bucket.Unlock()
	return nil
}

// GetBucketLogging returns the logging configuration (empty when unset,
// matching the Service's actual "always 200, possibly empty body" behavior).
func (d *Dispatcher) GetBucketLogging(caller Caller, name, expectedOwner string) (objstore.LoggingConfig, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if bucket.Logging == nil {
		return nil, nil
	}
	return *bucket.Logging, nil
}

// PutPublicAccessBlock sets the bucket's public-access-block configuration.
func (d *Dispatcher) PutPublicAccessBlock(caller Caller, name, expectedOwner string, cfg objstore.PublicAccessBlock) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.PublicAccess = &cfg
	bucket.Unlock()
	return nil
}

// GetPublicAccessBlock returns it, or PublicAccessBlockNotFound.
func (d *Dispatcher) GetPublicAccessBlock(caller Caller, name, expectedOwner string) (objstore.PublicAccessBlock, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if bucket.PublicAccess == nil {
		return nil, s3err.PublicAccessBlockNotFound
	}
	return *bucket.PublicAccess, nil
}

// DeletePublicAccessBlock clears it.
func (d *Dispatcher) DeletePublicAccessBlock(caller Caller, name, expectedOwner string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.PublicAccess = nil
	bucket.Unlock()
	return nil
}

// PutBucketOwnershipControls sets the bucket's object-ownership mode.
func (d *Dispatcher) PutBucketOwnershipControls(caller Caller, name, expectedOwner string, ownership objstore.ObjectOwnership) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.ObjectOwnership = ownership
	bucket.Unlock()
	return nil
}

// GetBucketOwnershipControls returns it, or OwnershipControlsNotFound.
func (d *Dispatcher) GetBucketOwnershipControls(caller Caller, name, expectedOwner string) (objstore.ObjectOwnership, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if bucket.ObjectOwnership == "" {
		return "", s3err.OwnershipControlsNotFound
	}
	return bucket.ObjectOwnership, nil
}

// PutObjectLockConfiguration enables object lock and sets its default
// retention, only legal at bucket-creation time per the Service, but the
// core doesn't enforce that timing restriction (§1 Non-goals).
func (d *Dispatcher) PutObjectLockConfiguration(caller Caller, name, expectedOwner string, enabled bool, def *objstore.DefaultRetention) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.ObjectLockEnabled = enabled
	bucket.DefaultRetention = def
	bucket.Unlock()
	return nil
}

// GetObjectLockConfiguration returns it, or ObjectLockConfigurationNotFound.
func (d *Dispatcher) GetObjectLockConfiguration(caller Caller, name, expectedOwner string) (bool, *objstore.DefaultRetention, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return false, nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if !bucket.ObjectLockEnabled {
		return false, nil, s3err.ObjectLockConfigurationNotFound
	}
	return true, bucket.DefaultRetention, nil
}

// PutBucketAnalyticsConfiguration / PutBucketIntelligentTieringConfiguration /
// PutBucketInventoryConfiguration are id-keyed sub-resource collections
// (§SUPPLEMENT): multiple named configurations coexist per bucket.
func (d *Dispatcher) PutBucketAnalyticsConfiguration(caller Caller, name, expectedOwner, id string, cfg objstore.AnalyticsConfig) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	if bucket.Analytics == nil {
		bucket.Analytics = make(map[string]objstore.AnalyticsConfig)
	}
	bucket.Analytics[id] = cfg
	bucket.Unlock()
	return nil
}

func (d *Dispatcher) PutBucketIntelligentTieringConfiguration(caller Caller, name, expectedOwner, id string, cfg objstore.IntelligentTierConfig) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	if bucket.IntelligentTiering == nil {
		bucket.IntelligentTiering = make(map[string]objstore.IntelligentTierConfig)
	}
	bucket.IntelligentTiering[id] = cfg
	bucket.Unlock()
	return nil
}

func (d *Dispatcher) PutBucketInventoryConfiguration(caller Caller, name, expectedOwner, id string, cfg objstore.InventoryConfig) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	if bucket.Inventory == nil {
		bucket.Inventory = make(map[string]objstore.InventoryConfig)
	}
	bucket.Inventory[id] = cfg
	bucket.Unlock()
	return nil
}

// PutBucketTagging / GetBucketTagging / DeleteBucketTagging manage a
// bucket's own tag set, distinct from per-object tagging (§3).
func (d *Dispatcher) PutBucketTagging(caller Caller, name, expectedOwner string, tags map[string]string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Tagging = tags
	bucket.Unlock()
	return nil
}

func (d *Dispatcher) GetBucketTagging(caller Caller, name, expectedOwner string) (map[string]string, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	if len(bucket.Tagging) == 0 {
		return nil, s3err.NoSuchTagSet
	}
	return bucket.Tagging, nil
}

func (d *Dispatcher) DeleteBucketTagging(caller Caller, name, expectedOwner string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.Tagging = nil
	bucket.Unlock()
	return nil
}

// PutObjectTagging / GetObjectTagging / DeleteObjectTagging manage an
// object version's tag set via the Store-level tag table (§3).
func (d *Dispatcher) PutObjectTagging(caller Caller, name, expectedOwner, key, versionID string, tags map[string]string) error {
	store, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return s3err.NewNoSuchKey(name, key)
	}
	tagKey := name + "/" + key + "/" + v.VersionID()
	store.TagResource(tagKey, tags)
	return nil
}

func (d *Dispatcher) GetObjectTagging(caller Caller, name, expectedOwner, key, versionID string) (map[string]string, error) {
	store, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return nil, s3err.NewNoSuchKey(name, key)
	}
	tagKey := name + "/" + key + "/" + v.VersionID()
	return store.ListTags(tagKey), nil
}

func (d *Dispatcher) DeleteObjectTagging(caller Caller, name, expectedOwner, key, versionID string) error {
	store, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return s3err.NewNoSuchKey(name, key)
	}
	tagKey := name + "/" + key + "/" + v.VersionID()
	store.PopTags(tagKey)
	return nil
}

func resolveVersion(bucket *objstore.Bucket, key, versionID string) (objstore.Version, bool) {
	if versionID != "" {
		return bucket.Objects.GetVersion(key, versionID)
	}
	return bucket.Objects.Get(key)
}
