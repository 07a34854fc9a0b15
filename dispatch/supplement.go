// Supplement operations (§SUPPLEMENT): thin Dispatcher operations the
// distillation dropped but that are pure bookkeeping on the existing Bucket
// model, consistent with §1's Non-goals (no byte encryption, no tier
// transition, no ACL enforcement).
package dispatch

import (
	"net/http"
	"time"

	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/s3err"
)

// GetBucketLocation returns the region a bucket was created in (§4.7/§8
// scenario 6's Location echo draws on the same field).
func (d *Dispatcher) GetBucketLocation(caller Caller, name, expectedOwner string) (string, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", err
	}
	return bucket.Region, nil
}

// ObjectAttributes is the subset of Object fields GetObjectAttributes
// returns without opening a ContentStore reader.
type ObjectAttributes struct {
	ETag              string
	ChecksumAlgorithm string
	ChecksumValue     string
	ObjectSize        int64
	StorageClass      string
	PartsCount        int
	Parts             []objstore.PartRange
	VersionID         string
}

// GetObjectAttributes answers the §SUPPLEMENT operation directly against the
// VersionedKeyStore, never touching ContentStore bytes.
func (d *Dispatcher) GetObjectAttributes(caller Caller, name, expectedOwner, key, versionID string) (*ObjectAttributes, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return nil, err
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return nil, s3err.NewNoSuchKey(name, key)
	}
	if v.IsDeleteMarker() {
		return nil, s3err.NewMethodNotAllowed(name + "/" + key)
	}
	obj := v.(*objstore.Object)
	return &ObjectAttributes{
		ETag:              obj.ETag,
		ChecksumAlgorithm: string(obj.ChecksumAlgorithm),
		ChecksumValue:     obj.ChecksumValue,
		ObjectSize:        obj.Size,
		StorageClass:      obj.StorageClass,
		PartsCount:        len(obj.Parts),
		Parts:             obj.Parts,
		VersionID:         obj.Version,
	}, nil
}

// RestoreObject implements the state-only restore marker (§SUPPLEMENT,
// §1 Non-goals: no actual tier transition). Only archived storage classes
// accept a restore request.
func (d *Dispatcher) RestoreObject(caller Caller, name, expectedOwner, key, versionID string, days int) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return s3err.NewNoSuchKey(name, key)
	}
	if v.IsDeleteMarker() {
		return s3err.NewMethodNotAllowed(name + "/" + key)
	}
	obj := v.(*objstore.Object)
	if obj.StorageClass != "GLACIER" && obj.StorageClass != "DEEP_ARCHIVE" {
		return s3err.NewInvalidObjectState(name + "/" + key)
	}
	expiry := time.Now().UTC().AddDate(0, 0, days)
	obj.Restore = `ongoing-request="false", expiry-date="` + expiry.Format(http.TimeFormat) + `"`
	return nil
}

// PutObjectAcl / GetObjectAcl are a per-version mirror of the bucket ACL
// triad (§SUPPLEMENT), state only (§1 Non-goals: no enforcement).
func (d *Dispatcher) PutObjectAcl(caller Caller, name, expectedOwner, key, versionID, acl string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return s3err.NewNoSuchKey(name, key)
	}
	if obj, isObj := v.(*objstore.Object); isObj {
		obj.ACL = acl
		return nil
	}
	return s3err.NewMethodNotAllowed(name + "/" + key)
}

func (d *Dispatcher) GetObjectAcl(caller Caller, name, expectedOwner, key, versionID string) (string, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", err
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return "", s3err.NewNoSuchKey(name, key)
	}
	if obj, isObj := v.(*objstore.Object); isObj {
		return obj.ACL, nil
	}
	return "", s3err.NewMethodNotAllowed(name + "/" + key)
}

// PutBucketAcl / GetBucketAcl complete the bucket-level ACL triad alongside
// the sub-resource CRUD already in bucket.go.
func (d *Dispatcher) PutBucketAcl(caller Caller, name, expectedOwner, acl string) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	bucket.Lock()
	bucket.ACL = acl
	bucket.Unlock()
	return nil
}

func (d *Dispatcher) GetBucketAcl(caller Caller, name, expectedOwner string) (string, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", err
	}
	bucket.RLock()
	defer bucket.RUnlock()
	return bucket.ACL, nil
}

// PutObjectLegalHold / GetObjectLegalHold set/read the object-lock legal-hold
// switch (§SUPPLEMENT), validated against the bucket's object_lock_enabled.
func (d *Dispatcher) PutObjectLegalHold(caller Caller, name, expectedOwner, key, versionID string, status objstore.LegalHoldStatus) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	if !bucket.ObjectLockEnabled {
		return s3err.NewInvalidRequest("object lock is not enabled for this bucket")
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return s3err.NewNoSuchKey(name, key)
	}
	obj, isObj := v.(*objstore.Object)
	if !isObj {
		return s3err.NewMethodNotAllowed(name + "/" + key)
	}
	obj.LegalHold = status
	return nil
}

func (d *Dispatcher) GetObjectLegalHold(caller Caller, name, expectedOwner, key, versionID string) (objstore.LegalHoldStatus, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", err
	}
	if !bucket.ObjectLockEnabled {
		return "", s3err.NewInvalidRequest("object lock is not enabled for this bucket")
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return "", s3err.NewNoSuchKey(name, key)
	}
	obj, isObj := v.(*objstore.Object)
	if !isObj {
		return "", s3err.NewMethodNotAllowed(name + "/" + key)
	}
	return obj.LegalHold, nil
}

// PutObjectRetention / GetObjectRetention set/read the object-lock mode and
// until-date (§SUPPLEMENT).
func (d *Dispatcher) PutObjectRetention(caller Caller, name, expectedOwner, key, versionID string, mode objstore.LockMode, until time.Time, bypassGovernance bool) error {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return err
	}
	if !bucket.ObjectLockEnabled {
		return s3err.NewInvalidRequest("object lock is not enabled for this bucket")
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return s3err.NewNoSuchKey(name, key)
	}
	obj, isObj := v.(*objstore.Object)
	if !isObj {
		return s3err.NewMethodNotAllowed(name + "/" + key)
	}
	if obj.LockMode == objstore.LockModeCompliance && !obj.LockUntil.IsZero() && obj.LockUntil.After(time.Now()) && !bypassGovernance {
		return s3err.NewAccessDenied("object is under COMPLIANCE retention")
	}
	obj.LockMode = mode
	obj.LockUntil = until
	return nil
}

func (d *Dispatcher) GetObjectRetention(caller Caller, name, expectedOwner, key, versionID string) (objstore.LockMode, time.Time, error) {
	_, bucket, err := d.resolve(caller, name, expectedOwner)
	if err != nil {
		return "", time.Time{}, err
	}
	if !bucket.ObjectLockEnabled {
		return "", time.Time{}, s3err.NewInvalidRequest("object lock is not enabled for this bucket")
	}
	v, ok := resolveVersion(bucket, key, versionID)
	if !ok {
		return "", time.Time{}, s3err.NewNoSuchKey(name, key)
	}
	obj, isObj := v.(*objstore.Object)
	if !isObj {
		return "", time.Time{}, s3err.NewMethodNotAllowed(name + "/" + key)
	}
	return obj.LockMode, obj.LockUntil, nil
}

// GetBucketPolicyStatus and GetObjectTorrent are explicitly unimplemented
// (§9 Open Questions), returning a typed error rather than panicking or
// silently 404ing.
func (d *Dispatcher) GetBucketPolicyStatus(caller Caller, name, expectedOwner string) error {
	if _, _, err := d.resolve(caller, name, expectedOwner); err != nil {
		return err
	}
	return s3err.NewNotImplemented("GetBucketPolicyStatus")
}

func (d *Dispatcher) GetObjectTorrent(caller Caller, name, expectedOwner, key string) error {
	if _, _, err := d.resolve(caller, name, expectedOwner); err != nil {
		return err
	}
	return s3err.NewNotImplemented("GetObjectTorrent")
}

// PostObject implements the POST-form object create operation
// (§SUPPLEMENT): policy validation stays out of scope (§1), but the
// object-creation side effects are identical to PutObject, so it reuses
// that path directly.
func (d *Dispatcher) PostObject(p PutObjectParams) (*PutObjectResult, error) {
	return d.PutObject(p)
}
