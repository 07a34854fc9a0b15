package dispatch

import (
	"io"
	"time"

	"github.com/cristiangiann/localstack/cksum"
	"github.com/cristiangiann/localstack/cmn"
	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/precondition"
	"github.com/cristiangiann/localstack/s3err"
)

// PutObjectParams carries one PutObject request's inputs (§4.6 steps 2-6).
type PutObjectParams struct {
	Caller        Caller
	Bucket        string
	ExpectedOwner string
	Key           string

	Body          io.Reader
	ContentLength int64

	ContentMD5      string // base64, optional
	ContentSHA256   string // x-amz-content-sha256, for aws-chunked detection
	ContentEncoding string

	SystemMetadata objstore.SystemMetadata
	UserMetadata   map[string]string
	StorageClass   string
	ACL            string
	Owner          string
	Tagging        map[string]string

	ChecksumAlgorithm cksum.Algorithm
	ChecksumValue     string // base64, caller-declared

	Encryption       string
	KMSKeyID         string
	BucketKeyEnabled bool
	SSECKeyMD5       string

	LockMode  objstore.LockMode
	LegalHold objstore.LegalHoldStatus
	LockUntil time.Time

	Headers precondition.Headers
}

// PutObjectResult is what the caller needs to shape a response (§4.6 step 6).
type PutObjectResult struct {
	ETag             string
	VersionID        string // "" when versioning is not Enabled
	ChecksumValue    string
	Encryption       string
	KMSKeyID         string
	BucketKeyEnabled bool
	SSECKeyMD5       string
	Expiration       string
	ContentEncoding  string // with aws-chunked stripped, for echo
}

// PutObject implements §4.6's PutObject contract end to end.
func (d *Dispatcher) putObject(p PutObjectParams) (*PutObjectResult, error) {
	if err := validateKey(p.Key); err != nil {
		return nil, err
	}
	if p.StorageClass == "OUTPOSTS" {
		return nil, s3err.NewInvalidStorageClass(p.StorageClass)
	}
	if p.ChecksumAlgorithm != cksum.AlgorithmNone && !cksum.ValidAlgorithm(p.ChecksumAlgorithm) {
		return nil, s3err.NewInvalidArgument("unsupported x-amz-checksum-algorithm")
	}
	if err := precondition.ValidateWriteHeaders(p.Headers); err != nil {
		return nil, err
	}

	_, bucket, err := d.resolve(p.Caller, p.Bucket, p.ExpectedOwner)
	if err != nil {
		return nil, err
	}

	body := p.Body
	encoding := p.ContentEncoding
	if isAWSChunked(p.ContentSHA256, p.ContentEncoding) {
		body = newChunkedDecoder(body)
		encoding = stripAWSChunkedEncoding(p.ContentEncoding)
	}

	scope := d.Content.OpenWriter(bucket.Name, p.Key)
	defer scope.Release(true)

	var exists bool
	var currentETag string
	var currentModified time.Time
	if cur, ok := bucket.Objects.Get(p.Key); ok && !cur.IsDeleteMarker() {
		exists = true
		if obj, ok := cur.(*objstore.Object); ok {
			currentETag, currentModified = obj.QuotedETag(), obj.Modified
		}
	}
	if err := precondition.CheckWrite(p.Headers, p.Key, exists, currentETag, currentModified, time.Time{}); err != nil {
		return nil, err
	}

	versioned := bucket.Versioning.Versioned()
	versionID := ""
	if versioned {
		versionID = cmn.GenVersionID()
	} else if bucket.Versioning == objstore.VersioningSuspended {
		versionID = "null"
	}

	w, err := d.Content.NewWriter(bucket.Name, p.Key, versionID)
	if err != nil {
		return nil, err
	}

	md5h := cksum.NewMD5()
	var algh interface {
		io.Writer
		Sum([]byte) []byte
	}
	if p.ChecksumAlgorithm != cksum.AlgorithmNone {
		algh = cksum.NewHasher(p.ChecksumAlgorithm)
	}
	dest := io.MultiWriter(w, md5h)
	if algh != nil {
		dest = io.MultiWriter(w, md5h, algh)
	}
	if _, err := io.Copy(dest, body); err != nil {
		w.Abort()
		return nil, err
	}

	if p.ContentMD5 != "" {
		want, decErr := cksum.B64Decode(p.ContentMD5)
		if decErr != nil || len(want) != 16 {
			w.Abort()
			return nil, s3err.NewInvalidDigest()
		}
		if string(want) != string(md5h.Sum(nil)) {
			w.Abort()
			return nil, s3err.NewBadDigest("the Content-MD5 you specified did not match what was received")
		}
	}
	var checksumValue string
	if algh != nil {
		checksumValue = cksum.B64(algh.Sum(nil))
		if p.ChecksumValue != "" && p.ChecksumValue != checksumValue {
			w.Abort()
			return nil, s3err.NewBadDigest("the x-amz-checksum value you specified did not match what was received")
		}
	}

	if err := w.Commit(); err != nil {
		return nil, err
	}
	d.Metrics.AddBytesWritten(w.Size())

	obj := &objstore.Object{
		Key:               p.Key,
		Version:           versionID,
		Size:              w.Size(),
		ETag:              cksum.Hex(md5h.Sum(nil)),
		Modified:          time.Now().UTC(),
		InternalModified:  time.Now().UTC(),
		StorageClass:      p.StorageClass,
		UserMetadata:      p.UserMetadata,
		SystemMetadata:    p.SystemMetadata,
		ChecksumAlgorithm: p.ChecksumAlgorithm,
		ChecksumValue:     checksumValue,
		ChecksumType:      cksum.TypeFullObject,
		Encryption:        p.Encryption,
		KMSKeyID:          p.KMSKeyID,
		BucketKeyEnabled:  p.BucketKeyEnabled,
		SSECKeyMD5:        p.SSECKeyMD5,
		LockMode:          p.LockMode,
		LegalHold:         p.LegalHold,
		LockUntil:         p.LockUntil,
		ACL:               p.ACL,
		Owner:             p.Owner,
		Tagging:           p.Tagging,
	}
	bucket.Objects.Put(p.Key, obj, versioned)

	tagKey := bucket.Name + "/" + p.Key + "/" + versionID
	d.Stores.ForAccount(p.Caller.AccountID, p.Caller.Region).PopTags(tagKey)
	if len(p.Tagging) > 0 {
		d.Stores.ForAccount(p.Caller.AccountID, p.Caller.Region).TagResource(tagKey, p.Tagging)
	}

	expiration := bucket.ExpirationFor(p.Key)
	obj.Expiration = expiration

	d.sendEvent(bucket, "ObjectCreated:Put", p.Key, versionID, obj.ETag, obj.Size)

	return &PutObjectResult{
		ETag:             obj.QuotedETag(),
		VersionID:        versionID,
		ChecksumValue:    checksumValue,
		Encryption:       p.Encryption,
		KMSKeyID:         p.KMSKeyID,
		BucketKeyEnabled: p.BucketKeyEnabled,
		SSECKeyMD5:       p.SSECKeyMD5,
		Expiration:       expiration,
		ContentEncoding:  encoding,
	}, nil
}

// GetObjectParams carries one GetObject/HeadObject request's inputs.
type GetObjectParams struct {
	Caller        Caller
	Bucket        string
	ExpectedOwner string
	Key           string
	VersionID     string // "" = current version

	RangeOffset int64
	RangeLength int64 // 0 = to end
	HasRange    bool

	Headers precondition.Headers
	HeadOnly bool
}

// GetObjectResult carries a resolved object's metadata plus (for GetObject)
// an open byte reader.
type GetObjectResult struct {
	Object *objstore.Object
	Body   io.ReadCloser // nil for HeadObject
}

// GetObject implements §4.1/§4.3's read path: resolve the version, apply
// preconditions, and open a shared reader guard for the bytes.
func (d *Dispatcher) getObject(p GetObjectParams) (*GetObjectResult, error) {
	if err := validateKey(p.Key); err != nil {
		return nil, err
	}
	_, bucket, err := d.resolve(p.Caller, p.Bucket, p.ExpectedOwner)
	if err != nil {
		return nil, err
	}

	scope := d.Content.OpenReadGuard(bucket.Name, p.Key)
	defer scope.Release(false)

	var v objstore.Version
	var ok bool
	if p.VersionID != "" {
		v, ok = bucket.Objects.GetVersion(p.Key, p.VersionID)
	} else {
		v, ok = bucket.Objects.Get(p.Key)
	}
	if !ok {
		return nil, s3err.NewNoSuchKey(bucket.Name, p.Key)
	}
	if v.IsDeleteMarker() {
		if p.VersionID == "" {
			return nil, s3err.NewNoSuchKey(bucket.Name, p.Key)
		}
		return nil, s3err.NewMethodNotAllowed(bucket.Name + "/" + p.Key)
	}
	obj := v.(*objstore.Object)
	obj.Expiration = bucket.ExpirationFor(p.Key)

	if obj.Restore == "" && obj.StorageClass == "GLACIER" {
		return nil, s3err.NewInvalidObjectState(bucket.Name + "/" + p.Key)
	}

	if err := precondition.CheckRead(p.Headers, bucket.Name+"/"+p.Key, obj.ETag, obj.Modified); err != nil {
		return nil, err
	}

	if p.HeadOnly {
		return &GetObjectResult{Object: obj}, nil
	}

	r, err := d.Content.OpenReader(bucket.Name, p.Key, obj.Version)
	if err != nil {
		return nil, err
	}
	if r.ModTimeUnixNano() != obj.InternalModified.UnixNano() {
		// The narrow window §4.1 calls out: bytes changed between index
		// lookup and guard acquisition. Re-resolve once.
		r.Close()
		return d.getObject(p)
	}
	served := obj.Size
	if p.HasRange {
		if _, err := r.Seek(p.RangeOffset, io.SeekStart); err != nil {
			r.Close()
			return nil, err
		}
		served = p.RangeLength
	}
	d.Metrics.AddBytesRead(served)
	return &GetObjectResult{Object: obj, Body: r}, nil
}

// DeleteObjectParams carries one DeleteObject request's inputs.
type DeleteObjectParams struct {
	Caller                    Caller
	Bucket                    string
	ExpectedOwner             string
	Key                       string
	VersionID                 string // "" = create/overwrite per versioning state
	BypassGovernanceRetention bool
}

// DeleteObjectResult reports what happened, per the Service's
// x-amz-delete-marker / x-amz-version-id response headers.
type DeleteObjectResult struct {
	DeleteMarker bool
	VersionID    string
}

// DeleteObject implements the §3/§7 delete-marker semantics: with
// versioning Enabled and no version_id, inserts a new delete marker
// instead of removing anything; with a version_id, permanently removes
// that specific version (subject to object-lock).
func (d *Dispatcher) deleteObject(p DeleteObjectParams) (*DeleteObjectResult, error) {
	_, bucket, err := d.resolve(p.Caller, p.Bucket, p.ExpectedOwner)
	if err != nil {
		return nil, err
	}

	scope := d.Content.OpenWriter(bucket.Name, p.Key)
	defer scope.Release(true)

	if p.VersionID != "" {
		v, ok := bucket.Objects.GetVersion(p.Key, p.VersionID)
		if ok {
			if obj, isObj := v.(*objstore.Object); isObj && objectLockBlocks(obj, p.BypassGovernanceRetention) {
				return nil, s3err.NewAccessDenied("object is protected by a retention configuration")
			}
		}
		removed, ok := bucket.Objects.PopVersion(p.Key, p.VersionID)
		if ok {
			if obj, isObj := removed.(*objstore.Object); isObj {
				d.Content.Remove(bucket.Name, p.Key, obj.Version)
			}
			d.sendEvent(bucket, "ObjectRemoved:DeleteMarkerCreated", p.Key, p.VersionID, "", 0)
		}
		return &DeleteObjectResult{VersionID: p.VersionID}, nil
	}

	if !bucket.Versioning.Versioned() {
		bucket.Objects.Pop(p.Key)
		d.Content.Remove(bucket.Name, p.Key, "")
		d.sendEvent(bucket, "ObjectRemoved:Delete", p.Key, "", "", 0)
		return &DeleteObjectResult{}, nil
	}

	versionID := cmn.GenVersionID()
	marker := &objstore.DeleteMarker{Key: p.Key, Version: versionID, Modified: time.Now().UTC()}
	bucket.Objects.Put(p.Key, marker, true)
	d.sendEvent(bucket, "ObjectRemoved:DeleteMarkerCreated", p.Key, versionID, "", 0)
	return &DeleteObjectResult{DeleteMarker: true, VersionID: versionID}, nil
}

func objectLockBlocks(obj *objstore.Object, bypassGovernance bool) bool {
	if obj.LegalHold == objstore.LegalHoldOn {
		return true
	}
	if obj.LockMode == objstore.LockModeCompliance && time.Now().Before(obj.LockUntil) {
		return true
	}
	if obj.LockMode == objstore.LockModeGovernance && time.Now().Before(obj.LockUntil) && !bypassGovernance {
		return true
	}
	return false
}

// DeleteObjectsParams carries one bulk DeleteObjects (POST ?delete) request.
type DeleteObjectsParams struct {
	Caller        Caller
	Bucket        string
	ExpectedOwner string
	Keys          []DeleteObjectsEntry
	Quiet         bool
}

// DeleteObjectsEntry is one <Object> element of a bulk delete request.
type DeleteObjectsEntry struct {
	Key       string
	VersionID string
}

// DeleteObjectsResultEntry reports the outcome for one requested key.
type DeleteObjectsResultEntry struct {
	Key          string
	VersionID    string
	DeleteMarker bool
	Error        error
}

// DeleteObjects implements the bulk-delete operation the distillation
// dropped (SUPPLEMENT): the same per-key semantics as DeleteObject, applied
// to every entry independently so one failing key doesn't abort the batch.
func (d *Dispatcher) DeleteObjects(p DeleteObjectsParams) []DeleteObjectsResultEntry {
	out := make([]DeleteObjectsResultEntry, 0, len(p.Keys))
	for _, k := range p.Keys {
		res, err := d.DeleteObject(DeleteObjectParams{
			Caller: p.Caller, Bucket: p.Bucket, ExpectedOwner: p.ExpectedOwner,
			Key: k.Key, VersionID: k.VersionID,
		})
		if err != nil {
			out = append(out, DeleteObjectsResultEntry{Key: k.Key, VersionID: k.VersionID, Error: err})
			continue
		}
		out = append(out, DeleteObjectsResultEntry{Key: k.Key, VersionID: res.VersionID, DeleteMarker: res.DeleteMarker})
	}
	return out
}

// CopyObjectParams carries one CopyObject request's inputs. The source is
// resolved by the caller before this call (§4.7 may route it through a
// different account than the destination), so CopyObject only needs the
// already-resolved source bucket/object alongside the destination request.
type CopyObjectParams struct {
	Caller        Caller
	DestBucket    string
	ExpectedOwner string
	DestKey       string

	SourceBucket string
	SourceKey    string
	SourceObject *objstore.Object

	// MetadataDirective of "REPLACE" overrides the source's metadata with
	// the fields below; "COPY" (the default) carries the source's forward.
	MetadataDirective string
	SystemMetadata    objstore.SystemMetadata
	UserMetadata      map[string]string
	StorageClass      string
	ACL               string
	Owner             string
	TaggingDirective  string
	Tagging           map[string]string

	Encryption       string
	KMSKeyID         string
	BucketKeyEnabled bool
	SSECKeyMD5       string

	CopySourceHeaders precondition.Headers
	Headers           precondition.Headers
}

// CopyObjectResult mirrors the §6 CopyObjectResult response body.
type CopyObjectResult struct {
	ETag       string
	Modified   time.Time
	VersionID  string
	Expiration string
}

// CopyObject implements the Service's object-to-object copy, generalizing
// PutObject's commit discipline: stream the source's bytes into a fresh
// staged write under the destination's writer guard rather than re-uploading
// them, then commit exactly as PutObject does.
func (d *Dispatcher) copyObject(p CopyObjectParams) (*CopyObjectResult, error) {
	if err := validateKey(p.DestKey); err != nil {
		return nil, err
	}
	if err := precondition.ValidateWriteHeaders(p.Headers); err != nil {
		return nil, err
	}
	if p.StorageClass == "OUTPOSTS" {
		return nil, s3err.NewInvalidStorageClass(p.StorageClass)
	}
	_, bucket, err := d.resolve(p.Caller, p.DestBucket, p.ExpectedOwner)
	if err != nil {
		return nil, err
	}

	src := p.SourceObject
	if src.Restore != "" && src.Restore == `ongoing-request="true"` {
		return nil, s3err.NewInvalidObjectState(p.SourceBucket + "/" + p.SourceKey)
	}
	if !p.CopySourceHeaders.Empty() {
		if _, err := precondition.CopySourceCheck(p.CopySourceHeaders, p.SourceKey, src.ETag, src.Modified); err != nil {
			return nil, err
		}
	}

	scope := d.Content.OpenWriter(bucket.Name, p.DestKey)
	defer scope.Release(true)

	var exists bool
	var currentETag string
	var currentModified time.Time
	if cur, ok := bucket.Objects.Get(p.DestKey); ok && !cur.IsDeleteMarker() {
		exists = true
		if obj, ok := cur.(*objstore.Object); ok {
			currentETag, currentModified = obj.QuotedETag(), obj.Modified
		}
	}
	if err := precondition.CheckWrite(p.Headers, p.DestKey, exists, currentETag, currentModified, time.Time{}); err != nil {
		return nil, err
	}

	versioned := bucket.Versioning.Versioned()
	versionID := ""
	if versioned {
		versionID = cmn.GenVersionID()
	} else if bucket.Versioning == objstore.VersioningSuspended {
		versionID = "null"
	}

	w, err := d.Content.NewWriter(bucket.Name, p.DestKey, versionID)
	if err != nil {
		return nil, err
	}
	if _, err := d.Content.Copy(p.SourceBucket, p.SourceKey, src.Version, w); err != nil {
		w.Abort()
		return nil, err
	}
	if err := w.Commit(); err != nil {
		return nil, err
	}
	d.Metrics.AddBytesWritten(w.Size())

	obj := &objstore.Object{
		Key:               p.DestKey,
		Version:           versionID,
		Size:              w.Size(),
		ETag:              src.ETag,
		Modified:          time.Now().UTC(),
		InternalModified:  time.Now().UTC(),
		StorageClass:      src.StorageClass,
		UserMetadata:      src.UserMetadata,
		SystemMetadata:    src.SystemMetadata,
		ChecksumAlgorithm: src.ChecksumAlgorithm,
		ChecksumValue:     src.ChecksumValue,
		ChecksumType:      src.ChecksumType,
		Encryption:        p.Encryption,
		KMSKeyID:          p.KMSKeyID,
		BucketKeyEnabled:  p.BucketKeyEnabled,
		SSECKeyMD5:        p.SSECKeyMD5,
		ACL:               p.ACL,
		Owner:             p.Owner,
		Tagging:           src.Tagging,
	}
	if p.MetadataDirective == "REPLACE" {
		obj.SystemMetadata = p.SystemMetadata
		obj.UserMetadata = p.UserMetadata
		obj.StorageClass = p.StorageClass
	}
	if p.TaggingDirective == "REPLACE" {
		obj.Tagging = p.Tagging
	}
	bucket.Objects.Put(p.DestKey, obj, versioned)

	tagKey := bucket.Name + "/" + p.DestKey + "/" + versionID
	d.Stores.ForAccount(p.Caller.AccountID, p.Caller.Region).PopTags(tagKey)
	if len(obj.Tagging) > 0 {
		d.Stores.ForAccount(p.Caller.AccountID, p.Caller.Region).TagResource(tagKey, obj.Tagging)
	}

	obj.Expiration = bucket.ExpirationFor(p.DestKey)

	d.sendEvent(bucket, "ObjectCreated:Copy", p.DestKey, versionID, obj.ETag, obj.Size)

	return &CopyObjectResult{
		ETag:       obj.QuotedETag(),
		Modified:   obj.Modified,
		VersionID:  versionID,
		Expiration: obj.Expiration,
	}, nil
}
