package dispatch

import (
	"github.com/cristiangiann/localstack/cmn"
	"github.com/cristiangiann/localstack/multipart"
	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/precondition"
	"github.com/cristiangiann/localstack/s3err"
)

// CreateMultipartUpload wraps multipart.Engine.Create with §4.6 bucket
// resolution and key validation.
func (d *Dispatcher) CreateMultipartUpload(caller Caller, bucketName, expectedOwner string, p multipart.CreateParams) (*objstore.Multipart, error) {
	if err := validateKey(p.Key); err != nil {
		return nil, err
	}
	_, bucket, err := d.resolve(caller, bucketName, expectedOwner)
	if err != nil {
		return nil, err
	}
	return d.MPU.Create(bucket, p)
}

// UploadPart wraps multipart.Engine.UploadPart with §4.6 bucket resolution.
func (d *Dispatcher) UploadPart(caller Caller, bucketName, expectedOwner string, p multipart.UploadPartParams) (*objstore.Part, error) {
	_, bucket, err := d.resolve(caller, bucketName, expectedOwner)
	if err != nil {
		return nil, err
	}
	return d.MPU.UploadPart(bucket, p)
}

// UploadPartCopy wraps multipart.Engine.UploadPartCopy, resolving both the
// destination bucket (for the upload) and the source object (for the copy
// range) via the shared resolve path (§4.7).
func (d *Dispatcher) UploadPartCopy(caller Caller, bucketName, expectedOwner string, p multipart.UploadPartCopyParams) (*objstore.Part, error) {
	_, bucket, err := d.resolve(caller, bucketName, expectedOwner)
	if err != nil {
		return nil, err
	}
	return d.MPU.UploadPartCopy(bucket, p)
}

// ListPartsParams carries one ListParts request's inputs.
type ListPartsParams struct {
	Caller                Caller
	Bucket, ExpectedOwner string
	Key                   string
	UploadID              string
	PartNumberMarker      int
	MaxParts              int
}

// ListPartsResult is the list-parts response shape.
type ListPartsResult struct {
	Multipart      *objstore.Multipart
	Parts          []*objstore.Part
	IsTruncated    bool
	NextPartNumber int
}

// ListParts wraps multipart.ListParts with upload resolution.
func (d *Dispatcher) ListParts(p ListPartsParams) (*ListPartsResult, error) {
	_, bucket, err := d.resolve(p.Caller, p.Bucket, p.ExpectedOwner)
	if err != nil {
		return nil, err
	}
	m, ok := bucket.GetMultipart(p.Key, p.UploadID)
	if !ok {
		return nil, s3err.NewNoSuchUpload(bucket.Name, p.Key, p.UploadID)
	}
	parts, truncated, next := multipart.ListParts(m, p.PartNumberMarker, p.MaxParts)
	return &ListPartsResult{Multipart: m, Parts: parts, IsTruncated: truncated, NextPartNumber: next}, nil
}

// AbortMultipartUpload wraps multipart.Engine.Abort.
func (d *Dispatcher) AbortMultipartUpload(caller Caller, bucketName, expectedOwner, key, uploadID string) error {
	_, bucket, err := d.resolve(caller, bucketName, expectedOwner)
	if err != nil {
		return err
	}
	return d.MPU.Abort(bucket, key, uploadID)
}

// CompleteMultipartUploadParams carries one complete_multipart_upload
// request's inputs.
type CompleteMultipartUploadParams struct {
	Caller                Caller
	Bucket, ExpectedOwner string
	multipart.CompleteParams
}

// CompleteMultipartUploadResult is what the caller needs to shape a
// response.
type CompleteMultipartUploadResult struct {
	Object     *objstore.Object
	Location   string
	BucketName string
}

// CompleteMultipartUpload wraps multipart.Engine.Complete and then performs
// the final commit step the engine explicitly defers to its caller (§4.4
// step 6): committing the staged bytes, inserting the finished Object into
// the bucket's VersionedKeyStore and tag table, and emitting the
// ObjectCreated:CompleteMultipartUpload notification.
func (d *Dispatcher) completeMultipartUpload(p CompleteMultipartUploadParams) (*CompleteMultipartUploadResult, error) {
	if err := precondition.ValidateWriteHeaders(p.CompleteParams.Headers); err != nil {
		return nil, err
	}
	_, bucket, err := d.resolve(p.Caller, p.Bucket, p.ExpectedOwner)
	if err != nil {
		return nil, err
	}

	scope := d.Content.OpenWriter(bucket.Name, p.Key)
	defer scope.Release(true)

	versioned := bucket.Versioning.Versioned()
	versionID := ""
	if versioned {
		versionID = cmn.GenVersionID()
	} else if bucket.Versioning == objstore.VersioningSuspended {
		versionID = "null"
	}

	p.CompleteParams.Versioned = versioned
	obj, w, err := d.MPU.Complete(bucket, versionID, p.CompleteParams)
	if err != nil {
		return nil, err
	}
	if err := w.Commit(); err != nil {
		return nil, err
	}
	d.Metrics.AddBytesWritten(w.Size())

	obj.Expiration = bucket.ExpirationFor(p.Key)
	bucket.Objects.Put(p.Key, obj, versioned)

	tagKey := bucket.Name + "/" + p.Key + "/" + versionID
	if len(obj.Tagging) > 0 {
		d.Stores.ForAccount(p.Caller.AccountID, p.Caller.Region).TagResource(tagKey, obj.Tagging)
	}

	d.sendEvent(bucket, "ObjectCreated:CompleteMultipartUpload", p.Key, versionID, obj.ETag, obj.Size)

	return &CompleteMultipartUploadResult{Object: obj, BucketName: bucket.Name}, nil
}
