// Package dispatch implements the §4.6 Operation Dispatcher: the orchestration
// layer that resolves a request's bucket via §4.7, validates inputs, drives
// the precondition engine, ContentStore and VersionedKeyStore, and emits
// notifications — the one place that composes every other package into a
// Service operation.
//
// Grounded on the teacher's ais/prxs3 handlers (proxy-side S3-compatibility
// entry points: parse request, resolve bucket, call into the core, shape
// the response) generalized from AIStore's single-namespace bucket model to
// the versioned, multi-account model of §3.
package dispatch

import (
	"time"

	"github.com/golang/glog"

	"github.com/cristiangiann/localstack/cmn"
	"github.com/cristiangiann/localstack/content"
	"github.com/cristiangiann/localstack/metrics"
	"github.com/cristiangiann/localstack/multipart"
	"github.com/cristiangiann/localstack/notify"
	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/s3err"
)

// Dispatcher composes the core collaborators behind every operation.
type Dispatcher struct {
	Stores  *objstore.Stores
	Content *content.Store
	MPU     *multipart.Engine
	Notify  notify.Dispatcher
	KMS     notify.KMS
	// Metrics is nil-safe (see metrics.Metrics.Observe): a Dispatcher built
	// via New without WithMetrics runs with observability off.
	Metrics *metrics.Metrics
}

// New wires a Dispatcher from its collaborators. notifier/kms default to
// no-op/local implementations when nil, so a caller that doesn't care about
// notifications or KMS echoes doesn't have to construct stubs itself.
func New(stores *objstore.Stores, contentStore *content.Store, notifier notify.Dispatcher, kms notify.KMS) *Dispatcher {
	if notifier == nil {
		notifier = notify.NopDispatcher{}
	}
	if kms == nil {
		kms = notify.LocalKMS{}
	}
	return &Dispatcher{
		Stores:  stores,
		Content: contentStore,
		MPU:     multipart.New(contentStore),
		Notify:  notifier,
		KMS:     kms,
	}
}

// WithMetrics attaches a Prometheus-backed observer (§6 "Metrics surface")
// and returns the same Dispatcher for chaining off New.
func (d *Dispatcher) WithMetrics(m *metrics.Metrics) *Dispatcher {
	d.Metrics = m
	return d
}

// observe wraps one operation's execution with the §6 metrics surface: a
// request counter keyed by operation name plus an error counter keyed by
// wire error code when it fails. Callers pass a thunk so both success and
// error paths record exactly once, mirroring the teacher's stats.Tracker
// one-call-per-request shape (ais/stats).
func (d *Dispatcher) observe(operation string, fn func() error) error {
	err := fn()
	d.Metrics.Observe(operation, err, func(e error) string {
		if se, ok := s3err.As(e); ok {
			return se.Code
		}
		return "Internal"
	})
	return err
}

// Caller identifies the account/region issuing a request (§4.7).
type Caller struct {
	AccountID string
	Region    string
}

// resolve implements §4.6 step 1 over the Caller's account/region.
func (d *Dispatcher) resolve(caller Caller, bucket, expectedOwner string) (*objstore.Store, *objstore.Bucket, error) {
	return d.Stores.Resolve(caller.AccountID, caller.Region, bucket, expectedOwner)
}

func (d *Dispatcher) sendEvent(bucket *objstore.Bucket, name, key, versionID, etag string, size int64) {
	ev := notify.Event{
		Name:      name,
		Bucket:    bucket.Name,
		Key:       key,
		VersionID: versionID,
		ETag:      etag,
		Size:      size,
		Time:      time.Now().UTC(),
		RequestID: cmn.GenRequestID(),
	}
	if err := d.Notify.Send(ev, notify.Config(bucket.Notification)); err != nil {
		glog.Warningf("notify %s %s/%s: %v", name, bucket.Name, key, err)
	}
}

// validateKey rejects keys the Service never accepts, independent of any
// particular operation (§4.6 step 2).
func validateKey(key string) error {
	if key == "" {
		return s3err.NewInvalidArgument("object key must not be empty")
	}
	if len(key) > 1024 {
		return s3err.NewInvalidArgument("object key must be 1024 bytes or fewer")
	}
	return nil
}

// PutObject implements §4.6's PutObject contract end to end, observed
// through the §6 metrics surface.
func (d *Dispatcher) PutObject(p PutObjectParams) (*PutObjectResult, error) {
	var res *PutObjectResult
	err := d.observe("PutObject", func() error {
		var err error
		res, err = d.putObject(p)
		return err
	})
	return res, err
}

// GetObject implements §4.1/§4.3's read path, observed through the §6
// metrics surface.
func (d *Dispatcher) GetObject(p GetObjectParams) (*GetObjectResult, error) {
	var res *GetObjectResult
	op := "GetObject"
	if p.HeadOnly {
		op = "HeadObject"
	}
	err := d.observe(op, func() error {
		var err error
		res, err = d.getObject(p)
		return err
	})
	return res, err
}

// DeleteObject implements the delete/delete-marker path, observed through
// the §6 metrics surface.
func (d *Dispatcher) DeleteObject(p DeleteObjectParams) (*DeleteObjectResult, error) {
	var res *DeleteObjectResult
	err := d.observe("DeleteObject", func() error {
		var err error
		res, err = d.deleteObject(p)
		return err
	})
	return res, err
}

// CopyObject implements the server-side copy path, observed through the §6
// metrics surface.
func (d *Dispatcher) CopyObject(p CopyObjectParams) (*CopyObjectResult, error) {
	var res *CopyObjectResult
	err := d.observe("CopyObject", func() error {
		var err error
		res, err = d.copyObject(p)
		return err
	})
	return res, err
}

// CompleteMultipartUpload implements §4.4 step 6's commit, observed through
// the §6 metrics surface.
func (d *Dispatcher) CompleteMultipartUpload(p CompleteMultipartUploadParams) (*CompleteMultipartUploadResult, error) {
	var res *CompleteMultipartUploadResult
	err := d.observe("CompleteMultipartUpload", func() error {
		var err error
		res, err = d.completeMultipartUpload(p)
		return err
	})
	return res, err
}

// CreateBucket wraps Stores.CreateBucket, observed through the §6 metrics
// surface.
func (d *Dispatcher) CreateBucket(caller Caller, name string) (*objstore.Bucket, error) {
	var res *objstore.Bucket
	err := d.observe("CreateBucket", func() error {
		var err error
		res, err = d.createBucket(caller, name)
		return err
	})
	return res, err
}

// DeleteBucket wraps Stores.DeleteBucket, observed through the §6 metrics
// surface.
func (d *Dispatcher) DeleteBucket(caller Caller, name, expectedOwner string) error {
	return d.observe("DeleteBucket", func() error {
		return d.deleteBucket(caller, name, expectedOwner)
	})
}
