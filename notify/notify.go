// Package notify defines the collaborator boundaries §6 names that sit
// outside the storage core proper: event notification dispatch and the KMS
// facade the dispatcher consults for SSE-KMS validation and managed-key
// minting. Both are interfaces so the core can be driven by a real
// EventBridge/SNS/SQS-style fan-out or, in tests, a recording stub.
//
// Grounded on the teacher's cluster/xaction notification listeners
// (ais/notif.go's NotifListener interface: Callback/Abort with no
// concrete transport baked in) generalized to an S3-style bucket
// notification event.
package notify

import "time"

// Event is one S3 bucket notification record (§4.6 step 5/6, §4.4 step 6).
type Event struct {
	Name      string // e.g. "ObjectCreated:Put", "ObjectCreated:CompleteMultipartUpload", "ObjectRemoved:Delete"
	Bucket    string
	Key       string
	VersionID string
	ETag      string
	Size      int64
	Time      time.Time
	RequestID string
}

// Config is the opaque bucket notification configuration §3/SUPPLEMENT
// stores verbatim; its shape (destination ARNs, event filters) is specific
// to the wire format and not interpreted by the core.
type Config map[string]any

// Dispatcher is the §6 NotificationDispatcher collaborator interface.
type Dispatcher interface {
	// Verify validates a notification configuration's destinations are
	// reachable (or skips that check when skipDestValidation is set),
	// called from put_bucket_notification_configuration.
	Verify(cfg Config, skipDestValidation bool, bucket string) error
	// Send delivers one event per the bucket's current configuration.
	// Implementations MUST NOT block the operation that produced the
	// event beyond what's needed to hand it off (§5: "notification
	// dispatch" is itself a named suspension point, but the dispatcher
	// calls Send only after the mutation has already committed).
	Send(ev Event, cfg Config) error
	// Shutdown drains any in-flight sends at process stop.
	Shutdown()
}

// NopDispatcher discards every event; the zero-configuration default when
// no notification destinations are registered for a bucket, and what unit
// tests outside this package use.
type NopDispatcher struct{}

func (NopDispatcher) Verify(Config, bool, string) error { return nil }
func (NopDispatcher) Send(Event, Config) error          { return nil }
func (NopDispatcher) Shutdown()                         {}

var _ Dispatcher = NopDispatcher{}
