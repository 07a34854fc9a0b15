// Package s3err defines the error kinds of §7, each carrying the HTTP status
// and the Service's canonical error code, grounded on the teacher's
// one-type-per-failure-mode convention (cmn.NewNotFoundError,
// cmn.NewErrorInvalidBucketProvider in cmn/bucket.go).
package s3err

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single concrete error type for every kind in §7. Kind
// distinguishes the failure mode; callers match on Kind via errors.As,
// never on the formatted message.
type Error struct {
	Kind    string
	Code    string // Service's wire error Code, e.g. "NoSuchBucket"
	Status  int    // HTTP status to report
	Message string
	// Resource optionally names the bucket/key/upload-id involved, surfaced
	// in diagnostics.
	Resource string
}

func (e *Error) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Resource)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is allows errors.Is(err, s3err.NoSuchBucket) style matching against the
// sentinels below by comparing Code, independent of Resource/Message.
func (e *Error) Is(target error) bool {
	var o *Error
	if !errors.As(target, &o) {
		return false
	}
	return e.Code == o.Code
}

func newErr(kind, code string, status int, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Message: fmt.Sprintf(format, args...)}
}

// Sentinels usable with errors.Is; New* constructors below attach Resource.
var (
	NoSuchBucket                      = newErr("NoSuchBucket", "NoSuchBucket", http.StatusNotFound, "the specified bucket does not exist")
	BucketAlreadyExists                = newErr("BucketAlreadyExists", "BucketAlreadyExists", http.StatusConflict, "the requested bucket name is not available")
	BucketAlreadyOwnedByYou            = newErr("BucketAlreadyOwnedByYou", "BucketAlreadyOwnedByYou", http.StatusConflict, "your previous request to create the named bucket succeeded and you already own it")
	InvalidBucketName                  = newErr("InvalidBucketName", "InvalidBucketName", http.StatusBadRequest, "the specified bucket is not valid")
	InvalidLocationConstraint          = newErr("InvalidLocationConstraint", "InvalidLocationConstraint", http.StatusBadRequest, "the specified location constraint is not valid")
	IllegalLocationConstraintException = newErr("IllegalLocationConstraintException", "IllegalLocationConstraintException", http.StatusBadRequest, "the location constraint is not valid for the endpoint this request was sent to")
	BucketNotEmpty                     = newErr("BucketNotEmpty", "BucketNotEmpty", http.StatusConflict, "the bucket you tried to delete is not empty")
	NoSuchKey                          = newErr("NoSuchKey", "NoSuchKey", http.StatusNotFound, "the specified key does not exist")
	MethodNotAllowed                   = newErr("MethodNotAllowed", "MethodNotAllowed", http.StatusMethodNotAllowed, "the specified method is not allowed against this resource")
	InvalidObjectState                 = newErr("InvalidObjectState", "InvalidObjectState", http.StatusForbidden, "the operation is not valid for the object's storage class")
	PreconditionFailed                 = newErr("PreconditionFailed", "PreconditionFailed", http.StatusPreconditionFailed, "at least one of the preconditions you specified did not hold")
	NotModified                        = newErr("NotModified", "NotModified", http.StatusNotModified, "the object has not been modified")
	ConditionalRequestConflict         = newErr("ConditionalRequestConflict", "ConditionalRequestConflict", http.StatusConflict, "the conditional request cannot succeed due to a conflicting operation")
	NotImplemented                     = newErr("NotImplemented", "NotImplemented", http.StatusNotImplemented, "a header you provided implies functionality that is not implemented")
	InvalidDigest                      = newErr("InvalidDigest", "InvalidDigest", http.StatusBadRequest, "the Content-MD5 you specified is not valid")
	BadDigest                          = newErr("BadDigest", "BadDigest", http.StatusBadRequest, "the checksum you specified did not match the computed checksum")
	InvalidRequest                     = newErr("InvalidRequest", "InvalidRequest", http.StatusBadRequest, "invalid request")
	InvalidArgument                    = newErr("InvalidArgument", "InvalidArgument", http.StatusBadRequest, "invalid argument")
	InvalidStorageClass                = newErr("InvalidStorageClass", "InvalidStorageClass", http.StatusBadRequest, "the storage class you specified is not valid")
	InvalidPartNumber                  = newErr("InvalidPartNumber", "InvalidPartNumber", http.StatusBadRequest, "part number must be an integer between 1 and 10000, inclusive")
	InvalidPartOrder                   = newErr("InvalidPartOrder", "InvalidPartOrder", http.StatusBadRequest, "the list of parts was not in ascending order")
	InvalidPart                       = newErr("InvalidPart", "InvalidPart", http.StatusBadRequest, "one or more of the specified parts could not be found")
	EntityTooSmall                     = newErr("EntityTooSmall", "EntityTooSmall", http.StatusBadRequest, "your proposed upload is smaller than the minimum allowed size")
	NoSuchUpload                       = newErr("NoSuchUpload", "NoSuchUpload", http.StatusNotFound, "the specified multipart upload does not exist")
	NoSuchLifecycleConfiguration       = newErr("NoSuchLifecycleConfiguration", "NoSuchLifecycleConfiguration", http.StatusNotFound, "the lifecycle configuration does not exist")
	NoSuchCORSConfiguration            = newErr("NoSuchCORSConfiguration", "NoSuchCORSConfiguration", http.StatusNotFound, "the CORS configuration does not exist")
	NoSuchTagSet                       = newErr("NoSuchTagSet", "NoSuchTagSet", http.StatusNotFound, "the tag-set does not exist")
	NoSuchWebsiteConfiguration         = newErr("NoSuchWebsiteConfiguration", "NoSuchWebsiteConfiguration", http.StatusNotFound, "the website configuration does not exist")
	NoSuchBucketPolicy                 = newErr("NoSuchBucketPolicy", "NoSuchBucketPolicy", http.StatusNotFound, "the bucket policy does not exist")
	ReplicationConfigurationNotFound   = newErr("ReplicationConfigurationNotFoundError", "ReplicationConfigurationNotFoundError", http.StatusNotFound, "the replication configuration does not exist")
	OwnershipControlsNotFound          = newErr("OwnershipControlsNotFoundError", "OwnershipControlsNotFoundError", http.StatusNotFound, "the ownership controls do not exist")
	PublicAccessBlockNotFound          = newErr("NoSuchPublicAccessBlockConfiguration", "NoSuchPublicAccessBlockConfiguration", http.StatusNotFound, "the public access block configuration does not exist")
	ObjectLockConfigurationNotFound    = newErr("ObjectLockConfigurationNotFoundError", "ObjectLockConfigurationNotFoundError", http.StatusNotFound, "object lock configuration does not exist for this bucket")
	MalformedXML                      = newErr("MalformedXML", "MalformedXML", http.StatusBadRequest, "the XML you provided was not well-formed")
	MalformedPolicy                   = newErr("MalformedPolicy", "MalformedPolicy", http.StatusBadRequest, "the policy document you provided was not well-formed")
	UnexpectedContent                 = newErr("UnexpectedContent", "UnexpectedContent", http.StatusBadRequest, "this request does not support content")
	MissingSecurityHeader             = newErr("MissingSecurityHeader", "MissingSecurityHeader", http.StatusBadRequest, "your request is missing a required header")
	AccessDenied                      = newErr("AccessDenied", "AccessDenied", http.StatusForbidden, "access denied")
	InvalidBucketOwnerAWSAccountID     = newErr("InvalidArgument", "InvalidArgument", http.StatusBadRequest, "expected bucket owner does not match a 12-digit account id")
)

func withResource(e *Error, resource string) *Error {
	c := *e
	c.Resource = resource
	return &c
}

func NewNoSuchBucket(bucket string) error             { return withResource(NoSuchBucket, bucket) }
func NewNoSuchKey(bucket, key string) error            { return withResource(NoSuchKey, bucket+"/"+key) }
func NewNoSuchUpload(bucket, key, uploadID string) error {
	return withResource(NoSuchUpload, bucket+"/"+key+"?uploadId="+uploadID)
}
func NewBucketAlreadyExists(bucket string) error { return withResource(BucketAlreadyExists, bucket) }
func NewBucketAlreadyOwnedByYou(bucket string) error {
	return withResource(BucketAlreadyOwnedByYou, bucket)
}
func NewBucketNotEmpty(bucket string) error    { return withResource(BucketNotEmpty, bucket) }
func NewInvalidBucketName(bucket string) error { return withResource(InvalidBucketName, bucket) }
func NewPreconditionFailed(resource, reason string) error {
	e := withResource(PreconditionFailed, resource)
	e.Message = reason
	return e
}
func NewNotModified(resource string) error { return withResource(NotModified, resource) }
func NewConditionalRequestConflict(resource string) error {
	return withResource(ConditionalRequestConflict, resource)
}
func NewNotImplemented(what string) error {
	e := withResource(NotImplemented, "")
	e.Message = what
	return e
}
func NewInvalidDigest() error { return InvalidDigest }
func NewBadDigest(reason string) error {
	e := *BadDigest
	e.Message = reason
	return &e
}
func NewInvalidRequest(reason string) error {
	e := *InvalidRequest
	e.Message = reason
	return &e
}
func NewInvalidArgument(reason string) error {
	e := *InvalidArgument
	e.Message = reason
	return &e
}
func NewMethodNotAllowed(resource string) error { return withResource(MethodNotAllowed, resource) }
func NewInvalidObjectState(resource string) error {
	return withResource(InvalidObjectState, resource)
}
func NewAccessDenied(reason string) error {
	e := *AccessDenied
	e.Message = reason
	return &e
}
func NewInvalidStorageClass(class string) error {
	return withResource(InvalidStorageClass, class)
}
func NewInvalidPart(resource string) error { return withResource(InvalidPart, resource) }

// As is a thin wrapper over errors.As for callers that want the concrete
// *Error without importing the standard errors package themselves.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// StatusCode extracts the HTTP status to report for err, defaulting to 500
// for unrecognized errors (§7 "Unrecognized errors ... surface as
// InvalidRequest" is applied by the dispatcher, not here).
func StatusCode(err error) int {
	if e, ok := As(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
