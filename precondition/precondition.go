// Package precondition implements the §4.3 Precondition Engine: evaluating
// If-Match / If-None-Match / If-Modified-Since / If-Unmodified-Since (and
// their copy-source variants) against a resolved object's etag and
// last-modified timestamp.
package precondition

import (
	"strings"
	"time"

	"github.com/cristiangiann/localstack/cksum"
	"github.com/cristiangiann/localstack/s3err"
)

// Headers carries the four conditional-request headers, already parsed.
type Headers struct {
	IfMatch           string
	IfNoneMatch       string
	IfModifiedSince   *time.Time
	IfUnmodifiedSince *time.Time
}

// Empty reports whether no conditional header was supplied.
func (h Headers) Empty() bool {
	return h.IfMatch == "" && h.IfNoneMatch == "" && h.IfModifiedSince == nil && h.IfUnmodifiedSince == nil
}

func etagMatchesAny(etag, header string) bool {
	for _, candidate := range strings.Split(header, ",") {
		if cksum.UnquoteETag(strings.TrimSpace(candidate)) == etag {
			return true
		}
	}
	return false
}

// CheckRead evaluates the four conditions, in the §4.3 order, for a GET/HEAD
// style read against an object that exists with the given etag and
// last-modified time. Returns nil if the read may proceed.
func CheckRead(h Headers, resource, etag string, lastModified time.Time) error {
	if h.IfMatch != "" {
		if h.IfMatch != "*" && !etagMatchesAny(etag, h.IfMatch) {
			return s3err.NewPreconditionFailed(resource, "If-Match")
		}
	}
	if h.IfUnmodifiedSince != nil {
		if lastModified.After(*h.IfUnmodifiedSince) {
			return s3err.NewPreconditionFailed(resource, "If-Unmodified-Since")
		}
	}
	if h.IfNoneMatch != "" {
		if h.IfNoneMatch == "*" || etagMatchesAny(etag, h.IfNoneMatch) {
			return s3err.NewNotModified(resource)
		}
	}
	if h.IfModifiedSince != nil {
		if !lastModified.After(*h.IfModifiedSince) {
			return s3err.NewNotModified(resource)
		}
	}
	return nil
}

// CopySourceCheck is CheckRead's copy-source variant (§4.3): same ordering,
// but returns the first failing condition's name for diagnostics instead of
// translating to NotModified, since a copy-source precondition failure is
// always a PreconditionFailed regardless of which condition tripped.
func CopySourceCheck(h Headers, resource, etag string, lastModified time.Time) (string, error) {
	if h.IfMatch != "" && h.IfMatch != "*" && !etagMatchesAny(etag, h.IfMatch) {
		return "If-Match", s3err.NewPreconditionFailed(resource, "copy-source If-Match")
	}
	if h.IfUnmodifiedSince != nil && lastModified.After(*h.IfUnmodifiedSince) {
		return "If-Unmodified-Since", s3err.NewPreconditionFailed(resource, "copy-source If-Unmodified-Since")
	}
	if h.IfNoneMatch != "" && (h.IfNoneMatch == "*" || etagMatchesAny(etag, h.IfNoneMatch)) {
		return "If-None-Match", s3err.NewPreconditionFailed(resource, "copy-source If-None-Match")
	}
	if h.IfModifiedSince != nil && !lastModified.After(*h.IfModifiedSince) {
		return "If-Modified-Since", s3err.NewPreconditionFailed(resource, "copy-source If-Modified-Since")
	}
	return "", nil
}

// ValidateWriteHeaders enforces §4.3's write-only restrictions before any
// object state is consulted: If-None-Match must be exactly "*", If-Match
// must not be "*", and both may not be supplied together.
func ValidateWriteHeaders(h Headers) error {
	if h.IfMatch != "" && h.IfNoneMatch != "" {
		return s3err.NewNotImplemented("If-Match and If-None-Match together")
	}
	if h.IfNoneMatch != "" && h.IfNoneMatch != "*" {
		return s3err.NewNotImplemented(`If-None-Match other than "*"`)
	}
	if h.IfMatch == "*" {
		return s3err.NewNotImplemented(`If-Match: "*"`)
	}
	return nil
}

// CheckWrite implements §4.3's PUT/complete_multipart_upload conditional
// logic once ValidateWriteHeaders has already accepted h. exists reports
// whether a live, non-delete-marker object currently exists for the key;
// when it does, currentETag/currentModified describe it.
//
// initiatedAt is the multipart's `initiated` timestamp (zero for plain PUT);
// when set, an If-Match success that nonetheless finds the current object
// newer than initiatedAt fails with ConditionalRequestConflict instead of
// succeeding (§4.3/§4.4 complete_multipart_upload's extra check).
func CheckWrite(h Headers, resource string, exists bool, currentETag string, currentModified time.Time, initiatedAt time.Time) error {
	if h.IfNoneMatch == "*" {
		if exists {
			return s3err.NewPreconditionFailed(resource, `If-None-Match: "*"`)
		}
		return nil
	}
	if h.IfMatch != "" {
		if !exists {
			return s3err.NewNoSuchKey(resource, "")
		}
		if currentETag != h.IfMatch {
			return s3err.NewPreconditionFailed(resource, "If-Match")
		}
		if !initiatedAt.IsZero() && currentModified.After(initiatedAt) {
			return s3err.NewConditionalRequestConflict(resource)
		}
	}
	return nil
}
