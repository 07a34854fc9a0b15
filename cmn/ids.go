// Package cmn provides small cross-cutting helpers shared by every package in
// this module: opaque token generation and the process-wide configuration
// owner.
package cmn

import (
	"math/rand"
	"sync"
	"time"

	"github.com/teris-io/shortid"
)

// Alphabet for generating opaque tokens, mirroring the length/charset shape
// of an AWS-style opaque id without trying to match AWS's actual encoding.
// Characters are listed in ascending code-point order so that
// tokenABC[i] < tokenABC[j] whenever i < j: invertedTimestamp's positional
// encoding relies on this to preserve numeric order under lexicographic
// string comparison, the same way standard base64/base32 alphabets do.
const tokenABC = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var (
	initOnce sync.Once
	sid      *shortid.Shortid
)

func initGenerator() {
	initOnce.Do(func() {
		sid = shortid.MustNew(4, tokenABC, uint64(time.Now().UnixNano()))
	})
}

// GenVersionID mints an opaque, URL-safe version id for a freshly written
// object in a bucket with versioning Enabled. Lexicographic comparison of two
// ids generated later sorts *before* one generated earlier, so that "older
// than" (see GLOSSARY) can be decided with a plain string comparison.
func GenVersionID() string {
	initGenerator()
	// A monotonically decreasing prefix (inverted timestamp) followed by a
	// random suffix for uniqueness within the same tick.
	inv := invertedTimestamp()
	return inv + sid.MustGenerate()
}

// GenUploadID mints an opaque multipart upload id.
func GenUploadID() string {
	initGenerator()
	return sid.MustGenerate() + randSuffix()
}

// GenRequestID mints an id suitable for a request-scoped correlation token
// (e.g. x-amz-request-id echoes).
func GenRequestID() string {
	initGenerator()
	return sid.MustGenerate()
}

func randSuffix() string {
	const n = 6
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenABC[rand.Intn(len(tokenABC))]
	}
	return string(b)
}

// invertedTimestamp returns a fixed-width, lexicographically-decreasing
// encoding of "now" so that newer ids sort before older ones.
func invertedTimestamp() string {
	const maxNanos = int64(1) << 62
	now := time.Now().UnixNano()
	inv := maxNanos - now
	b := make([]byte, 11)
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = tokenABC[inv&0x3f]
		inv >>= 6
	}
	return string(b)
}

// OlderThan reports whether version id `a` was minted strictly before `b`,
// per the GLOSSARY's "older-than" ordering: ids embed a monotonically
// decreasing sortable prefix, so `a` is older than `b` iff `a` sorts *after*
// `b` lexicographically.
func OlderThan(a, b string) bool { return a > b }
