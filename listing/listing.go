// Package listing implements the §4.5 Listing Engine: the shared
// delimiter-aware, paginated enumeration algorithm used by ListObjects(V1/V2),
// ListObjectVersions, ListMultipartUploads and ListBuckets, plus the
// per-operation marker/continuation-token encodings of the table in §4.5.
package listing

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// Item is one candidate entry the core algorithm considers: an object key
// (or version, or bucket name, or upload id — the generic "thing being
// listed"). Payload carries whatever operation-specific data the caller
// needs to render the final entry.
type Item struct {
	Key     string
	Payload any
}

// Page is the result of one call to Run: emitted entries, the sorted common
// prefixes collapsed from delimiter-containing keys, whether more pages
// remain, and the raw (un-encoded, un-based64'd) resume key/token for the
// next page.
type Page struct {
	Entries        []Item
	CommonPrefixes []string
	IsTruncated    bool
	NextToken      string
}

// Run executes the §4.5 one-pass algorithm over items, which the caller has
// already: (a) sorted key-ascending, and (b) filtered to keys strictly after
// the operation's resume point (step 1 — resume rules differ per operation,
// see the per-operation files in this package). Run then performs steps
// 2-6: prefix filtering, delimiter-based common-prefix collapsing, the
// max-keys counter, and truncation.
func Run(items []Item, prefix, delimiter string, maxKeys int) Page {
	var page Page
	if maxKeys == 0 {
		// §8 boundary: max_keys = 0 -> empty page, is_truncated = false.
		return page
	}
	seenPrefixes := make(map[string]bool)
	count := 0

	for i, it := range items {
		if !strings.HasPrefix(it.Key, prefix) {
			continue
		}
		suffix := it.Key[len(prefix):]

		if delimiter != "" {
			if idx := strings.Index(suffix, delimiter); idx >= 0 {
				cp := prefix + suffix[:idx+len(delimiter)]
				if seenPrefixes[cp] {
					continue // already emitted: no counter increment (step 3)
				}
				if count == maxKeys && maxKeys > 0 {
					page.IsTruncated = true
					page.NextToken = cp
					return finish(page, seenPrefixes)
				}
				seenPrefixes[cp] = true
				count++
				if count == maxKeys && maxKeys > 0 && !isLastCandidate(items, i, prefix, delimiter, seenPrefixes) {
					page.IsTruncated = true
					page.NextToken = cp
					return finish(page, seenPrefixes)
				}
				continue
			}
		}

		if count == maxKeys && maxKeys > 0 {
			page.IsTruncated = true
			page.NextToken = it.Key
			return finish(page, seenPrefixes)
		}
		page.Entries = append(page.Entries, it)
		count++
		if count == maxKeys && maxKeys > 0 && !isLastCandidate(items, i, prefix, delimiter, seenPrefixes) {
			page.IsTruncated = true
			page.NextToken = it.Key
			return finish(page, seenPrefixes)
		}
	}
	return finish(page, seenPrefixes)
}

// isLastCandidate reports whether index i is the final item matching prefix
// in items that would produce a new entry or common prefix, per step 5's
// "AND the current entry is not the final candidate" qualifier: a page that
// exactly exhausts the distinct entries/prefixes is not truncated, even if
// more raw items remain that would only collapse into an already-seen
// common prefix.
func isLastCandidate(items []Item, i int, prefix, delimiter string, seen map[string]bool) bool {
	for j := i + 1; j < len(items); j++ {
		it := items[j]
		if !strings.HasPrefix(it.Key, prefix) {
			continue
		}
		if delimiter != "" {
			suffix := it.Key[len(prefix):]
			if idx := strings.Index(suffix, delimiter); idx >= 0 {
				cp := prefix + suffix[:idx+len(delimiter)]
				if seen[cp] {
					continue
				}
			}
		}
		return false
	}
	return true
}

func finish(page Page, seen map[string]bool) Page {
	prefixes := make([]string, 0, len(seen))
	for p := range seen {
		prefixes = append(prefixes, p)
	}
	sortStrings(prefixes)
	page.CommonPrefixes = prefixes
	return page
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// EncodeToken implements the v2/ListBuckets continuation-token rule of §9:
// base64(key) so that sort order is preserved under decoding (byte-wise
// base64 is monotonic for equal-length-prefix-compatible alphabets only in
// general, but since tokens are opaque to clients and we only ever decode
// what we ourselves encoded, preserving *our own* sort order is enough).
func EncodeToken(raw string) string {
	if raw == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeToken reverses EncodeToken; an invalid token decodes to "" so a
// malformed client-supplied token degrades to "start from the beginning"
// rather than panicking.
func DecodeToken(token string) string {
	if token == "" {
		return ""
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return ""
	}
	return string(b)
}

// EncodeKey applies §4.5's encoding_type=url rule to a single emitted key,
// prefix, or delimiter: percent-encoding per RFC 3986, not query-string
// encoding (url.QueryEscape would encode a space as "+" rather than "%20",
// which the Service's url encoding_type never does).
func EncodeKey(s, encodingType string) string {
	if encodingType != "url" {
		return s
	}
	escaped := url.QueryEscape(s)
	return strings.ReplaceAll(escaped, "+", "%20")
}
