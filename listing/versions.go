package listing

import "github.com/cristiangiann/localstack/cmn"

// VersionsRequest carries ListObjectVersions inputs (§4.5 table row 3).
type VersionsRequest struct {
	Prefix          string
	Delimiter       string
	KeyMarker       string
	VersionIDMarker string
	MaxKeys         int
	EncodingType    string
}

// VersionsResult is the versions-listing response shape.
type VersionsResult struct {
	Page
	NextKeyMarker       string
	NextVersionIDMarker string
}

// RunVersions resumes at the (key-marker, version-id-marker) tuple per
// §4.5: ties on key are ordered by last-modified descending (already
// guaranteed by the caller passing ValuesWithVersions() output); if the
// marker pair does not name a still-live version, resume at the first
// version whose version id is "older than" the marker (GLOSSARY).
func RunVersions(items []Item, req VersionsRequest) VersionsResult {
	filtered := skipToVersionMarker(items, req.KeyMarker, req.VersionIDMarker)
	page := Run(filtered, req.Prefix, req.Delimiter, req.MaxKeys)

	result := VersionsResult{Page: page}
	if page.IsTruncated {
		// The next token is either a common prefix (no per-version marker
		// applies) or the last emitted version's (key, version-id) pair.
		if len(page.Entries) > 0 {
			last := page.Entries[len(page.Entries)-1]
			result.NextKeyMarker = last.Key
			if v, ok := last.Payload.(versionPayload); ok {
				result.NextVersionIDMarker = v.VersionID()
			}
		} else {
			result.NextKeyMarker = page.NextToken
		}
	}
	return result
}

// versionPayload is the minimal shape RunVersions needs from an Item's
// Payload; objstore.Version satisfies it without this package importing
// objstore's concrete types.
type versionPayload interface {
	VersionID() string
}

func skipToVersionMarker(items []Item, keyMarker, versionIDMarker string) []Item {
	if keyMarker == "" {
		return items
	}
	idx := 0
	for idx < len(items) && items[idx].Key < keyMarker {
		idx++
	}
	if versionIDMarker == "" {
		// Resume strictly after all versions of keyMarker.
		for idx < len(items) && items[idx].Key == keyMarker {
			idx++
		}
		return items[idx:]
	}
	// Look for the exact (key, version) pair among keyMarker's versions.
	for idx < len(items) && items[idx].Key == keyMarker {
		v, ok := items[idx].Payload.(versionPayload)
		if ok && v.VersionID() == versionIDMarker {
			return items[idx+1:]
		}
		idx++
	}
	// Marker version no longer live: resume at the first version of
	// keyMarker whose id sorts "older than" the marker, or the first key
	// after keyMarker if none remain.
	idx = 0
	for idx < len(items) && items[idx].Key < keyMarker {
		idx++
	}
	for idx < len(items) && items[idx].Key == keyMarker {
		v, ok := items[idx].Payload.(versionPayload)
		if ok && cmn.OlderThan(v.VersionID(), versionIDMarker) {
			return items[idx:]
		}
		idx++
	}
	return items[idx:]
}
