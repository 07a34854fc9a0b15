package listing

// MultipartUploadsRequest carries ListMultipartUploads inputs.
type MultipartUploadsRequest struct {
	Prefix         string
	Delimiter      string
	KeyMarker      string
	UploadIDMarker string
	MaxUploads     int
	EncodingType   string
}

// MultipartUploadsResult is the list-multipart-uploads response shape.
type MultipartUploadsResult struct {
	Page
	NextKeyMarker      string
	NextUploadIDMarker string
}

type uploadPayload interface{ UploadID() string }

// RunMultipartUploads resumes at the (key-marker, upload-id-marker) pair,
// analogous to versions listing but keyed by upload id instead of version
// id; upload ids have no defined total order, so ties are broken by a
// plain string comparison over the id itself (items must already be
// sorted key-ascending, then upload-id-ascending within a key).
func RunMultipartUploads(items []Item, req MultipartUploadsRequest) MultipartUploadsResult {
	filtered := skipToUploadMarker(items, req.KeyMarker, req.UploadIDMarker)
	page := Run(filtered, req.Prefix, req.Delimiter, req.MaxUploads)

	result := MultipartUploadsResult{Page: page}
	if page.IsTruncated {
		if len(page.Entries) > 0 {
			last := page.Entries[len(page.Entries)-1]
			result.NextKeyMarker = last.Key
			if u, ok := last.Payload.(uploadPayload); ok {
				result.NextUploadIDMarker = u.UploadID()
			}
		} else {
			result.NextKeyMarker = page.NextToken
		}
	}
	return result
}

func skipToUploadMarker(items []Item, keyMarker, uploadIDMarker string) []Item {
	if keyMarker == "" {
		return items
	}
	idx := 0
	for idx < len(items) &&
		(items[idx].Key < keyMarker ||
			(items[idx].Key == keyMarker && !uploadIDAfter(items[idx], uploadIDMarker))) {
		idx++
	}
	return items[idx:]
}

func uploadIDAfter(it Item, marker string) bool {
	if marker == "" {
		return true
	}
	u, ok := it.Payload.(uploadPayload)
	return ok && u.UploadID() > marker
}
