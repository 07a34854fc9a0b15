package listing

// ObjectsV1Request carries ListObjects (v1) inputs (§4.5 table row 1).
type ObjectsV1Request struct {
	Prefix       string
	Delimiter    string
	Marker       string
	MaxKeys      int
	EncodingType string
}

// ObjectsV1Result is the v1 response shape: NextMarker is either the next
// key or the common-prefix that caused truncation.
type ObjectsV1Result struct {
	Page
	NextMarker string
}

// RunObjectsV1 resumes after req.Marker (a plain key, step 1's "marker
// rules" for v1: strict greater-than, independent of prefix).
func RunObjectsV1(items []Item, req ObjectsV1Request) ObjectsV1Result {
	filtered := skipUpTo(items, req.Marker)
	page := Run(filtered, req.Prefix, req.Delimiter, req.MaxKeys)
	return ObjectsV1Result{Page: page, NextMarker: page.NextToken}
}

// ObjectsV2Request carries ListObjectsV2 inputs.
type ObjectsV2Request struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string // base64(key)
	StartAfter        string
	MaxKeys           int
	EncodingType      string
}

// ObjectsV2Result is the v2 response shape.
type ObjectsV2Result struct {
	Page
	NextContinuationToken string
}

// RunObjectsV2 resumes after the continuation token if present, else after
// StartAfter, else from the beginning (§4.5).
func RunObjectsV2(items []Item, req ObjectsV2Request) ObjectsV2Result {
	resume := ""
	if req.ContinuationToken != "" {
		resume = DecodeToken(req.ContinuationToken)
	} else if req.StartAfter != "" {
		resume = req.StartAfter
	}
	filtered := skipUpTo(items, resume)
	page := Run(filtered, req.Prefix, req.Delimiter, req.MaxKeys)
	var next string
	if page.IsTruncated {
		next = EncodeToken(page.NextToken)
	}
	return ObjectsV2Result{Page: page, NextContinuationToken: next}
}

// skipUpTo returns the suffix of items whose Key is strictly greater than
// resume (or all of items when resume is empty).
func skipUpTo(items []Item, resume string) []Item {
	if resume == "" {
		return items
	}
	idx := 0
	for idx < len(items) && items[idx].Key <= resume {
		idx++
	}
	return items[idx:]
}

