package listing

// BucketsRequest carries ListBuckets inputs: a base64-encoded continuation
// token over bucket name (§4.5's final table row), plus the optional
// prefix and bucket-region/owner filters a multi-region account adds.
type BucketsRequest struct {
	Prefix            string
	ContinuationToken string
	MaxBuckets        int
}

// BucketsResult is the ListBuckets response shape.
type BucketsResult struct {
	Page
	NextContinuationToken string
}

// RunBuckets resumes after the decoded continuation token (a bucket name),
// strictly greater-than, ignoring delimiter semantics entirely: bucket
// names never collapse into common prefixes.
func RunBuckets(items []Item, req BucketsRequest) BucketsResult {
	resume := DecodeToken(req.ContinuationToken)
	filtered := skipUpTo(items, resume)
	page := Run(filtered, req.Prefix, "", req.MaxBuckets)

	result := BucketsResult{Page: page}
	if page.IsTruncated {
		result.NextContinuationToken = EncodeToken(page.NextToken)
	}
	return result
}
