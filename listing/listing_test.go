package listing_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/cristiangiann/localstack/listing"
)

func items(keys ...string) []listing.Item {
	out := make([]listing.Item, len(keys))
	for i, k := range keys {
		out[i] = listing.Item{Key: k}
	}
	return out
}

var _ = Describe("Run", func() {
	It("returns an empty, non-truncated page when max_keys is 0", func() {
		page := listing.Run(items("a", "b"), "", "", 0)
		Expect(page.Entries).To(BeEmpty())
		Expect(page.IsTruncated).To(BeFalse())
	})

	It("filters by prefix", func() {
		page := listing.Run(items("a/1", "a/2", "b/1"), "a/", "", 10)
		Expect(page.Entries).To(HaveLen(2))
		Expect(page.Entries[0].Key).To(Equal("a/1"))
		Expect(page.Entries[1].Key).To(Equal("a/2"))
	})

	It("collapses delimiter-containing keys into common prefixes", func() {
		page := listing.Run(items("photos/1.jpg", "photos/2.jpg", "readme.txt"), "", "/", 10)
		Expect(page.Entries).To(HaveLen(1))
		Expect(page.Entries[0].Key).To(Equal("readme.txt"))
		Expect(page.CommonPrefixes).To(Equal([]string{"photos/"}))
	})

	It("counts a common prefix only once toward max_keys", func() {
		page := listing.Run(items("photos/1.jpg", "photos/2.jpg", "photos/3.jpg"), "", "/", 1)
		Expect(page.IsTruncated).To(BeFalse())
		Expect(page.CommonPrefixes).To(Equal([]string{"photos/"}))
	})

	It("is not truncated when the page exactly exhausts the matching candidates", func() {
		page := listing.Run(items("a", "b"), "", "", 2)
		Expect(page.IsTruncated).To(BeFalse())
		Expect(page.Entries).To(HaveLen(2))
	})

	It("truncates and reports a resume token when more candidates remain", func() {
		page := listing.Run(items("a", "b", "c"), "", "", 2)
		Expect(page.IsTruncated).To(BeTrue())
		Expect(page.NextToken).To(Equal("c"))
		Expect(page.Entries).To(HaveLen(2))
	})
})

var _ = Describe("EncodeToken/DecodeToken", func() {
	It("round-trips a raw key", func() {
		enc := listing.EncodeToken("some/key")
		Expect(listing.DecodeToken(enc)).To(Equal("some/key"))
	})

	It("degrades a malformed token to empty rather than panicking", func() {
		Expect(listing.DecodeToken("!!!not-base64!!!")).To(Equal(""))
	})

	It("treats an empty token as empty on both ends", func() {
		Expect(listing.EncodeToken("")).To(Equal(""))
		Expect(listing.DecodeToken("")).To(Equal(""))
	})
})

var _ = Describe("EncodeKey", func() {
	It("passes keys through unchanged when encoding_type is not url", func() {
		Expect(listing.EncodeKey("a b/c", "")).To(Equal("a b/c"))
	})

	It("percent-encodes a space as %20, not +", func() {
		Expect(listing.EncodeKey("a b", "url")).To(Equal("a%20b"))
	})
})

var _ = Describe("RunObjectsV1", func() {
	It("resumes strictly after the marker", func() {
		res := listing.RunObjectsV1(items("a", "b", "c"), listing.ObjectsV1Request{Marker: "a", MaxKeys: 10})
		Expect(res.Entries).To(HaveLen(2))
		Expect(res.Entries[0].Key).To(Equal("b"))
	})
})

var _ = Describe("RunObjectsV2", func() {
	It("prefers the continuation token over start_after", func() {
		token := listing.EncodeToken("b")
		res := listing.RunObjectsV2(items("a", "b", "c", "d"), listing.ObjectsV2Request{
			ContinuationToken: token,
			StartAfter:        "a",
			MaxKeys:           10,
		})
		Expect(res.Entries).To(HaveLen(2))
		Expect(res.Entries[0].Key).To(Equal("c"))
	})

	It("falls back to start_after when there is no token", func() {
		res := listing.RunObjectsV2(items("a", "b", "c"), listing.ObjectsV2Request{StartAfter: "a", MaxKeys: 10})
		Expect(res.Entries).To(HaveLen(2))
		Expect(res.Entries[0].Key).To(Equal("b"))
	})

	It("sets a decodable NextContinuationToken when truncated", func() {
		res := listing.RunObjectsV2(items("a", "b", "c"), listing.ObjectsV2Request{MaxKeys: 1})
		Expect(res.IsTruncated).To(BeTrue())
		Expect(listing.DecodeToken(res.NextContinuationToken)).To(Equal("a"))
	})
})

var _ = Describe("RunBuckets", func() {
	It("ignores delimiter semantics entirely", func() {
		res := listing.RunBuckets(items("a/b", "c"), listing.BucketsRequest{MaxBuckets: 10})
		Expect(res.Entries).To(HaveLen(2))
		Expect(res.CommonPrefixes).To(BeEmpty())
	})
})
