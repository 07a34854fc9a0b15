package dispatch

import (
	"github.com/cristiangiann/localstack/listing"
	"github.com/cristiangiann/localstack/objstore"
)

// ListObjectsV1 wires the §4.5 Listing Engine's ListObjects(v1) wrapper over
// a bucket's current-version index.
func (d *Dispatcher) ListObjectsV1(caller Caller, bucketName, expectedOwner string, req listing.ObjectsV1Request) (listing.ObjectsV1Result, error) {
	_, bucket, err := d.resolve(caller, bucketName, expectedOwner)
	if err != nil {
		return listing.ObjectsV1Result{}, err
	}
	return listing.RunObjectsV1(objectItems(bucket), req), nil
}

// ListObjectsV2 wires ListObjectsV2.
func (d *Dispatcher) ListObjectsV2(caller Caller, bucketName, expectedOwner string, req listing.ObjectsV2Request) (listing.ObjectsV2Result, error) {
	_, bucket, err := d.resolve(caller, bucketName, expectedOwner)
	if err != nil {
		return listing.ObjectsV2Result{}, err
	}
	return listing.RunObjectsV2(objectItems(bucket), req), nil
}

// ListObjectVersions wires ListObjectVersions over every live version and
// delete marker.
func (d *Dispatcher) ListObjectVersions(caller Caller, bucketName, expectedOwner string, req listing.VersionsRequest) (listing.VersionsResult, error) {
	_, bucket, err := d.resolve(caller, bucketName, expectedOwner)
	if err != nil {
		return listing.VersionsResult{}, err
	}
	versions := bucket.Objects.ValuesWithVersions()
	items := make([]listing.Item, 0, len(versions))
	for _, v := range versions {
		items = append(items, listing.Item{Key: versionKey(v), Payload: v})
	}
	return listing.RunVersions(items, req), nil
}

// ListMultipartUploads wires ListMultipartUploads over a bucket's in-progress
// uploads, sorted key-ascending then upload-id-ascending.
func (d *Dispatcher) ListMultipartUploads(caller Caller, bucketName, expectedOwner string, req listing.MultipartUploadsRequest) (listing.MultipartUploadsResult, error) {
	_, bucket, err := d.resolve(caller, bucketName, expectedOwner)
	if err != nil {
		return listing.MultipartUploadsResult{}, err
	}
	bucket.RLock()
	uploads := make([]*objstore.Multipart, 0, len(bucket.Multiparts))
	for _, m := range bucket.Multiparts {
		uploads = append(uploads, m)
	}
	bucket.RUnlock()
	sortMultiparts(uploads)

	items := make([]listing.Item, 0, len(uploads))
	for _, m := range uploads {
		items = append(items, listing.Item{Key: m.Key, Payload: m})
	}
	return listing.RunMultipartUploads(items, req), nil
}

// ListBuckets wires ListBuckets over every bucket the caller's account owns
// in the requested region (§4.7: bucket listing is account-scoped, not
// cross-account like object resolution).
func (d *Dispatcher) ListBuckets(caller Caller, req listing.BucketsRequest) listing.BucketsResult {
	store := d.Stores.ForAccount(caller.AccountID, caller.Region)
	buckets := store.Buckets()
	sortBuckets(buckets)

	items := make([]listing.Item, 0, len(buckets))
	for _, b := range buckets {
		items = append(items, listing.Item{Key: b.Name, Payload: b})
	}
	return listing.RunBuckets(items, req)
}

func objectItems(bucket *objstore.Bucket) []listing.Item {
	values := bucket.Objects.Values()
	items := make([]listing.Item, 0, len(values))
	for _, v := range values {
		if v.IsDeleteMarker() {
			continue
		}
		items = append(items, listing.Item{Key: versionKey(v), Payload: v})
	}
	return items
}

func versionKey(v objstore.Version) string {
	if o, ok := v.(*objstore.Object); ok {
		return o.Key
	}
	if m, ok := v.(*objstore.DeleteMarker); ok {
		return m.Key
	}
	return ""
}

func sortMultiparts(m []*objstore.Multipart) {
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && outOfOrder(m[j-1], m[j]); j-- {
			m[j-1], m[j] = m[j], m[j-1]
		}
	}
}

// outOfOrder reports whether a should sort after b: key-ascending, then
// upload-id-ascending within a key.
func outOfOrder(a, b *objstore.Multipart) bool {
	if a.Key != b.Key {
		return a.Key > b.Key
	}
	return a.ID > b.ID
}

func sortBuckets(b []*objstore.Bucket) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && b[j-1].Name > b[j].Name; j-- {
			b[j-1], b[j] = b[j], b[j-1]
		}
	}
}
