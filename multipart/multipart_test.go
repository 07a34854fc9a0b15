package multipart_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cristiangiann/localstack/cksum"
	"github.com/cristiangiann/localstack/content"
	"github.com/cristiangiann/localstack/multipart"
	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/s3err"
)

func newEngineAndBucket(t *testing.T) (*multipart.Engine, *objstore.Bucket) {
	t.Helper()
	store := content.New(t.TempDir())
	require.NoError(t, store.CreateBucket("b"))
	bucket := objstore.NewBucket("b", "111122223333", "us-east-1", "111122223333")
	return multipart.New(store), bucket
}

func TestCreateRejectsOutpostsStorageClass(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	_, err := e.Create(bucket, multipart.CreateParams{Key: "k", StorageClass: "OUTPOSTS"})
	require.Error(t, err)
}

func TestCreateRejectsIncompatibleChecksumTypeAndAlgorithm(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	_, err := e.Create(bucket, multipart.CreateParams{
		Key: "k", ChecksumAlgorithm: cksum.AlgorithmCRC64NVME, ChecksumType: cksum.TypeComposite,
	})
	require.Error(t, err)
}

func TestCreateDefaultsChecksumTypeByAlgorithm(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k", ChecksumAlgorithm: cksum.AlgorithmCRC64NVME})
	require.NoError(t, err)
	require.Equal(t, cksum.TypeFullObject, m.ChecksumType)

	m2, err := e.Create(bucket, multipart.CreateParams{Key: "k2", ChecksumAlgorithm: cksum.AlgorithmCRC32})
	require.NoError(t, err)
	require.Equal(t, cksum.TypeComposite, m2.ChecksumType)
}

func TestUploadPartRejectsInvalidPartNumber(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)

	_, err = e.UploadPart(bucket, multipart.UploadPartParams{
		UploadID: m.ID, Key: "k", PartNumber: 0, Body: strings.NewReader("x"),
	})
	require.ErrorIs(t, err, s3err.InvalidPartNumber)

	_, err = e.UploadPart(bucket, multipart.UploadPartParams{
		UploadID: m.ID, Key: "k", PartNumber: 10001, Body: strings.NewReader("x"),
	})
	require.ErrorIs(t, err, s3err.InvalidPartNumber)
}

func TestUploadPartRejectsWrongUploadOrKey(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	_, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)

	_, err = e.UploadPart(bucket, multipart.UploadPartParams{
		UploadID: "bogus-upload-id", Key: "k", PartNumber: 1, Body: strings.NewReader("x"),
	})
	require.ErrorIs(t, err, s3err.NoSuchUpload)
}

func TestUploadPartComputesChecksumAndRejectsMismatch(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k", ChecksumAlgorithm: cksum.AlgorithmCRC32})
	require.NoError(t, err)

	body := "hello world"
	h := cksum.NewHasher(cksum.AlgorithmCRC32)
	h.Write([]byte(body))
	want := cksum.B64(h.Sum(nil))

	part, err := e.UploadPart(bucket, multipart.UploadPartParams{
		UploadID: m.ID, Key: "k", PartNumber: 1, Body: strings.NewReader(body), ChecksumValue: want,
	})
	require.NoError(t, err)
	require.Equal(t, want, part.ChecksumValue)

	_, err = e.UploadPart(bucket, multipart.UploadPartParams{
		UploadID: m.ID, Key: "k", PartNumber: 2, Body: strings.NewReader(body), ChecksumValue: "not-the-right-checksum",
	})
	require.Error(t, err)
}

func TestUploadPartValidatesContentMD5(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)

	_, err = e.UploadPart(bucket, multipart.UploadPartParams{
		UploadID: m.ID, Key: "k", PartNumber: 1, Body: strings.NewReader("hello"),
		ContentMD5: cksum.B64(cksum.NewMD5().Sum(nil)), // digest of empty string, deliberately wrong
	})
	require.ErrorIs(t, err, s3err.BadDigest)
}

func TestListPartsPaginatesByPartNumberMarker(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err := e.UploadPart(bucket, multipart.UploadPartParams{
			UploadID: m.ID, Key: "k", PartNumber: i, Body: strings.NewReader("x"),
		})
		require.NoError(t, err)
	}

	page, truncated, next := multipart.ListParts(m, 0, 2)
	require.Len(t, page, 2)
	require.True(t, truncated)
	require.Equal(t, 2, next)
	require.Equal(t, 1, page[0].PartNumber)
	require.Equal(t, 2, page[1].PartNumber)

	page2, truncated2, _ := multipart.ListParts(m, next, 2)
	require.Len(t, page2, 1)
	require.False(t, truncated2)
	require.Equal(t, 3, page2[0].PartNumber)
}

func TestAbortRemovesUploadAndStaging(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)
	_, err = e.UploadPart(bucket, multipart.UploadPartParams{UploadID: m.ID, Key: "k", PartNumber: 1, Body: strings.NewReader("x")})
	require.NoError(t, err)

	require.NoError(t, e.Abort(bucket, "k", m.ID))

	_, err = e.UploadPart(bucket, multipart.UploadPartParams{UploadID: m.ID, Key: "k", PartNumber: 2, Body: strings.NewReader("x")})
	require.ErrorIs(t, err, s3err.NoSuchUpload)
}

func TestAbortUnknownUploadReturnsNoSuchUpload(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	err := e.Abort(bucket, "k", "bogus")
	require.ErrorIs(t, err, s3err.NoSuchUpload)
}

func TestCompleteRejectsEmptyPartList(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)

	_, _, err = e.Complete(bucket, "v1", multipart.CompleteParams{UploadID: m.ID, Key: "k"})
	require.Error(t, err)
}

func TestCompleteRejectsOutOfOrderParts(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)
	for i := 1; i <= 2; i++ {
		_, err := e.UploadPart(bucket, multipart.UploadPartParams{UploadID: m.ID, Key: "k", PartNumber: i, Body: strings.NewReader("x")})
		require.NoError(t, err)
	}

	_, _, err = e.Complete(bucket, "v1", multipart.CompleteParams{
		UploadID: m.ID, Key: "k",
		Parts: []multipart.CompletedPart{{PartNumber: 2, ETag: "x"}, {PartNumber: 1, ETag: "x"}},
	})
	require.ErrorIs(t, err, s3err.InvalidPartOrder)
}

func TestCompleteRejectsMismatchedPartETag(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)
	_, err = e.UploadPart(bucket, multipart.UploadPartParams{UploadID: m.ID, Key: "k", PartNumber: 1, Body: strings.NewReader("x")})
	require.NoError(t, err)

	_, _, err = e.Complete(bucket, "v1", multipart.CompleteParams{
		UploadID: m.ID, Key: "k",
		Parts: []multipart.CompletedPart{{PartNumber: 1, ETag: "deadbeef"}},
	})
	require.ErrorIs(t, err, s3err.InvalidPart)
}

func TestCompleteReassemblesPartsAndComputesMultipartETag(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k"})
	require.NoError(t, err)

	p1, err := e.UploadPart(bucket, multipart.UploadPartParams{UploadID: m.ID, Key: "k", PartNumber: 1, Body: strings.NewReader("abc")})
	require.NoError(t, err)
	p2, err := e.UploadPart(bucket, multipart.UploadPartParams{UploadID: m.ID, Key: "k", PartNumber: 2, Body: strings.NewReader("def")})
	require.NoError(t, err)

	obj, w, err := e.Complete(bucket, "v1", multipart.CompleteParams{
		UploadID: m.ID, Key: "k",
		Parts: []multipart.CompletedPart{{PartNumber: 1, ETag: p1.ETag}, {PartNumber: 2, ETag: p2.ETag}},
	})
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	require.Equal(t, int64(6), obj.Size)
	require.Contains(t, obj.ETag, "-2")
	require.Len(t, obj.Parts, 2)
	require.Equal(t, int64(0), obj.Parts[0].Offset)
	require.Equal(t, int64(3), obj.Parts[1].Offset)

	_, stillThere := bucket.GetMultipart("k", m.ID)
	require.False(t, stillThere)
}

func TestCompleteValidatesWholeObjectChecksumForCompositeUpload(t *testing.T) {
	e, bucket := newEngineAndBucket(t)
	m, err := e.Create(bucket, multipart.CreateParams{Key: "k", ChecksumAlgorithm: cksum.AlgorithmCRC32})
	require.NoError(t, err)

	body1, body2 := "hello", "world"
	h1 := cksum.NewHasher(cksum.AlgorithmCRC32)
	h1.Write([]byte(body1))
	cs1 := cksum.B64(h1.Sum(nil))
	h2 := cksum.NewHasher(cksum.AlgorithmCRC32)
	h2.Write([]byte(body2))
	cs2 := cksum.B64(h2.Sum(nil))

	p1, err := e.UploadPart(bucket, multipart.UploadPartParams{UploadID: m.ID, Key: "k", PartNumber: 1, Body: strings.NewReader(body1), ChecksumValue: cs1})
	require.NoError(t, err)
	p2, err := e.UploadPart(bucket, multipart.UploadPartParams{UploadID: m.ID, Key: "k", PartNumber: 2, Body: strings.NewReader(body2), ChecksumValue: cs2})
	require.NoError(t, err)

	obj, w, err := e.Complete(bucket, "v1", multipart.CompleteParams{
		UploadID: m.ID, Key: "k",
		Parts: []multipart.CompletedPart{
			{PartNumber: 1, ETag: p1.ETag, ChecksumValue: cs1},
			{PartNumber: 2, ETag: p2.ETag, ChecksumValue: cs2},
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	require.NotEmpty(t, obj.ChecksumValue)
	require.Equal(t, cksum.TypeComposite, obj.ChecksumType)
}

func TestUploadPartCopyCopiesRangeAndRecomputesETag(t *testing.T) {
	store := content.New(t.TempDir())
	require.NoError(t, store.CreateBucket("b"))
	bucket := objstore.NewBucket("b", "111122223333", "us-east-1", "111122223333")
	e := multipart.New(store)

	scope := store.OpenWriter("b", "source.bin")
	w, err := store.NewWriter("b", "source.bin", "v1")
	require.NoError(t, err)
	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	scope.Release(true)

	m, err := e.Create(bucket, multipart.CreateParams{Key: "dest.bin"})
	require.NoError(t, err)

	src := &objstore.Object{Key: "source.bin", Version: "v1", ETag: "deadbeef", Size: 10}
	part, err := e.UploadPartCopy(bucket, multipart.UploadPartCopyParams{
		UploadID: m.ID, Key: "dest.bin", PartNumber: 1,
		SourceBucket: "b", SourceKey: "source.bin", SourceVersionID: "v1", SourceObject: src,
		RangeOffset: 2, RangeLength: 4,
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), part.Size)

	copiedHash := cksum.NewMD5()
	copiedHash.Write([]byte("2345"))
	require.Equal(t, cksum.Hex(copiedHash.Sum(nil)), part.ETag)
}
