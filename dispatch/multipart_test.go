package dispatch_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cristiangiann/localstack/dispatch"
	"github.com/cristiangiann/localstack/multipart"
	"github.com/cristiangiann/localstack/s3err"
)

func TestMultipartUploadRoundTrip(t *testing.T) {
	d := newDispatcher(t)
	_, err := d.CreateBucket(caller, "my-bucket")
	require.NoError(t, err)

	mpu, err := d.CreateMultipartUpload(caller, "my-bucket", "", multipart.CreateParams{Key: "big.bin"})
	require.NoError(t, err)
	require.NotEmpty(t, mpu.ID)

	part1, err := d.UploadPart(caller, "my-bucket", "", multipart.UploadPartParams{
		UploadID: mpu.ID, Key: "big.bin", PartNumber: 1, Body: bytes.NewReader(bytes.Repeat([]byte("a"), 1024)),
	})
	require.NoError(t, err)

	part2, err := d.UploadPart(caller, "my-bucket", "", multipart.UploadPartParams{
		UploadID: mpu.ID, Key: "big.bin", PartNumber: 2, Body: bytes.NewReader(bytes.Repeat([]byte("b"), 512)),
	})
	require.NoError(t, err)

	res, err := d.CompleteMultipartUpload(dispatch.CompleteMultipartUploadParams{
		Caller: caller, Bucket: "my-bucket",
		CompleteParams: multipart.CompleteParams{
			UploadID: mpu.ID,
			Key:      "big.bin",
			Parts: []multipart.CompletedPart{
				{PartNumber: 1, ETag: part1.ETag},
				{PartNumber: 2, ETag: part2.ETag},
			},
		},
	})
	require.NoError(t, err)
	require.Contains(t, res.Object.ETag, "-2") // multipart etag suffix: two parts

	get, err := d.GetObject(dispatch.GetObjectParams{Caller: caller, Bucket: "my-bucket", Key: "big.bin"})
	require.NoError(t, err)
	defer get.Body.Close()
	require.Equal(t, int64(1024+512), get.Object.Size)
}

func TestCompleteMultipartUploadRejectsOutOfOrderParts(t *testing.T) {
	d := newDispatcher(t)
	_, err := d.CreateBucket(caller, "my-bucket")
	require.NoError(t, err)

	mpu, err := d.CreateMultipartUpload(caller, "my-bucket", "", multipart.CreateParams{Key: "big.bin"})
	require.NoError(t, err)

	_, err = d.UploadPart(caller, "my-bucket", "", multipart.UploadPartParams{
		UploadID: mpu.ID, Key: "big.bin", PartNumber: 1, Body: bytes.NewReader([]byte("a")),
	})
	require.NoError(t, err)

	_, err = d.CompleteMultipartUpload(dispatch.CompleteMultipartUploadParams{
		Caller: caller, Bucket: "my-bucket",
		CompleteParams: multipart.CompleteParams{
			UploadID: mpu.ID,
			Key:      "big.bin",
			Parts: []multipart.CompletedPart{
				{PartNumber: 2, ETag: "bogus"},
				{PartNumber: 1, ETag: "bogus"},
			},
		},
	})
	require.ErrorIs(t, err, s3err.InvalidPartOrder)
}

func TestAbortMultipartUploadRemovesUpload(t *testing.T) {
	d := newDispatcher(t)
	_, err := d.CreateBucket(caller, "my-bucket")
	require.NoError(t, err)

	mpu, err := d.CreateMultipartUpload(caller, "my-bucket", "", multipart.CreateParams{Key: "big.bin"})
	require.NoError(t, err)

	require.NoError(t, d.AbortMultipartUpload(caller, "my-bucket", "", "big.bin", mpu.ID))

	_, err = d.UploadPart(caller, "my-bucket", "", multipart.UploadPartParams{
		UploadID: mpu.ID, Key: "big.bin", PartNumber: 1, Body: bytes.NewReader([]byte("a")),
	})
	require.ErrorIs(t, err, s3err.NoSuchUpload)
}
