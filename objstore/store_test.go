package objstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/s3err"
)

func TestCreateBucketRejectsCrossAccountNameCollision(t *testing.T) {
	s := objstore.NewStores()
	_, err := s.CreateBucket("111122223333", "us-east-1", "shared-name")
	require.NoError(t, err)

	_, err = s.CreateBucket("999988887777", "us-east-1", "shared-name")
	require.ErrorIs(t, err, s3err.BucketAlreadyExists)
}

func TestCreateBucketIsIdempotentForSameAccountInUsEast1(t *testing.T) {
	s := objstore.NewStores()
	b1, err := s.CreateBucket("111122223333", "us-east-1", "my-bucket")
	require.NoError(t, err)

	b2, err := s.CreateBucket("111122223333", "us-east-1", "my-bucket")
	require.NoError(t, err)
	require.Same(t, b1, b2)
}

func TestCreateBucketSameAccountOtherRegionIsAlreadyOwnedByYou(t *testing.T) {
	s := objstore.NewStores()
	_, err := s.CreateBucket("111122223333", "us-east-1", "my-bucket")
	require.NoError(t, err)

	_, err = s.CreateBucket("111122223333", "eu-west-1", "my-bucket")
	require.ErrorIs(t, err, s3err.BucketAlreadyOwnedByYou)
}

func TestDeleteBucketRemovesFromGlobalMapAllowingReuse(t *testing.T) {
	s := objstore.NewStores()
	_, err := s.CreateBucket("111122223333", "us-east-1", "my-bucket")
	require.NoError(t, err)
	s.DeleteBucket("111122223333", "us-east-1", "my-bucket")

	_, err = s.CreateBucket("999988887777", "us-east-1", "my-bucket")
	require.NoError(t, err)
}

func TestResolveFindsBucketOwnedByAnotherAccountViaGlobalMap(t *testing.T) {
	s := objstore.NewStores()
	_, err := s.CreateBucket("111122223333", "us-east-1", "my-bucket")
	require.NoError(t, err)

	store, bucket, err := s.Resolve("999988887777", "us-east-1", "my-bucket", "")
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Equal(t, "111122223333", bucket.AccountID)
}

func TestResolveRejectsMismatchedExpectedOwner(t *testing.T) {
	s := objstore.NewStores()
	_, err := s.CreateBucket("111122223333", "us-east-1", "my-bucket")
	require.NoError(t, err)

	_, _, err = s.Resolve("111122223333", "us-east-1", "my-bucket", "999988887777")
	require.Error(t, err)
}

func TestResolveRejectsMalformedExpectedOwner(t *testing.T) {
	s := objstore.NewStores()
	_, _, err := s.Resolve("111122223333", "us-east-1", "my-bucket", "not-an-account-id")
	require.ErrorIs(t, err, s3err.InvalidBucketOwnerAWSAccountID)
}

func TestResolveMissingBucketReturnsNoSuchBucket(t *testing.T) {
	s := objstore.NewStores()
	_, _, err := s.Resolve("111122223333", "us-east-1", "nonexistent", "")
	require.ErrorIs(t, err, s3err.NoSuchBucket)
}

func TestTagResourceRoundTrip(t *testing.T) {
	s := objstore.NewStores()
	store := s.ForAccount("111122223333", "us-east-1")

	store.TagResource("arn:bucket/key/v1", map[string]string{"env": "prod"})
	require.Equal(t, map[string]string{"env": "prod"}, store.ListTags("arn:bucket/key/v1"))

	store.TagResource("arn:bucket/key/v1", nil)
	require.Nil(t, store.ListTags("arn:bucket/key/v1"))
}

func TestManagedKMSKeyIDLazilyCreatesOnce(t *testing.T) {
	s := objstore.NewStores()
	store := s.ForAccount("111122223333", "us-east-1")

	calls := 0
	create := func() string { calls++; return "alias/aws/s3" }

	id1 := store.ManagedKMSKeyID(create)
	id2 := store.ManagedKMSKeyID(create)
	require.Equal(t, "alias/aws/s3", id1)
	require.Equal(t, id1, id2)
	require.Equal(t, 1, calls)
}
