package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cristiangiann/localstack/dispatch"
	"github.com/cristiangiann/localstack/lifecycle"
	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/s3err"
)

func newBucketForSubresourceTests(t *testing.T) (*dispatch.Dispatcher, string) {
	t.Helper()
	d := newDispatcher(t)
	_, err := d.CreateBucket(caller, "sub-bucket")
	require.NoError(t, err)
	return d, "sub-bucket"
}

func TestBucketVersioningDefaultsToUnset(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)
	status, err := d.GetBucketVersioning(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, objstore.VersioningUnset, status)

	require.NoError(t, d.PutBucketVersioning(caller, b, "", objstore.VersioningEnabled))
	status, err = d.GetBucketVersioning(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, objstore.VersioningEnabled, status)
}

func TestBucketLifecycleConfigurationRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	_, err := d.GetBucketLifecycleConfiguration(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchLifecycleConfiguration)

	raw := []objstore.LifecycleRule{{"ID": "expire-logs"}}
	rules := []lifecycle.Rule{{ID: "expire-logs", Enabled: true, Prefix: "logs/", ExpirationDays: 30}}
	require.NoError(t, d.PutBucketLifecycleConfiguration(caller, b, "", raw, rules))

	got, err := d.GetBucketLifecycleConfiguration(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, raw, got)

	require.NoError(t, d.DeleteBucketLifecycle(caller, b, ""))
	_, err = d.GetBucketLifecycleConfiguration(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchLifecycleConfiguration)
}

func TestBucketEncryptionDefaultsToAES256(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	enc, err := d.GetBucketEncryption(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, objstore.DefaultEncryptionRule, enc)

	require.NoError(t, d.PutBucketEncryption(caller, b, "", objstore.EncryptionRule{SSEAlgorithm: "aws:kms", KMSMasterKeyID: "k1"}))
	enc, err = d.GetBucketEncryption(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, "aws:kms", enc.SSEAlgorithm)
}

func TestBucketPolicyRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	_, err := d.GetBucketPolicy(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchBucketPolicy)

	require.NoError(t, d.PutBucketPolicy(caller, b, "", `{"Version":"2012-10-17"}`))
	policy, err := d.GetBucketPolicy(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, `{"Version":"2012-10-17"}`, policy)

	require.NoError(t, d.DeleteBucketPolicy(caller, b, ""))
	_, err = d.GetBucketPolicy(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchBucketPolicy)
}

func TestBucketCorsRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	_, err := d.GetBucketCors(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchCORSConfiguration)

	rules := []objstore.CORSRule{{"AllowedOrigins": []string{"*"}}}
	require.NoError(t, d.PutBucketCors(caller, b, "", rules))
	got, err := d.GetBucketCors(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, rules, got)

	require.NoError(t, d.DeleteBucketCors(caller, b, ""))
	_, err = d.GetBucketCors(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchCORSConfiguration)
}

func TestBucketWebsiteRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	_, err := d.GetBucketWebsite(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchWebsiteConfiguration)

	cfg := objstore.WebsiteConfig{"IndexDocument": "index.html"}
	require.NoError(t, d.PutBucketWebsite(caller, b, "", cfg))
	got, err := d.GetBucketWebsite(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, cfg, got)

	require.NoError(t, d.DeleteBucketWebsite(caller, b, ""))
	_, err = d.GetBucketWebsite(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchWebsiteConfiguration)
}

func TestBucketNotificationConfigurationEmptyByDefault(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	cfg, err := d.GetBucketNotificationConfiguration(caller, b, "")
	require.NoError(t, err)
	require.Empty(t, cfg)

	newCfg := objstore.NotificationConfig{"TopicConfigurations": []any{}}
	require.NoError(t, d.PutBucketNotificationConfiguration(caller, b, "", newCfg))
	got, err := d.GetBucketNotificationConfiguration(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, newCfg, got)
}

func TestBucketReplicationRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	_, err := d.GetBucketReplication(caller, b, "")
	require.ErrorIs(t, err, s3err.ReplicationConfigurationNotFound)

	cfg := objstore.ReplicationConfig{"Role": "arn:aws:iam::111122223333:role/repl"}
	require.NoError(t, d.PutBucketReplication(caller, b, "", cfg))
	got, err := d.GetBucketReplication(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, cfg, got)

	require.NoError(t, d.DeleteBucketReplication(caller, b, ""))
	_, err = d.GetBucketReplication(caller, b, "")
	require.ErrorIs(t, err, s3err.ReplicationConfigurationNotFound)
}

func TestBucketAccelerateConfigurationRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	status, err := d.GetBucketAccelerateConfiguration(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, "", status)

	require.NoError(t, d.PutBucketAccelerateConfiguration(caller, b, "", "Enabled"))
	status, err = d.GetBucketAccelerateConfiguration(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, "Enabled", status)
}

func TestBucketLoggingReturnsNilWhenUnset(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	cfg, err := d.GetBucketLogging(caller, b, "")
	require.NoError(t, err)
	require.Nil(t, cfg)

	newCfg := objstore.LoggingConfig{"TargetBucket": "log-bucket"}
	require.NoError(t, d.PutBucketLogging(caller, b, "", newCfg))
	got, err := d.GetBucketLogging(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, newCfg, got)
}

func TestPublicAccessBlockRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	_, err := d.GetPublicAccessBlock(caller, b, "")
	require.ErrorIs(t, err, s3err.PublicAccessBlockNotFound)

	cfg := objstore.PublicAccessBlock{"BlockPublicAcls": true}
	require.NoError(t, d.PutPublicAccessBlock(caller, b, "", cfg))
	got, err := d.GetPublicAccessBlock(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, cfg, got)

	require.NoError(t, d.DeletePublicAccessBlock(caller, b, ""))
	_, err = d.GetPublicAccessBlock(caller, b, "")
	require.ErrorIs(t, err, s3err.PublicAccessBlockNotFound)
}

func TestBucketOwnershipControlsDefaultsToBucketOwnerEnforced(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	ownership, err := d.GetBucketOwnershipControls(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, objstore.OwnershipBucketOwnerEnforced, ownership)

	require.NoError(t, d.PutBucketOwnershipControls(caller, b, "", objstore.OwnershipObjectWriter))
	ownership, err = d.GetBucketOwnershipControls(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, objstore.OwnershipObjectWriter, ownership)
}

func TestObjectLockConfigurationRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	_, _, err := d.GetObjectLockConfiguration(caller, b, "")
	require.ErrorIs(t, err, s3err.ObjectLockConfigurationNotFound)

	def := &objstore.DefaultRetention{Mode: "GOVERNANCE", Days: 7}
	require.NoError(t, d.PutObjectLockConfiguration(caller, b, "", true, def))

	enabled, got, err := d.GetObjectLockConfiguration(caller, b, "")
	require.NoError(t, err)
	require.True(t, enabled)
	require.Equal(t, def, got)
}

func TestBucketTaggingRoundTrip(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	_, err := d.GetBucketTagging(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchTagSet)

	tags := map[string]string{"env": "prod"}
	require.NoError(t, d.PutBucketTagging(caller, b, "", tags))
	got, err := d.GetBucketTagging(caller, b, "")
	require.NoError(t, err)
	require.Equal(t, tags, got)

	require.NoError(t, d.DeleteBucketTagging(caller, b, ""))
	_, err = d.GetBucketTagging(caller, b, "")
	require.ErrorIs(t, err, s3err.NoSuchTagSet)
}

func TestIDKeyedSubresourceConfigurationsCoexist(t *testing.T) {
	d, b := newBucketForSubresourceTests(t)

	require.NoError(t, d.PutBucketAnalyticsConfiguration(caller, b, "", "report-1", objstore.AnalyticsConfig{"Id": "report-1"}))
	require.NoError(t, d.PutBucketAnalyticsConfiguration(caller, b, "", "report-2", objstore.AnalyticsConfig{"Id": "report-2"}))
	require.NoError(t, d.PutBucketIntelligentTieringConfiguration(caller, b, "", "tier-1", objstore.IntelligentTierConfig{"Id": "tier-1"}))
	require.NoError(t, d.PutBucketInventoryConfiguration(caller, b, "", "inv-1", objstore.InventoryConfig{"Id": "inv-1"}))
}
