package cmn_test

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cristiangiann/localstack/cmn"
)

func TestGCODefaultsBeforeAnyPut(t *testing.T) {
	c := cmn.GCO.Get()
	require.NotEmpty(t, c.StorageDir)
	require.Equal(t, "us-east-1", c.DefaultRegion)
}

func TestGCOPutReplacesSnapshot(t *testing.T) {
	orig := cmn.GCO.Get()
	defer cmn.GCO.Put(orig)

	cmn.GCO.Put(&cmn.Config{StorageDir: "/tmp/custom", DefaultRegion: "eu-west-1", SkipKMSValidation: true})

	c := cmn.GCO.Get()
	require.Equal(t, "/tmp/custom", c.StorageDir)
	require.Equal(t, "eu-west-1", c.DefaultRegion)
	require.True(t, c.SkipKMSValidation)
}

func TestLoadFromEnvDefaultsWithNoFlagsOrEnv(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := cmn.LoadFromEnv(fs, nil)

	require.Equal(t, "/tmp/localstack-s3-storage", cfg.StorageDir)
	require.False(t, cfg.SkipKMSValidation)
	require.Equal(t, "us-east-1", cfg.DefaultRegion)
}

func TestLoadFromEnvFlagsOverrideDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := cmn.LoadFromEnv(fs, []string{
		"-storage-dir", "/data/s3",
		"-skip-kms-validation",
		"-default-region", "ap-south-1",
	})

	require.Equal(t, "/data/s3", cfg.StorageDir)
	require.True(t, cfg.SkipKMSValidation)
	require.Equal(t, "ap-south-1", cfg.DefaultRegion)
}

func TestLoadFromEnvEnvironmentFallback(t *testing.T) {
	require.NoError(t, os.Setenv("S3ENGINE_STORAGE_DIR", "/env/s3"))
	require.NoError(t, os.Setenv("S3ENGINE_SKIP_KMS_VALIDATION", "true"))
	require.NoError(t, os.Setenv("S3ENGINE_DEFAULT_REGION", "sa-east-1"))
	defer func() {
		os.Unsetenv("S3ENGINE_STORAGE_DIR")
		os.Unsetenv("S3ENGINE_SKIP_KMS_VALIDATION")
		os.Unsetenv("S3ENGINE_DEFAULT_REGION")
	}()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := cmn.LoadFromEnv(fs, nil)

	require.Equal(t, "/env/s3", cfg.StorageDir)
	require.True(t, cfg.SkipKMSValidation)
	require.Equal(t, "sa-east-1", cfg.DefaultRegion)
}

func TestLoadFromEnvFlagsOverrideEnvironment(t *testing.T) {
	require.NoError(t, os.Setenv("S3ENGINE_DEFAULT_REGION", "sa-east-1"))
	defer os.Unsetenv("S3ENGINE_DEFAULT_REGION")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := cmn.LoadFromEnv(fs, []string{"-default-region", "ca-central-1"})

	require.Equal(t, "ca-central-1", cfg.DefaultRegion)
}
