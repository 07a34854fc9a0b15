package cmn

import (
	"flag"
	"os"

	"go.uber.org/atomic"
)

// Config holds the §6 "Environment knobs", read once at process start and
// swapped atomically thereafter (mirrors the teacher's globalConfigOwner:
// an atomic.Pointer guarding a Config snapshot rather than a mutex-held
// struct, so readers never block a writer).
type Config struct {
	// StorageDir is where ContentStore persists object and part bytes.
	StorageDir string
	// SkipKMSValidation disables KMS key-id validation in the dispatcher.
	SkipKMSValidation bool
	// DefaultRegion is used for CreateBucket when no LocationConstraint is given.
	DefaultRegion string
}

type globalConfigOwner struct {
	c atomic.Pointer[Config]
}

// GCO is the process-wide configuration owner, following the teacher's
// package-level `cmn.GCO` singleton (cmn/config.go).
var GCO = &globalConfigOwner{}

// Get returns the current immutable configuration snapshot.
func (gco *globalConfigOwner) Get() *Config {
	c := gco.c.Load()
	if c == nil {
		c = defaultConfig()
		gco.c.Store(c)
	}
	return c
}

// Put atomically installs a new configuration snapshot.
func (gco *globalConfigOwner) Put(c *Config) { gco.c.Store(c) }

func defaultConfig() *Config {
	return &Config{
		StorageDir:        "/tmp/localstack-s3-storage",
		SkipKMSValidation: false,
		DefaultRegion:     "us-east-1",
	}
}

// LoadFromEnv parses the §6 environment knobs the way cmn/config.go parses
// its `flag.String`-declared settings, with an environment-variable
// fallback/override for container deployments. fs is the FlagSet to
// register into (callers pass flag.CommandLine from main; tests pass a
// throwaway set).
func LoadFromEnv(fs *flag.FlagSet, args []string) *Config {
	cfg := defaultConfig()

	storageDir := fs.String("storage-dir", envOr("S3ENGINE_STORAGE_DIR", cfg.StorageDir),
		"directory where object and part bytes are persisted")
	skipKMS := fs.Bool("skip-kms-validation", envBool("S3ENGINE_SKIP_KMS_VALIDATION", cfg.SkipKMSValidation),
		"skip validating KMS key ids on encrypted PUT/CompleteMultipartUpload")
	region := fs.String("default-region", envOr("S3ENGINE_DEFAULT_REGION", cfg.DefaultRegion),
		"region assumed for CreateBucket when no LocationConstraint is supplied")

	_ = fs.Parse(args)

	cfg.StorageDir = *storageDir
	cfg.SkipKMSValidation = *skipKMS
	cfg.DefaultRegion = *region
	return cfg
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}
