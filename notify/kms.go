package notify

// KMS is the §6 KMS facade collaborator: key id validation and the
// region-scoped AWS-managed key sentinel the Store lazily mints
// (objstore.Store.ManagedKMSKeyID).
type KMS interface {
	// ValidateKeyID reports whether id names a usable key for bucket,
	// per the skip-kms-validation environment knob (§6) this call is
	// simply never made when that knob is set.
	ValidateKeyID(id, bucket string) error
	// GetKMSKeyARN resolves a bare key id to its full ARN for the
	// account/region, for echoing x-amz-server-side-encryption-aws-kms-key-id.
	GetKMSKeyARN(id, accountID, region string) string
	// CreateManagedKey mints the account/region's aws/s3 managed key
	// sentinel the first time SSE-KMS is used without an explicit key id.
	CreateManagedKey(accountID, region string) string
}

// LocalKMS is a no-validation facade: every key id is accepted verbatim and
// ARNs/managed-key ids are synthesized locally, matching a single-process
// emulator that never talks to a real KMS (§6's skip-kms-validation knob
// defaults to true for exactly this reason).
type LocalKMS struct{}

func (LocalKMS) ValidateKeyID(id, bucket string) error { return nil }

func (LocalKMS) GetKMSKeyARN(id, accountID, region string) string {
	if id == "" {
		return ""
	}
	return "arn:aws:kms:" + region + ":" + accountID + ":key/" + id
}

func (LocalKMS) CreateManagedKey(accountID, region string) string {
	return "alias/aws/s3"
}

var _ KMS = LocalKMS{}
