package objstore

import (
	"sync"
	"time"

	"github.com/cristiangiann/localstack/cksum"
)

// Part is one uploaded/staged part of a Multipart upload (§3).
type Part struct {
	PartNumber int
	ETag       string // MD5 of the part bytes, unquoted
	Size       int64
	Modified   time.Time

	ChecksumAlgorithm cksum.Algorithm
	ChecksumValue     string // base64
}

// Multipart is an in-progress upload (§3/§4.4). Completion replaces it with
// a committed Object in the bucket's VersionedKeyStore; abort just erases it.
type Multipart struct {
	ID  string
	Key string

	Initiated time.Time
	Initiator string

	StorageClass string
	UserMetadata map[string]string
	SystemMetadata SystemMetadata

	ChecksumAlgorithm cksum.Algorithm
	ChecksumType      cksum.Type

	Encryption       string
	KMSKeyID         string
	BucketKeyEnabled bool
	SSECKeyMD5       string

	LockMode  LockMode
	LegalHold LegalHoldStatus
	LockUntil time.Time

	ACL   string
	Owner string

	Tagging map[string]string

	// Precondition snapshots "does a live object exist for this key at
	// create time?", consumed by Complete's If-None-Match check (§4.3/§4.4).
	Precondition bool

	mu    sync.Mutex
	Parts map[int]*Part
}

// NewMultipart allocates an empty upload ready to receive parts.
func NewMultipart(id, key string) *Multipart {
	return &Multipart{ID: id, Key: key, Parts: make(map[int]*Part)}
}

// UploadID satisfies listing's uploadPayload interface.
func (m *Multipart) UploadID() string { return m.ID }

// PutPart records (or replaces, on a part re-upload) one part's metadata.
// Parts is shared across concurrent upload_part calls for the same upload,
// so mutation goes through the Multipart's own lock rather than the
// bucket's: a bucket-wide lock would serialize unrelated uploads.
func (m *Multipart) PutPart(p *Part) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Parts[p.PartNumber] = p
}

// GetPart looks up one previously uploaded part.
func (m *Multipart) GetPart(partNumber int) (*Part, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Parts[partNumber]
	return p, ok
}

// OrderedParts returns the uploaded parts sorted by part number ascending.
func (m *Multipart) OrderedParts() []*Part {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		out = append(out, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].PartNumber > out[j].PartNumber; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
