// Package multipart implements the §4.4 Multipart Engine: the
// create/upload-part/upload-part-copy/list-parts/abort/complete state
// machine layered over objstore.Multipart (the in-memory bookkeeping) and
// content.StagedMultipart (the on-disk part bytes).
//
// Grounded on the teacher's ais/tgtobj.go putObjInfo pipeline (stream
// through a hasher while writing, then compare against the declared
// digest) generalized from a single whole-object write into the
// part-then-reassemble shape multipart upload requires.
package multipart

import (
	"encoding/hex"
	"hash"
	"io"
	"time"

	"github.com/cristiangiann/localstack/cksum"
	"github.com/cristiangiann/localstack/cmn"
	"github.com/cristiangiann/localstack/content"
	"github.com/cristiangiann/localstack/objstore"
	"github.com/cristiangiann/localstack/precondition"
	"github.com/cristiangiann/localstack/s3err"
)

// Engine orchestrates multipart uploads for one content store. It is
// stateless beyond its *content.Store handle; the in-progress uploads
// themselves live on the owning objstore.Bucket.
type Engine struct {
	Content *content.Store
}

// New returns an Engine backed by store.
func New(store *content.Store) *Engine { return &Engine{Content: store} }

// CreateParams carries every create_multipart_upload input the Service
// recognizes (§3 Multipart fields).
type CreateParams struct {
	Key          string
	StorageClass string
	Initiator    string
	Owner        string
	ACL          string

	UserMetadata   map[string]string
	SystemMetadata objstore.SystemMetadata

	ChecksumAlgorithm cksum.Algorithm
	ChecksumType      cksum.Type

	Encryption       string
	KMSKeyID         string
	BucketKeyEnabled bool
	SSECKeyMD5       string

	LockMode  objstore.LockMode
	LegalHold objstore.LegalHoldStatus
	LockUntil time.Time

	Tagging map[string]string
}

// Create validates p and registers a new in-progress upload on bucket,
// implementing §4.4's create contract.
func (e *Engine) Create(bucket *objstore.Bucket, p CreateParams) (*objstore.Multipart, error) {
	if p.StorageClass == "OUTPOSTS" {
		return nil, s3err.NewInvalidStorageClass(p.StorageClass)
	}
	if p.ChecksumAlgorithm != cksum.AlgorithmNone {
		if !cksum.ValidAlgorithm(p.ChecksumAlgorithm) {
			return nil, s3err.NewInvalidArgument("unsupported x-amz-checksum-algorithm")
		}
		if p.ChecksumType == "" {
			p.ChecksumType = cksum.DefaultType(p.ChecksumAlgorithm)
		}
		if !cksum.ValidCombination(p.ChecksumType, p.ChecksumAlgorithm) {
			return nil, s3err.NewInvalidArgument("checksum type is not compatible with the checksum algorithm")
		}
	}

	id := cmn.GenUploadID()
	m := objstore.NewMultipart(id, p.Key)
	m.Initiated = time.Now().UTC()
	m.Initiator = p.Initiator
	m.StorageClass = p.StorageClass
	m.UserMetadata = p.UserMetadata
	m.SystemMetadata = p.SystemMetadata
	m.ChecksumAlgorithm = p.ChecksumAlgorithm
	m.ChecksumType = p.ChecksumType
	m.Encryption = p.Encryption
	m.KMSKeyID = p.KMSKeyID
	m.BucketKeyEnabled = p.BucketKeyEnabled
	m.SSECKeyMD5 = p.SSECKeyMD5
	m.LockMode = p.LockMode
	m.LegalHold = p.LegalHold
	m.LockUntil = p.LockUntil
	m.ACL = p.ACL
	m.Owner = p.Owner
	m.Tagging = p.Tagging

	if current, ok := bucket.Objects.Get(p.Key); ok {
		m.Precondition = !current.IsDeleteMarker()
	}

	bucket.Lock()
	bucket.Multiparts[id] = m
	bucket.Unlock()
	return m, nil
}

func validPartNumber(n int) bool { return n >= 1 && n <= 10000 }

// UploadPartParams carries one upload_part request's inputs.
type UploadPartParams struct {
	UploadID   string
	Key        string
	PartNumber int
	Body       io.Reader

	ContentMD5    string // base64, optional
	ChecksumValue string // base64, optional; algorithm is the multipart's declared one
	SSECKeyMD5    string
}

// UploadPart streams Body into a staged part slot, verifying any supplied
// Content-MD5/x-amz-checksum-* against what was actually written, and
// enforcing that the part's SSE-C key matches the one declared at create
// (§4.4).
func (e *Engine) UploadPart(bucket *objstore.Bucket, p UploadPartParams) (*objstore.Part, error) {
	if !validPartNumber(p.PartNumber) {
		return nil, s3err.InvalidPartNumber
	}
	m, ok := bucket.GetMultipart(p.Key, p.UploadID)
	if !ok {
		return nil, s3err.NewNoSuchUpload(bucket.Name, p.Key, p.UploadID)
	}
	if m.SSECKeyMD5 != "" && p.SSECKeyMD5 != m.SSECKeyMD5 {
		return nil, s3err.NewInvalidArgument("SSE-C key does not match the key used for this upload")
	}
	if p.ChecksumValue != "" && m.ChecksumAlgorithm == cksum.AlgorithmNone {
		return nil, s3err.NewInvalidRequest("the upload was not initiated with a checksum algorithm")
	}

	staged := e.Content.GetMultipart(bucket.Name, p.UploadID)
	w, err := staged.OpenPartWriter(p.PartNumber)
	if err != nil {
		return nil, err
	}

	md5h := cksum.NewMD5()
	var algh hash.Hash
	if m.ChecksumAlgorithm != cksum.AlgorithmNone {
		algh = cksum.NewHasher(m.ChecksumAlgorithm)
	}

	dest := io.MultiWriter(w, md5h)
	if algh != nil {
		dest = io.MultiWriter(w, md5h, algh)
	}
	n, err := io.Copy(dest, p.Body)
	if err != nil {
		w.Abort()
		return nil, err
	}

	if p.ContentMD5 != "" {
		want, decErr := cksum.B64Decode(p.ContentMD5)
		if decErr != nil {
			w.Abort()
			return nil, s3err.NewInvalidDigest()
		}
		if string(want) != string(md5h.Sum(nil)) {
			w.Abort()
			return nil, s3err.NewBadDigest("the Content-MD5 you specified did not match what was received")
		}
	}
	var checksumB64 string
	if algh != nil {
		checksumB64 = cksum.B64(algh.Sum(nil))
		if p.ChecksumValue != "" && p.ChecksumValue != checksumB64 {
			w.Abort()
			return nil, s3err.NewBadDigest("the x-amz-checksum value you specified did not match what was received")
		}
	}

	if err := staged.CommitPart(w, p.PartNumber); err != nil {
		return nil, err
	}

	part := &objstore.Part{
		PartNumber:        p.PartNumber,
		ETag:              cksum.Hex(md5h.Sum(nil)),
		Size:              n,
		Modified:          time.Now().UTC(),
		ChecksumAlgorithm: m.ChecksumAlgorithm,
		ChecksumValue:     checksumB64,
	}
	m.PutPart(part)
	return part, nil
}

// UploadPartCopyParams carries one upload_part_copy request's inputs.
type UploadPartCopyParams struct {
	UploadID   string
	Key        string
	PartNumber int

	SourceBucket    string
	SourceKey       string
	SourceVersionID string
	SourceObject    *objstore.Object
	RangeOffset     int64
	RangeLength     int64

	CopySourceHeaders precondition.Headers
}

// UploadPartCopy copies a byte range of an already-resolved source object
// into a part slot. Callers resolve and lock the source object themselves
// (§4.7 cross-account resolution happens before this call); this method
// only validates the source isn't archived-without-restore and evaluates
// copy-source preconditions, per §4.4.
func (e *Engine) UploadPartCopy(bucket *objstore.Bucket, p UploadPartCopyParams) (*objstore.Part, error) {
	if !validPartNumber(p.PartNumber) {
		return nil, s3err.InvalidPartNumber
	}
	m, ok := bucket.GetMultipart(p.Key, p.UploadID)
	if !ok {
		return nil, s3err.NewNoSuchUpload(bucket.Name, p.Key, p.UploadID)
	}
	src := p.SourceObject
	if src.Restore != "" && restoreOngoing(src.Restore) {
		return nil, s3err.NewInvalidObjectState(p.SourceBucket + "/" + p.SourceKey)
	}
	if !p.CopySourceHeaders.Empty() {
		if _, err := precondition.CopySourceCheck(p.CopySourceHeaders, p.SourceKey, src.ETag, src.Modified); err != nil {
			return nil, err
		}
	}

	staged := e.Content.GetMultipart(bucket.Name, p.UploadID)
	if _, err := staged.CopyFromObject(p.PartNumber, p.SourceBucket, p.SourceKey, p.SourceVersionID, p.RangeOffset, p.RangeLength); err != nil {
		return nil, err
	}

	// Recompute the part's own etag over the copied range: the source
	// object's etag describes the whole object, not this slice of it.
	pf, err := staged.OpenPartReader(p.PartNumber)
	if err != nil {
		return nil, err
	}
	defer pf.Close()
	h := cksum.NewMD5()
	n, err := io.Copy(h, pf)
	if err != nil {
		return nil, err
	}

	part := &objstore.Part{
		PartNumber: p.PartNumber,
		ETag:       cksum.Hex(h.Sum(nil)),
		Size:       n,
		Modified:   time.Now().UTC(),
	}
	m.PutPart(part)
	return part, nil
}

func restoreOngoing(restore string) bool {
	return restore == `ongoing-request="true"`
}

// ListParts returns the parts of uploadID ordered by part number, starting
// strictly after partNumberMarker and capped at maxParts (§4.4/§4.5).
func ListParts(m *objstore.Multipart, partNumberMarker, maxParts int) (parts []*objstore.Part, isTruncated bool, nextMarker int) {
	all := m.OrderedParts()
	start := 0
	for start < len(all) && all[start].PartNumber <= partNumberMarker {
		start++
	}
	all = all[start:]
	if maxParts <= 0 {
		return all, false, 0
	}
	if len(all) > maxParts {
		return all[:maxParts], true, all[maxParts-1].PartNumber
	}
	return all, false, 0
}

// Abort discards uploadID's staging area and bookkeeping (§4.4).
func (e *Engine) Abort(bucket *objstore.Bucket, key, uploadID string) error {
	m, ok := bucket.GetMultipart(key, uploadID)
	if !ok {
		return s3err.NewNoSuchUpload(bucket.Name, key, uploadID)
	}
	bucket.Lock()
	delete(bucket.Multiparts, m.ID)
	bucket.Unlock()
	return e.Content.GetMultipart(bucket.Name, uploadID).Remove()
}

// CompletedPart is one entry of a complete_multipart_upload request body.
type CompletedPart struct {
	PartNumber    int
	ETag          string // unquoted
	ChecksumValue string // base64, optional
}

// CompleteParams carries complete_multipart_upload's inputs.
type CompleteParams struct {
	UploadID string
	Key      string
	Parts    []CompletedPart

	Headers precondition.Headers

	// WholeObjectChecksum is the caller-supplied x-amz-checksum-<algo> for a
	// FULL_OBJECT-type completion, validated against the recomputed digest.
	WholeObjectChecksum     string
	WholeObjectChecksumAlgo cksum.Algorithm

	Versioned bool // bucket.Versioning.Versioned() at commit time
}

// Complete implements §4.4's six-step completion algorithm: validates
// preconditions and part ordering, reassembles the staged parts into the
// final object bytes, computes the etag and whole-object/composite
// checksum, and returns the not-yet-committed Object plus its staged
// content.Writer so the caller can insert it into the bucket's
// VersionedKeyStore and tag table as one atomic step alongside emitting
// the ObjectCreated:CompleteMultipartUpload notification.
func (e *Engine) Complete(bucket *objstore.Bucket, versionID string, p CompleteParams) (*objstore.Object, *content.Writer, error) {
	m, ok := bucket.GetMultipart(p.Key, p.UploadID)
	if !ok {
		return nil, nil, s3err.NewNoSuchUpload(bucket.Name, p.Key, p.UploadID)
	}

	if len(p.Parts) == 0 {
		return nil, nil, s3err.NewInvalidRequest("you must specify at least one part")
	}
	prev := -1
	for _, rp := range p.Parts {
		if rp.PartNumber <= prev {
			return nil, nil, s3err.InvalidPartOrder
		}
		prev = rp.PartNumber
	}

	var exists bool
	var currentETag string
	var currentModified time.Time
	if cur, ok := bucket.Objects.Get(p.Key); ok && !cur.IsDeleteMarker() {
		exists = true
		if obj, ok := cur.(*objstore.Object); ok {
			currentETag = obj.QuotedETag()
			currentModified = obj.Modified
		}
	}
	if err := precondition.CheckWrite(p.Headers, p.Key, exists, currentETag, currentModified, m.Initiated); err != nil {
		return nil, nil, err
	}

	staged := e.Content.GetMultipart(bucket.Name, p.UploadID)

	partNumbers := make([]int, 0, len(p.Parts))
	partMD5s := make([][]byte, 0, len(p.Parts))
	partDigests := make([][]byte, 0, len(p.Parts))
	partRanges := make([]objstore.PartRange, 0, len(p.Parts))
	var offset int64

	for _, rp := range p.Parts {
		part, ok := m.GetPart(rp.PartNumber)
		if !ok {
			return nil, nil, s3err.NewInvalidPart(p.Key)
		}
		if cksum.UnquoteETag(rp.ETag) != part.ETag {
			return nil, nil, s3err.NewInvalidPart(p.Key)
		}
		if rp.ChecksumValue != "" && rp.ChecksumValue != part.ChecksumValue {
			return nil, nil, s3err.NewBadDigest("part checksum does not match")
		}
		md5raw, err := hex.DecodeString(part.ETag)
		if err != nil {
			return nil, nil, err
		}
		partMD5s = append(partMD5s, md5raw)
		if part.ChecksumValue != "" {
			digest, err := cksum.B64Decode(part.ChecksumValue)
			if err != nil {
				return nil, nil, err
			}
			partDigests = append(partDigests, digest)
		}
		partNumbers = append(partNumbers, rp.PartNumber)
		partRanges = append(partRanges, objstore.PartRange{
			PartNumber: rp.PartNumber,
			Offset:     offset,
			Length:     part.Size,
			ETag:       part.ETag,
		})
		offset += part.Size
	}

	// Compute any whole-object digest from the part files directly, before
	// reassembly: the final object's bytes don't exist at their committed
	// path until the returned Writer is later Commit()-ed by the caller.
	var checksumValue string
	var checksumType cksum.Type
	if m.ChecksumAlgorithm != cksum.AlgorithmNone {
		checksumType = m.ChecksumType
		if checksumType == cksum.TypeFullObject {
			var err error
			checksumValue, err = wholeObjectChecksum(staged, partNumbers, m.ChecksumAlgorithm)
			if err != nil {
				return nil, nil, err
			}
		} else {
			checksumValue = cksum.CompositeChecksum(m.ChecksumAlgorithm, partDigests)
		}
		if p.WholeObjectChecksum != "" {
			if p.WholeObjectChecksumAlgo != m.ChecksumAlgorithm {
				return nil, nil, s3err.NewBadDigest("x-amz-checksum-algorithm does not match the upload's declared algorithm")
			}
			full := checksumValue
			if checksumType != cksum.TypeFullObject {
				var err error
				full, err = wholeObjectChecksum(staged, partNumbers, m.ChecksumAlgorithm)
				if err != nil {
					return nil, nil, err
				}
			}
			if full != p.WholeObjectChecksum {
				return nil, nil, s3err.NewBadDigest("the x-amz-checksum value you specified did not match the computed value")
			}
		}
	}

	w, err := staged.CompleteMultipart(p.Key, versionID, partNumbers)
	if err != nil {
		return nil, nil, err
	}

	etag := cksum.MultipartETag(partMD5s)

	obj := &objstore.Object{
		Key:               p.Key,
		Version:           versionID,
		Size:              w.Size(),
		ETag:              etag,
		Modified:          time.Now().UTC(),
		InternalModified:  time.Now().UTC(),
		StorageClass:      m.StorageClass,
		UserMetadata:      m.UserMetadata,
		SystemMetadata:    m.SystemMetadata,
		ChecksumAlgorithm: m.ChecksumAlgorithm,
		ChecksumValue:     checksumValue,
		ChecksumType:      checksumType,
		Encryption:        m.Encryption,
		KMSKeyID:          m.KMSKeyID,
		BucketKeyEnabled:  m.BucketKeyEnabled,
		SSECKeyMD5:        m.SSECKeyMD5,
		LockMode:          m.LockMode,
		LegalHold:         m.LegalHold,
		LockUntil:         m.LockUntil,
		ACL:               m.ACL,
		Owner:             m.Owner,
		Tagging:           m.Tagging,
		Parts:             partRanges,
	}

	bucket.Lock()
	delete(bucket.Multiparts, m.ID)
	bucket.Unlock()

	return obj, w, nil
}

// wholeObjectChecksum streams the staged parts, in completion order,
// through algo as if they were already reassembled, used both for
// FULL_OBJECT-type completion and for validating a caller-supplied
// whole-object checksum against a COMPOSITE upload.
func wholeObjectChecksum(staged *content.StagedMultipart, partNumbers []int, algo cksum.Algorithm) (string, error) {
	h := cksum.NewHasher(algo)
	for _, pn := range partNumbers {
		pf, err := staged.OpenPartReader(pn)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(h, pf)
		pf.Close()
		if err != nil {
			return "", err
		}
	}
	return cksum.B64(h.Sum(nil)), nil
}
