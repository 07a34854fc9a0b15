package content

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cristiangiann/localstack/cksum"
)

// StagedMultipart is the §4.1 handle over one upload's part staging area.
// Parts may be written out of order; only CompleteMultipart imposes
// part-number ordering on the final concatenation.
type StagedMultipart struct {
	store    *Store
	bucket   string
	uploadID string
}

// GetMultipart returns a handle over the part staging area for uploadID.
func (s *Store) GetMultipart(bucket, uploadID string) *StagedMultipart {
	return &StagedMultipart{store: s, bucket: bucket, uploadID: uploadID}
}

func (m *StagedMultipart) partPath(partNumber int) string {
	return filepath.Join(m.store.mpuDir(m.bucket, m.uploadID), fmt.Sprintf("part-%05d", partNumber))
}

// OpenPartWriter stages bytes for one part. Unlike object writes, part
// staging has no cross-part ordering requirement, so no guard is needed
// beyond the filesystem rename's own atomicity.
func (m *StagedMultipart) OpenPartWriter(partNumber int) (*Writer, error) {
	dir := m.store.mpuDir(m.bucket, m.uploadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmpPath := filepath.Join(dir, fmt.Sprintf(".tmp.part-%05d.%d", partNumber, os.Getpid()))
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{store: m.store, bucket: m.bucket, key: m.uploadID, version: fmt.Sprintf("part-%d", partNumber), tmp: f, tmpPath: tmpPath}, nil
}

// CommitPart finalizes a staged part write into its numbered slot, then
// records an xxhash scrub sum of the committed bytes so a later read (e.g.
// during CompleteMultipart) can detect corruption introduced by the
// stage-then-rename write itself.
func (m *StagedMultipart) CommitPart(w *Writer, partNumber int) error {
	if err := w.tmp.Sync(); err != nil {
		w.tmp.Close()
		return err
	}
	if err := w.tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(w.tmpPath, m.partPath(partNumber)); err != nil {
		return err
	}
	b, err := os.ReadFile(m.partPath(partNumber))
	if err != nil {
		return err
	}
	m.store.setPartScrub(m.bucket, m.uploadID, partNumber, cksum.ScrubSum(b))
	return nil
}

// scrubVerify re-reads a committed part and fails if its bytes no longer
// match the scrub sum recorded at CommitPart time.
func (m *StagedMultipart) scrubVerify(partNumber int) error {
	want, ok := m.store.getPartScrub(m.bucket, m.uploadID, partNumber)
	if !ok {
		return nil
	}
	b, err := os.ReadFile(m.partPath(partNumber))
	if err != nil {
		return err
	}
	if cksum.ScrubSum(b) != want {
		return fmt.Errorf("content: part %d of upload %s failed integrity scrub", partNumber, m.uploadID)
	}
	return nil
}

// RemovePart deletes one staged part, e.g. when a re-upload of the same
// part number supersedes it.
func (m *StagedMultipart) RemovePart(partNumber int) {
	_ = os.Remove(m.partPath(partNumber))
}

// OpenPartReader opens a previously committed part's bytes.
func (m *StagedMultipart) OpenPartReader(partNumber int) (*os.File, error) {
	return os.Open(m.partPath(partNumber))
}

// CopyFromObject copies a byte range from a source object directly into a
// part slot (§4.1/§4.4 UploadPartCopy).
func (m *StagedMultipart) CopyFromObject(partNumber int, srcBucket, srcKey, srcVersion string, offset, length int64) (int64, error) {
	w, err := m.OpenPartWriter(partNumber)
	if err != nil {
		return 0, err
	}
	n, err := m.store.CopyRange(srcBucket, srcKey, srcVersion, offset, length, w)
	if err != nil {
		w.Abort()
		return 0, err
	}
	if err := m.CommitPart(w, partNumber); err != nil {
		return 0, err
	}
	return n, nil
}

// Remove deletes the entire staging directory for this upload (§4.4 abort).
func (m *StagedMultipart) Remove() error {
	m.store.clearPartScrubs(m.bucket, m.uploadID)
	return os.RemoveAll(m.store.mpuDir(m.bucket, m.uploadID))
}

// CompleteMultipart concatenates the given part numbers, in the supplied
// (already-validated ascending) order, into a fresh Writer for the final
// object version. Returns the writer, left uncommitted so the caller can
// finish computing whole-object checksums before calling Commit.
func (m *StagedMultipart) CompleteMultipart(key, version string, partNumbers []int) (*Writer, error) {
	ordered := append([]int(nil), partNumbers...)
	sort.Ints(ordered)

	w, err := m.store.NewWriter(m.bucket, key, version)
	if err != nil {
		return nil, err
	}
	for _, pn := range ordered {
		if err := m.scrubVerify(pn); err != nil {
			w.Abort()
			return nil, err
		}
		pf, err := m.OpenPartReader(pn)
		if err != nil {
			w.Abort()
			return nil, err
		}
		_, err = io.Copy(w, pf)
		pf.Close()
		if err != nil {
			w.Abort()
			return nil, err
		}
	}
	m.store.clearPartScrubs(m.bucket, m.uploadID)
	return w, nil
}
