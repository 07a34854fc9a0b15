package content

import (
	"io"
	"os"
)

// Copy performs a scoped streaming copy that preserves the source bytes and
// writes them into the destination's staged file (§4.1 `copy`). The caller
// is responsible for computing the destination etag/checksum as bytes flow
// through, typically via a wrapping io.Writer given to CopyInto.
func (s *Store) Copy(srcBucket, srcKey, srcVersion string, w *Writer) (int64, error) {
	r, err := s.OpenReader(srcBucket, srcKey, srcVersion)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n, err := io.Copy(w, r.f)
	return n, err
}

// CopyRange copies a byte range from the source into w, for
// UploadPartCopy's ranged source (§4.4).
func (s *Store) CopyRange(srcBucket, srcKey, srcVersion string, offset, length int64, w *Writer) (int64, error) {
	r, err := s.OpenReader(srcBucket, srcKey, srcVersion)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	return io.Copy(w, io.LimitReader(r.f, length))
}

// Stat reports whether (bucket, key, version) bytes exist, and their size.
func (s *Store) Stat(bucket, key, version string) (size int64, ok bool) {
	fi, err := os.Stat(s.objectPath(bucket, key, version))
	if err != nil {
		return 0, false
	}
	return fi.Size(), true
}
