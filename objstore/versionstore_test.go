package objstore_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/cristiangiann/localstack/objstore"
)

func obj(version, etag string, modified time.Time) *objstore.Object {
	return &objstore.Object{Key: "key", Version: version, ETag: etag, Modified: modified}
}

var _ = Describe("VersionedKeyStore", func() {
	var s *objstore.VersionedKeyStore

	BeforeEach(func() {
		s = objstore.NewVersionedKeyStore()
	})

	Context("an unset/unversioned bucket", func() {
		It("keeps exactly one version per key, discarding any prior version", func() {
			s.Put("key", obj("", "etag-1", time.Now()), false)
			s.Put("key", obj("", "etag-2", time.Now()), false)

			got, ok := s.Get("key")
			Expect(ok).To(BeTrue())
			Expect(got.(*objstore.Object).ETag).To(Equal("etag-2"))

			versions, _ := s.GetVersion("key", "")
			Expect(versions).NotTo(BeNil())
		})
	})

	Context("a versioned bucket", func() {
		It("prepends the new current version and demotes the previous one", func() {
			t0 := time.Now().Add(-time.Hour)
			t1 := time.Now()
			v1 := obj("v1", "etag-1", t0)
			v2 := obj("v2", "etag-2", t1)

			s.Put("key", v1, true)
			Expect(v1.IsCurrent()).To(BeTrue())

			s.Put("key", v2, true)
			Expect(v1.IsCurrent()).To(BeFalse())
			Expect(v2.IsCurrent()).To(BeTrue())

			cur, ok := s.Get("key")
			Expect(ok).To(BeTrue())
			Expect(cur.VersionID()).To(Equal("v2"))
		})

		It("resolves any version by id regardless of current status", func() {
			s.Put("key", obj("v1", "etag-1", time.Now()), true)
			s.Put("key", obj("v2", "etag-2", time.Now()), true)

			v, ok := s.GetVersion("key", "v1")
			Expect(ok).To(BeTrue())
			Expect(v.(*objstore.Object).ETag).To(Equal("etag-1"))
		})

		It("promotes the next-newest version to current when the current version is popped", func() {
			s.Put("key", obj("v1", "etag-1", time.Now()), true)
			s.Put("key", obj("v2", "etag-2", time.Now()), true)

			removed, ok := s.PopVersion("key", "v2")
			Expect(ok).To(BeTrue())
			Expect(removed.VersionID()).To(Equal("v2"))

			cur, ok := s.Get("key")
			Expect(ok).To(BeTrue())
			Expect(cur.VersionID()).To(Equal("v1"))
			Expect(cur.IsCurrent()).To(BeTrue())
		})

		It("removes the key entirely once its last version is popped", func() {
			s.Put("key", obj("v1", "etag-1", time.Now()), true)
			s.PopVersion("key", "v1")

			Expect(s.IsEmpty()).To(BeTrue())
			Expect(s.Keys()).To(BeEmpty())
		})
	})

	Describe("ValuesWithVersions ordering", func() {
		It("sorts last-modified descending, tie-broken by version id descending", func() {
			t0 := time.Now().Add(-time.Hour)
			s.Put("key", obj("v1", "etag-1", t0), true)
			s.Put("key", obj("v2", "etag-2", t0), true) // same timestamp, tie-break by id

			versions := s.ValuesWithVersions()
			Expect(versions).To(HaveLen(2))
			Expect(versions[0].VersionID()).To(Equal("v2"))
			Expect(versions[1].VersionID()).To(Equal("v1"))
		})
	})

	Describe("JSON round trip", func() {
		It("preserves keys, versions and current flags through Marshal/Unmarshal", func() {
			s.Put("key", obj("v1", "etag-1", time.Now()), true)
			s.Put("key", obj("v2", "etag-2", time.Now()), true)
			s.Put("other", &objstore.DeleteMarker{Key: "other", Version: "v3", Modified: time.Now()}, true)

			b, err := json.Marshal(s)
			Expect(err).NotTo(HaveOccurred())

			restored := objstore.NewVersionedKeyStore()
			Expect(json.Unmarshal(b, restored)).To(Succeed())

			Expect(restored.Keys()).To(Equal([]string{"key", "other"}))
			cur, ok := restored.Get("key")
			Expect(ok).To(BeTrue())
			Expect(cur.VersionID()).To(Equal("v2"))
			Expect(cur.IsCurrent()).To(BeTrue())

			marker, ok := restored.Get("other")
			Expect(ok).To(BeTrue())
			Expect(marker.IsDeleteMarker()).To(BeTrue())
		})
	})

	Describe("MigrateToVersioned", func() {
		It("assigns version_id null to every existing unversioned object", func() {
			s.Put("key", obj("", "etag-1", time.Now()), false)
			s.MigrateToVersioned()

			cur, ok := s.Get("key")
			Expect(ok).To(BeTrue())
			Expect(cur.(*objstore.Object).Version).To(Equal("null"))
		})

		It("is a no-op for versions that already carry a version id", func() {
			s.Put("key", obj("v1", "etag-1", time.Now()), true)
			s.MigrateToVersioned()

			cur, _ := s.Get("key")
			Expect(cur.(*objstore.Object).Version).To(Equal("v1"))
		})
	})
})
