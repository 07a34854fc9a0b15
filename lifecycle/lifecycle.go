// Package lifecycle implements the §5/§9 Expiration Cache: a per-bucket,
// lazily-populated cache mapping an object key to the pre-rendered
// x-amz-expiration response header its current lifecycle configuration
// implies, invalidated wholesale whenever that configuration changes.
//
// Grounded on the teacher's xact/xs cache invalidation pattern (a
// generation counter bumped on config change, compared against the value
// cached alongside each entry) rather than clearing the map outright, so a
// read racing a concurrent invalidation never blocks on it.
package lifecycle

import "sync"

// Cache is one bucket's expiration-header cache.
type Cache struct {
	mu  sync.RWMutex
	gen uint64
	m   map[string]entry
}

type entry struct {
	gen   uint64
	value string
}

// New returns an empty cache.
func New() *Cache { return &Cache{m: make(map[string]entry)} }

// Invalidate bumps the generation counter, logically clearing every entry
// without taking a write lock per key. Call on
// put_bucket_lifecycle_configuration and delete_bucket_lifecycle (§5).
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
}

// Get returns the cached expiration header for key, if it was populated
// under the cache's current generation.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	if !ok || e.gen != c.gen {
		return "", false
	}
	return e.value, true
}

// Put populates the cache for key under the current generation, called
// lazily on GET/HEAD/PUT responses (§5).
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = entry{gen: c.gen, value: value}
}

// Rule is the minimal shape of a lifecycle rule's expiration clause needed
// to render the header; full rule filtering (tag/prefix predicates, object
// size bounds) is intentionally out of scope per §1's Non-goals around
// storage-tier transition, but expiration-header rendering for the
// simple, unconditional and prefix-filtered rule shapes is supplemented
// from the original implementation (see SUPPLEMENT) since Header is part
// of every PutObject/GetObject/HeadObject response either way.
type Rule struct {
	ID                       string
	Prefix                   string
	Enabled                  bool
	ExpirationDays           int
	ExpirationDate           string // RFC3339, already rendered
	ExpiredObjectDeleteMarker bool
}

// Header renders the x-amz-expiration value for key given the bucket's
// ordered lifecycle rules, or "" if no enabled rule's prefix matches.
func Header(key string, rules []Rule) string {
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if r.Prefix != "" && !hasPrefix(key, r.Prefix) {
			continue
		}
		switch {
		case r.ExpirationDate != "":
			return `expiry-date="` + r.ExpirationDate + `", rule-id="` + r.ID + `"`
		case r.ExpirationDays > 0:
			return `rule-id="` + r.ID + `"`
		}
	}
	return ""
}

func hasPrefix(key, prefix string) bool {
	if len(key) < len(prefix) {
		return false
	}
	return key[:len(prefix)] == prefix
}
