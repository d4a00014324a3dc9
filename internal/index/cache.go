package index

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/lanshare/lanshare/internal/domain"
)

// DefaultTTL is how long a snapshot is served without checking the tree.
const DefaultTTL = 120 * time.Second

// maxRoots bounds how many distinct shared roots we keep snapshots for.
const maxRoots = 5

type snapshot struct {
	entries     []domain.DirectoryEntry
	fingerprint string
	builtAt     time.Time
	sourceMtime time.Time
	hits        int
}

// Cache holds one IndexSnapshot per shared root. It is constructed once and
// injected into whoever serves listings; all mutation happens behind mu.
// The lock is held across a rebuild so concurrent callers for the same root
// serialize instead of duplicating the walk.
type Cache struct {
	mu        sync.Mutex
	ttl       time.Duration
	snapshots map[string]*snapshot

	now func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:       ttl,
		snapshots: make(map[string]*snapshot),
		now:       time.Now,
	}
}

// Get returns the listing for root and its fingerprint, rebuilding when the
// snapshot is older than the TTL and the tree's mtime changed. Fails only if
// root is unreadable.
func (c *Cache) Get(root string) ([]domain.DirectoryEntry, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if snap, ok := c.snapshots[root]; ok && now.Sub(snap.builtAt) < c.ttl {
		snap.hits++
		return snap.entries, snap.fingerprint, nil
	}

	// Cheap staleness check: an unchanged mtime means the expired snapshot
	// is still accurate, so just re-stamp it.
	var sourceMtime time.Time
	if info, err := os.Stat(root); err == nil {
		sourceMtime = info.ModTime()
		if snap, ok := c.snapshots[root]; ok && snap.sourceMtime.Equal(sourceMtime) {
			snap.builtAt = now
			snap.hits++
			return snap.entries, snap.fingerprint, nil
		}
	}

	entries, err := BuildListing(root)
	if err != nil {
		return nil, "", err
	}

	fp, err := Fingerprint(entries)
	if err != nil {
		return nil, "", err
	}

	c.snapshots[root] = &snapshot{
		entries:     entries,
		fingerprint: fp,
		builtAt:     now,
		sourceMtime: sourceMtime,
	}

	c.evictLocked()

	return entries, fp, nil
}

// Invalidate drops the snapshot for root so the next Get rebuilds.
func (c *Cache) Invalidate(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, root)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = make(map[string]*snapshot)
}

// evictLocked drops oldest-by-timestamp snapshots beyond the capacity bound.
func (c *Cache) evictLocked() {
	for len(c.snapshots) > maxRoots {
		var oldestKey string
		var oldest time.Time
		for key, snap := range c.snapshots {
			if oldestKey == "" || snap.builtAt.Before(oldest) {
				oldestKey = key
				oldest = snap.builtAt
			}
		}
		delete(c.snapshots, oldestKey)
	}
}

// Fingerprint hashes the compact JSON encoding of a listing. Because the
// listing order is stable, an unchanged tree always fingerprints the same,
// which is what lets clients short-circuit with If-None-Match.
func Fingerprint(entries []domain.DirectoryEntry) (string, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}
