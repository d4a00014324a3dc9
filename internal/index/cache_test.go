package index

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServesSnapshotWithinTTL(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("aa"), 0644))

	c := NewCache(time.Minute)

	first, fp1, err := c.Get(root)
	require.NoError(t, err)

	// New file inside the TTL window is invisible until expiry
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("bb"), 0644))

	second, fp2, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, fp1, fp2)
}

func TestCacheRebuildsAfterTTLWhenTreeChanged(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("aa"), 0644))

	c := NewCache(time.Minute)

	_, _, err := c.Get(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("bb"), 0644))
	// Push the root's mtime clearly past the snapshot's
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(root, later, later))

	// Expire the snapshot
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	entries, _, err := c.Get(root)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCacheMtimeShortCircuit(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("aa"), 0644))

	c := NewCache(time.Minute)

	first, fp1, err := c.Get(root)
	require.NoError(t, err)

	// Expired by TTL but the tree's mtime is unchanged: no rebuild, the
	// snapshot is just re-stamped.
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	second, fp2, err := c.Get(root)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.Equal(t, first, second)
}

func TestCacheInvalidate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("aa"), 0644))

	c := NewCache(time.Minute)

	_, _, err := c.Get(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("bb"), 0644))
	c.Invalidate(root)

	entries, _, err := c.Get(root)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCacheEvictsOldestBeyondCapacity(t *testing.T) {
	c := NewCache(time.Minute)

	base := time.Now()
	for i := 0; i < maxRoots+2; i++ {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprintf("f%d", i)), []byte("x"), 0644))

		// Distinct build timestamps so eviction order is well defined
		stamp := base.Add(time.Duration(i) * time.Second)
		c.now = func() time.Time { return stamp }

		_, _, err := c.Get(root)
		require.NoError(t, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.snapshots, maxRoots)

	for _, snap := range c.snapshots {
		// The two oldest builds must be gone
		assert.True(t, snap.builtAt.After(base.Add(time.Second)))
	}
}

func TestCacheUnreadableRoot(t *testing.T) {
	c := NewCache(time.Minute)
	_, _, err := c.Get(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
