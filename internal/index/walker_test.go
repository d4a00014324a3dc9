package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lanshare/lanshare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeShareTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("0123456789"), 0644))
	return root
}

func TestBuildListingExampleTree(t *testing.T) {
	root := makeShareTree(t)

	entries, err := BuildListing(root)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Folders first, then files, each by lowercased path
	assert.Equal(t, "docs", entries[0].Path)
	assert.Equal(t, domain.EntryTypeFolder, entries[0].Type)
	assert.Equal(t, int64(0), entries[0].Size)

	assert.Equal(t, "docs/sub", entries[1].Path)
	assert.Equal(t, domain.EntryTypeFolder, entries[1].Type)

	assert.Equal(t, "docs/a.txt", entries[2].Path)
	assert.Equal(t, domain.EntryTypeFile, entries[2].Type)
	assert.Equal(t, int64(10), entries[2].Size)
	assert.Equal(t, ".txt", entries[2].Extension)
	assert.Equal(t, "a.txt", entries[2].Name)
	assert.NotZero(t, entries[2].Modified)
}

func TestBuildListingLowercasesExtension(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "REPORT.PDF"), []byte("x"), 0644))

	entries, err := BuildListing(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".pdf", entries[0].Extension)
}

func TestBuildListingEmptyRoot(t *testing.T) {
	entries, err := BuildListing(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestBuildListingUnreadableRoot(t *testing.T) {
	_, err := BuildListing(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestBuildListingIdempotent(t *testing.T) {
	root := makeShareTree(t)

	first, err := BuildListing(root)
	require.NoError(t, err)
	second, err := BuildListing(root)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	fp1, err := Fingerprint(first)
	require.NoError(t, err)
	fp2, err := Fingerprint(second)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestFallbackWalkerMatchesPrimary(t *testing.T) {
	root := makeShareTree(t)

	primary, err := walkDirListing(root)
	require.NoError(t, err)
	fallback, err := readDirListing(root, "")
	require.NoError(t, err)

	domain.SortEntries(primary)
	domain.SortEntries(fallback)
	assert.Equal(t, primary, fallback)
}
