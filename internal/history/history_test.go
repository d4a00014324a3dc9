package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "lanshare.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAttemptUpserts(t *testing.T) {
	s := openTestStore(t)

	s.RecordAttempt("192.168.1.5:8000", true)
	s.RecordAttempt("192.168.1.5:8000", false)
	s.RecordAttempt("192.168.1.5:8000", true)

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "192.168.1.5:8000", e.Endpoint)
	assert.Equal(t, 2, e.SuccessCount)
	assert.Equal(t, 3, e.TotalAttempts)
	assert.InDelta(t, 66.6, e.SuccessRate(), 0.1)
	assert.False(t, e.LastUsed.IsZero())
}

func TestRecentOrdersByLastUse(t *testing.T) {
	s := openTestStore(t)

	seed := `INSERT INTO connections (endpoint, last_used, success_count, total_attempts)
	         VALUES (?, ?, 1, 1)`
	_, err := s.db.Exec(seed, "old:8000", 1000)
	require.NoError(t, err)
	_, err = s.db.Exec(seed, "newer:8000", 2000)
	require.NoError(t, err)
	_, err = s.db.Exec(seed, "newest:8000", 3000)
	require.NoError(t, err)

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "newest:8000", entries[0].Endpoint)
	assert.Equal(t, "newer:8000", entries[1].Endpoint)
	assert.Equal(t, "old:8000", entries[2].Endpoint)

	limited, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "newest:8000", limited[0].Endpoint)
}

func TestSetName(t *testing.T) {
	s := openTestStore(t)

	s.RecordAttempt("10.0.0.2:8000", true)
	require.NoError(t, s.SetName("10.0.0.2:8000", "media box"))

	entries, err := s.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "media box", entries[0].Name)
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSuccessRateNoAttempts(t *testing.T) {
	assert.Zero(t, Entry{}.SuccessRate())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lanshare.db")

	s, err := Open(path)
	require.NoError(t, err)
	s.RecordAttempt("host:8000", true)
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	entries, err := s2.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "host:8000", entries[0].Endpoint)
}
