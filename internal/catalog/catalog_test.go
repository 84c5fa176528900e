package catalog

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskstratum/agent/internal/recording"
)

func TestRecordThenList_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	m := recording.Manifest{
		ID:          "sess-1",
		Description: "demo session",
		StartTime:   1000,
		EndTime:     5000,
		DurationMs:  4000,
		FrameCount:  3,
		EventCount:  7,
		AudioFile:   "audio.wav",
	}
	require.NoError(t, cat.Record(m, filepath.Join(dir, "sess-1", "manifest.json")))

	entries, err := cat.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sess-1", entries[0].ID)
	assert.Equal(t, "demo session", entries[0].Description)
	assert.Equal(t, 3, entries[0].FrameCount)

	got, err := cat.Lookup("sess-1")
	require.NoError(t, err)
	assert.Equal(t, m.EventCount, got.EventCount)
}

func TestRecord_UpsertsOnConflict(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	m := recording.Manifest{ID: "sess-2", StartTime: 0, EndTime: 100, DurationMs: 100}
	require.NoError(t, cat.Record(m, "p1"))

	m.EventCount = 9
	m.Description = "updated"
	require.NoError(t, cat.Record(m, "p1"))

	entries, err := cat.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "updated", entries[0].Description)
	assert.Equal(t, 9, entries[0].EventCount)
}

func TestLookup_MissingReturnsErrNoRows(t *testing.T) {
	dir := t.TempDir()
	cat, err := Open(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	_, err = cat.Lookup("does-not-exist")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
