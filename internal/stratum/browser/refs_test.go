package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRefTable_SnapshotInvalidatesPreviousRefs exercises §8 property 2:
// after a new snapshot, refs issued by the earlier one resolve as unknown.
func TestRefTable_SnapshotInvalidatesPreviousRefs(t *testing.T) {
	tbl := NewRefTable()

	e1 := tbl.Assign(Locator{Selector: "#submit", PageID: "page-1"})
	e2 := tbl.Assign(Locator{Selector: "#cancel", PageID: "page-1"})
	assert.Equal(t, "e1", e1)
	assert.Equal(t, "e2", e2)

	loc, ok := tbl.Get(e1)
	require.True(t, ok)
	assert.Equal(t, "#submit", loc.Selector)

	tbl.Clear()

	_, ok = tbl.Get(e1)
	assert.False(t, ok, "ref from a prior snapshot must be unknown after Clear")
	_, ok = tbl.Get(e2)
	assert.False(t, ok)
}

// TestRefTable_NewSnapshotRestartsNumbering matches §3: refs are assigned
// e1..eN in traversal order for each fresh snapshot.
func TestRefTable_NewSnapshotRestartsNumbering(t *testing.T) {
	tbl := NewRefTable()
	tbl.Assign(Locator{Selector: "a", PageID: "p"})
	tbl.Assign(Locator{Selector: "b", PageID: "p"})

	tbl.Clear()

	ref := tbl.Assign(Locator{Selector: "c", PageID: "p"})
	assert.Equal(t, "e1", ref)
}

func TestRefTable_UnknownRefNeverAssigned(t *testing.T) {
	tbl := NewRefTable()
	_, ok := tbl.Get("e99")
	assert.False(t, ok)
}
