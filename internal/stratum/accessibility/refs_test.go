package accessibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRefTable_SnapshotInvalidatesPreviousRefs exercises §8 property 2 for
// the accessibility stratum's ax_N ref table.
func TestRefTable_SnapshotInvalidatesPreviousRefs(t *testing.T) {
	tbl := NewRefTable()

	ax1 := tbl.Assign(Locator{AppName: "Finder", WindowIndex: 1, FlatIndex: 0})
	assert.Equal(t, "ax_1", ax1)

	loc, ok := tbl.Get(ax1)
	require.True(t, ok)
	assert.Equal(t, "Finder", loc.AppName)

	tbl.Clear()

	_, ok = tbl.Get(ax1)
	assert.False(t, ok)
}

func TestRefTable_NewSnapshotRestartsNumbering(t *testing.T) {
	tbl := NewRefTable()
	tbl.Assign(Locator{AppName: "A", WindowIndex: 0, FlatIndex: 0})
	tbl.Assign(Locator{AppName: "A", WindowIndex: 0, FlatIndex: 1})
	tbl.Clear()

	ref := tbl.Assign(Locator{AppName: "B", WindowIndex: 0, FlatIndex: 0})
	assert.Equal(t, "ax_1", ref)
}
