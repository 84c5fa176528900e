package accessibility

import (
	"strconv"
	"sync"
)

// Locator is the accessibility ref table's record: the owning application
// name, the window's 1-based index, and the element's flat position in
// window.entireContents() at the time of the snapshot that issued the ref
// (§3: "For accessibility: the owning application name, window index, and
// the element's flat position").
type Locator struct {
	AppName     string
	WindowIndex int
	FlatIndex   int
}

// RefTable is wholly rewritten on every new snapshot; it is never updated
// incrementally (§3 invariant 2).
type RefTable struct {
	mu     sync.Mutex
	refs   map[string]Locator
	nextID int
}

func NewRefTable() *RefTable {
	return &RefTable{refs: make(map[string]Locator), nextID: 1}
}

// Clear discards the previous snapshot's refs, invalidating every ref
// issued by it.
func (t *RefTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs = make(map[string]Locator)
	t.nextID = 1
}

// Assign issues the next ax_N ref for loc.
func (t *RefTable) Assign(loc Locator) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref := "ax_" + strconv.Itoa(t.nextID)
	t.refs[ref] = loc
	t.nextID++
	return ref
}

// Get looks up ref, returning ok=false if it's unknown (either never
// issued or invalidated by a later snapshot).
func (t *RefTable) Get(ref string) (Locator, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	loc, ok := t.refs[ref]
	return loc, ok
}
