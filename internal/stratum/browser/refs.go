package browser

import (
	"strconv"
	"sync"
)

// Locator is the browser ref table's record: a CSS selector plus the
// identity of the page it was captured against (§3). A ref resolved
// against any page other than the one that issued it is stale.
type Locator struct {
	Selector string
	PageID   string
}

// RefTable is wholly rewritten on every new snapshot; never updated
// incrementally (§3 invariant 2).
type RefTable struct {
	mu     sync.Mutex
	refs   map[string]Locator
	nextID int
}

func NewRefTable() *RefTable {
	return &RefTable{refs: make(map[string]Locator), nextID: 1}
}

// Clear discards the previous snapshot's refs.
func (t *RefTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs = make(map[string]Locator)
	t.nextID = 1
}

// Assign issues the next eN ref (e1, e2, ...) for loc.
func (t *RefTable) Assign(loc Locator) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref := "e" + strconv.Itoa(t.nextID)
	t.refs[ref] = loc
	t.nextID++
	return ref
}

// Get looks up ref, returning ok=false if unknown or invalidated.
func (t *RefTable) Get(ref string) (Locator, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	loc, ok := t.refs[ref]
	return loc, ok
}
