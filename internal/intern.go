package internal

// stringPool models the global string cache: structurally equal strings map
// to one shared arena entry. It is injected into each store rather than kept
// as package state so tests can run isolated pools side by side.
type stringPool struct {
	byContent map[string]ValueID
}

func newStringPool() *stringPool {
	return &stringPool{byContent: make(map[string]ValueID)}
}

func (p *stringPool) lookup(s string) (ValueID, bool) {
	id, ok := p.byContent[s]
	return id, ok
}

func (p *stringPool) put(s string, id ValueID) {
	p.byContent[s] = id
}

// drop forgets a pooled string whose arena entry was swept. The next request
// for the same content allocates a fresh entry.
func (p *stringPool) drop(s string) {
	delete(p.byContent, s)
}
