package replay

// SymbolRegistry assigns each symbol string a numeric id on first sighting,
// monotonically per run. Only the decoder goroutine touches it, so it needs
// no locking.
type SymbolRegistry struct {
	ids  map[string]uint32
	next uint32
}

// NewSymbolRegistry constructs an empty registry.
func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{ids: make(map[string]uint32)}
}

// Resolve returns symbol's numeric id, assigning the next free id if this is
// the first time symbol has been seen.
func (r *SymbolRegistry) Resolve(symbol string) uint32 {
	if id, ok := r.ids[symbol]; ok {
		return id
	}
	id := r.next
	r.ids[symbol] = id
	r.next++
	return id
}

// Lookup returns symbol's id without assigning one.
func (r *SymbolRegistry) Lookup(symbol string) (uint32, bool) {
	id, ok := r.ids[symbol]
	return id, ok
}

// Len returns the number of distinct symbols resolved so far.
func (r *SymbolRegistry) Len() int { return len(r.ids) }
