// Package latest provides a latest-wins guard for asynchronous results that
// race against changing input.
//
// Every asynchronous query is tagged with the exact input it was issued for.
// When its result arrives the owner asks the guard whether that input is still
// current and applies the result only then. Stale results are dropped instead
// of overwriting state that belongs to newer input.
//
// A Guard is not safe for concurrent use on its own: it is meant to live under
// the lock that already protects the state it guards.
package latest

// Ticket tags one dispatched query with the input it was issued for.
type Ticket[K comparable] struct {
	Key K
	seq uint64
}

// Guard remembers the current input and the tickets issued for it.
type Guard[K comparable] struct {
	current K
	set     bool
	seq     uint64
}

// Observe records k as the current input.
func (g *Guard[K]) Observe(k K) {
	g.current = k
	g.set = true
}

// Current returns the current input, if any was observed.
func (g *Guard[K]) Current() (K, bool) {
	return g.current, g.set
}

// Issue returns a ticket for a query about k.
func (g *Guard[K]) Issue(k K) Ticket[K] {
	g.seq++
	return Ticket[K]{Key: k, seq: g.seq}
}

// Fresh reports whether a result for t still matches the current input.
// Input that moves away and comes back to the same key makes older tickets
// for that key fresh again: freshness is decided by key, not issue order.
func (g *Guard[K]) Fresh(t Ticket[K]) bool {
	return g.set && t.Key == g.current
}

// Latest reports whether t is the most recently issued ticket.
func (g *Guard[K]) Latest(t Ticket[K]) bool {
	return t.seq == g.seq
}

// Reset forgets the current input. Every outstanding ticket becomes stale.
func (g *Guard[K]) Reset() {
	var zero K
	g.current = zero
	g.set = false
}
