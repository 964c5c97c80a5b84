// Package mark mints scope marks for the binding resolver.
//
// A Mark is an opaque identity attached to identifiers. Two identifiers with
// the same name refer to the same binding exactly when their marks are equal.
// Marks are only meaningful within the Globals that minted them: every Globals
// carries a random session id, so marks from different invocations never
// compare equal even when their sequence numbers coincide.
package mark

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Mark is a scope identity. The zero value is Empty and means "not resolved".
type Mark struct {
	session uuid.UUID
	n       uint32
}

// Empty is the mark of identifiers the resolver has not visited.
var Empty = Mark{}

// IsEmpty reports whether m is Empty.
func (m Mark) IsEmpty() bool {
	return m == Empty
}

// Session returns the id of the Globals that minted m.
func (m Mark) Session() uuid.UUID {
	return m.session
}

// String renders the mark for debugging.
func (m Mark) String() string {
	if m.IsEmpty() {
		return "#empty"
	}
	return fmt.Sprintf("#%d@%s", m.n, m.session.String()[:8])
}

// Globals mints fresh marks for one invocation.
type Globals struct {
	session uuid.UUID
	next    atomic.Uint32
}

// NewGlobals creates a mark table with a fresh session id.
func NewGlobals() *Globals {
	return &Globals{session: uuid.New()}
}

// Session returns the table's session id.
func (g *Globals) Session() uuid.UUID {
	return g.session
}

// Fresh returns a mark distinct from every mark minted before.
func (g *Globals) Fresh() Mark {
	return Mark{session: g.session, n: g.next.Add(1)}
}

// Owns reports whether m was minted by g.
func (g *Globals) Owns(m Mark) bool {
	return !m.IsEmpty() && m.session == g.session
}
