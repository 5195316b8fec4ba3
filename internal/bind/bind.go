// Package bind implements the data the scheduler carries: Route, Item,
// BindData and Bind. It has no knowledge of
// rules, jobs, or the graph — those layer on top of it.
package bind

import (
	"github.com/weave-ssg/weave/internal/attr"
	"github.com/weave-ssg/weave/internal/config"
)

// BindData is immutable-after-init metadata shared across every Item
// within one rule invocation: the rule's name, a snapshot of each
// dependency's completed Bind, the process-wide Configuration, and a
// process-wide extensible attribute bag guarded by a reader-writer lock
// (the same attr.Bag type as Item's, used many-readers/rare-writer here).
type BindData struct {
	Name         string
	Dependencies map[string]*Bind
	Config       *config.Configuration
	Extensions   *attr.Bag
}

// NewBindData returns a BindData for rule name, with an empty dependency
// snapshot and a fresh extension bag.
func NewBindData(name string, cfg *config.Configuration) *BindData {
	return &BindData{
		Name:       name,
		Config:     cfg,
		Extensions: attr.NewBag(),
	}
}

// Bind is the collection of Items produced by one rule invocation, plus
// its shared BindData and a stale flag used by incremental rebuilds.
type Bind struct {
	Data  *BindData
	Stale bool

	items []*Item
}

// New returns an empty Bind for the given shared data.
func New(data *BindData) *Bind {
	return &Bind{Data: data}
}

// Add appends item to the bind.
func (b *Bind) Add(item *Item) {
	b.items = append(b.items, item)
}

// ReadOnly returns every item in the bind. Callers must not mutate the
// returned slice's items; it is a read-only view for dependents.
func (b *Bind) ReadOnly() []*Item {
	return b.items
}

// MutableSlice returns every item in the bind for in-place mutation by the
// owning rule's handler chain.
func (b *Bind) MutableSlice() []*Item {
	return b.items
}

// Full returns every item — the full iteration mode.
func (b *Bind) Full() []*Item {
	return b.items
}

// Partial returns only items whose Stale flag is set — the partial
// iteration mode used during incremental rebuilds. By design,
// resolution of its own open question, Partial *skips* non-stale items
// rather than merely hinting at them.
func (b *Bind) Partial() []*Item {
	var out []*Item
	for _, it := range b.items {
		if it.Stale {
			out = append(out, it)
		}
	}
	return out
}

// Clone returns a deep-enough copy of b for incremental dirtying: a new
// Bind value with its own item slice of cloned Items, so marking clone
// items stale never mutates the published, shared original. BindData is
// shared by reference (Dependencies, Config and Extensions are themselves
// immutable/synchronized), matching the "shared ownership of
// finished binds" design note.
func (b *Bind) Clone() *Bind {
	clone := &Bind{Data: b.Data, Stale: b.Stale}
	clone.items = make([]*Item, len(b.items))
	for i, it := range b.items {
		clone.items[i] = it.Clone()
	}
	return clone
}
