package bind

import "github.com/weave-ssg/weave/internal/attr"

// Item is one compilation unit: a file-path relation (Route), a body, and
// an extensible per-item attribute bag. Data points back at the Bind's
// shared metadata. Stale is set during incremental dirtying and cleared
// when the owning rule completes (see Bind.Stale and Manager.Update).
type Item struct {
	Route Route
	Body  []byte
	Data  *BindData
	Stale bool

	bag *attr.Bag
}

// NewItem constructs an Item with an empty attribute bag.
func NewItem(route Route, data *BindData) *Item {
	return &Item{Route: route, Data: data, bag: attr.NewBag()}
}

// Attrs returns the item's attribute bag, creating one if necessary (a
// zero-value Item, e.g. one built by a test fixture without NewItem, still
// works).
func (it *Item) Attrs() *attr.Bag {
	if it.bag == nil {
		it.bag = attr.NewBag()
	}
	return it.bag
}

// Clone returns a shallow copy of it: a new Item value, a fresh attribute
// bag pre-seeded with every current entry is NOT performed (attribute bags
// are rebuilt by the handler chain on rerun), but Body and Route are
// copied so mutating the clone never affects the original.
func (it *Item) Clone() *Item {
	body := make([]byte, len(it.Body))
	copy(body, it.Body)
	return &Item{
		Route: it.Route,
		Body:  body,
		Data:  it.Data,
		Stale: it.Stale,
		bag:   attr.NewBag(),
	}
}
