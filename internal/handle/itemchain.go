package handle

import (
	"context"

	"github.com/weave-ssg/weave/internal/bind"
)

// ItemChain adapts a Chain[bind.Item] into a Handle[bind.Bind] by
// iterating the bind's items (full iteration — see bind.Bind.Full) and
// applying the item chain to each in order, fail-fast on the first item
// error. This is the "Chain<Item> additionally satisfies Handle<Bind>"
// rule.
type ItemChain struct {
	*Chain[bind.Item]
}

// NewItemChain returns an ItemChain running handlers over each item.
func NewItemChain(handlers ...Handle[bind.Item]) *ItemChain {
	return &ItemChain{Chain: NewChain(handlers...)}
}

// Handle applies the wrapped item chain to every item in b, in order,
// stopping at the first item whose chain returns an error. Per the
// section 9's open question 1, an item-level error aborts the whole bind
// rather than being collected per item.
func (c *ItemChain) Handle(ctx context.Context, b *bind.Bind) error {
	for _, it := range b.Full() {
		if err := c.Chain.Handle(ctx, it); err != nil {
			return err
		}
	}
	return nil
}
