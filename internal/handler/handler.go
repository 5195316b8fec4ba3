package handler

import (
	"context"

	"github.com/weave-ssg/weave/internal/bind"
	"github.com/weave-ssg/weave/internal/handle"
)

// Handle is the item-level handler contract every function in this
// package implements: handle.Handle[bind.Item] under a shorter local
// name, since every handler in this catalogue operates at item
// granularity except the ones explicitly typed handle.Handle[bind.Bind].
type Handle = handle.Handle[bind.Item]

// itemFunc adapts a plain function to Handle.
type itemFunc func(ctx context.Context, it *bind.Item) error

func (f itemFunc) Handle(ctx context.Context, it *bind.Item) error { return f(ctx, it) }
