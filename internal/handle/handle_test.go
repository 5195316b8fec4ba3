package handle

import (
	"context"
	"testing"

	"golang.org/x/xerrors"
)

func TestChainRunsInOrder(t *testing.T) {
	var order []int
	c := NewChain(
		Func[int](func(ctx context.Context, v *int) error { order = append(order, 1); return nil }),
		Func[int](func(ctx context.Context, v *int) error { order = append(order, 2); return nil }),
	)
	v := 0
	if err := c.Handle(context.Background(), &v); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}

func TestChainFailsFast(t *testing.T) {
	boom := xerrors.New("boom")
	var ran2 bool
	c := NewChain(
		Func[int](func(ctx context.Context, v *int) error { return boom }),
		Func[int](func(ctx context.Context, v *int) error { ran2 = true; return nil }),
	)
	v := 0
	err := c.Handle(context.Background(), &v)
	if err != boom {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if ran2 {
		t.Fatalf("second handler ran after the first failed")
	}
}

func TestAppendDoesNotMutateOriginal(t *testing.T) {
	base := NewChain(Func[int](func(ctx context.Context, v *int) error { return nil }))
	extended := base.Append(Func[int](func(ctx context.Context, v *int) error { return nil }))
	if len(base.handlers) != 1 {
		t.Fatalf("base.handlers changed length after Append: %d", len(base.handlers))
	}
	if len(extended.handlers) != 2 {
		t.Fatalf("len(extended.handlers) = %d, want 2", len(extended.handlers))
	}
}
