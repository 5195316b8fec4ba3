package bind

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFullReturnsEveryItem(t *testing.T) {
	data := NewBindData("r", nil)
	b := New(data)
	b.Add(NewItem(Read("a"), data))
	b.Add(NewItem(Read("b"), data))

	if got := len(b.Full()); got != 2 {
		t.Fatalf("len(Full()) = %d, want 2", got)
	}
}

func TestPartialSkipsNonStaleItems(t *testing.T) {
	data := NewBindData("r", nil)
	b := New(data)
	stale := NewItem(Read("a"), data)
	stale.Stale = true
	fresh := NewItem(Read("b"), data)
	b.Add(stale)
	b.Add(fresh)

	partial := b.Partial()
	if len(partial) != 1 {
		t.Fatalf("len(Partial()) = %d, want 1", len(partial))
	}
	if src, _ := partial[0].Route.Reading(); src != "a" {
		t.Fatalf("Partial()[0] reads %q, want a", src)
	}
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	data := NewBindData("r", nil)
	b := New(data)
	it := NewItem(Read("a"), data)
	it.Body = []byte("hello")
	b.Add(it)

	clone := b.Clone()
	clone.MutableSlice()[0].Stale = true
	clone.MutableSlice()[0].Body[0] = 'H'

	if b.ReadOnly()[0].Stale {
		t.Fatalf("original item became stale after mutating the clone")
	}
	if diff := cmp.Diff("hello", string(b.ReadOnly()[0].Body)); diff != "" {
		t.Fatalf("original item body changed after mutating the clone (-want +got):\n%s", diff)
	}
}
