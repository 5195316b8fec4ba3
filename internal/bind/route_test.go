package bind

import "testing"

func TestRouteToFromRead(t *testing.T) {
	r := Read("a.md").RouteTo(func(p string) string { return p + ".html" })
	if r.Kind() != KindReadWrite {
		t.Fatalf("kind = %v, want KindReadWrite", r.Kind())
	}
	src, ok := r.Reading()
	if !ok || src != "a.md" {
		t.Fatalf("Reading() = %q, %v, want a.md, true", src, ok)
	}
	dst, ok := r.Writing()
	if !ok || dst != "a.md.html" {
		t.Fatalf("Writing() = %q, %v, want a.md.html, true", dst, ok)
	}
}

func TestRouteToFromReadWriteRederivesFromSrc(t *testing.T) {
	r := ReadWrite("a.md", "a.html").RouteTo(func(p string) string { return p + ".new" })
	dst, _ := r.Writing()
	if dst != "a.md.new" {
		t.Fatalf("Writing() = %q, want a.md.new (derived from src)", dst)
	}
}

func TestRouteToFromWriteRederivesFromDst(t *testing.T) {
	r := Write("out.html").RouteTo(func(p string) string { return p + ".gz" })
	if r.Kind() != KindWrite {
		t.Fatalf("kind = %v, want KindWrite", r.Kind())
	}
	if _, ok := r.Reading(); ok {
		t.Fatalf("Reading() ok = true, want false for a Write route")
	}
	dst, ok := r.Writing()
	if !ok || dst != "out.html.gz" {
		t.Fatalf("Writing() = %q, %v, want out.html.gz, true", dst, ok)
	}
}
