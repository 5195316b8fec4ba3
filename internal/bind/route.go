package bind

// RouteKind tags which paths a Route carries.
type RouteKind int

const (
	// KindRead routes carry only a source path.
	KindRead RouteKind = iota
	// KindWrite routes carry only a destination path.
	KindWrite
	// KindReadWrite routes carry both.
	KindReadWrite
)

// Route describes an item's file-path relation: it was read from src,
// will be written to dst, or both.
type Route struct {
	kind RouteKind
	src  string
	dst  string
}

// Read returns a Route for an item read from src with no write path yet.
func Read(src string) Route { return Route{kind: KindRead, src: src} }

// Write returns a Route for an item with no read path, written to dst.
func Write(dst string) Route { return Route{kind: KindWrite, dst: dst} }

// ReadWrite returns a Route for an item read from src and written to dst.
func ReadWrite(src, dst string) Route { return Route{kind: KindReadWrite, src: src, dst: dst} }

// Reading returns the route's source path, if it has one.
func (r Route) Reading() (string, bool) {
	if r.kind == KindRead || r.kind == KindReadWrite {
		return r.src, true
	}
	return "", false
}

// Writing returns the route's destination path, if it has one.
func (r Route) Writing() (string, bool) {
	if r.kind == KindWrite || r.kind == KindReadWrite {
		return r.dst, true
	}
	return "", false
}

// Kind reports which paths this route carries.
func (r Route) Kind() RouteKind { return r.kind }

// RouteTo applies f (Path -> Path) to compute a new destination: a Read
// route preserves its source and gains a computed destination, becoming
// ReadWrite; a Write or ReadWrite route recomputes its destination, from
// the existing destination for Write (there is no source to derive from)
// and from the source for ReadWrite (the natural basis for a derived
// output path, e.g. changing an extension).
func (r Route) RouteTo(f func(string) string) Route {
	switch r.kind {
	case KindRead:
		return ReadWrite(r.src, f(r.src))
	case KindReadWrite:
		return ReadWrite(r.src, f(r.src))
	case KindWrite:
		return Write(f(r.dst))
	}
	return r
}
