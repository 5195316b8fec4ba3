// Package graph implements the dependency graph over rule names: a
// directed graph supporting node/edge addition, dependency-count queries,
// dependents/dependencies lookup, topological sort (full or restricted to
// a starting set), and cycle detection with path recovery.
//
// Nodes are stored in a gonum simple.DirectedGraph, keyed by a small node
// wrapper carrying a monotonic int64 ID alongside the rule name, with a
// name->node map for lookup. Rather than handing the topological sort
// itself to gonum/graph/topo, this package walks the graph with its own
// DFS: callers need an exact cycle path (c0, c1, ..., ck=c0), which
// topo.Sort's Unorderable error does not hand back in that shape.
package graph

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
)

type node struct {
	id   int64
	name string
}

func (n *node) ID() int64 { return n.id }

// Graph is a directed graph over rule names. Edges are recorded in both
// directions: AddEdge(from, to) means "from is a dependency of to", so
// forward traversal (From) yields dependents and reverse traversal (To)
// yields dependencies.
type Graph struct {
	g      *simple.DirectedGraph
	byName map[string]*node
	nextID int64
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		g:      simple.NewDirectedGraph(),
		byName: make(map[string]*node),
	}
}

// AddNode registers name as a node. Idempotent.
func (g *Graph) AddNode(name string) {
	if _, ok := g.byName[name]; ok {
		return
	}
	n := &node{id: g.nextID, name: name}
	g.nextID++
	g.byName[name] = n
	g.g.AddNode(n)
}

// AddEdge records from -> to: from is a dependency of to. Duplicate edges
// collapse, matching gonum's set semantics. An endpoint that is not yet
// registered is added as a node first.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	fn, tn := g.byName[from], g.byName[to]
	if g.g.HasEdgeFromTo(fn.ID(), tn.ID()) {
		return
	}
	g.g.SetEdge(g.g.NewEdge(fn, tn))
}

// DependentsOf returns the names of nodes that declared n as a dependency.
func (g *Graph) DependentsOf(n string) []string {
	nd, ok := g.byName[n]
	if !ok {
		return nil
	}
	var out []string
	it := g.g.From(nd.ID())
	for it.Next() {
		out = append(out, it.Node().(*node).name)
	}
	return out
}

// DependenciesOf returns the names n declared as dependencies.
func (g *Graph) DependenciesOf(n string) []string {
	nd, ok := g.byName[n]
	if !ok {
		return nil
	}
	var out []string
	it := g.g.To(nd.ID())
	for it.Next() {
		out = append(out, it.Node().(*node).name)
	}
	return out
}

// DependencyCount reports len(DependenciesOf(n)).
func (g *Graph) DependencyCount(n string) int {
	return len(g.DependenciesOf(n))
}

// CycleError reports a directed cycle found during resolution. Path is a
// sequence c0, c1, ..., ck with an edge (ci, ci+1) for every consecutive
// pair and ck == c0.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

type color int

const (
	white color = iota
	gray
	black
)

// ResolveAll returns a topological ordering (dependency before dependent)
// over every registered node, or a *CycleError carrying the offending path.
func (g *Graph) ResolveAll() ([]string, error) {
	return g.resolve(g.allNames())
}

// Resolve returns the transitive closure of starts under the dependents
// relation (starts plus everything that directly or indirectly depends on
// them), in topological order. Nodes outside the closure are omitted.
func (g *Graph) Resolve(starts []string) ([]string, error) {
	order, err := g.resolve(g.allNames())
	if err != nil {
		return nil, err
	}
	closure := g.closureOfDependents(starts)
	out := make([]string, 0, len(closure))
	for _, name := range order {
		if _, ok := closure[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func (g *Graph) allNames() []string {
	names := make([]string, 0, len(g.byName))
	for name := range g.byName {
		names = append(names, name)
	}
	return names
}

func (g *Graph) closureOfDependents(starts []string) map[string]struct{} {
	closure := make(map[string]struct{})
	var stack []string
	for _, s := range starts {
		if _, ok := g.byName[s]; !ok {
			continue
		}
		if _, ok := closure[s]; !ok {
			closure[s] = struct{}{}
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range g.DependentsOf(n) {
			if _, ok := closure[dep]; !ok {
				closure[dep] = struct{}{}
				stack = append(stack, dep)
			}
		}
	}
	return closure
}

// resolve runs an iterative depth-first search with three-color marking
// over every node reachable from names (which, for ResolveAll, is every
// node). Nodes are appended to order on DFS finish (postorder); reversing
// that sequence yields dependency-before-dependent order. A back-edge to a
// gray node closes a cycle, reconstructed by walking parent pointers from
// the current node back to the gray one.
func (g *Graph) resolve(names []string) ([]string, error) {
	colors := make(map[string]color, len(g.byName))
	parent := make(map[string]string, len(g.byName))
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		colors[name] = gray
		for _, dep := range g.DependentsOf(name) {
			switch colors[dep] {
			case white:
				parent[dep] = name
				if err := visit(dep); err != nil {
					return err
				}
			case gray:
				return &CycleError{Path: reconstructCycle(parent, name, dep)}
			case black:
				// already fully explored via another path; fine.
			}
		}
		colors[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range sortedCopy(names) {
		if colors[name] != white {
			continue
		}
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	// order is a reverse-postorder once flipped: postorder finishes
	// dependencies before dependents along any one DFS tree, so reversing
	// the whole sequence puts dependencies first globally.
	reversed := make([]string, len(order))
	for i, name := range order {
		reversed[len(order)-1-i] = name
	}
	return reversed, nil
}

// reconstructCycle walks parent pointers from "from" back to "to" (the gray
// node the back-edge points at), then closes the loop by repeating "to".
func reconstructCycle(parent map[string]string, from, to string) []string {
	path := []string{from}
	cur := from
	for cur != to {
		p, ok := parent[cur]
		if !ok {
			break
		}
		path = append(path, p)
		cur = p
	}
	// path is currently [from, ..., to] in reverse (from first); flip it so
	// it reads to -> ... -> from, then close the loop with -> to.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	path = append(path, to)
	return path
}

// sortedCopy gives resolve a deterministic node visitation order so tests
// are reproducible; tie-breaking among independent nodes is left
// unspecified, but a stable iteration order still avoids map-order flake.
func sortedCopy(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
