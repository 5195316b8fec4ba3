// Package rule implements the named, kind-tagged bundle of a handler and a
// dependency-name set.
package rule

import (
	"github.com/weave-ssg/weave/internal/bind"
	"github.com/weave-ssg/weave/internal/handle"
)

// Kind distinguishes how a rule's Bind gets its initial items.
type Kind int

const (
	// Creating rules populate their bind entirely via their handler; the
	// scheduler does not auto-populate anything.
	Creating Kind = iota
	// Matching rules are auto-populated from the shared input path list:
	// every path matching Pattern becomes a Read item.
	Matching
)

// Rule is a named unit of work: a Kind, an optional Matching pattern, a
// dependency-name set, and a Handle[bind.Bind].
type Rule struct {
	Name    string
	Kind    Kind
	Pattern string
	Deps    map[string]struct{}
	Handler handle.Handle[bind.Bind]
}

// New starts a fluent Rule builder for the given name, defaulting to
// Creating.
func New(name string) *Rule {
	return &Rule{Name: name, Kind: Creating, Deps: make(map[string]struct{})}
}

// MatchingPattern switches the rule to Matching kind with the given
// pattern, a regular expression matched against paths relative to the
// input root.
func (r *Rule) MatchingPattern(pattern string) *Rule {
	r.Kind = Matching
	r.Pattern = pattern
	return r
}

// DependsOn adds names to the rule's dependency set.
func (r *Rule) DependsOn(names ...string) *Rule {
	for _, n := range names {
		r.Deps[n] = struct{}{}
	}
	return r
}

// Handles sets the rule's bind handler.
func (r *Rule) Handles(h handle.Handle[bind.Bind]) *Rule {
	r.Handler = h
	return r
}

// DependencyNames returns the rule's declared dependency names.
func (r *Rule) DependencyNames() []string {
	names := make([]string, 0, len(r.Deps))
	for n := range r.Deps {
		names = append(names, n)
	}
	return names
}
