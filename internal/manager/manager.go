// Package manager implements the scheduler proper: the Manager owns the
// dependency graph, the waiting queue, the per-rule readiness counts, and
// the finished-bind table, and drives full and incremental builds.
package manager

import (
	"context"
	"regexp"

	"github.com/weave-ssg/weave/internal/bind"
	"github.com/weave-ssg/weave/internal/config"
	"github.com/weave-ssg/weave/internal/evaluator"
	"github.com/weave-ssg/weave/internal/graph"
	"github.com/weave-ssg/weave/internal/job"
	"github.com/weave-ssg/weave/internal/rule"
	"golang.org/x/xerrors"
)

// MissingDependencyError reports a rule declaring a dependency on a name
// that was never registered.
type MissingDependencyError struct {
	Rule    string
	Missing []string
}

func (e *MissingDependencyError) Error() string {
	return xerrors.Errorf("rule %q declares missing dependencies %v", e.Rule, e.Missing).Error()
}

// ErrWorkerPanic is returned by Build/Update when the evaluator's Dequeue
// reports a dead worker.
var ErrWorkerPanic = xerrors.New("worker panic: build aborted")

// Manager is the job manager: it owns all mutable scheduler state and is
// only ever touched from a single goroutine (the caller of Build/Update).
// Workers own jobs by value while processing; the Manager only reads jobs
// back out through the Evaluator's Dequeue.
type Manager struct {
	rules        map[string]*rule.Rule
	graph        *graph.Graph
	dependencies map[string]int
	waiting      []*job.Job
	finished     map[string]*bind.Bind
	evaluator    evaluator.Evaluator
	count        int
	paths        []string
	config       *config.Configuration
}

// New returns a Manager ready to have rules Added to it.
func New(cfg *config.Configuration, paths []string, ev evaluator.Evaluator) *Manager {
	return &Manager{
		rules:        make(map[string]*rule.Rule),
		graph:        graph.New(),
		dependencies: make(map[string]int),
		finished:     make(map[string]*bind.Bind),
		evaluator:    ev,
		paths:        paths,
		config:       cfg,
	}
}

// Finished returns the completed Bind for name, if any.
func (m *Manager) Finished(name string) (*bind.Bind, bool) {
	b, ok := m.finished[name]
	return b, ok
}

// Add registers r: it validates that every declared dependency is already
// registered (a fatal configuration error otherwise), pushes a fresh Job
// onto the waiting queue, adds r as a graph node, adds an edge from each
// dependency to r, and increments the total job count.
func (m *Manager) Add(r *rule.Rule) error {
	var missing []string
	for _, dep := range r.DependencyNames() {
		if _, ok := m.rules[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &MissingDependencyError{Rule: r.Name, Missing: missing}
	}

	m.rules[r.Name] = r
	m.graph.AddNode(r.Name)
	for _, dep := range r.DependencyNames() {
		m.graph.AddEdge(dep, r.Name)
	}

	data := bind.NewBindData(r.Name, m.config)
	m.waiting = append(m.waiting, &job.Job{
		BindData: data,
		Kind:     r.Kind,
		Pattern:  r.Pattern,
		Handler:  r.Handler,
		Paths:    m.paths,
	})
	m.count++
	return nil
}

// Build runs a full build: every registered rule's handler is invoked
// exactly once, in an order where a rule runs only after all of its
// transitive dependencies have completed.
func (m *Manager) Build(ctx context.Context) error {
	order, err := m.graph.ResolveAll()
	if err != nil {
		return err
	}
	m.sortJobs(order)
	m.enqueueReady()
	for i := 0; i < m.count; i++ {
		j, ok := m.evaluator.Dequeue()
		if !ok {
			return ErrWorkerPanic
		}
		if err := m.handleDone(j); err != nil {
			return err
		}
	}
	m.reset()
	return nil
}

// sortJobs rearranges waiting to match order exactly and initializes each
// rule's remaining-dependency count to its current dependency count.
func (m *Manager) sortJobs(order []string) {
	byName := make(map[string]*job.Job, len(m.waiting))
	for _, j := range m.waiting {
		byName[j.BindData.Name] = j
	}
	sorted := make([]*job.Job, 0, len(order))
	for _, name := range order {
		j, ok := byName[name]
		if !ok {
			continue
		}
		sorted = append(sorted, j)
		m.dependencies[name] = m.graph.DependencyCount(name)
	}
	m.waiting = sorted
}

// enqueueReady drains from waiting every job whose remaining count is
// zero, populating its BindData.Dependencies snapshot from the finished
// table before handing it to the evaluator.
func (m *Manager) enqueueReady() {
	var remaining []*job.Job
	for _, j := range m.waiting {
		name := j.BindData.Name
		if m.dependencies[name] != 0 {
			remaining = append(remaining, j)
			continue
		}
		j.BindData.Dependencies = make(map[string]*bind.Bind)
		for _, dep := range m.rules[name].DependencyNames() {
			j.BindData.Dependencies[dep] = m.finished[dep]
		}
		m.evaluator.Enqueue(j)
	}
	m.waiting = remaining
}

// handleDone clears the stale flag of the completed job's bind and of its
// items, installs the bind into the finished table, satisfies its
// dependents, and re-runs enqueueReady.
func (m *Manager) handleDone(j *job.Job) error {
	if j.Err != nil {
		return xerrors.Errorf("rule %q: %w", j.BindData.Name, j.Err)
	}
	j.Bind.Stale = false
	for _, it := range j.Bind.MutableSlice() {
		it.Stale = false
	}
	m.finished[j.BindData.Name] = j.Bind
	m.satisfy(j.BindData.Name)
	m.enqueueReady()
	return nil
}

// satisfy decrements the remaining count of every dependent of name that
// still has an entry in dependencies. Because waiting is stored in
// topological order, this decrement is always against a non-negative
// count that reaches zero at most once.
func (m *Manager) satisfy(name string) {
	for _, dep := range m.graph.DependentsOf(name) {
		if _, ok := m.dependencies[dep]; ok {
			m.dependencies[dep]--
		}
	}
}

// reset clears the waiting queue and job count so Build/Update can run
// again. It deliberately does NOT clear the graph or the rule map: Update
// calls reset() at the end of every incremental run and relies on the
// graph surviving into its next invocation (see DESIGN.md for the full
// rationale).
func (m *Manager) reset() {
	m.waiting = nil
	m.count = 0
}

// Update performs an incremental rebuild restricted to the rules whose
// items intersect paths, plus their transitive dependents.
func (m *Manager) Update(ctx context.Context, paths []string) error {
	binds := make(map[string]*bind.Bind)
	matched := make(map[string]struct{})
	didnt := make(map[string]struct{})

	for name, b := range m.finished {
		r := m.rules[name]
		if r == nil {
			continue
		}
		if r.Kind != rule.Matching {
			// A Creating-kind rule has no pattern to test against paths, so
			// it can never be in matched: it only reruns when one of its
			// own dependencies does. Record it as untouched here so
			// sortJobsIncremental can still subtract it out of a
			// dependent's remaining count (unless it turns out to rerun;
			// see below).
			didnt[name] = struct{}{}
			continue
		}
		subset, err := matchingSubset(r.Pattern, paths)
		if err != nil {
			return err
		}
		if len(subset) == 0 {
			didnt[name] = struct{}{}
			continue
		}
		clone := b.Clone()
		for _, it := range clone.MutableSlice() {
			if src, ok := it.Route.Reading(); ok {
				if _, in := subset[src]; in {
					it.Stale = true
				}
			}
		}
		clone.Stale = true
		binds[name] = clone
		matched[name] = struct{}{}
	}

	if len(matched) == 0 {
		return nil
	}

	starts := make([]string, 0, len(matched))
	for name := range matched {
		starts = append(starts, name)
	}

	m.waiting = nil
	order, err := m.graph.Resolve(starts)
	if err != nil {
		return err
	}
	// Every rule in order reruns, so none of them counts as untouched,
	// whatever its kind or pattern.
	for _, name := range order {
		delete(didnt, name)
	}

	for _, name := range order {
		r := m.rules[name]
		data := bind.NewBindData(name, m.config)
		j := &job.Job{
			BindData: data,
			Kind:     r.Kind,
			Pattern:  r.Pattern,
			Handler:  r.Handler,
			Paths:    m.paths,
		}
		if cloned, ok := binds[name]; ok {
			// The clone still points at the previous run's BindData; repoint
			// it and its items at this run's data, which receives the
			// dependency snapshot in enqueueReady.
			cloned.Data = data
			for _, it := range cloned.MutableSlice() {
				it.Data = data
			}
			j.Bind = cloned
		}
		m.waiting = append(m.waiting, j)
	}

	m.sortJobsIncremental(order, didnt)
	m.enqueueReady()
	for i := 0; i < len(order); i++ {
		j, ok := m.evaluator.Dequeue()
		if !ok {
			return ErrWorkerPanic
		}
		if err := m.handleDone(j); err != nil {
			return err
		}
	}
	m.reset()
	return nil
}

// sortJobsIncremental is sortJobs, but treats dependencies that didn't
// change as already satisfied, since their finished bind is still valid.
func (m *Manager) sortJobsIncremental(order []string, didnt map[string]struct{}) {
	byName := make(map[string]*job.Job, len(m.waiting))
	for _, j := range m.waiting {
		byName[j.BindData.Name] = j
	}
	sorted := make([]*job.Job, 0, len(order))
	for _, name := range order {
		j, ok := byName[name]
		if !ok {
			continue
		}
		sorted = append(sorted, j)
		count := m.graph.DependencyCount(name)
		for _, dep := range m.graph.DependenciesOf(name) {
			if _, ok := didnt[dep]; ok {
				count--
			}
		}
		m.dependencies[name] = count
	}
	m.waiting = sorted
}

// matchingSubset returns the subset of paths matched by pattern, as a set
// for O(1) membership tests against item reading paths.
func matchingSubset(pattern string, paths []string) (map[string]struct{}, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, xerrors.Errorf("compile pattern %q: %w", pattern, err)
	}
	out := make(map[string]struct{})
	for _, p := range paths {
		if re.MatchString(p) {
			out[p] = struct{}{}
		}
	}
	return out, nil
}
