package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/weave-ssg/weave/internal/bind"
	"github.com/weave-ssg/weave/internal/config"
	"github.com/weave-ssg/weave/internal/evaluator"
	"github.com/weave-ssg/weave/internal/graph"
	"github.com/weave-ssg/weave/internal/handle"
	"github.com/weave-ssg/weave/internal/rule"
)

// logging returns a handler that appends name to log under mu, so a test
// can see which rules ran and in what order.
func logging(mu *sync.Mutex, log *[]string, name string) handle.Handle[bind.Bind] {
	return handle.Func[bind.Bind](func(ctx context.Context, b *bind.Bind) error {
		mu.Lock()
		*log = append(*log, name)
		mu.Unlock()
		return nil
	})
}

func newTestManager() *Manager {
	cfg := &config.Configuration{Input: "in", Output: "out", Threads: 1}
	return New(cfg, nil, evaluator.NewInline())
}

func TestLinearDependency(t *testing.T) {
	m := newTestManager()
	var mu sync.Mutex
	var log []string

	mustAdd(t, m, rule.New("A").Handles(logging(&mu, &log, "A")))
	mustAdd(t, m, rule.New("B").DependsOn("A").Handles(logging(&mu, &log, "B")))
	mustAdd(t, m, rule.New("C").DependsOn("B").Handles(logging(&mu, &log, "C")))

	if err := m.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, log); diff != "" {
		t.Fatalf("log mismatch (-want +got):\n%s", diff)
	}
	for _, name := range []string{"A", "B", "C"} {
		if _, ok := m.Finished(name); !ok {
			t.Fatalf("finished missing %s", name)
		}
	}
}

func TestDiamond(t *testing.T) {
	m := newTestManager()
	var mu sync.Mutex
	var log []string

	mustAdd(t, m, rule.New("A").Handles(logging(&mu, &log, "A")))
	mustAdd(t, m, rule.New("B").DependsOn("A").Handles(logging(&mu, &log, "B")))
	mustAdd(t, m, rule.New("C").DependsOn("A").Handles(logging(&mu, &log, "C")))
	mustAdd(t, m, rule.New("D").DependsOn("B", "C").Handles(logging(&mu, &log, "D")))

	if err := m.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(log) != 4 {
		t.Fatalf("len(log) = %d, want 4: %v", len(log), log)
	}
	if log[0] != "A" {
		t.Fatalf("log[0] = %s, want A", log[0])
	}
	if log[3] != "D" {
		t.Fatalf("log[3] = %s, want D", log[3])
	}
	mid := map[string]bool{log[1]: true, log[2]: true}
	if !mid["B"] || !mid["C"] {
		t.Fatalf("log[1:3] = %v, want {B,C} in some order", log[1:3])
	}
}

func TestCycleFailsBuild(t *testing.T) {
	m := newTestManager()
	mustAdd(t, m, rule.New("A"))
	mustAdd(t, m, rule.New("B"))
	// Wire the cycle directly on the graph, since Add() validates
	// dependencies are already registered and neither A nor B exists yet
	// at the point the other would need to declare it.
	m.graph.AddEdge("B", "A")
	m.graph.AddEdge("A", "B")

	err := m.Build(context.Background())
	if err == nil {
		t.Fatalf("Build succeeded, want a cycle error")
	}
	cycleErr, ok := err.(*graph.CycleError)
	if !ok {
		t.Fatalf("err = %T, want *graph.CycleError", err)
	}
	has := map[string]bool{}
	for _, n := range cycleErr.Path {
		has[n] = true
	}
	if !has["A"] || !has["B"] {
		t.Fatalf("cycle path %v does not mention both A and B", cycleErr.Path)
	}
}

func TestMissingDependencyFailsRegistration(t *testing.T) {
	m := newTestManager()
	err := m.Add(rule.New("X").DependsOn("nope"))
	if err == nil {
		t.Fatalf("Add succeeded, want a missing-dependency error")
	}
	missing, ok := err.(*MissingDependencyError)
	if !ok {
		t.Fatalf("err = %T, want *MissingDependencyError", err)
	}
	if missing.Rule != "X" || len(missing.Missing) != 1 || missing.Missing[0] != "nope" {
		t.Fatalf("err = %+v, want Rule=X Missing=[nope]", missing)
	}
}

func TestMatchingRulePopulatesFromPaths(t *testing.T) {
	cfg := &config.Configuration{Input: "in", Output: "out", Threads: 1}
	paths := []string{"posts/a.md", "posts/b.md", "other.md"}
	m := New(cfg, paths, evaluator.NewInline())

	mustAdd(t, m, rule.New("posts").MatchingPattern(`^posts/.*\.md$`))

	if err := m.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, ok := m.Finished("posts")
	if !ok {
		t.Fatalf("finished missing posts")
	}
	items := b.Full()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2: %v", len(items), items)
	}
	got := map[string]bool{}
	for _, it := range items {
		src, _ := it.Route.Reading()
		got[src] = true
	}
	if !got["posts/a.md"] || !got["posts/b.md"] {
		t.Fatalf("items = %v, want posts/a.md and posts/b.md", got)
	}
}

func TestIncrementalUpdateRerunsOnlyTheTouchedClosure(t *testing.T) {
	cfg := &config.Configuration{Input: "in", Output: "out", Threads: 1}
	paths := []string{"posts/a.md"}
	m := New(cfg, paths, evaluator.NewInline())

	var mu sync.Mutex
	var log []string
	mustAdd(t, m, rule.New("A").MatchingPattern(`^posts/.*\.md$`).Handles(logging(&mu, &log, "A")))
	mustAdd(t, m, rule.New("B").DependsOn("A").Handles(logging(&mu, &log, "B")))
	mustAdd(t, m, rule.New("C").DependsOn("A").Handles(logging(&mu, &log, "C")))
	mustAdd(t, m, rule.New("D").DependsOn("B", "C").Handles(logging(&mu, &log, "D")))

	if err := m.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(log) != 4 {
		t.Fatalf("initial build log = %v, want 4 entries", log)
	}

	log = nil
	if err := m.Update(context.Background(), []string{"posts/a.md"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(log) != 4 {
		t.Fatalf("update log = %v, want exactly A,B,C,D to rerun", log)
	}
	if log[0] != "A" || log[3] != "D" {
		t.Fatalf("update order = %v, want A first and D last", log)
	}

	log = nil
	if err := m.Update(context.Background(), []string{"unrelated.md"}); err != nil {
		t.Fatalf("Update with unrelated path: %v", err)
	}
	if len(log) != 0 {
		t.Fatalf("update with unrelated path ran %v, want none", log)
	}

	log = nil
	if err := m.Update(context.Background(), nil); err != nil {
		t.Fatalf("Update with no paths: %v", err)
	}
	if len(log) != 0 {
		t.Fatalf("update with no paths ran %v, want none", log)
	}
}

// TestIncrementalUpdateRerunsMatchingRuleDependingOnUntouchedCreatingRule
// mirrors the default site pipeline's shape: a Creating rule ("templates")
// that no path-based update ever touches, depended on by a Matching rule
// ("content") that does get rebuilt. The Creating dependency is neither in
// matched (it has no pattern to test against paths) nor in order (it is a
// dependency of content, not a dependent, and graph.Resolve only walks the
// dependents relation) — so content's remaining-dependency count must still reach
// zero from the untouched-dependency bookkeeping alone, not from a rerun.
func TestIncrementalUpdateRerunsMatchingRuleDependingOnUntouchedCreatingRule(t *testing.T) {
	cfg := &config.Configuration{Input: "in", Output: "out", Threads: 1}
	paths := []string{"posts/a.md"}
	m := New(cfg, paths, evaluator.NewInline())

	var mu sync.Mutex
	var log []string
	mustAdd(t, m, rule.New("templates").Handles(logging(&mu, &log, "templates")))
	mustAdd(t, m, rule.New("content").MatchingPattern(`^posts/.*\.md$`).DependsOn("templates").Handles(logging(&mu, &log, "content")))

	if err := m.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]string{"templates", "content"}, log); diff != "" {
		t.Fatalf("initial build log mismatch (-want +got):\n%s", diff)
	}

	log = nil
	done := make(chan error, 1)
	go func() { done <- m.Update(context.Background(), []string{"posts/a.md"}) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Update deadlocked waiting on an untouched Creating dependency")
	}
	if diff := cmp.Diff([]string{"content"}, log); diff != "" {
		t.Fatalf("update log mismatch (-want +got): templates must not rerun\n%s", diff)
	}
}

func mustAdd(t *testing.T, m *Manager, r *rule.Rule) {
	t.Helper()
	if err := m.Add(r); err != nil {
		t.Fatalf("Add(%s): %v", r.Name, err)
	}
}
