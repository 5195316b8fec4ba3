// Package job implements the scheduler's unit of dispatch: a rule instance
// paired with the bind being built.
package job

import (
	"context"
	"regexp"

	"github.com/weave-ssg/weave/internal/bind"
	"github.com/weave-ssg/weave/internal/handle"
	"github.com/weave-ssg/weave/internal/rule"
	"golang.org/x/xerrors"
)

// Job pairs a rule's BindData, Kind, Pattern and Handler with the Bind
// being built (nil until first run, retained across reruns) and a shared
// snapshot of all input paths.
type Job struct {
	BindData *bind.BindData
	Kind     rule.Kind
	Pattern  string
	Handler  handle.Handle[bind.Bind]
	Bind     *bind.Bind
	Paths    []string

	// Err is set by Process and read by the Manager after a completion is
	// dequeued.
	Err error
}

// Process dispatches by kind: on the first run of a Matching job, it scans
// the shared path list and adds a Read item for every path matching
// Pattern (matched against the path relative to the input root); Creating
// jobs are left for the handler alone to populate. After population (or on
// reruns, where the existing bind is reused as-is), the bind handler runs.
func (j *Job) Process(ctx context.Context) error {
	if j.Bind == nil {
		j.Bind = bind.New(j.BindData)
		if j.Kind == rule.Matching {
			re, err := regexp.Compile(j.Pattern)
			if err != nil {
				return xerrors.Errorf("job %s: compile pattern %q: %w", j.BindData.Name, j.Pattern, err)
			}
			for _, p := range j.Paths {
				if re.MatchString(p) {
					j.Bind.Add(bind.NewItem(bind.Read(p), j.BindData))
				}
			}
		}
	}
	if j.Handler == nil {
		return nil
	}
	return j.Handler.Handle(ctx, j.Bind)
}
