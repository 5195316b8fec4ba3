package main

import (
	"context"
	"html/template"
	"log"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/weave-ssg/weave/internal/attr"
	"github.com/weave-ssg/weave/internal/bind"
	"github.com/weave-ssg/weave/internal/config"
	"github.com/weave-ssg/weave/internal/handle"
	"github.com/weave-ssg/weave/internal/handler"
	"github.com/weave-ssg/weave/internal/manager"
	"github.com/weave-ssg/weave/internal/rule"
)

// registerSite wires up the default rule pipeline: a "templates" rule that
// parses every *.tmpl file in the input root's templates/ directory into a
// shared html/template.Template set, an "assets" rule that copies static files
// through untouched, and a "content" rule that renders markdown pages
// against that template set. It is the concrete instance of the handler
// catalogue the scheduler drives; a real deployment is expected to
// replace this with its own rule set built the same way.
func registerSite(m *manager.Manager, cfg *config.Configuration) error {
	templatesRule := rule.New("templates").Handles(handle.Func[bind.Bind](buildTemplateRegistry))
	if err := m.Add(templatesRule); err != nil {
		return xerrors.Errorf("register templates rule: %w", err)
	}

	assetsRule := rule.New("assets").
		MatchingPattern(`^static/`).
		Handles(handle.NewItemChain(
			routeToOutput(),
			handler.Copy,
		))
	if err := m.Add(assetsRule); err != nil {
		return xerrors.Errorf("register assets rule: %w", err)
	}

	contentRule := rule.New("content").
		MatchingPattern(`\.md$`).
		DependsOn("templates").
		Handles(handle.NewItemChain(
			handler.Read,
			handler.ParseMetadata,
			handler.ParseTOML,
			handler.RenderMarkdown,
			handler.SetExtension("html"),
			handler.RenderTemplate("templates", "page.tmpl", pageContext),
			handler.Retain(handler.Publishable),
			handler.Write,
		))
	if err := m.Add(contentRule); err != nil {
		return xerrors.Errorf("register content rule: %w", err)
	}

	linksRule := rule.New("links").
		DependsOn("content", "assets").
		Handles(handle.Func[bind.Bind](checkLinks))
	if err := m.Add(linksRule); err != nil {
		return xerrors.Errorf("register links rule: %w", err)
	}

	return nil
}

// checkLinks runs handler.CheckLinks over the finished content bind,
// seeding the known-target set from the finished assets bind. A
// non-verbose build only logs unresolved internal links; a verbose build
// fails, per the exit-code note in the handler catalogue section.
func checkLinks(ctx context.Context, b *bind.Bind) error {
	content, contentOK := b.Data.Dependencies["content"]
	assets := b.Data.Dependencies["assets"]

	known := func() map[string]struct{} {
		out := make(map[string]struct{})
		if assets != nil {
			for _, it := range assets.Full() {
				if dst, ok := it.Route.Writing(); ok {
					out[dst] = struct{}{}
				}
			}
		}
		return out
	}

	if !contentOK || content == nil {
		return nil
	}
	err := handler.CheckLinks(known).Handle(ctx, content)
	if err == nil {
		return nil
	}
	if b.Data.Config != nil && b.Data.Config.IsVerbose {
		return err
	}
	log.Printf("warning: %v", err)
	return nil
}

// routeToOutput gives a Matching-only Read route a Write half identical to
// its Read half, the baseline "pass the path through" routing an assets
// pipeline needs before handler.Copy (which requires both halves) can run.
func routeToOutput() handler.Handle {
	return handler.Regex(`^(.*)$`, `$1`)
}

// buildTemplateRegistry parses every *.tmpl file in the input root's
// templates/ directory into a single *template.Template set and publishes it under
// handler.TemplateRegistryKey on the bind's own Extensions bag, where
// dependent rules (content) read it back out via their
// BindData.Dependencies snapshot.
func buildTemplateRegistry(ctx context.Context, b *bind.Bind) error {
	root := b.Data.Config.Input
	pattern := filepath.Join(root, "templates", "*.tmpl")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		return xerrors.Errorf("parse templates %s: %w", pattern, err)
	}
	attr.Set(b.Data.Extensions, handler.TemplateRegistryKey, tmpl)
	return nil
}

func pageContext(it *bind.Item) (interface{}, error) {
	meta, _ := attr.Get(it.Attrs(), handler.TOMLKey)
	html, _ := attr.Get(it.Attrs(), handler.HTMLKey)
	return map[string]interface{}{
		"Metadata": meta,
		"Content":  html,
	}, nil
}
