package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"io"

	"github.com/orcaman/writerseeker"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/xerrors"

	"github.com/weave-ssg/weave/internal/attr"
	"github.com/weave-ssg/weave/internal/bind"
)

// HTMLKey holds the rendered HTML body produced by RenderMarkdown.
var HTMLKey attr.Key[string] = "render.html"

// TemplateRegistryKey is the key a "templates" rule's BindData.Extensions
// publishes its *template.Template set under, for RenderTemplate to look
// up via the dependent job's BindData.Dependencies snapshot.
var TemplateRegistryKey attr.Key[*template.Template] = "render.templates"

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// RenderMarkdown renders Item.Body as GitHub-flavored markdown into
// HTMLKey, leaving Body untouched for any handler downstream that still
// wants the source text.
var RenderMarkdown = itemFunc(func(ctx context.Context, it *bind.Item) error {
	var buf bytes.Buffer
	if err := markdown.Convert(it.Body, &buf); err != nil {
		return xerrors.Errorf("item %v: render markdown: %w", it.Route, err)
	}
	attr.Set(it.Attrs(), HTMLKey, buf.String())
	return nil
})

// RenderTemplate executes the named template from the depName
// dependency's registry (the default site passes "templates"), built from whatever context f returns for the
// item, replacing Item.Body with the rendered output. The template
// registry is read from depName's BindData.Dependencies entry, so
// depName must be declared as a dependency of the rule RenderTemplate is
// used in.
func RenderTemplate(depName, name string, f func(*bind.Item) (interface{}, error)) Handle {
	return itemFunc(func(ctx context.Context, it *bind.Item) error {
		dep, ok := it.Data.Dependencies[depName]
		if !ok {
			return xerrors.Errorf("item %v: template dependency %q not available", it.Route, depName)
		}
		registry, ok := attr.Get(dep.Data.Extensions, TemplateRegistryKey)
		if !ok {
			return xerrors.Errorf("item %v: dependency %q published no template registry", it.Route, depName)
		}
		tmplCtx, err := f(it)
		if err != nil {
			return xerrors.Errorf("item %v: build template context: %w", it.Route, err)
		}
		// round-trip through JSON so the context is the same kind of plain
		// data a toml-decoded front-matter map already is.
		encoded, err := json.Marshal(tmplCtx)
		if err != nil {
			return xerrors.Errorf("item %v: marshal template context: %w", it.Route, err)
		}
		var data interface{}
		if err := json.Unmarshal(encoded, &data); err != nil {
			return xerrors.Errorf("item %v: unmarshal template context: %w", it.Route, err)
		}

		ws := &writerseeker.WriterSeeker{}
		if err := registry.ExecuteTemplate(ws, name, data); err != nil {
			return xerrors.Errorf("item %v: execute template %q: %w", it.Route, name, err)
		}
		out, err := io.ReadAll(ws.Reader())
		if err != nil {
			return xerrors.Errorf("item %v: read rendered template: %w", it.Route, err)
		}
		it.Body = out
		return nil
	})
}
