package handler

import (
	"context"
	"regexp"
	"strings"

	"github.com/weave-ssg/weave/internal/attr"
	"github.com/weave-ssg/weave/internal/bind"
)

// Identity leaves Item.Route untouched; useful as an explicit no-op step
// in a chain that otherwise only filters or annotates.
var Identity = itemFunc(func(ctx context.Context, it *bind.Item) error { return nil })

// SetExtension rewrites the item's route so its written path ends in ext
// (a leading dot is added if missing), via Route.RouteTo.
func SetExtension(ext string) Handle {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return itemFunc(func(ctx context.Context, it *bind.Item) error {
		it.Route = it.Route.RouteTo(func(p string) string {
			if idx := strings.LastIndexByte(p, '.'); idx >= 0 {
				p = p[:idx]
			}
			return p + ext
		})
		return nil
	})
}

// Regex rewrites the item's route by applying a regexp.ReplaceAllString
// substitution (pattern, template) to the path Route.RouteTo hands it.
func Regex(pattern, tmpl string) Handle {
	re := regexp.MustCompile(pattern)
	return itemFunc(func(ctx context.Context, it *bind.Item) error {
		it.Route = it.Route.RouteTo(func(p string) string {
			return re.ReplaceAllString(p, tmpl)
		})
		return nil
	})
}

// Inject copies value into the per-item attribute bag under key, for
// handlers further down the chain (or a template context builder) to
// read back out with attr.Get(it.Attrs(), key).
func Inject[T any](key attr.Key[T], value T) Handle {
	return itemFunc(func(ctx context.Context, it *bind.Item) error {
		attr.Set(it.Attrs(), key, value)
		return nil
	})
}

// Injector is the Handle[bind.Bind] counterpart of Inject: it runs Build
// once against the whole bind, useful for a Creating rule that wants to
// seed derived items with a value computed once per bind rather than
// once per item.
type Injector struct {
	Build func(b *bind.Bind) error
}

// Handle runs the injector's Build function once against the whole bind.
func (in *Injector) Handle(ctx context.Context, b *bind.Bind) error {
	if in.Build == nil {
		return nil
	}
	return in.Build(b)
}

// IsDraft reports whether the item's decoded front matter carries a
// truthy "draft" key.
func IsDraft(it *bind.Item) bool {
	meta, ok := attr.Get(it.Attrs(), TOMLKey)
	if !ok {
		return false
	}
	draft, _ := meta["draft"].(bool)
	return draft
}

// Publishable is the negation of IsDraft, except when the owning bind's
// Configuration marks this a preview build, in which case drafts publish
// too.
func Publishable(it *bind.Item) bool {
	if it.Data.Config != nil && it.Data.Config.IsPreview {
		return true
	}
	return !IsDraft(it)
}

// Retain builds a Handle that clears an item's body and route whenever
// pred returns false, so a downstream Write never sees draft content in
// a non-preview build.
func Retain(pred func(*bind.Item) bool) Handle {
	return itemFunc(func(ctx context.Context, it *bind.Item) error {
		if !pred(it) {
			it.Body = nil
			it.Route = bind.Route{}
		}
		return nil
	})
}
