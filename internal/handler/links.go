package handler

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/xerrors"

	"github.com/weave-ssg/weave/internal/attr"
	"github.com/weave-ssg/weave/internal/bind"
)

// UnresolvedLinkError reports an internal href/src target that does not
// resolve to any item's writing path within the same build.
type UnresolvedLinkError struct {
	From   string
	Target string
}

func (e *UnresolvedLinkError) Error() string {
	return xerrors.Errorf("%s: unresolved internal link %q", e.From, e.Target).Error()
}

// CheckLinks parses every item's rendered HTML (HTMLKey, falling back to
// Body) and verifies that every internal href/src target resolves to
// another item's writing path within known, the set of every item this
// bind and its declared dependencies produced. It is a Handle[bind.Bind],
// not a per-item handler, since it needs the whole bind's write-path set
// to validate against.
func CheckLinks(known func() map[string]struct{}) *linkChecker {
	return &linkChecker{known: known}
}

type linkChecker struct {
	known func() map[string]struct{}
}

func (c *linkChecker) Handle(ctx context.Context, b *bind.Bind) error {
	targets := c.known()
	for _, it := range b.Full() {
		dst, ok := it.Route.Writing()
		if !ok {
			continue
		}
		targets[dst] = struct{}{}
	}

	for _, it := range b.Full() {
		body := it.Body
		if rendered, ok := htmlBody(it); ok {
			body = []byte(rendered)
		}
		if len(body) == 0 {
			continue
		}
		links, err := extractLinks(body)
		if err != nil {
			dst, _ := it.Route.Writing()
			return xerrors.Errorf("%s: parse html: %w", dst, err)
		}
		for _, link := range links {
			if !isInternal(link) {
				continue
			}
			if _, ok := targets[normalize(link)]; !ok {
				dst, _ := it.Route.Writing()
				return &UnresolvedLinkError{From: dst, Target: link}
			}
		}
	}
	return nil
}

func htmlBody(it *bind.Item) (string, bool) {
	return attr.Get(it.Attrs(), HTMLKey)
}

func extractLinks(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "href" || a.Key == "src" {
					links = append(links, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func isInternal(link string) bool {
	if link == "" {
		return false
	}
	if strings.HasPrefix(link, "#") {
		return false
	}
	return !strings.Contains(link, "://") && !strings.HasPrefix(link, "//") && !strings.HasPrefix(link, "mailto:")
}

func normalize(link string) string {
	if idx := strings.IndexByte(link, '#'); idx >= 0 {
		link = link[:idx]
	}
	return strings.TrimPrefix(link, "/")
}
