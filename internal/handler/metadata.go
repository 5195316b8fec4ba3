package handler

import (
	"context"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"

	"github.com/weave-ssg/weave/internal/attr"
	"github.com/weave-ssg/weave/internal/bind"
)

// MetadataKey holds the raw front-matter text an item carried, stripped
// from its body by ParseMetadata.
var MetadataKey attr.Key[string] = "metadata.raw"

// TOMLKey holds the decoded front-matter, produced by ParseTOML.
var TOMLKey attr.Key[map[string]interface{}] = "metadata.toml"

// delimiter brackets a front-matter block, diecast-style: a line of three
// hyphens, the block body, then another such line.
const delimiter = "---"

// ParseMetadata strips a leading "---"-delimited front-matter block from
// Item.Body, storing its raw text under MetadataKey and resetting Body to
// whatever follows the closing delimiter. Items without a front-matter
// block are left untouched.
var ParseMetadata = itemFunc(func(ctx context.Context, it *bind.Item) error {
	text := string(it.Body)
	if !strings.HasPrefix(text, delimiter) {
		return nil
	}
	rest := text[len(delimiter):]
	idx := strings.Index(rest, "\n"+delimiter)
	if idx == -1 {
		return xerrors.Errorf("item %v: unterminated front-matter block", it.Route)
	}
	raw := strings.TrimPrefix(rest[:idx], "\n")
	body := rest[idx+len(delimiter)+1:]
	body = strings.TrimPrefix(body, "\n")

	attr.Set(it.Attrs(), MetadataKey, raw)
	it.Body = []byte(body)
	return nil
})

// ParseTOML decodes the raw front-matter text (MetadataKey) as TOML into
// a generic map, stored under TOMLKey. Items with no MetadataKey entry
// are left untouched.
var ParseTOML = itemFunc(func(ctx context.Context, it *bind.Item) error {
	raw, ok := attr.Get(it.Attrs(), MetadataKey)
	if !ok {
		return nil
	}
	var decoded map[string]interface{}
	if _, err := toml.Decode(raw, &decoded); err != nil {
		return xerrors.Errorf("item %v: decode front matter: %w", it.Route, err)
	}
	attr.Set(it.Attrs(), TOMLKey, decoded)
	return nil
})
