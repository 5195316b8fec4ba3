// Package handler is the catalogue of concrete Handle[bind.Item] and
// Handle[bind.Bind] implementations built on top of internal/handle,
// internal/bind and internal/attr: filesystem I/O, front-matter parsing,
// markdown and template rendering, routing transforms, draft filtering
// and post-render link checking.
package handler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/klauspost/pgzip"
	"golang.org/x/xerrors"

	"github.com/weave-ssg/weave/internal/bind"
)

// SandboxViolationError reports a Write whose destination path escapes
// Configuration.Output.
type SandboxViolationError struct {
	Output string
	Dest   string
}

func (e *SandboxViolationError) Error() string {
	return xerrors.Errorf("write destination %q escapes output root %q", e.Dest, e.Output).Error()
}

// Read loads Item.Body from the item's reading path, resolved relative to
// Configuration.Input. Items with no reading path are left untouched.
var Read = itemFunc(func(ctx context.Context, it *bind.Item) error {
	src, ok := it.Route.Reading()
	if !ok {
		return nil
	}
	full := filepath.Join(it.Data.Config.Input, src)
	body, err := os.ReadFile(full)
	if err != nil {
		return xerrors.Errorf("read %s: %w", full, err)
	}
	it.Body = body
	return nil
})

// Write persists Item.Body to the item's writing path, resolved relative
// to Configuration.Output, using renameio for a crash-safe atomic
// rename-into-place. It refuses to write outside the output root. When
// Configuration.Gzip is set, it also writes a ".gz" sibling compressed
// with klauspost/pgzip.
var Write = itemFunc(func(ctx context.Context, it *bind.Item) error {
	dst, ok := it.Route.Writing()
	if !ok {
		return nil
	}
	cfg := it.Data.Config
	full := filepath.Join(cfg.Output, dst)
	if err := sandboxed(cfg.Output, full); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return xerrors.Errorf("mkdir for %s: %w", full, err)
	}
	if err := renameio.WriteFile(full, it.Body, 0644); err != nil {
		return xerrors.Errorf("write %s: %w", full, err)
	}
	if cfg.Gzip {
		if err := writeGzipSibling(full, it.Body); err != nil {
			return err
		}
	}
	return nil
})

func sandboxed(root, full string) error {
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &SandboxViolationError{Output: root, Dest: full}
	}
	return nil
}

func writeGzipSibling(full string, body []byte) error {
	t, err := renameio.TempFile("", full+".gz")
	if err != nil {
		return xerrors.Errorf("tempfile for %s.gz: %w", full, err)
	}
	defer t.Cleanup()
	zw := pgzip.NewWriter(t)
	if _, err := zw.Write(body); err != nil {
		return xerrors.Errorf("gzip %s: %w", full, err)
	}
	if err := zw.Close(); err != nil {
		return xerrors.Errorf("gzip close %s: %w", full, err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return xerrors.Errorf("replace %s.gz: %w", full, err)
	}
	return nil
}

// Copy reads the item's source path and writes it to its destination path
// unmodified, without loading the whole file into Body: it streams
// directly, for rules that pass binary assets through untouched.
var Copy = itemFunc(func(ctx context.Context, it *bind.Item) error {
	src, hasSrc := it.Route.Reading()
	dst, hasDst := it.Route.Writing()
	if !hasSrc || !hasDst {
		return nil
	}
	cfg := it.Data.Config
	fullSrc := filepath.Join(cfg.Input, src)
	fullDst := filepath.Join(cfg.Output, dst)
	if err := sandboxed(cfg.Output, fullDst); err != nil {
		return err
	}
	in, err := os.Open(fullSrc)
	if err != nil {
		return xerrors.Errorf("open %s: %w", fullSrc, err)
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(fullDst), 0755); err != nil {
		return xerrors.Errorf("mkdir for %s: %w", fullDst, err)
	}
	t, err := renameio.TempFile("", fullDst)
	if err != nil {
		return xerrors.Errorf("tempfile for %s: %w", fullDst, err)
	}
	defer t.Cleanup()
	if _, err := io.Copy(t, in); err != nil {
		return xerrors.Errorf("copy %s -> %s: %w", fullSrc, fullDst, err)
	}
	return t.CloseAtomicallyReplace()
})

// Print writes a one-line summary of the item's route to w, useful as a
// chain step for -n/dry-run style invocations.
func Print(w io.Writer) Handle {
	return itemFunc(func(ctx context.Context, it *bind.Item) error {
		src, _ := it.Route.Reading()
		dst, _ := it.Route.Writing()
		_, err := io.WriteString(w, src+" -> "+dst+"\n")
		return err
	})
}
