package handler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/weave-ssg/weave/internal/bind"
	"github.com/weave-ssg/weave/internal/config"
)

func testConfig(t *testing.T) (*config.Configuration, string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(in, 0755); err != nil {
		t.Fatal(err)
	}
	return &config.Configuration{Input: in, Output: out}, in, out
}

func TestReadLoadsBodyFromInput(t *testing.T) {
	cfg, in, _ := testConfig(t)
	if err := os.WriteFile(filepath.Join(in, "a.md"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	data := bind.NewBindData("r", cfg)
	it := bind.NewItem(bind.Read("a.md"), data)

	if err := Read.Handle(context.Background(), it); err != nil {
		t.Fatalf("Read.Handle: %v", err)
	}
	if string(it.Body) != "hello" {
		t.Fatalf("Body = %q, want hello", it.Body)
	}
}

func TestWriteWritesBodyToOutput(t *testing.T) {
	cfg, _, out := testConfig(t)
	data := bind.NewBindData("r", cfg)
	it := bind.NewItem(bind.Write("a.html"), data)
	it.Body = []byte("<p>hi</p>")

	if err := Write.Handle(context.Background(), it); err != nil {
		t.Fatalf("Write.Handle: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(out, "a.html"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "<p>hi</p>" {
		t.Fatalf("written content = %q, want <p>hi</p>", got)
	}
}

func TestWriteRejectsPathEscapingOutput(t *testing.T) {
	cfg, _, _ := testConfig(t)
	data := bind.NewBindData("r", cfg)
	it := bind.NewItem(bind.Write("../../etc/passwd"), data)
	it.Body = []byte("pwned")

	err := Write.Handle(context.Background(), it)
	if err == nil {
		t.Fatalf("Write.Handle succeeded, want a sandbox violation error")
	}
	if _, ok := err.(*SandboxViolationError); !ok {
		t.Fatalf("err = %T, want *SandboxViolationError", err)
	}
}

func TestWriteGzipSibling(t *testing.T) {
	cfg, _, out := testConfig(t)
	cfg.Gzip = true
	data := bind.NewBindData("r", cfg)
	it := bind.NewItem(bind.Write("a.html"), data)
	it.Body = []byte("<p>hi</p>")

	if err := Write.Handle(context.Background(), it); err != nil {
		t.Fatalf("Write.Handle: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "a.html.gz")); err != nil {
		t.Fatalf("gzip sibling missing: %v", err)
	}
}
