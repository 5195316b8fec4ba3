package main

import (
	"context"
	"flag"
	"log"
	"runtime"

	"golang.org/x/xerrors"

	"github.com/weave-ssg/weave/internal/config"
	"github.com/weave-ssg/weave/internal/evaluator"
	"github.com/weave-ssg/weave/internal/manager"
	"github.com/weave-ssg/weave/internal/walk"
)

const buildHelp = `weave build [-flags]

Build the site once.

Example:
  % weave build -config weave.toml
`

func cmdbuild(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		configPath = fset.String("config", "weave.toml", "path to the site's weave.toml")
		verbose    = fset.Bool("v", false, "enable verbose logging")
	)
	fset.Usage = usage(fset, buildHelp)
	fset.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return xerrors.Errorf("load configuration: %w", err)
	}
	if *verbose {
		cfg.IsVerbose = true
	}
	return runBuild(ctx, cfg)
}

func runBuild(ctx context.Context, cfg *config.Configuration) error {
	paths, err := walk.Paths(cfg.Input, func(p string) bool {
		return cfg.IgnoreMatches(p)
	})
	if err != nil {
		return xerrors.Errorf("enumerate input paths: %w", err)
	}
	log.Printf("found %d input paths under %s", len(paths), cfg.Input)

	workers := cfg.Threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := evaluator.NewPool(workers)
	defer pool.Shutdown()

	m := manager.New(cfg, paths, pool)
	if err := registerSite(m, cfg); err != nil {
		return err
	}
	if err := m.Build(ctx); err != nil {
		return xerrors.Errorf("build: %w", err)
	}
	log.Printf("build complete")
	return nil
}
