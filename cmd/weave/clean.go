package main

import (
	"context"
	"flag"
	"log"
	"os"

	"golang.org/x/xerrors"

	"github.com/weave-ssg/weave/internal/config"
)

const cleanHelp = `weave clean [-flags]

Remove the site's output directory.

Example:
  % weave clean -config weave.toml
`

func cmdclean(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("clean", flag.ExitOnError)
	var (
		configPath = fset.String("config", "weave.toml", "path to the site's weave.toml")
	)
	fset.Usage = usage(fset, cleanHelp)
	fset.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return xerrors.Errorf("load configuration: %w", err)
	}
	if cfg.Output == "" || cfg.Output == "/" {
		return xerrors.Errorf("refusing to clean output %q", cfg.Output)
	}
	log.Printf("removing %s", cfg.Output)
	return os.RemoveAll(cfg.Output)
}
