package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"

	"github.com/lpar/gzipped/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/weave-ssg/weave/internal/config"
)

const serveHelp = `weave serve [-flags]

Build the site in preview mode (drafts included) and serve Output over
HTTP for local preview.

Example:
  % weave serve -listen :8080
`

// Copied from src/net/http/server.go, which does not export this type.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	return tc, nil
}

func cmdserve(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		configPath = fset.String("config", "weave.toml", "path to the site's weave.toml")
		listen     = fset.String("listen", ":8080", "[host]:port listen address for the preview server")
		gzip       = fset.Bool("gzip", true, "serve .gz files (if they exist) when the client accepts gzip")
		skipBuild  = fset.Bool("skip_build", false, "serve the existing output directory without rebuilding first")
	)
	fset.Usage = usage(fset, serveHelp)
	fset.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return xerrors.Errorf("load configuration: %w", err)
	}
	cfg.IsPreview = true

	if !*skipBuild {
		if err := runBuild(ctx, cfg); err != nil {
			return err
		}
	}

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		return xerrors.Errorf("listen %s: %w", *listen, err)
	}
	addr := ln.Addr().String()
	server := &http.Server{Addr: addr}
	log.Printf("serving %s on %s", cfg.Output, addr)

	if *gzip {
		http.Handle("/", gzipped.FileServer(http.Dir(cfg.Output)))
	} else {
		http.Handle("/", http.FileServer(http.Dir(cfg.Output)))
	}

	var eg errgroup.Group
	eg.Go(func() error { return server.Serve(tcpKeepAliveListener{ln.(*net.TCPListener)}) })
	eg.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(ctx)
	})
	return eg.Wait()
}
