// Command weave builds and previews a weave.toml-configured static site.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	weave "github.com/weave-ssg/weave"
)

var debug = flag.Bool("debug", false, "format error messages with additional detail")

type verb struct {
	fn func(ctx context.Context, args []string) error
}

func funcmain() error {
	flag.Parse()

	verbs := map[string]verb{
		"build": {cmdbuild},
		"clean": {cmdclean},
		"serve": {cmdserve},
	}

	args := flag.Args()
	name := "build"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	v, ok := verbs[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		fmt.Fprintln(os.Stderr, "syntax: weave <build|clean|serve> [options]")
		os.Exit(2)
	}

	ctx, canc := weave.InterruptibleContext()
	defer canc()

	if err := v.fn(ctx, args); err != nil {
		return fmt.Errorf("%s: %s", name, formatErr(err))
	}
	return weave.RunAtExit()
}

// formatErr renders err with an extra level of detail (wrapped error
// chain) only when -debug was passed and stderr is a terminal: the one
// narrow use of terminal detection this engine allows itself, confined
// entirely to this CLI package.
func formatErr(err error) string {
	if *debug && isatty.IsTerminal(os.Stderr.Fd()) {
		return fmt.Sprintf("%+v", err)
	}
	return err.Error()
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
