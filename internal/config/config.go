// Package config loads the site-wide Configuration consumed by the core
// scheduler and the handler catalogue: input/output roots, worker pool
// size, an ignore pattern, and the preview/verbose toggles surfaced to
// handlers. Loaded from a weave.toml file with github.com/BurntSushi/toml,
// the same decoder the front-matter handler in internal/handler uses for
// per-item metadata, and the pattern emergent-company-specmcp's
// internal/config/config.go follows for a toml-tagged settings struct.
package config

import (
	"regexp"
	"runtime"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
	"golang.org/x/xerrors"
)

// EngineVersion is compared against a site's declared MinEngineVersion.
const EngineVersion = "v1.0.0"

// Configuration holds the settings a build needs.
type Configuration struct {
	Input        string `toml:"input"`
	Output       string `toml:"output"`
	Threads      int    `toml:"threads"`
	Ignore       string `toml:"ignore"`
	IgnoreHidden bool   `toml:"ignore_hidden"`
	IsPreview    bool   `toml:"is_preview"`
	IsVerbose    bool   `toml:"is_verbose"`

	// MinEngineVersion, if set, must be a semver string no newer than
	// EngineVersion; see golang.org/x/mod/semver in the domain stack
	// ledger (DESIGN.md).
	MinEngineVersion string `toml:"min_engine_version"`

	// Gzip, if set, makes the write handler also emit a .gz sibling of
	// every output file, compressed with klauspost/pgzip.
	Gzip bool `toml:"gzip"`

	ignoreRe *regexp.Regexp
}

// Load reads and validates a weave.toml file at path.
func Load(path string) (*Configuration, error) {
	var c Configuration
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, xerrors.Errorf("decode %s: %w", path, err)
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Decode parses raw TOML bytes into a Configuration; used by tests that
// would rather not write a temp file.
func Decode(data string) (*Configuration, error) {
	var c Configuration
	if _, err := toml.Decode(data, &c); err != nil {
		return nil, xerrors.Errorf("decode configuration: %w", err)
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Configuration) finish() error {
	if c.Threads <= 0 {
		c.Threads = runtime.NumCPU()
	}
	if c.Ignore != "" {
		re, err := regexp.Compile(c.Ignore)
		if err != nil {
			return xerrors.Errorf("ignore pattern %q: %w", c.Ignore, err)
		}
		c.ignoreRe = re
	}
	if c.MinEngineVersion != "" {
		if !semver.IsValid(c.MinEngineVersion) {
			return xerrors.Errorf("min_engine_version %q is not a valid semver string", c.MinEngineVersion)
		}
		if semver.Compare(c.MinEngineVersion, EngineVersion) > 0 {
			return xerrors.Errorf("site requires weave %s or newer, running %s", c.MinEngineVersion, EngineVersion)
		}
	}
	return nil
}

// IgnoreMatches reports whether path (relative to Input) should be
// skipped during the input scan.
func (c *Configuration) IgnoreMatches(path string) bool {
	return c.ignoreRe != nil && c.ignoreRe.MatchString(path)
}
