// Package gen implements the actorgen code generator.
//
// It reads actorgen.yaml (or command-line flags), loads the named Go
// packages with go/packages, checks every requested interface the same way
// the runtime does, and writes one file per entry containing the facade
// types and the init-time registration with package actor.
//
// The package handles:
//   - Parsing and validating actorgen.yaml
//   - Inspecting interfaces via go/packages and go/types
//   - Rendering and formatting the generated source
//   - Skipping unchanged packages with an on-disk cache
//   - Regenerating on file changes (watch mode)
package gen

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultOutput is the file written when a facade entry names none.
const DefaultOutput = "actor_gen.go"

// ConfigNames are the file names FindConfig looks for, in order.
var ConfigNames = []string{"actorgen.yaml", "actorgen.yml"}

// Config represents the top-level actorgen.yaml configuration.
type Config struct {
	// Facades lists the packages and interfaces to generate facades for.
	Facades []Facade `yaml:"facades"`

	// Cache enables the output cache. Defaults to true.
	Cache *bool `yaml:"cache,omitempty"`
}

// Facade is one output file: a package and the interfaces to put in it.
type Facade struct {
	// Pkg is a package pattern, resolved relative to the config file
	// (e.g. "./examples/counter" or "github.com/acme/svc/store").
	Pkg string `yaml:"pkg"`

	// Interfaces names the interfaces to generate. Mutually exclusive with All.
	Interfaces []string `yaml:"interfaces,omitempty"`

	// All selects every interface in the package that has a facade-compatible
	// method set. Interfaces that cannot be faced are skipped, not reported.
	All bool `yaml:"all,omitempty"`

	// Output is the generated file name inside the package directory.
	Output string `yaml:"output,omitempty"`
}

// LoadConfig reads and parses an actorgen.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses actorgen.yaml content. The path argument is used only
// for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// NewConfig builds a validated config from entries given on the command
// line. Such configs do not use the cache unless enabled explicitly.
func NewConfig(facades ...Facade) (*Config, error) {
	disabled := false
	cfg := &Config{Facades: facades, Cache: &disabled}
	if err := cfg.validate("command line"); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return cfg, nil
}

// FindConfig searches for actorgen.yaml starting from dir and walking up to
// parent directories. It returns "" and a nil error when there is none.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if len(c.Facades) == 0 {
		return fmt.Errorf("%s: no facades defined", path)
	}

	outputs := make(map[string]int) // pkg + output → entry index

	for i, f := range c.Facades {
		if f.Pkg == "" {
			return fmt.Errorf("%s: facades[%d]: pkg is required", path, i)
		}

		if f.All && len(f.Interfaces) > 0 {
			return fmt.Errorf("%s: facades[%d] (%s): all and interfaces are mutually exclusive", path, i, f.Pkg)
		}
		if !f.All && len(f.Interfaces) == 0 {
			return fmt.Errorf("%s: facades[%d] (%s): either interfaces or all is required", path, i, f.Pkg)
		}

		seen := make(map[string]bool)
		for j, name := range f.Interfaces {
			if !token.IsIdentifier(name) {
				return fmt.Errorf("%s: facades[%d].interfaces[%d] (%s): %q is not a Go identifier",
					path, i, j, f.Pkg, name)
			}
			if seen[name] {
				return fmt.Errorf("%s: facades[%d].interfaces[%d] (%s): %s listed twice",
					path, i, j, f.Pkg, name)
			}
			seen[name] = true
		}

		if f.Output != "" {
			if filepath.Base(f.Output) != f.Output {
				return fmt.Errorf("%s: facades[%d] (%s): output %q must be a file name, not a path",
					path, i, f.Pkg, f.Output)
			}
			if !strings.HasSuffix(f.Output, ".go") || strings.HasSuffix(f.Output, "_test.go") {
				return fmt.Errorf("%s: facades[%d] (%s): output %q must be a non-test .go file",
					path, i, f.Pkg, f.Output)
			}
		}

		key := f.Pkg + "\x00" + f.OutputName()
		if prev, ok := outputs[key]; ok {
			return fmt.Errorf("%s: facades[%d] (%s): writes %s, as does facades[%d]",
				path, i, f.Pkg, f.OutputName(), prev)
		}
		outputs[key] = i
	}

	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Cache == nil {
		enabled := true
		c.Cache = &enabled
	}
	for i := range c.Facades {
		if c.Facades[i].Output == "" {
			c.Facades[i].Output = DefaultOutput
		}
	}
}

// CacheEnabled reports whether the output cache should be used.
func (c *Config) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// OutputName returns the generated file name for the entry.
func (f *Facade) OutputName() string {
	if f.Output == "" {
		return DefaultOutput
	}
	return f.Output
}

// IsLocal reports whether Pkg is a directory pattern rather than an import
// path.
func (f *Facade) IsLocal() bool {
	return f.Pkg == "." || f.Pkg == ".." ||
		strings.HasPrefix(f.Pkg, "./") || strings.HasPrefix(f.Pkg, "../") ||
		filepath.IsAbs(f.Pkg)
}

// LocalDir returns the package directory for a local pattern, resolved
// against baseDir. It returns "" for import paths.
func (f *Facade) LocalDir(baseDir string) string {
	if !f.IsLocal() {
		return ""
	}
	if filepath.IsAbs(f.Pkg) {
		return filepath.Clean(f.Pkg)
	}
	return filepath.Join(baseDir, f.Pkg)
}
