package gen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/funvibe/actorgen/pkg/actor"
)

// Generator runs the inspect → render → write pipeline for a config.
type Generator struct {
	// projectDir is the directory package patterns are resolved from,
	// normally the one containing actorgen.yaml.
	projectDir string

	logger *zap.Logger

	// cache is nil when caching is disabled.
	cache *Cache

	// dryRun receives the generated source instead of the package
	// directory when set.
	dryRun io.Writer
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the logger for progress messages.
func WithLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// WithCache enables the output cache.
func WithCache(c *Cache) GeneratorOption {
	return func(g *Generator) { g.cache = c }
}

// WithDryRun prints generated files to w instead of writing them.
func WithDryRun(w io.Writer) GeneratorOption {
	return func(g *Generator) { g.dryRun = w }
}

// NewGenerator creates a Generator for projectDir.
func NewGenerator(projectDir string, opts ...GeneratorOption) *Generator {
	g := &Generator{projectDir: projectDir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result describes what happened to one config entry.
type Result struct {
	Facade Facade

	// Output is the generated file path.
	Output string

	// Dir is the package directory.
	Dir string

	// Interfaces lists the facades written, by interface name.
	Interfaces []string

	// Changed is true when the file on disk was created or rewritten.
	Changed bool

	// Cached is true when the entry was skipped because nothing changed.
	Cached bool
}

// Run processes every entry of cfg in order and stops at the first error.
func (g *Generator) Run(ctx context.Context, cfg *Config) ([]Result, error) {
	ins := NewInspector(g.projectDir, g.logger)

	// Generated identifiers are package-level; two entries for one package
	// must not derive the same name.
	owners := make(map[string]string)
	perPkg := make(map[string]int)
	for _, f := range cfg.Facades {
		perPkg[f.Pkg]++
	}

	var results []Result
	for i, f := range cfg.Facades {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := g.runOne(ctx, ins, f, owners, perPkg[f.Pkg] == 1)
		if err != nil {
			return results, fmt.Errorf("facades[%d] (%s): %w", i, f.Pkg, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// runOne generates one entry. Entries sharing a package with another entry
// bypass the cache so their names are always checked against each other.
func (g *Generator) runOne(ctx context.Context, ins *Inspector, f Facade, owners map[string]string, cacheable bool) (Result, error) {
	useCache := g.cache != nil && g.dryRun == nil && cacheable

	var key string
	if useCache {
		key = g.cache.Key(f)
		dir := f.LocalDir(g.projectDir)
		output := ""
		if dir != "" {
			output = filepath.Join(dir, f.OutputName())
		}
		if output != "" && g.cache.Lookup(key, output) {
			g.logger.Debug("cache hit", zap.String("package", f.Pkg), zap.String("key", key))
			return Result{Facade: f, Output: output, Dir: dir, Cached: true}, nil
		}
		g.logger.Debug("cache miss", zap.String("package", f.Pkg))
	}

	res, err := ins.Inspect(ctx, f)
	if err != nil {
		return Result{}, err
	}

	for _, iface := range res.Interfaces {
		owner := "facade for " + iface.Name + " in " + f.OutputName()
		idents := []string{iface.ActorType, iface.Constructor}
		for _, m := range iface.Methods {
			idents = append(idents, m.CallType)
		}
		for _, id := range idents {
			name := res.PkgPath + "." + id
			if prev, ok := owners[name]; ok {
				return Result{}, &actor.ConflictError{Name: name, Existing: prev, Requested: owner}
			}
			owners[name] = owner
		}
	}

	file, err := Generate(res)
	if err != nil {
		return Result{}, err
	}

	out := Result{Facade: f, Output: file.Path, Dir: res.Dir}
	for _, iface := range res.Interfaces {
		out.Interfaces = append(out.Interfaces, iface.Name)
	}

	if g.dryRun != nil {
		fmt.Fprintf(g.dryRun, "// %s\n%s", file.Path, file.Content)
		return out, nil
	}

	changed, err := writeIfChanged(file)
	if err != nil {
		return Result{}, err
	}
	out.Changed = changed

	if changed {
		g.logger.Info("generated", zap.String("file", file.Path), zap.Strings("interfaces", out.Interfaces))
	} else {
		g.logger.Debug("unchanged", zap.String("file", file.Path))
	}

	if useCache {
		if err := g.cache.Store(key, file.Content); err != nil {
			g.logger.Warn("failed to update cache", zap.Error(err))
		}
	}
	return out, nil
}

// writeIfChanged writes file unless the same content is already on disk.
// It refuses to overwrite a file actorgen did not write.
func writeIfChanged(file GeneratedFile) (bool, error) {
	existing, err := os.ReadFile(file.Path)
	switch {
	case err == nil:
		if bytes.Equal(existing, file.Content) {
			return false, nil
		}
		if !IsGenerated(existing) {
			return false, fmt.Errorf("%s exists and was not generated by actorgen", file.Path)
		}
	case !os.IsNotExist(err):
		return false, fmt.Errorf("reading %s: %w", file.Path, err)
	}

	if err := os.WriteFile(file.Path, file.Content, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", file.Path, err)
	}
	return true, nil
}
