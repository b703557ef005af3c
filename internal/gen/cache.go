package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// codegenVersion is bumped when the generated code format changes.
// This ensures stale cache entries are ignored.
const codegenVersion = "v1"

// Cache remembers which entries produced which output, in
// .actorgen/cache/ under the project directory. The key is a hash of the
// entry, the package's hand-written sources and the codegen version, so
// the package is not reloaded while none of them change.
type Cache struct {
	// projectDir is the root directory containing actorgen.yaml.
	projectDir string
}

// NewCache creates a new cache scoped to the given project directory.
func NewCache(projectDir string) *Cache {
	return &Cache{projectDir: projectDir}
}

// CacheDir returns the path to the cache directory.
func (c *Cache) CacheDir() string {
	return filepath.Join(c.projectDir, ".actorgen", "cache")
}

// Key computes the cache key for a local entry. It returns "" when the
// entry cannot be cached (import-path patterns, unreadable directories).
func (c *Cache) Key(f Facade) string {
	dir := f.LocalDir(c.projectDir)
	if dir == "" {
		return ""
	}

	sources, err := handWrittenSources(dir)
	if err != nil || len(sources) == 0 {
		return ""
	}

	h := sha256.New()
	h.Write([]byte(f.Pkg))
	h.Write([]byte("\x00"))
	h.Write([]byte(strings.Join(f.Interfaces, ",")))
	h.Write([]byte("\x00"))
	fmt.Fprintf(h, "%t", f.All)
	h.Write([]byte("\x00"))
	h.Write([]byte(f.OutputName()))
	for _, file := range sources {
		data, err := os.ReadFile(file)
		if err != nil {
			return ""
		}
		h.Write([]byte("\x00"))
		h.Write([]byte(filepath.Base(file)))
		h.Write([]byte("\x00"))
		h.Write(data)
	}

	// Include the version of the codegen (so cache invalidates on updates)
	h.Write([]byte("\x00"))
	h.Write([]byte(codegenVersion))

	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Lookup reports whether key was stored and output still holds what was
// written then.
func (c *Cache) Lookup(key, output string) bool {
	if key == "" {
		return false
	}
	want, err := os.ReadFile(c.markerPath(key))
	if err != nil {
		return false
	}
	data, err := os.ReadFile(output)
	if err != nil {
		return false
	}
	return contentHash(data) == strings.TrimSpace(string(want))
}

// Store records that key produced content.
func (c *Cache) Store(key string, content []byte) error {
	if key == "" {
		return nil
	}
	if err := os.MkdirAll(c.CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(c.markerPath(key), []byte(contentHash(content)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Clean removes all cache entries.
func (c *Cache) Clean() error {
	return os.RemoveAll(c.CacheDir())
}

func (c *Cache) markerPath(key string) string {
	return filepath.Join(c.CacheDir(), "out-"+key)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// handWrittenSources lists the non-test Go files in dir that actorgen did
// not write, sorted.
func handWrittenSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if IsGenerated(data) {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}
