package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/actorgen/internal/gen"
	"github.com/funvibe/actorgen/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "actorgen",
	Short: "Generate actor facades for Go interfaces",
	Long: `actorgen writes, for each selected interface, a facade type whose
methods package the call into a task and hand it to a queue instead of
running it. The generated file registers the facade with package actor,
so actor.Create returns it.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

var (
	configPath string
	projectDir string
	verbose    bool
	logLevel   string
	logFormat  string

	logger = zap.NewNop()
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: nearest actorgen.yaml)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "d", ".", "directory to resolve packages and find the config from")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress at debug level")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatAuto), "log format (auto, console, json)")
}

func setupLogger(cmd *cobra.Command, _ []string) error {
	l, err := logging.New(logging.Options{
		Level:   logLevel,
		Verbose: verbose,
		Format:  logging.Format(logFormat),
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// flagFacade is the entry built from --type/--all, if any.
type flagFacade struct {
	types  []string
	all    bool
	output string
}

func (f flagFacade) set() bool {
	return len(f.types) > 0 || f.all
}

// resolveConfig returns the config to run and the directory it is relative
// to. Command-line entries win over a config file.
func resolveConfig(ff flagFacade) (*gen.Config, string, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving --dir: %w", err)
	}

	if ff.set() {
		var types []string
		for _, t := range ff.types {
			for _, name := range strings.Split(t, ",") {
				if name = strings.TrimSpace(name); name != "" {
					types = append(types, name)
				}
			}
		}
		cfg, err := gen.NewConfig(gen.Facade{Pkg: ".", Interfaces: types, All: ff.all, Output: ff.output})
		if err != nil {
			return nil, "", err
		}
		return cfg, dir, nil
	}

	path, err := findConfig(dir)
	if err != nil {
		return nil, "", err
	}
	cfg, err := gen.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

// findConfig returns --config or the nearest actorgen.yaml above dir.
func findConfig(dir string) (string, error) {
	if configPath != "" {
		return filepath.Abs(configPath)
	}
	path, err := gen.FindConfig(dir)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("no %s found in %s or its parents; pass --type or --config", gen.ConfigNames[0], dir)
	}
	return path, nil
}

// cacheDir is the project directory the cache lives in: the config's
// directory when there is one, --dir otherwise.
func cacheDir() (string, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return "", err
	}
	path, err := findConfig(dir)
	if err != nil {
		if _, statErr := os.Stat(dir); statErr != nil {
			return "", statErr
		}
		return dir, nil
	}
	return filepath.Dir(path), nil
}
