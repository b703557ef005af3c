package main

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/actorgen/internal/gen"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate facades whenever sources or the config change",
	Long: `Watch runs generate once, then again each time a Go file in a
configured package or the config file changes. Generation errors are
logged and watching continues. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	watchFlags    flagFacade
	watchDebounce time.Duration
	watchNoCache  bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the output cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := cacheDir()
		if err != nil {
			return err
		}
		cache := gen.NewCache(dir)
		if err := cache.Clean(); err != nil {
			return fmt.Errorf("removing %s: %w", cache.CacheDir(), err)
		}
		logger.Info("cache removed", zap.String("dir", cache.CacheDir()))
		return nil
	},
}

// version is set at link time with -ldflags "-X main.version=...".
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the actorgen version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "actorgen", buildVersion())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd, cleanCmd, versionCmd)

	addFacadeFlags(watchCmd, &watchFlags)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", gen.DefaultDebounce, "quiet period before regenerating")
	watchCmd.Flags().BoolVar(&watchNoCache, "no-cache", false, "ignore and do not update the cache")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, dir, err := resolveConfig(watchFlags)
	if err != nil {
		return err
	}

	path := ""
	load := func() (*gen.Config, error) { return cfg, nil }
	if !watchFlags.set() {
		if path, err = findConfig(dir); err != nil {
			return err
		}
		load = func() (*gen.Config, error) { return gen.LoadConfig(path) }
	}

	g := newGenerator(cmd, cfg, dir, watchNoCache, false)
	w := gen.NewWatcher(g, path, load,
		gen.WithDebounce(watchDebounce),
		gen.WithWatchLogger(logger),
	)

	logger.Info("watching for changes", zap.String("dir", dir))
	return w.Run(cmd.Context())
}

func buildVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}
