package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/actorgen/internal/gen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write facade files",
	Long: `Generate writes one facade file per entry of actorgen.yaml, or, with
--type or --all, one file for the package in --dir.

Unchanged packages are skipped using the cache in .actorgen/cache
(config mode only). Use --no-cache to force regeneration and --dry-run
to print the output instead of writing it.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	genFlags   flagFacade
	genNoCache bool
	genDryRun  bool
)

func init() {
	rootCmd.AddCommand(generateCmd)
	addFacadeFlags(generateCmd, &genFlags)
	generateCmd.Flags().BoolVar(&genNoCache, "no-cache", false, "ignore and do not update the cache")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print generated files to stdout instead of writing them")
}

func addFacadeFlags(cmd *cobra.Command, ff *flagFacade) {
	cmd.Flags().StringSliceVarP(&ff.types, "type", "t", nil, "interfaces to generate, comma-separated")
	cmd.Flags().BoolVar(&ff.all, "all", false, "generate every eligible exported interface in the package")
	cmd.Flags().StringVarP(&ff.output, "output", "o", "", "output file name (default "+gen.DefaultOutput+")")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, dir, err := resolveConfig(genFlags)
	if err != nil {
		return err
	}

	g := newGenerator(cmd, cfg, dir, genNoCache, genDryRun)
	results, err := g.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	changed, cached := 0, 0
	for _, r := range results {
		if r.Changed {
			changed++
		}
		if r.Cached {
			cached++
		}
	}
	logger.Debug("done",
		zap.Int("entries", len(results)),
		zap.Int("written", changed),
		zap.Int("cached", cached))
	return nil
}

func newGenerator(cmd *cobra.Command, cfg *gen.Config, dir string, noCache, dryRun bool) *gen.Generator {
	opts := []gen.GeneratorOption{gen.WithLogger(logger)}
	if cfg.CacheEnabled() && !noCache {
		opts = append(opts, gen.WithCache(gen.NewCache(dir)))
	}
	if dryRun {
		opts = append(opts, gen.WithDryRun(cmd.OutOrStdout()))
	}
	logger.Debug("generator ready",
		zap.String("dir", dir),
		zap.Int("entries", len(cfg.Facades)),
		zap.Bool("cache", cfg.CacheEnabled() && !noCache),
		zap.String("mode", mode(dryRun)))
	return gen.NewGenerator(dir, opts...)
}

func mode(dryRun bool) string {
	if dryRun {
		return "dry-run"
	}
	return "write"
}
