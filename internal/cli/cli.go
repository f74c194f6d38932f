package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lightbox/pkg/buildinfo"
	"github.com/matzehuels/lightbox/pkg/cache"
	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/config"
	"github.com/matzehuels/lightbox/pkg/observability"
	"github.com/matzehuels/lightbox/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "lightbox"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is resolved in the root command's pre-run: defaults, the TOML
	// file, LIGHTBOX_* variables (with .env loaded first), then flags.
	Config config.Config

	configPath string
	verbose    bool
	bindings   map[*cobra.Command][]flagBinding
}

// flagBinding copies an explicitly set flag onto the resolved config.
type flagBinding struct {
	name  string
	apply func(*config.Config)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		Config:   config.Default(),
		bindings: make(map[*cobra.Command][]flagBinding),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Lightbox lays out photo catalogs as justified rows",
		Long: `Lightbox packs a photo catalog into justified rows of equal height, page by
page, and lets you browse it with a full-screen viewer that picks the right
resolution tier for your screen.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/lightbox/lightbox.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	var backend string
	root.PersistentFlags().StringVar(&backend, "cache", "", "cache backend: file, redis, none")
	c.bind(root, "cache", func(cfg *config.Config) { cfg.Cache.Backend = backend })

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// setup resolves the configuration for the command about to run.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	config.LoadDotEnv()

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	for _, b := range c.bindings[cmd.Root()] {
		if cmd.Flags().Changed(b.name) {
			b.apply(&cfg)
		}
	}
	for _, b := range c.bindings[cmd] {
		if cmd.Flags().Changed(b.name) {
			b.apply(&cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg

	if c.verbose {
		c.SetLogLevel(LogDebug)
		observability.NewLogHooks(c.Logger).Register()
	}
	c.Logger.Debug("configuration resolved",
		"config", c.configPath,
		"cache", cfg.Cache.Backend,
		"width", cfg.Gallery.Width)
	return nil
}

// bind registers a flag override for cmd.
func (c *CLI) bind(cmd *cobra.Command, name string, apply func(*config.Config)) {
	c.bindings[cmd] = append(c.bindings[cmd], flagBinding{name: name, apply: apply})
}

// bindGalleryFlags registers the packing flags shared by several commands.
func (c *CLI) bindGalleryFlags(cmd *cobra.Command) {
	def := config.Default().Gallery
	var (
		width, divisor, gap float64
		policy              string
		requireTiers        bool
	)
	cmd.Flags().Float64Var(&width, "width", def.Width, "container width in pixels")
	cmd.Flags().Float64Var(&divisor, "divisor", def.Divisor, "ideal row height is width divided by this")
	cmd.Flags().Float64Var(&gap, "gap", def.Gap, "horizontal gap between images and vertical gap between rows")
	cmd.Flags().StringVar(&policy, "policy", def.InvalidPolicy, "invalid image policy: skip, abort")
	cmd.Flags().BoolVar(&requireTiers, "require-tiers", false, "treat images without resolution tiers as invalid")

	c.bind(cmd, "width", func(cfg *config.Config) { cfg.Gallery.Width = width })
	c.bind(cmd, "divisor", func(cfg *config.Config) { cfg.Gallery.Divisor = divisor })
	c.bind(cmd, "gap", func(cfg *config.Config) { cfg.Gallery.Gap = gap })
	c.bind(cmd, "policy", func(cfg *config.Config) { cfg.Gallery.InvalidPolicy = policy })
	c.bind(cmd, "require-tiers", func(cfg *config.Config) { cfg.Gallery.RequireTiers = requireTiers })
}

// =============================================================================
// Factories
// =============================================================================

// openCache creates the configured cache, or a NullCache when disabled.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return c.Config.OpenCache(ctx)
}

// openCatalog opens ref with the configured cache. The returned cleanup
// closes both the catalog and the cache.
func (c *CLI) openCatalog(ctx context.Context, ref string, cc cache.Cache) (catalog.Source, func(), error) {
	opts := c.Config.CatalogOptions(cc)
	opts.Logger = c.Logger
	src, closeSrc, err := catalog.Open(ctx, ref, opts)
	if err != nil {
		return nil, func() {}, err
	}
	return src, func() {
		if err := closeSrc(); err != nil {
			c.Logger.Warn("close catalog", "err", err)
		}
	}, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cc cache.Cache) *pipeline.Runner {
	return pipeline.NewRunner(cc, nil, c.Logger)
}

// pipelineOptions converts the resolved gallery config.
func (c *CLI) pipelineOptions() pipeline.Options {
	g := c.Config.Gallery
	return pipeline.Options{
		Width:          g.Width,
		Divisor:        g.Divisor,
		Gap:            g.Gap,
		InitialBatch:   g.InitialBatch,
		BatchIncrement: g.BatchIncrement,
		InvalidPolicy:  g.InvalidPolicy,
		RequireTiers:   g.RequireTiers,
		Logger:         c.Logger,
	}
}
