package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lightbox/pkg/pipeline"
)

// layoutCommand creates the layout command for packing a whole catalog.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output    string
		formatStr string
		noCache   bool
		refresh   bool
	)

	cmd := &cobra.Command{
		Use:   "layout <catalog>",
		Short: "Pack a catalog into justified rows",
		Long: `Pack a catalog into justified rows.

The catalog is a JSON or YAML file, an http(s) URL, or a mongodb:// URI. The
gallery is paged through exactly as a browser would scroll it: the first page
holds 5 images and every following page 5 more, and each page's unfinished
last row is re-packed with the next page.

The output is the final gallery snapshot as JSON, or an SVG or PNG wireframe of the
rows. Results are cached by catalog content and layout options.`,
		Example: `  # Layout for a 1200px wide container
  lightbox layout assets/gallery/data.json

  # JSON and SVG with a 4px gap
  lightbox layout photos.yaml --gap 4 -f json,svg -o out/photos`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			opts.Formats = parseFormats(formatStr)
			opts.Refresh = refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	c.bindGalleryFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or base path for several formats (default: <catalog>.layout.<format>)")
	cmd.Flags().StringVarP(&formatStr, "format", "f", "", "output format(s): json (default), svg, png (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// runLayout collects the catalog, packs it, renders, and writes output.
func (c *CLI) runLayout(ctx context.Context, ref string, opts pipeline.Options, output string, noCache bool) error {
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	runner := c.newRunner(cc)
	defer runner.Close()

	src, closeSrc, err := c.openCatalog(ctx, ref, cc)
	if err != nil {
		return err
	}
	defer closeSrc()

	spinner := newSpinnerWithContext(ctx, "Reading catalog...")
	spinner.Start()
	prog := newProgress(c.Logger)

	images, err := runner.Collect(ctx, src)
	if err != nil {
		spinner.StopWithError("Reading catalog failed")
		return fmt.Errorf("collect %s: %w", ref, err)
	}

	spinner.Update("Packing %d images...", len(images))
	l, _, layoutHit, err := runner.GenerateLayoutWithCacheInfo(ctx, images, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}

	spinner.Update("Rendering %s...", strings.Join(opts.Formats, ", "))
	artifacts, _, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Packed %d images", len(images)))

	paths := outputPaths(ref, output, opts.Formats)
	for _, format := range opts.Formats {
		path := paths[format]
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
	}

	stats := pipeline.ComputeStats(l, opts)
	printSuccess("Layout complete")
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	fmt.Println(statsLine(stats.Images, stats.Rows, stats.Skipped, layoutHit))
	if stats.Rows > 0 {
		printDetail("height %.0fpx · row height %.1f ± %.1f (min %.1f, max %.1f)",
			stats.Height, stats.RowHeightMean, stats.RowHeightStdDev, stats.RowHeightMin, stats.RowHeightMax)
	}
	printNewline()
	printNextStep("Browse", "lightbox view "+ref)
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// outputPaths decides where each format is written. A single format with an
// explicit output uses it as is; otherwise output (or a name derived from
// the catalog) is a base path that gets ".layout.<format>" appended.
func outputPaths(ref, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := output
	if base == "" {
		base = catalogBaseName(ref)
	}
	for _, f := range formats {
		paths[f] = base + ".layout." + f
	}
	return paths
}

// catalogBaseName strips the extension from a file path, or derives a name
// from the last path segment of a URL.
func catalogBaseName(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Host != "" {
		name := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
		if name == "" || name == "." || name == "/" {
			return "gallery"
		}
		return name
	}
	return strings.TrimSuffix(ref, filepath.Ext(ref))
}
