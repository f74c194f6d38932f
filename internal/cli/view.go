package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lightbox/pkg/config"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/session"
)

// viewCommand creates the view command for browsing a catalog in the terminal.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		preference string
		viewport   viewportValue
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "view <catalog>",
		Short: "Browse a catalog in the terminal",
		Long: `Browse a catalog in the terminal.

The grid shows the packed rows scaled to the terminal width, loading more
images as you reach the bottom. Enter opens the viewer, which resolves the
image URL for the chosen quality and viewport exactly as a browser would.`,
		Example: `  # Browse with automatic quality for a 4K screen
  lightbox view photos.json --viewport 3840x2160

  # Always use the medium tier
  lightbox view https://example.com/gallery.json --quality mid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd, args[0], noCache)
		},
	}

	c.bindGalleryFlags(cmd)
	cmd.Flags().StringVar(&preference, "quality", "", "quality preference: auto, low, mid, high")
	cmd.Flags().Var(&viewport, "viewport", "viewport size used by auto quality, as WIDTHxHEIGHT")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	c.bind(cmd, "quality", func(cfg *config.Config) { cfg.Viewer.Quality = preference })
	c.bind(cmd, "viewport", func(cfg *config.Config) {
		cfg.Viewer.Width, cfg.Viewer.Height = viewport.width, viewport.height
	})

	return cmd
}

func (c *CLI) runView(cmd *cobra.Command, ref string, noCache bool) error {
	ctx := cmd.Context()
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cc.Close()

	src, closeSrc, err := c.openCatalog(ctx, ref, cc)
	if err != nil {
		return err
	}
	defer closeSrc()

	sess, err := session.New(src, c.Config.GalleryOptions(), c.Config.ViewerOptions()...)
	if err != nil {
		return err
	}
	defer sess.Close()

	model := NewGalleryModel(ctx, sess, c.Config.Viewer.SettleDelay)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// viewportValue is a "WIDTHxHEIGHT" flag.
type viewportValue struct {
	width, height int
}

func (v *viewportValue) String() string {
	if v.width == 0 && v.height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", v.width, v.height)
}

func (v *viewportValue) Set(s string) error {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "viewport %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport width %q must be a positive integer", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport height %q must be a positive integer", h)
	}
	v.width, v.height = width, height
	return nil
}

func (v *viewportValue) Type() string { return "size" }
