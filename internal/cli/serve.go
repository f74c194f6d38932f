package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/config"
	"github.com/matzehuels/lightbox/pkg/server"
	"github.com/matzehuels/lightbox/pkg/session"
)

const (
	// shutdownTimeout bounds graceful shutdown after a signal.
	shutdownTimeout = 5 * time.Second

	// janitorInterval is how often expired sessions are collected.
	janitorInterval = time.Minute
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		ttl   time.Duration
		watch bool
	)
	def := config.Default().Server

	cmd := &cobra.Command{
		Use:   "serve <catalog>",
		Short: "Serve gallery sessions over HTTP",
		Long: `Serve gallery sessions over HTTP.

Every client creates a session holding its own gallery pagination and viewer
state, then drives it with small JSON requests (see GET /healthz, POST
/sessions, POST /sessions/{id}/more, POST /sessions/{id}/viewer/navigate).
GET /layout returns the whole catalog packed for a given width.

File catalogs are watched; when the file changes every session's gallery is
reset so clients page through the new contents.`,
		Example: `  lightbox serve photos.json --addr :9000
  LIGHTBOX_CACHE=redis lightbox serve https://example.com/gallery/data.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], watch)
		},
	}

	c.bindGalleryFlags(cmd)
	cmd.Flags().StringVar(&addr, "addr", def.Addr, "listen address")
	cmd.Flags().DurationVar(&ttl, "session-ttl", def.SessionTTL, "idle lifetime of a session")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload file catalogs when they change")
	c.bind(cmd, "addr", func(cfg *config.Config) { cfg.Server.Addr = addr })
	c.bind(cmd, "session-ttl", func(cfg *config.Config) { cfg.Server.SessionTTL = ttl })

	return cmd
}

func (c *CLI) runServe(ctx context.Context, ref string, watch bool) error {
	cc, err := c.openCache(ctx, false)
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

	store := session.NewStore(c.Config.Server.SessionTTL).WithLogger(c.Logger)
	gopts := c.Config.GalleryOptions()
	srv, err := server.New(server.Config{
		Source:   src,
		Sessions: store,
		Runner:   runner,
		Gallery:  gopts,
		Layout:   c.pipelineOptions(),
		Viewer:   c.Config.ViewerOptions(),
		Logger:   c.Logger,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              c.Config.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("listening", "addr", httpSrv.Addr, "catalog", ref)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.Logger.Info("shutting down", "sessions", store.Len())
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return store.RunJanitor(gctx, janitorInterval)
	})
	if f, ok := src.(*catalog.File); ok && watch {
		g.Go(func() error {
			return f.Watch(gctx, func(total int, err error) {
				if err == nil {
					srv.CatalogReloaded()
				}
			})
		})
	}

	printInfo("Serving %s on %s", ref, StyleLink.Render(displayURL(httpSrv.Addr)))
	return g.Wait()
}

// displayURL turns a listen address into a clickable URL.
func displayURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
