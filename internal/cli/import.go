package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/config"
)

// importCommand creates the import command, which copies a catalog into a
// MongoDB collection or SQLite database that `layout`, `view` and `serve`
// can then page from.
func (c *CLI) importCommand() *cobra.Command {
	var (
		database   string
		collection string
		start      int
	)
	def := config.Default().Catalog

	cmd := &cobra.Command{
		Use:   "import <catalog> <destination>",
		Short: "Copy a catalog into MongoDB or SQLite",
		Long: `Copy a catalog into MongoDB or SQLite.

The destination is a mongodb:// URI, or a SQLite database given as
sqlite://path or a path ending in .db, .sqlite or .sqlite3.

Images are inserted in catalog order with consecutive positions starting at
--start, so several catalogs can be appended to one collection.`,
		Example: `  lightbox import photos.json mongodb://localhost:27017 --collection travel
  lightbox import https://example.com/gallery.json photos.db`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], args[1], start)
		},
	}

	cmd.Flags().StringVar(&database, "database", def.MongoDatabase, "target database")
	cmd.Flags().StringVar(&collection, "collection", def.MongoCollection, "target collection")
	cmd.Flags().IntVar(&start, "start", 0, "position of the first imported image")
	c.bind(cmd, "database", func(cfg *config.Config) { cfg.Catalog.MongoDatabase = database })
	c.bind(cmd, "collection", func(cfg *config.Config) { cfg.Catalog.MongoCollection = collection })

	return cmd
}

func (c *CLI) runImport(ctx context.Context, ref, dest string, start int) error {
	if start < 0 {
		return fmt.Errorf("--start must not be negative, got %d", start)
	}
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

	images, err := runner.Collect(ctx, src)
	if err != nil {
		return fmt.Errorf("collect %s: %w", ref, err)
	}
	if len(images) == 0 {
		printInfo("Catalog %s is empty, nothing to import", ref)
		return nil
	}

	dst, closeDst, err := catalog.OpenSink(ctx, dest, catalog.MongoConfig{
		Database:   c.Config.Catalog.MongoDatabase,
		Collection: c.Config.Catalog.MongoCollection,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDst(); err != nil {
			c.Logger.Warn("close destination", "err", err)
		}
	}()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Inserting %d images...", len(images)))
	spinner.Start()
	if err := dst.Insert(ctx, start, images); err != nil {
		spinner.StopWithError("Import failed")
		return err
	}
	spinner.Stop()

	printSuccess("Imported %d images", len(images))
	if sq, ok := dst.(*catalog.SQLite); ok {
		printFile(sq.Path())
	} else {
		printKeyValue("database", c.Config.Catalog.MongoDatabase)
		printKeyValue("collection", c.Config.Catalog.MongoCollection)
	}
	printKeyValue("positions", fmt.Sprintf("%d-%d", start, start+len(images)-1))
	return nil
}
