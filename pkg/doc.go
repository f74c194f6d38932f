// Package pkg provides the core libraries for lightbox, a justified-row photo
// gallery with a full-screen viewer.
//
// # Overview
//
// A catalog of images with known dimensions is packed, page by page, into
// rows of equal height that exactly fill the container width. A viewer state
// machine then steps through the same images and picks the resolution tier
// that suits the screen.
//
// # Architecture
//
// The typical data flow:
//
//	Catalog (JSON/YAML file, HTTP endpoint, MongoDB)
//	         ↓
//	    [catalog] package (pages of images)
//	         ↓
//	    [gallery] package (incremental loading, re-packing the trailing row)
//	         ↓
//	    [layout] package (row packing and scaling)
//	         ↓
//	    [viewer] + [quality] packages (navigation, tier selection)
//
// # Quick Start
//
// Pack a whole catalog:
//
//	src, closeSrc, _ := catalog.Open(ctx, "photos.json", catalog.OpenOptions{})
//	defer closeSrc()
//
//	ctrl, _ := gallery.New(src, gallery.DefaultOptions(1200))
//	_ = ctrl.LoadAll(ctx)
//	for _, row := range ctrl.Layout().Rows {
//	    fmt.Printf("%d images at %.1fpx\n", row.Len(), row.Height)
//	}
//
// Open the viewer on the fourth image:
//
//	nav := viewer.New(ctrl.Images(), viewer.WithViewport(1920, 1080))
//	_ = nav.Open(3)
//	fmt.Println(nav.State().URL)
//
// # Main Packages
//
// [layout] - The packing algorithm: ideal row height, greedy row filling and
// scaling of closed rows.
//
// [gallery] - The paging controller. Tracks the Idle/Loading/Exhausted
// states, grows the batch size and re-packs the unfinished last row.
//
// [viewer] - The navigation state machine with transition tags, arrow
// visibility and the delayed settle step.
//
// [quality] - Maps a quality preference and viewport to a resolution tier.
//
// [catalog] - Image records and catalog sources.
//
// ## Infrastructure
//
// [cache] - File, Redis and no-op caches for catalogs, layouts and artifacts.
//
// [pipeline] - Collect, layout and render with caching, plus layout stats.
//
// [session] - Pairs a gallery with a viewer and expires idle sessions.
//
// [server] - HTTP API over sessions and layouts.
//
// [config] - TOML, environment and flag configuration.
package pkg
