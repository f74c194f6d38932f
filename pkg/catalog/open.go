package catalog

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightbox/pkg/cache"
	"github.com/matzehuels/lightbox/pkg/errors"
)

// OpenOptions configures [Open].
type OpenOptions struct {
	Cache         cache.Cache
	Keyer         cache.Keyer
	RetryAttempts int
	Mongo         MongoConfig
	Logger        *log.Logger
}

// Open returns a source for ref:
//
//   - http:// or https:// URLs open an [HTTP] source
//   - mongodb:// or mongodb+srv:// URIs open a [Mongo] source
//   - sqlite:// refs and .db/.sqlite/.sqlite3 paths open a [SQLite] source
//   - anything else is a path to a [File]
//
// The returned close function releases any connection and is never nil.
func Open(ctx context.Context, ref string, opts OpenOptions) (Source, func() error, error) {
	noop := func() error { return nil }
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		var hopts []HTTPOption
		if opts.Cache != nil {
			hopts = append(hopts, WithCache(opts.Cache, opts.Keyer))
		}
		if opts.RetryAttempts > 0 {
			hopts = append(hopts, WithRetry(opts.RetryAttempts, 500*time.Millisecond))
		}
		src, err := NewHTTP(ref, hopts...)
		if err != nil {
			return nil, noop, err
		}
		opts.Logger.Debug("opened http catalog", "url", ref)
		return src, noop, nil

	case isMongoRef(ref):
		cfg := opts.Mongo
		cfg.URI = ref
		src, err := NewMongo(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		opts.Logger.Debug("opened mongo catalog", "database", orDefault(cfg.Database, DefaultMongoDatabase))
		return src, func() error { return src.Close(context.Background()) }, nil

	case IsSQLiteRef(ref):
		src, err := OpenSQLite(ref)
		if err != nil {
			return nil, noop, err
		}
		opts.Logger.Debug("opened sqlite catalog", "path", src.Path())
		return src, src.Close, nil

	default:
		src, err := NewFile(ref, WithFileLogger(opts.Logger))
		if err != nil {
			return nil, noop, err
		}
		opts.Logger.Debug("opened file catalog", "path", ref)
		return src, noop, nil
	}
}

// Sink is a catalog store that images can be imported into.
type Sink interface {
	Insert(ctx context.Context, start int, images []*Image) error
}

// OpenSink opens ref as an import destination. Only MongoDB and SQLite
// catalogs are writable.
func OpenSink(ctx context.Context, ref string, mongo MongoConfig) (Sink, func() error, error) {
	noop := func() error { return nil }
	switch {
	case isMongoRef(ref):
		mongo.URI = ref
		dst, err := NewMongo(ctx, mongo)
		if err != nil {
			return nil, noop, err
		}
		return dst, func() error { return dst.Close(context.Background()) }, nil
	case IsSQLiteRef(ref):
		dst, err := OpenSQLite(ref)
		if err != nil {
			return nil, noop, err
		}
		return dst, dst.Close, nil
	default:
		return nil, noop, errors.New(errors.ErrCodeUnsupported, "cannot import into %q: want a mongodb:// URI or a SQLite path", ref)
	}
}

func isMongoRef(ref string) bool {
	return strings.HasPrefix(ref, "mongodb://") || strings.HasPrefix(ref, "mongodb+srv://")
}
