package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/lightbox/pkg/errors"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 250 * time.Millisecond

// File serves images from a JSON or YAML document on disk.
type File struct {
	path   string
	format Format
	logger *log.Logger

	mu     sync.RWMutex
	images []*Image
}

// FileOption configures a [File].
type FileOption func(*File)

// WithFormat forces the document format instead of inferring it from the
// file extension.
func WithFormat(f Format) FileOption {
	return func(s *File) { s.format = f }
}

// WithFileLogger sets the logger used for reload messages.
func WithFileLogger(l *log.Logger) FileOption {
	return func(s *File) { s.logger = l }
}

// NewFile loads the document at path.
func NewFile(path string, opts ...FileOption) (*File, error) {
	f := &File{
		path:   path,
		format: FormatFromPath(path),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the document path.
func (f *File) Path() string { return f.path }

// FetchPage implements [Source].
func (f *File) FetchPage(ctx context.Context, offset, count int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slicePage(f.images, offset, count)
}

// Images returns a copy of the loaded image list.
func (f *File) Images() []*Image {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*Image(nil), f.images...)
}

// Reload re-reads the document. On error the previous contents are kept.
func (f *File) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeNotFound, err, "catalog %s", f.path)
		}
		return fmt.Errorf("read catalog: %w", err)
	}
	images, err := Decode(data, f.format)
	if err != nil {
		return fmt.Errorf("%s: %w", f.path, err)
	}
	f.mu.Lock()
	f.images = images
	f.mu.Unlock()
	return nil
}

// Watch reloads the document whenever it changes on disk until ctx is
// cancelled. onReload, if non-nil, is called after every reload attempt
// with the new image count or the reload error.
//
// The parent directory is watched rather than the file so that editors
// that save by rename are handled.
func (f *File) Watch(ctx context.Context, onReload func(total int, err error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", f.path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
		seq     uint64
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		seq++
		mine := seq
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, func() {
			timerMu.Lock()
			stale := mine != seq
			timerMu.Unlock()
			if stale || ctx.Err() != nil {
				return
			}
			err := f.Reload()
			total := len(f.Images())
			if err != nil {
				f.logger.Warn("catalog reload failed", "path", f.path, "err", err)
			} else {
				f.logger.Info("catalog reloaded", "path", f.path, "images", total)
			}
			if onReload != nil {
				onReload(total, err)
			}
		})
	}
	defer func() {
		timerMu.Lock()
		seq++
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				schedule()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("catalog watcher error", "err", err)
		}
	}
}

var _ Source = (*File)(nil)
