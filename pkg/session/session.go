// Package session keeps per-client gallery state for the HTTP server.
//
// A [Session] pairs a gallery [gallery.Controller] with a viewer
// [viewer.Navigator] over the same catalog. Whenever the gallery ingests a
// page the navigator's image list is refreshed, so the viewer can move onto
// newly loaded images.
//
// Sessions live in a [Store] and expire after a sliding TTL:
//
//	store := session.NewStore(30 * time.Minute)
//	sess, err := store.Create(src, galleryOpts, viewerOpts...)
//	// ...
//	sess, err = store.Get(id) // refreshes the TTL
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/viewer"
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// Session is one client's gallery and viewer.
type Session struct {
	ID        string
	Gallery   *gallery.Controller
	Viewer    *viewer.Navigator
	CreatedAt time.Time

	mu        sync.Mutex
	expiresAt time.Time
}

// New builds a session over src. The gallery options' OnChange callback is
// chained so the viewer follows the gallery's image list.
func New(src catalog.Source, gopts gallery.Options, vopts ...viewer.Option) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "generate session id")
	}
	s := &Session{
		ID:        id.String(),
		Viewer:    viewer.New(nil, vopts...),
		CreatedAt: time.Now(),
	}

	next := gopts.OnChange
	lastCount := 0
	var syncMu sync.Mutex
	gopts.OnChange = func(l gallery.Layout) {
		if s.Gallery != nil {
			// Read and apply under one lock so a slower notification cannot
			// hand the viewer an older, shorter list.
			syncMu.Lock()
			images := s.Gallery.Images()
			if len(images) != lastCount {
				lastCount = len(images)
				s.Viewer.SetImages(images)
			}
			syncMu.Unlock()
		}
		if next != nil {
			next(l)
		}
	}

	ctrl, err := gallery.New(src, gopts)
	if err != nil {
		return nil, err
	}
	s.Gallery = ctrl
	return s, nil
}

// ExpiresAt returns when the session expires unless touched.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) touch(ttl time.Duration) {
	s.mu.Lock()
	s.expiresAt = time.Now().Add(ttl)
	s.mu.Unlock()
}

// IsExpired reports whether the session's TTL has elapsed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt())
}

// Close cancels any pending viewer work.
func (s *Session) Close() {
	s.Viewer.Close()
}

// Store is an in-memory session registry. It is safe for concurrent use.
type Store struct {
	ttl    time.Duration
	logger *log.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store. A non-positive ttl selects [DefaultTTL].
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:      ttl,
		logger:   log.Default(),
		sessions: make(map[string]*Session),
	}
}

// WithLogger sets the logger used by the janitor.
func (st *Store) WithLogger(l *log.Logger) *Store {
	st.logger = l
	return st
}

// Create builds a session and registers it.
func (st *Store) Create(src catalog.Source, gopts gallery.Options, vopts ...viewer.Option) (*Session, error) {
	s, err := New(src, gopts, vopts...)
	if err != nil {
		return nil, err
	}
	s.touch(st.ttl)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s, nil
}

// Get returns a live session and extends its TTL.
// Missing and expired sessions yield SESSION_NOT_FOUND.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	if s.IsExpired() {
		st.Delete(id)
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q expired", id)
	}
	s.touch(st.ttl)
	return s, nil
}

// Delete removes a session. Deleting a missing session is a no-op.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Each calls fn for every live session.
func (st *Store) Each(fn func(*Session)) {
	st.mu.RLock()
	list := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		list = append(list, s)
	}
	st.mu.RUnlock()
	for _, s := range list {
		fn(s)
	}
}

// Len returns the number of registered sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Cleanup removes expired sessions and returns how many were removed.
func (st *Store) Cleanup() int {
	var expired []string
	st.mu.RLock()
	for id, s := range st.sessions {
		if s.IsExpired() {
			expired = append(expired, id)
		}
	}
	st.mu.RUnlock()
	for _, id := range expired {
		st.Delete(id)
	}
	return len(expired)
}

// RunJanitor calls [Store.Cleanup] every interval until ctx is cancelled.
func (st *Store) RunJanitor(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := st.Cleanup(); n > 0 {
				st.logger.Debug("expired sessions removed", "count", n, "remaining", st.Len())
			}
		}
	}
}
