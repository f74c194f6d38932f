package catalog

import (
	"context"
	"sync"
)

// Memory serves images from an in-process slice.
type Memory struct {
	mu     sync.RWMutex
	images []*Image
}

// NewMemory returns a source over images. The slice is copied; the images
// themselves are shared.
func NewMemory(images []*Image) *Memory {
	m := &Memory{}
	m.Replace(images)
	return m
}

// FetchPage implements [Source].
func (m *Memory) FetchPage(ctx context.Context, offset, count int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slicePage(m.images, offset, count)
}

// Append adds images to the end of the catalog.
func (m *Memory) Append(images ...*Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, images...)
}

// Replace swaps the whole catalog.
func (m *Memory) Replace(images []*Image) {
	cp := make([]*Image, len(images))
	copy(cp, images)
	m.mu.Lock()
	m.images = cp
	m.mu.Unlock()
}

// Len returns the number of images.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.images)
}

var _ Source = (*Memory)(nil)
