package server

import (
	"sync"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
)

// imageCache keeps the most recently used images read through a table, keyed
// by path. Evicted images are freed through the same table.
type imageCache struct {
	table *seatsanalyzer.Table
	limit int

	mu     sync.Mutex
	images map[string]*seatsanalyzer.Image
	order  []string // least recently used first
}

func newImageCache(table *seatsanalyzer.Table, limit int) *imageCache {
	return &imageCache{
		table:  table,
		limit:  limit,
		images: make(map[string]*seatsanalyzer.Image),
	}
}

// Load returns the cached image for path or reads it.
func (c *imageCache) Load(path string) (*seatsanalyzer.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[path]; ok {
		c.touch(path)
		return img, nil
	}

	img, err := c.table.ReadImage(path)
	if err != nil {
		return nil, err
	}
	c.images[path] = img
	c.order = append(c.order, path)

	for len(c.order) > c.limit {
		c.evictLocked(c.order[0])
	}
	return img, nil
}

// Len returns the number of cached images.
func (c *imageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Evict frees the image cached for path, if any.
func (c *imageCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(path)
}

// Clear frees every cached image.
func (c *imageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.order) > 0 {
		c.evictLocked(c.order[0])
	}
}

func (c *imageCache) touch(path string) {
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, path)
}

func (c *imageCache) evictLocked(path string) {
	img, ok := c.images[path]
	if !ok {
		return
	}
	delete(c.images, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if err := c.table.FreeImage(img); err != nil {
		monitoring.Logf("Failed to free cached image %s: %v", path, err)
	}
}
