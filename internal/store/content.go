// Package store provides the in-memory content cache and the durable key-value backends.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"featurescout/internal/core"
)

// ContentCache is an append-only, insertion-ordered cache of resolved catalog content.
type ContentCache struct {
	index map[core.ContentKey]int
	items []core.ContentItem
	bloom *bloom.BloomFilter
	mutex sync.RWMutex
}

// NewContentCache sizes the Bloom filter for expectedItems at the given false positive rate.
// The cache itself is unbounded.
func NewContentCache(expectedItems int, bloomFalsePositiveRate float64) *ContentCache {
	if expectedItems <= 0 || expectedItems > int(^uint(0)>>1) {
		panic("expectedItems value out of range for uint conversion")
	}

	return &ContentCache{
		index: make(map[core.ContentKey]int),
		bloom: bloom.NewWithEstimates(uint(expectedItems), bloomFalsePositiveRate),
	}
}

// Has checks the Bloom filter before the index.
func (c *ContentCache) Has(key core.ContentKey) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.has(key)
}

func (c *ContentCache) has(key core.ContentKey) bool {
	if !c.bloom.TestString(key.String()) {
		return false
	}

	_, exists := c.index[key]
	return exists
}

func (c *ContentCache) Get(key core.ContentKey) (core.ContentItem, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if !c.has(key) {
		return core.ContentItem{}, false
	}
	return c.items[c.index[key]], true
}

// Put appends items. An item whose key is already cached is dropped; entries never change once stored.
func (c *ContentCache) Put(items ...core.ContentItem) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, item := range items {
		key := item.Key()
		if _, exists := c.index[key]; exists {
			continue
		}

		c.index[key] = len(c.items)
		c.items = append(c.items, item)
		c.bloom.AddString(key.String())
	}
}

// Len returns the number of cached items.
func (c *ContentCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Items returns a copy of the cached items in insertion order.
func (c *ContentCache) Items() []core.ContentItem {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	items := make([]core.ContentItem, len(c.items))
	copy(items, c.items)
	return items
}
