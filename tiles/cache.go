package tiles

import (
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of decoded images an HTTPLoader keeps.
const DefaultCacheSize = 512

// ImageCache is a bounded, concurrency-safe cache of decoded tile images
// keyed by URL.
type ImageCache struct {
	lru *lru.Cache[string, image.Image]
}

// NewImageCache returns a cache holding at most size images. A size below
// one selects DefaultCacheSize.
func NewImageCache(size int) *ImageCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, image.Image](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &ImageCache{lru: c}
}

func (c *ImageCache) Get(url string) (image.Image, bool) {
	return c.lru.Get(url)
}

func (c *ImageCache) Add(url string, img image.Image) {
	c.lru.Add(url, img)
}

func (c *ImageCache) Len() int {
	return c.lru.Len()
}

func (c *ImageCache) Purge() {
	c.lru.Purge()
}
