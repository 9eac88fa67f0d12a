package mapview

import (
	"image"

	"gioui.org/op/paint"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultOpCacheSize = 1024

// opCache keeps the ImageOp of every recently drawn tile image so each image
// is uploaded to the GPU once.
type opCache struct {
	lru *lru.Cache[image.Image, paint.ImageOp]
}

func newOpCache(size int) *opCache {
	if size < 1 {
		size = defaultOpCacheSize
	}
	c, err := lru.New[image.Image, paint.ImageOp](size)
	if err != nil {
		panic(err)
	}
	return &opCache{lru: c}
}

func (c *opCache) get(img image.Image) paint.ImageOp {
	if op, ok := c.lru.Get(img); ok {
		return op
	}
	op := paint.NewImageOp(img)
	op.Filter = paint.FilterLinear
	c.lru.Add(img, op)
	return op
}

func (c *opCache) len() int {
	return c.lru.Len()
}
