package tiles

import "image"

// Loader fetches tile images asynchronously.
type Loader interface {
	// Load starts fetching url. done must be called on the UI loop (see
	// package clock) exactly once, unless cancel is called first, in which
	// case it must not be called at all.
	Load(url string, done func(image.Image, error)) (cancel func())
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(url string, done func(image.Image, error)) func()

func (f LoaderFunc) Load(url string, done func(image.Image, error)) func() {
	return f(url, done)
}
