// Package tiles keeps a layer of map tile images in sync with a viewport.
//
// On every viewport change the Layer works out which tiles cover the
// surface (plus a margin), reuses the ones it already tracks, starts loads
// for new ones nearest-first and drops the ones that went off screen. Rapid
// zoom changes are debounced so a pinch triggers a single refresh.
package tiles

import (
	"fmt"
	"image"
	"math"

	"github.com/olablt/gio-viewport/geo"
)

// Tile identifies one tile image.
type Tile struct {
	X, Y int
	Zoom int
	Lang string
}

// Key returns a string uniquely identifying t.
func (t Tile) Key() string {
	return fmt.Sprintf("%d/%d/%d/%s", t.Zoom, t.X, t.Y, t.Lang)
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// MaxLevel is the deepest tile zoom. Tile indices past it overflow the
// 32-bit XYZ addressing, so deeper viewport zooms scale level MaxLevel tiles.
const MaxLevel = 30

// ZoomLevel returns the integer tile zoom used for a viewport zoom, within
// [0, MaxLevel]. NaN maps to 0.
func ZoomLevel(zoom float64) int {
	if math.IsNaN(zoom) || zoom <= 0 {
		return 0
	}
	return int(math.Min(math.Round(zoom), MaxLevel))
}

// State is the load state of a tile resource.
type State uint8

const (
	Loading State = iota
	Loaded
	// Errored is a failed attempt that will be retried.
	Errored
	// Failed is terminal: retries are exhausted and no fallback image exists.
	Failed
	// Placeholder is terminal: retries are exhausted and a fallback image
	// is shown instead.
	Placeholder
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	case Failed:
		return "failed"
	case Placeholder:
		return "placeholder"
	}
	return "unknown"
}

// Terminal reports whether s is final for the tile.
func (s State) Terminal() bool {
	return s == Failed || s == Placeholder
}

// Resource is a tracked tile and its image. Fields are owned by the Layer;
// hosts read them while drawing and must not keep them across renders.
type Resource struct {
	Tile Tile
	// Pos is the top-left corner relative to the top-left of the surface.
	Pos   geo.Point
	Image image.Image
	State State

	url      string
	attempts int
	fallback bool
	cancel   func()
}

func (r *Resource) stop() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
