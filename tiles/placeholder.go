package tiles

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/olablt/gio-viewport/geo"
)

var (
	placeholderBackground = color.RGBA{R: 228, G: 228, B: 228, A: 255}
	placeholderBorder     = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	placeholderLabel      = color.RGBA{R: 110, G: 110, B: 110, A: 255}
)

// NewPlaceholder returns a grey tile labelled with its z/x/y coordinates,
// suitable for WithPlaceholder.
func NewPlaceholder(t Tile) image.Image {
	const size = geo.TileSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderBackground}, image.Point{}, draw.Src)

	for _, r := range []image.Rectangle{
		image.Rect(0, 0, size, 1),
		image.Rect(0, size-1, size, size),
		image.Rect(0, 0, 1, size),
		image.Rect(size-1, 0, size, size),
	} {
		draw.Draw(img, r, &image.Uniform{C: placeholderBorder}, image.Point{}, draw.Src)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderLabel),
		Face: face,
	}
	label := t.String()
	w := d.MeasureString(label).Round()
	h := face.Metrics().Height.Round()
	d.Dot = fixed.Point26_6{
		X: fixed.I((size - w) / 2),
		Y: fixed.I((size + h) / 2),
	}
	d.DrawString(label)
	return img
}
