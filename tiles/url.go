package tiles

import (
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"

	"github.com/olablt/gio-viewport/viewport"
)

// URLFunc returns the image URL of tile (x, y) at the viewport's current
// tile zoom. An empty string means there is no image for the tile.
type URLFunc func(vp *viewport.Viewport, x, y int) string

// Template builds a URLFunc from a pattern with the placeholders {x}, {y},
// {z}, {lang} and {s}. {s} is replaced by one of subdomains, picked at
// random for every tile. The x index is wrapped around the antimeridian;
// tiles beyond the poles have no URL.
func Template(pattern string, subdomains ...string) URLFunc {
	return templateWith(pattern, subdomains, rand.IntN)
}

func templateWith(pattern string, subdomains []string, pick func(n int) int) URLFunc {
	return func(vp *viewport.Viewport, x, y int) string {
		z := ZoomLevel(vp.Zoom())
		n := 1 << z
		if y < 0 || y >= n {
			return ""
		}
		t := maptile.New(uint32((x%n+n)%n), uint32(y), maptile.Zoom(z))
		if !t.Valid() {
			return ""
		}
		var s string
		if len(subdomains) > 0 {
			s = subdomains[pick(len(subdomains))]
		}
		return strings.NewReplacer(
			"{x}", strconv.FormatUint(uint64(t.X), 10),
			"{y}", strconv.FormatUint(uint64(t.Y), 10),
			"{z}", strconv.Itoa(int(t.Z)),
			"{lang}", vp.Lang(),
			"{s}", s,
		).Replace(pattern)
	}
}

// Fixed returns a URLFunc that always returns u, for error tiles.
func Fixed(u string) URLFunc {
	return func(*viewport.Viewport, int, int) string { return u }
}

const retryParam = "_retry"

// bust appends a cache-busting query parameter so a retried request is not
// answered from a cache holding the failure.
func bust(raw string, attempt int) string {
	u, err := url.Parse(raw)
	if err != nil {
		sep := "?"
		if strings.Contains(raw, "?") {
			sep = "&"
		}
		return raw + sep + retryParam + "=" + strconv.Itoa(attempt)
	}
	q := u.Query()
	q.Set(retryParam, strconv.Itoa(attempt))
	u.RawQuery = q.Encode()
	return u.String()
}
