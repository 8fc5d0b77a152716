// Package color normalizes CSS colour strings so that values reported by
// different browsers, or written as hex in fixtures, compare equal.
package color

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Normalize converts any CSS colour (hex, rgb(), rgba(), hsl(), named) into the
// canonical "rgba(r, g, b, a)" form. Whitespace and case are ignored. Strings
// that are not colours are returned trimmed and lowercased.
func Normalize(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, err := Parse(v); err == nil {
		return c.String()
	}
	return v
}

// Equal reports whether a and b denote the same colour.
func Equal(a, b string) bool { return Normalize(a) == Normalize(b) }

// RGBA is a parsed colour. A holds the alpha channel in its shortest decimal
// form, rounded to three places.
type RGBA struct {
	R, G, B uint8
	A       string
}

func (c RGBA) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, c.A)
}

// Parse returns the colour denoted by s.
func Parse(s string) (RGBA, error) {
	c, err := csscolorparser.Parse(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return RGBA{}, fmt.Errorf("not a colour: %q: %w", s, err)
	}
	r, g, b, _ := c.RGBA255()
	alpha := math.Round(math.Min(math.Max(c.A, 0), 1)*1000) / 1000
	return RGBA{R: r, G: g, B: b, A: strconv.FormatFloat(alpha, 'f', -1, 64)}, nil
}
