package document

import (
	"strconv"
	"strings"
)

// RGB is a colour with components in [0, 1].
type RGB struct {
	R, G, B float64
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{1, 1, 1}
)

// Bytes returns the colour as 0-255 components.
func (c RGB) Bytes() (int, int, int) {
	return int(c.R*255 + 0.5), int(c.G*255 + 0.5), int(c.B*255 + 0.5)
}

// Hex formats the colour as #RRGGBB.
func (c RGB) Hex() string {
	r, g, b := c.Bytes()
	const digits = "0123456789ABCDEF"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []int{r, g, b} {
		buf[1+2*i] = digits[v>>4]
		buf[2+2*i] = digits[v&0xF]
	}
	return string(buf)
}

// IsNone reports whether s names the absence of a colour.
func IsNone(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", Transparent, "none":
		return true
	}
	return false
}

// ParseColor reads #RRGGBB or #RGB. Anything else is black.
func ParseColor(s string) RGB {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Black
	}
	return RGB{
		R: float64(v>>16&0xFF) / 255,
		G: float64(v>>8&0xFF) / 255,
		B: float64(v&0xFF) / 255,
	}
}
