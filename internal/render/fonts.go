package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/inamate/pagemark/internal/export"
)

// The preview approximates every family with the Go fonts: monospace for
// Courier, proportional for the rest.
type fontKey struct {
	mono, bold, italic bool
}

var fontData = map[fontKey][]byte{
	{false, false, false}: goregular.TTF,
	{false, true, false}:  gobold.TTF,
	{false, false, true}:  goitalic.TTF,
	{false, true, true}:   gobolditalic.TTF,
	{true, false, false}:  gomono.TTF,
	{true, true, false}:   gomonobold.TTF,
	{true, false, true}:   gomonoitalic.TTF,
	{true, true, true}:    gomonobolditalic.TTF,
}

type fontCache struct {
	mu      sync.Mutex
	sources map[fontKey]*text.FontSource
}

var fonts = &fontCache{sources: make(map[fontKey]*text.FontSource)}

func (c *fontCache) face(family string, bold, italic bool, size float64) (text.Face, error) {
	key := fontKey{
		mono:   strings.HasPrefix(strings.ToLower(family), "courier"),
		bold:   bold,
		italic: italic || family == export.SignatureFont,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.sources[key]
	if !ok {
		var err error
		src, err = text.NewFontSource(fontData[key])
		if err != nil {
			return nil, fmt.Errorf("load font %+v: %w", key, err)
		}
		c.sources[key] = src
	}
	return src.Face(size), nil
}
