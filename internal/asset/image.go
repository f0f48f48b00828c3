package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/inamate/pagemark/internal/typeid"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Formats the output writer can embed directly. Everything else that
// decodes is converted to PNG.
var embeddable = map[string]bool{"png": true, "jpeg": true, "gif": true}

// Image is a decoded raster ready to be placed on a page.
type Image struct {
	ID     string
	Name   string
	Format string // png, jpeg or gif
	Width  int
	Height int
	Data   []byte // encoded in Format
	Pixels image.Image
}

// Decode reads an uploaded image and assigns it a fresh asset id.
func Decode(data []byte) (*Image, error) {
	pixels, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := pixels.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode image: empty %s", format)
	}

	if !embeddable[format] {
		var buf bytes.Buffer
		if err := png.Encode(&buf, pixels); err != nil {
			return nil, fmt.Errorf("convert %s to png: %w", format, err)
		}
		data, format = buf.Bytes(), "png"
	}

	return &Image{
		ID:     typeid.NewAssetID(),
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Data:   data,
		Pixels: pixels,
	}, nil
}

// ContentType returns the MIME type of the embeddable bytes.
func (img *Image) ContentType() string {
	return "image/" + img.Format
}
