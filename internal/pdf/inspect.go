// Package pdf reads page geometry from PDF files and writes annotated
// copies of them.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/phpdave11/gofpdi"
)

var (
	ErrNoDocument      = errors.New("pdf: no document")
	ErrInvalidDocument = errors.New("pdf: invalid document")
	ErrInvalidPage     = errors.New("pdf: invalid page")
)

// Letter is used for pages whose media box cannot be read.
var Letter = PageSize{Width: 612, Height: 792}

// PageSize is a page's media box in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Inspect returns the size of every page of a PDF, in page order.
func Inspect(data []byte) (sizes []PageSize, err error) {
	if len(data) == 0 {
		return nil, ErrNoDocument
	}
	// gofpdi reports malformed input by panicking
	defer func() {
		if r := recover(); r != nil {
			sizes, err = nil, fmt.Errorf("%w: %v", ErrInvalidDocument, r)
		}
	}()

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))
	imp.SetSourceStream(&rs)

	n := imp.GetNumPages()
	if n < 1 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidDocument)
	}
	boxes := imp.GetPageSizes()

	sizes = make([]PageSize, n)
	for i := range sizes {
		size := Letter
		if mb, ok := boxes[i+1]["/MediaBox"]; ok && mb["w"] > 0 && mb["h"] > 0 {
			size = PageSize{Width: mb["w"], Height: mb["h"]}
		}
		sizes[i] = size
	}
	return sizes, nil
}
