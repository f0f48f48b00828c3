// Package export burns a document's overlays into its pages.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/inamate/pagemark/internal/document"
)

// SignatureFont is the family name writers map to their script face.
const SignatureFont = "cursive"

var (
	ErrOpen      = errors.New("open document")
	ErrSerialize = errors.New("serialize document")
)

// Error is an export failure with the step that failed.
type Error struct {
	Op  string // "open", "serialize"
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("export.%s: unknown error", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Writer produces the output document. Draw failures are per primitive
// and are skipped; Serialize failures abort the export.
type Writer interface {
	Open(data []byte) (int, error)
	PageSize(page int) (width, height float64, err error)
	Draw(page int, p Primitive) error
	Serialize() ([]byte, error)
}

// Export opens source in w, draws every page's overlays on it and returns
// the serialized result. Nothing is returned unless the whole document
// serializes.
func Export(w Writer, source []byte, pages document.Snapshot, assets AssetResolver) ([]byte, error) {
	n, err := w.Open(source)
	if err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("%w: %w", ErrOpen, err)}
	}

	for _, page := range slices.Sorted(maps.Keys(pages)) {
		if page < 1 || page > n {
			slog.Warn("skip page", "page", page, "pages", n)
			continue
		}
		_, height, err := w.PageSize(page)
		if err != nil {
			slog.Warn("skip page", "page", page, "error", err)
			continue
		}
		for _, p := range Transform(pages[page], height, assets) {
			if err := w.Draw(page, p); err != nil {
				slog.Warn("skip primitive", "page", page, "overlay", p.Source(), "error", err)
			}
		}
	}

	data, err := w.Serialize()
	if err != nil {
		return nil, &Error{Op: "serialize", Err: fmt.Errorf("%w: %w", ErrSerialize, err)}
	}
	return data, nil
}

// Filename names the exported copy of a document.
func Filename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "document.pdf"
	}
	return "edited-" + name
}
