package pdf

import (
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/inamate/pagemark/internal/export"
)

// coreFamily maps an annotation font to one of the standard PDF fonts.
// Unknown families fall back to Helvetica.
func coreFamily(font string) string {
	switch strings.ToLower(font) {
	case "times new roman", "georgia", "times", "serif", export.SignatureFont:
		return "Times"
	case "courier new", "courier", "monospace":
		return "Courier"
	}
	return "Helvetica"
}

func fontStyle(bold, italic bool) string {
	switch {
	case bold && italic:
		return "BI"
	case bold:
		return "B"
	case italic:
		return "I"
	}
	return ""
}

// encodeText converts s to WinAnsi, the encoding of the standard fonts.
// Characters outside it become '?'.
func encodeText(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return string(out)
}

// imageType maps an asset format to the name fpdf expects.
func imageType(format string) (string, bool) {
	switch strings.ToLower(format) {
	case "png":
		return "PNG", true
	case "jpeg", "jpg":
		return "JPG", true
	case "gif":
		return "GIF", true
	}
	return "", false
}
