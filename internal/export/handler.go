package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inamate/pagemark/internal/typeid"
)

// Source is something that can be exported, typically an open session.
type Source interface {
	Name() string
	Export() ([]byte, error)
}

// Handler serves the export download endpoint.
type Handler struct {
	lookup func(r *http.Request) (Source, error)
}

// NewHandler creates a handler that resolves the source of each request
// with lookup. A lookup error is reported as 404.
func NewHandler(lookup func(r *http.Request) (Source, error)) *Handler {
	return &Handler{lookup: lookup}
}

// Download handles POST /sessions/{sessionId}/export.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	src, err := h.lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	exportID := typeid.NewExportID()
	data, err := src.Export()
	if err != nil {
		var exportErr *Error
		if errors.As(err, &exportErr) {
			slog.Error("export failed", "export", exportID, "op", exportErr.Op, "error", exportErr.Err)
		} else {
			slog.Error("export failed", "export", exportID, "error", err)
		}
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	name := sanitize(Filename(src.Name()))
	slog.Info("export", "export", exportID, "name", name, "bytes", len(data))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}

// sanitize keeps a filename safe for a header value.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '-'
	}, name)
}
