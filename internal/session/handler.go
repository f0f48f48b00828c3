package session

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/export"
	"github.com/inamate/pagemark/internal/render"
	"github.com/inamate/pagemark/internal/typeid"
)

// TokenIssuer mints the access token returned when a session opens.
type TokenIssuer interface {
	IssueToken(sessionID string) (string, error)
}

type Handler struct {
	manager   *Manager
	tokens    TokenIssuer
	maxUpload int64
	export    *export.Handler
}

func NewHandler(manager *Manager, tokens TokenIssuer, maxUpload int64) *Handler {
	h := &Handler{manager: manager, tokens: tokens, maxUpload: maxUpload}
	h.export = export.NewHandler(func(r *http.Request) (export.Source, error) {
		return h.session(r)
	})
	return h
}

// Register mounts the session routes on r. Routes under a session id are
// wrapped in protect; the subrouter holding them is returned for callers
// that add more.
func (h *Handler) Register(r *mux.Router, protect ...mux.MiddlewareFunc) *mux.Router {
	r.HandleFunc("/sessions", h.Create).Methods("POST", "OPTIONS")

	s := r.PathPrefix("/sessions/{sessionId}").Subrouter()
	s.Use(protect...)
	s.HandleFunc("", h.Get).Methods("GET")
	s.HandleFunc("", h.Delete).Methods("DELETE")
	s.HandleFunc("/images", h.UploadImage).Methods("POST", "OPTIONS")
	s.HandleFunc("/assets/{assetId}", h.Asset).Methods("GET")
	s.HandleFunc("/preview.png", h.Preview).Methods("GET")
	s.HandleFunc("/pages/{page:[0-9]+}/thumbnail.png", h.Thumbnail).Methods("GET")
	s.HandleFunc("/export", h.export.Download).Methods("POST", "OPTIONS")
	return s
}

type createResponse struct {
	Session Info   `json:"session"`
	Token   string `json:"token"`
}

// Create handles POST /sessions with the PDF in the multipart "file" field.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.readPDF(w, r)
	if err != nil {
		asset.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s, err := h.manager.Open(name, data)
	if err != nil {
		// Open only fails on the document itself
		slog.Warn("open session", "name", name, "error", err)
		asset.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "not a readable PDF"})
		return
	}

	token, err := h.tokens.IssueToken(s.ID)
	if err != nil {
		h.manager.Delete(s.ID)
		slog.Error("issue token", "session", s.ID, "error", err)
		asset.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	asset.WriteJSON(w, http.StatusCreated, createResponse{Session: s.Info(), Token: token})
}

func (h *Handler) readPDF(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return "", nil, fmt.Errorf("file too large (max %dMB)", h.maxUpload>>20)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.New("missing file field")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	asset.WriteJSON(w, http.StatusOK, s.Info())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Delete(mux.Vars(r)["sessionId"]) {
		asset.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /sessions/{sessionId}/images. With ?pending=1
// the image waits for a click with the image tool instead of being placed.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	img, err := asset.ReadUpload(w, r, h.maxUpload)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, asset.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		asset.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	pending := r.URL.Query().Get("pending") != ""
	id, err := s.AddImage(img, pending)
	if err != nil {
		asset.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	resp := asset.Response(img, fmt.Sprintf("/sessions/%s/assets", s.ID))
	resp.Overlay = int64(id)
	asset.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Asset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	img, found := s.Assets().Lookup(mux.Vars(r)["assetId"])
	if !found {
		http.NotFound(w, r)
		return
	}
	asset.Serve(w, img)
}

// Preview handles GET /sessions/{sessionId}/preview.png. Without query
// parameters it shows the current view; ?page=&scale= pick another.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, scale := 0, 1.0
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			asset.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page"})
			return
		}
		page = n
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			asset.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid scale"})
			return
		}
		scale = f
	}

	img, err := s.Preview(r.Context(), page, scale)
	h.writePNG(w, img, err)
}

func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(mux.Vars(r)["page"])
	img, err := s.Thumbnail(r.Context(), page)
	h.writePNG(w, img, err)
}

func (h *Handler) writePNG(w http.ResponseWriter, img image.Image, err error) {
	if err != nil {
		if errors.Is(err, render.ErrNoPage) || errors.Is(err, document.ErrInvalidPage) {
			asset.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "page not found"})
			return
		}
		slog.Error("render preview", "error", err)
		asset.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		slog.Error("encode preview", "error", err)
		asset.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *Handler) session(r *http.Request) (*Session, error) {
	id := mux.Vars(r)["sessionId"]
	if err := typeid.Validate(id, typeid.PrefixSession); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return h.manager.Get(id)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, err := h.session(r)
	if err != nil {
		asset.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return s, true
}
