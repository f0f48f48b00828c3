package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/engine"
	"github.com/inamate/pagemark/internal/pdf"
)

func makePDF(t *testing.T, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Text(72, 72, "page")
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("create test pdf: %v", err)
	}
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixedTokens struct{}

func (fixedTokens) IssueToken(id string) (string, error) { return "token-" + id, nil }

func TestManagerOpen(t *testing.T) {
	m := NewManager(engine.DefaultOptions(), 0)
	s, err := m.Open("doc.pdf", makePDF(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(s.ID, "sess_") {
		t.Errorf("id = %q, want sess_ prefix", s.ID)
	}

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	info := s.Info()
	if info.Pages != 3 || info.State.Page != 1 || info.Name != "doc.pdf" {
		t.Errorf("info = %+v", info)
	}

	if !m.Delete(s.ID) || m.Delete(s.ID) {
		t.Error("Delete should succeed exactly once")
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: %v, want ErrNotFound", err)
	}
}

func TestManagerRejectsGarbage(t *testing.T) {
	m := NewManager(engine.DefaultOptions(), 0)
	if _, err := m.Open("x.pdf", []byte("not a pdf")); err == nil {
		t.Error("Open accepted garbage")
	}
	if _, err := m.Open("empty.pdf", nil); !errors.Is(err, pdf.ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestSweep(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(engine.DefaultOptions(), time.Hour)
	m.now = func() time.Time { return clock }

	idle, err := m.Open("idle.pdf", makePDF(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	busy, err := m.Open("busy.pdf", makePDF(t, 1))
	if err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(45 * time.Minute)
	busy.Do(func(e *engine.Engine) { e.ZoomIn() })
	clock = clock.Add(30 * time.Minute)

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if _, err := m.Get(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle session survived: %v", err)
	}
	if _, err := m.Get(busy.ID); err != nil {
		t.Errorf("busy session removed: %v", err)
	}
}

func TestSessionExport(t *testing.T) {
	m := NewManager(engine.DefaultOptions(), 0)
	s, err := m.Open("doc.pdf", makePDF(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	s.Do(func(e *engine.Engine) {
		e.AddOverlay(&document.Rect{Box: document.Box{X: 50, Y: 50, Width: 100, Height: 40}, Stroke: "#FF0000", StrokeWidth: 2, Fill: document.Transparent})
		e.SetPage(2)
		e.AddOverlay(&document.Text{X: 72, Y: 100, Content: "Approved", Font: "Arial", Size: 16, Color: "#000000"})
	})

	out, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}
	sizes, err := pdf.Inspect(out)
	if err != nil {
		t.Fatalf("inspect export: %v", err)
	}
	if len(sizes) != 2 {
		t.Errorf("exported %d pages, want 2", len(sizes))
	}
}

func TestAddImage(t *testing.T) {
	m := NewManager(engine.DefaultOptions(), 0)
	s, err := m.Open("doc.pdf", makePDF(t, 1))
	if err != nil {
		t.Fatal(err)
	}

	img := decodePNG(t, pngBytes(t, 400, 100))
	id, err := s.AddImage(img, false)
	if err != nil {
		t.Fatal(err)
	}

	var got document.Overlay
	s.Do(func(e *engine.Engine) { got = e.Overlays(1)[0] })
	want := &document.Image{
		Base:   document.Base{ID: id},
		Box:    document.Box{X: 100, Y: 100, Width: 200, Height: 50},
		Asset:  img.ID,
		Format: "png",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("placed image (-want +got):\n%s", diff)
	}
	if _, ok := s.Assets().Lookup(img.ID); !ok {
		t.Error("asset not stored")
	}
}

func multipartBody(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + name + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestHandlerFlow(t *testing.T) {
	m := NewManager(engine.DefaultOptions(), 0)
	r := mux.NewRouter()
	NewHandler(m, fixedTokens{}, 10<<20).Register(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	body, ct := multipartBody(t, "contract.pdf", "application/pdf", makePDF(t, 2))
	resp, err := http.Post(srv.URL+"/sessions", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	var created createResponse
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if created.Token != "token-"+created.Session.ID || created.Session.Pages != 2 {
		t.Fatalf("created = %+v", created)
	}
	base := srv.URL + "/sessions/" + created.Session.ID

	body, ct = multipartBody(t, "logo.png", "image/png", pngBytes(t, 80, 40))
	resp, err = http.Post(base+"/images", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	var up struct {
		ID      string `json:"id"`
		URL     string `json:"url"`
		Overlay int64  `json:"overlay"`
	}
	json.NewDecoder(resp.Body).Decode(&up)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || up.Overlay == 0 {
		t.Fatalf("upload status = %d, body %+v", resp.StatusCode, up)
	}

	resp, err = http.Get(srv.URL + up.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("asset: status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(base + "/pages/2/thumbnail.png")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("thumbnail is not a png: %v", err)
	}
	if cfg.Width != 123 || cfg.Height != 159 {
		t.Errorf("thumbnail = %dx%d, want 123x159", cfg.Width, cfg.Height)
	}

	resp, err = http.Get(base + "/pages/9/thumbnail.png")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing page status = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Post(base+"/export", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="edited-contract.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}

	req, _ := http.NewRequest(http.MethodDelete, base, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp, err = http.Get(base)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", resp.StatusCode)
	}
}

func TestCreateRejectsBadPDF(t *testing.T) {
	r := mux.NewRouter()
	NewHandler(NewManager(engine.DefaultOptions(), 0), fixedTokens{}, 1<<20).Register(r)

	body, ct := multipartBody(t, "x.pdf", "application/pdf", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/sessions", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func decodePNG(t *testing.T, data []byte) *asset.Image {
	t.Helper()
	img, err := asset.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	return img
}
