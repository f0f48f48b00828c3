// Package session keeps the open documents of the server: the source PDF
// bytes, the engine editing them and the images uploaded for them.
package session

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/engine"
	"github.com/inamate/pagemark/internal/export"
	"github.com/inamate/pagemark/internal/pdf"
	"github.com/inamate/pagemark/internal/render"
)

// Session is one opened PDF. All engine access goes through Do, which
// serialises callers; the engine itself is single-threaded.
type Session struct {
	ID      string
	Created time.Time

	name   string
	source []byte
	pages  render.PageRenderer
	assets *asset.Library

	mu       sync.Mutex
	engine   *engine.Engine
	lastUsed time.Time
	now      func() time.Time
}

// Info is the JSON view of a session.
type Info struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Pages   int          `json:"pages"`
	Created time.Time    `json:"created"`
	State   engine.State `json:"state"`
}

// Do runs fn with exclusive access to the engine.
func (s *Session) Do(fn func(e *engine.Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
	fn(s.engine)
}

func (s *Session) Name() string          { return s.name }
func (s *Session) Assets() *asset.Library { return s.assets }

func (s *Session) Info() Info {
	info := Info{ID: s.ID, Name: s.name, Created: s.Created}
	s.Do(func(e *engine.Engine) {
		info.Pages = e.PageCount()
		info.State = e.State()
	})
	return info
}

// Export writes the annotated document. The overlays are copied under the
// lock; the PDF work runs without it.
func (s *Session) Export() ([]byte, error) {
	var snap document.Snapshot
	s.Do(func(e *engine.Engine) { snap = e.Snapshot() })
	return export.Export(pdf.NewWriter(), s.source, snap, s.assets)
}

// Preview renders page at scale with its overlays. A page of 0 means the
// current page at the current scale, selection included.
func (s *Session) Preview(ctx context.Context, page int, scale float64) (image.Image, error) {
	var cmds []engine.DrawCommand
	s.Do(func(e *engine.Engine) {
		if page == 0 {
			page, scale = e.Page(), e.Scale()
			cmds = e.DrawCommands()
			return
		}
		cmds = e.PageDrawCommands(page, scale)
	})
	return render.Page(ctx, s.pages, page, scale, cmds, s.assets)
}

func (s *Session) Thumbnail(ctx context.Context, page int) (image.Image, error) {
	var overlays []document.Overlay
	s.Do(func(e *engine.Engine) { overlays = e.Overlays(page) })
	return render.Thumbnail(ctx, s.pages, page, overlays, s.assets)
}

// AddImage stores img in the session library and hands it to the engine:
// placed at the default spot, or armed for the next click with the image
// tool when pending is set.
func (s *Session) AddImage(img *asset.Image, pending bool) (document.ID, error) {
	s.assets.Add(img)
	ref := engine.ImageRef{
		Asset:  img.ID,
		Format: img.Format,
		Width:  float64(img.Width),
		Height: float64(img.Height),
	}

	var (
		id  document.ID
		err error
	)
	s.Do(func(e *engine.Engine) {
		if pending {
			err = e.SetPendingImage(ref)
			return
		}
		id, err = e.InsertImage(ref)
	})
	if err != nil {
		s.assets.Remove(img.ID)
	}
	return id, err
}

func (s *Session) idleSince(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed.Before(t)
}
