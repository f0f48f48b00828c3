package document

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrNotFound    = errors.New("overlay not found")
	ErrInvalidPage = errors.New("invalid page")
)

// Limits are the minimum sizes the store enforces on add and update.
type Limits struct {
	MinBoxSize float64
	MinRadius  float64
}

func DefaultLimits() Limits {
	return Limits{MinBoxSize: 20, MinRadius: 10}
}

// Snapshot is a deep copy of every page's overlays.
type Snapshot map[int][]Overlay

// Clone returns an independent copy of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for page, list := range s {
		if len(list) == 0 {
			continue
		}
		out[page] = cloneList(list)
	}
	return out
}

// Count returns the number of overlays across all pages.
func (s Snapshot) Count() int {
	n := 0
	for _, list := range s {
		n += len(list)
	}
	return n
}

// Store holds the overlays of one document, per page in z-order. Later
// entries paint on top. Ids come from a counter that only ever grows, so
// restoring an older snapshot never hands out an id twice.
type Store struct {
	pages  map[int][]Overlay
	nextID ID
	limits Limits
}

func NewStore(limits Limits) *Store {
	return &Store{
		pages:  make(map[int][]Overlay),
		nextID: 1,
		limits: limits,
	}
}

func (s *Store) Limits() Limits {
	return s.limits
}

// Add stores a copy of o on page, assigns it a fresh id, and returns the id.
func (s *Store) Add(page int, o Overlay) (ID, error) {
	if page < 1 {
		return 0, fmt.Errorf("add to page %d: %w", page, ErrInvalidPage)
	}
	if o == nil {
		return 0, errors.New("add: nil overlay")
	}
	c := o.Clone()
	id := s.nextID
	s.nextID++
	c.setID(id)
	c.clamp(s.limits)
	s.pages[page] = append(s.pages[page], c)
	return id, nil
}

// Update applies p to the overlay with id on page.
func (s *Store) Update(page int, id ID, p Patch) error {
	i := s.index(page, id)
	if i < 0 {
		return fmt.Errorf("update %d on page %d: %w", id, page, ErrNotFound)
	}
	o := s.pages[page][i]
	o.apply(p)
	o.clamp(s.limits)
	return nil
}

// Replace swaps the stored overlay carrying o's id for a copy of o.
func (s *Store) Replace(page int, o Overlay) error {
	i := s.index(page, o.OverlayID())
	if i < 0 {
		return fmt.Errorf("replace %d on page %d: %w", o.OverlayID(), page, ErrNotFound)
	}
	c := o.Clone()
	c.clamp(s.limits)
	s.pages[page][i] = c
	return nil
}

// Remove deletes the overlay with id from page. It reports whether
// anything was removed.
func (s *Store) Remove(page int, id ID) bool {
	i := s.index(page, id)
	if i < 0 {
		return false
	}
	s.pages[page] = slices.Delete(s.pages[page], i, i+1)
	if len(s.pages[page]) == 0 {
		delete(s.pages, page)
	}
	return true
}

// Get returns copies of page's overlays in z-order.
func (s *Store) Get(page int) []Overlay {
	return cloneList(s.pages[page])
}

// Find returns a copy of the overlay with id on page.
func (s *Store) Find(page int, id ID) (Overlay, bool) {
	i := s.index(page, id)
	if i < 0 {
		return nil, false
	}
	return s.pages[page][i].Clone(), true
}

// Locate returns the page holding id.
func (s *Store) Locate(id ID) (int, bool) {
	for page := range s.pages {
		if s.index(page, id) >= 0 {
			return page, true
		}
	}
	return 0, false
}

func (s *Store) ClearPage(page int) int {
	n := len(s.pages[page])
	delete(s.pages, page)
	return n
}

func (s *Store) Clear() {
	clear(s.pages)
}

// Count returns the number of overlays across all pages.
func (s *Store) Count() int {
	n := 0
	for _, list := range s.pages {
		n += len(list)
	}
	return n
}

// Pages returns the pages that hold at least one overlay, ascending.
func (s *Store) Pages() []int {
	return slices.Sorted(maps.Keys(s.pages))
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot(s.pages).Clone()
}

// Restore replaces the store's contents with a copy of snap. The id
// counter is never moved backwards.
func (s *Store) Restore(snap Snapshot) {
	s.pages = snap.Clone()
	for _, list := range s.pages {
		for _, o := range list {
			if o.OverlayID() >= s.nextID {
				s.nextID = o.OverlayID() + 1
			}
		}
	}
}

func (s *Store) index(page int, id ID) int {
	return slices.IndexFunc(s.pages[page], func(o Overlay) bool {
		return o.OverlayID() == id
	})
}

func cloneList(list []Overlay) []Overlay {
	out := make([]Overlay, len(list))
	for i, o := range list {
		out[i] = o.Clone()
	}
	return out
}
