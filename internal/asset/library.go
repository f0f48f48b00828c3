package asset

import "sync"

// Library holds the images of one session, keyed by asset id.
type Library struct {
	mu     sync.RWMutex
	images map[string]*Image
}

func NewLibrary() *Library {
	return &Library{images: make(map[string]*Image)}
}

func (l *Library) Add(img *Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[img.ID] = img
}

func (l *Library) Lookup(id string) (*Image, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	img, ok := l.images[id]
	return img, ok
}

func (l *Library) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.images[id]
	delete(l.images, id)
	return ok
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.images)
}
