package tasks

import (
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// TextStore keeps extracted texts by file id so they can be summarized again.
// With maxEntries > 0 the least recently used text is evicted first.
type TextStore struct {
	mu    sync.RWMutex
	texts map[string]string

	bounded *lru.Cache[string, string]
}

func NewTextStore(maxEntries int) *TextStore {
	if maxEntries > 0 {
		cache, err := lru.New[string, string](maxEntries)
		if err == nil {
			return &TextStore{bounded: cache}
		}
	}
	return &TextStore{texts: make(map[string]string)}
}

// Put stores text under a new file id.
func (s *TextStore) Put(text string) string {
	id := uuid.NewString()
	if s.bounded != nil {
		s.bounded.Add(id, text)
		return id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[id] = text
	return id
}

func (s *TextStore) Get(fileID string) (string, bool) {
	if s.bounded != nil {
		return s.bounded.Get(fileID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.texts[fileID]
	return text, ok
}

func (s *TextStore) Len() int {
	if s.bounded != nil {
		return s.bounded.Len()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.texts)
}
