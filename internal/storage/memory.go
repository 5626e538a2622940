package storage

import (
	"context"
	"strings"
	"sync"
)

const memoryScheme = "memory://"

// InMemory keeps objects in a map. Used by tests and runs without a bucket
// or upload directory.
type InMemory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	mimeType string
}

func NewInMemory() *InMemory {
	return &InMemory{objects: make(map[string]memoryObject)}
}

func (s *InMemory) Put(_ context.Context, data []byte, mimeType, folder string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}
	key, err := objectKey(folder, mimeType)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: append([]byte(nil), data...), mimeType: mimeType}
	return memoryScheme + key, nil
}

func (s *InMemory) Delete(_ context.Context, url string) (bool, error) {
	key, ok := strings.CutPrefix(url, memoryScheme)
	if !ok {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; !exists {
		return false, nil
	}
	delete(s.objects, key)
	return true, nil
}

// Get returns a copy of the stored bytes and mime type.
func (s *InMemory) Get(url string) ([]byte, string, bool) {
	key, ok := strings.CutPrefix(url, memoryScheme)
	if !ok {
		return nil, "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, exists := s.objects[key]
	if !exists {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.mimeType, true
}

func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
