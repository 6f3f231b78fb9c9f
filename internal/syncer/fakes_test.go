package syncer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/sse"
)

// memStore is an in-memory storage.Provider that counts writes.
type memStore struct {
	mu       sync.Mutex
	files    map[string]string
	writes   int
	failPath string
}

func newMemStore() *memStore { return &memStore{files: map[string]string{}} }

func (m *memStore) Exists(p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[p]; ok {
		return true, nil
	}
	for k := range m.files {
		if strings.HasPrefix(k, p+"/") {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) List(string) ([]models.NoteMetadata, error) { return nil, nil }

func (m *memStore) ListPaths(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.files {
		if strings.HasPrefix(k, dir+"/") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) Read(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.files[p]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return []byte(v), nil
}

func (m *memStore) Write(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == m.failPath {
		return errors.New("disk full")
	}
	m.writes++
	m.files[p] = string(content)
	return nil
}

func (m *memStore) Delete(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	return nil
}

func (m *memStore) Move(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[newPath] = m.files[oldPath]
	delete(m.files, oldPath)
	return nil
}

func (m *memStore) RemoveDir(string) error { return nil }

type staticToken struct {
	token string
	err   error
}

func (s staticToken) Token(string) (string, error) { return s.token, s.err }

type fakeFetcher struct {
	mu        sync.Mutex
	docs      []models.Document
	err       error
	calls     int
	lastLimit int
	// block, when set, holds FetchDocuments until closed.
	block chan struct{}
}

func (f *fakeFetcher) FetchDocuments(_ context.Context, _ string, limit int) ([]models.Document, error) {
	f.mu.Lock()
	f.calls++
	f.lastLimit = limit
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.docs, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	notes  []string
}

func (r *recordingPublisher) Publish(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Type)
}

func (r *recordingPublisher) PublishNoteEvent(kind, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, kind+":"+path)
}

type countingCommitter struct{ messages []string }

func (c *countingCommitter) Commit(msg string) error {
	c.messages = append(c.messages, msg)
	return nil
}
