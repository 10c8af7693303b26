package store

import (
	"context"
	"sync"

	"deepchat/internal/models"
)

// Memory is the process-local backend. Each call holds the lock for its duration only,
// so concurrent exchanges on one session may interleave.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]models.Turn
	files    map[string][]models.UploadedFile
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string][]models.Turn),
		files:    make(map[string][]models.UploadedFile),
	}
}

func (m *Memory) History(_ context.Context, sessionID string) ([]models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history, ok := m.sessions[sessionID]
	if !ok {
		history = []models.Turn{}
		m.sessions[sessionID] = history
	}
	return cloneTurns(history), nil
}

func (m *Memory) AppendTurns(_ context.Context, sessionID string, turns ...models.Turn) error {
	m.mu.Lock()
	m.sessions[sessionID] = append(m.sessions[sessionID], turns...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// HasSession reports whether sessionID currently has a history entry.
func (m *Memory) HasSession(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[sessionID]
	return ok
}

func (m *Memory) Files(_ context.Context, sessionID string) ([]models.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	files := m.files[sessionID]
	out := make([]models.UploadedFile, len(files))
	copy(out, files)
	return out, nil
}

func (m *Memory) AddFiles(_ context.Context, sessionID string, files ...models.UploadedFile) error {
	m.mu.Lock()
	if _, ok := m.files[sessionID]; !ok {
		m.files[sessionID] = []models.UploadedFile{}
	}
	m.files[sessionID] = append(m.files[sessionID], files...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

func cloneTurns(turns []models.Turn) []models.Turn {
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out
}
