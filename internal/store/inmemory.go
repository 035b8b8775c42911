package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store equivalent used by tests and local
// development. It honours the same contract as the postgres store,
// including the turn-append/updated_at coupling.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]memUser // keyed by email
	sessions map[string]Session
	turns    map[string][]Turn // keyed by session ID
}

type memUser struct {
	id   string
	hash string
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]memUser),
		sessions: make(map[string]Session),
		turns:    make(map[string][]Turn),
	}
}

func (m *Memory) CreateUser(_ context.Context, email, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[email] = memUser{id: uuid.NewString(), hash: hash}
	return nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	if !ok {
		return "", "", ErrNotFound
	}
	return u.id, u.hash, nil
}

func (m *Memory) CreateSession(_ context.Context, userID, title string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[sess.ID] = sess
	return sess, nil
}

func (m *Memory) GetSession(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *Memory) ListSessions(_ context.Context, userID string) ([]SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []SessionSummary
	for _, sess := range m.sessions {
		if sess.UserID != userID {
			continue
		}
		sum := SessionSummary{Session: sess, MessageCount: len(m.turns[sess.ID])}
		if n := len(m.turns[sess.ID]); n > 0 {
			sum.LastMessage = m.turns[sess.ID][n-1].UserMessage
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.turns, id)
	return nil
}

func (m *Memory) AppendTurn(_ context.Context, t Turn) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[t.SessionID]
	if !ok {
		return Turn{}, ErrNotFound
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	m.turns[t.SessionID] = append(m.turns[t.SessionID], t)
	if t.CreatedAt.After(sess.UpdatedAt) {
		sess.UpdatedAt = t.CreatedAt
		m.sessions[t.SessionID] = sess
	}
	return t, nil
}

func (m *Memory) ListTurns(_ context.Context, sessionID string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.turns[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}
