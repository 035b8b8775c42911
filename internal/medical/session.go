package medical

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ali-rahimi/medibot/internal/store"
)

// SessionStore is the persistence contract the pipeline needs. Both the
// postgres store and the in-memory store satisfy it.
type SessionStore interface {
	CreateSession(ctx context.Context, userID, title string) (store.Session, error)
	GetSession(ctx context.Context, id string) (store.Session, error)
	ListSessions(ctx context.Context, userID string) ([]store.SessionSummary, error)
	DeleteSession(ctx context.Context, id string) error
	AppendTurn(ctx context.Context, t store.Turn) (store.Turn, error)
	ListTurns(ctx context.Context, sessionID string) ([]store.Turn, error)
}

// Owned is anything carrying an owning-user reference. Keeping the
// ownership check behind this capability lets the access-denied/not-found
// precedence rule apply uniformly across entity types.
type Owned interface {
	OwnerID() string
}

// authorizeOwner enforces ownership. It must run before any data from the
// entity is used or returned, so a mismatched caller learns nothing beyond
// the denial itself.
func authorizeOwner(userID string, entity Owned) error {
	if entity.OwnerID() != userID {
		return ErrSessionAccessDenied
	}
	return nil
}

const defaultSessionTitle = "New Chat Session"

// SessionManager owns session resolution, creation and ownership
// enforcement on top of a SessionStore.
type SessionManager struct {
	store SessionStore
}

func NewSessionManager(st SessionStore) *SessionManager {
	return &SessionManager{store: st}
}

// ResolveOrCreate returns the session a chat request addresses. With no
// session ID it creates a fresh session owned by userID, titled from the
// hint, the first message, or the literal default, in that order. With an
// ID it loads and authorizes: a missing record is ErrSessionNotFound, a
// foreign owner is ErrSessionAccessDenied.
func (m *SessionManager) ResolveOrCreate(ctx context.Context, userID, sessionID, titleHint, message string) (store.Session, error) {
	if sessionID == "" {
		title := strings.TrimSpace(titleHint)
		if title == "" {
			title = deriveTitle(message)
		}
		if title == "" {
			title = defaultSessionTitle
		}
		sess, err := m.store.CreateSession(ctx, userID, title)
		if err != nil {
			return store.Session{}, fmt.Errorf("create session: %w", err)
		}
		return sess, nil
	}
	return m.GetOwned(ctx, userID, sessionID)
}

// GetOwned loads a session by ID and enforces ownership before returning
// any of its data. Shared by the chat pipeline and the read-only session
// endpoints.
func (m *SessionManager) GetOwned(ctx context.Context, userID, sessionID string) (store.Session, error) {
	sess, err := m.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return store.Session{}, processingErr("load session %s: %w", sessionID, err)
	}
	if err := authorizeOwner(userID, sess); err != nil {
		return store.Session{}, err
	}
	return sess, nil
}

// History returns the session's turns in chronological order.
func (m *SessionManager) History(ctx context.Context, sessionID string) ([]store.Turn, error) {
	return m.store.ListTurns(ctx, sessionID)
}

// List returns the caller's sessions, most recently updated first.
func (m *SessionManager) List(ctx context.Context, userID string) ([]store.SessionSummary, error) {
	return m.store.ListSessions(ctx, userID)
}

// Delete removes an owned session and, through the store, its turns.
func (m *SessionManager) Delete(ctx context.Context, userID, sessionID string) error {
	if _, err := m.GetOwned(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := m.store.DeleteSession(ctx, sessionID); err != nil {
		return processingErr("delete session %s: %w", sessionID, err)
	}
	return nil
}

// Create makes a session with an explicit title (or the default) outside
// the chat flow.
func (m *SessionManager) Create(ctx context.Context, userID, title string) (store.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSessionTitle
	}
	sess, err := m.store.CreateSession(ctx, userID, title)
	if err != nil {
		return store.Session{}, processingErr("create session: %w", err)
	}
	return sess, nil
}

const (
	titleMaxLen     = 50
	titleTruncateAt = 47
)

// deriveTitle builds a session title from the first message: alphanumeric
// and spaces only, trimmed, truncated to 47 characters plus an ellipsis
// when the cleaned text exceeds 50.
func deriveTitle(message string) string {
	var b strings.Builder
	for _, r := range message {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	title := strings.TrimSpace(b.String())
	if len(title) > titleMaxLen {
		title = title[:titleTruncateAt] + "..."
	}
	return title
}
