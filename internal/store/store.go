package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested record does not exist.
// Callers should test with errors.Is rather than comparing driver errors.
var ErrNotFound = errors.New("record not found")

// Session is a persisted, user-owned conversation thread.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerID reports the owning user, satisfying ownership checks without
// exposing the rest of the record.
func (s Session) OwnerID() string { return s.UserID }

// Turn is one user-message/bot-response exchange. Turns are append-only:
// once written they are never updated or deleted individually.
type Turn struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	UserMessage     string    `json:"user_message"`
	BotResponse     string    `json:"bot_response"`
	ContextUsed     string    `json:"context_used,omitempty"`
	ConfidenceScore float64   `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// SessionSummary is a Session plus listing metadata for the sessions index.
type SessionSummary struct {
	Session
	MessageCount int    `json:"message_count"`
	LastMessage  string `json:"last_message"`
}

type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a postgres connection pool and verifies connectivity.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return
}

// Session operations
func (s *Store) CreateSession(ctx context.Context, userID, title string) (Session, error) {
	sess := Session{UserID: userID, Title: title}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO chat_sessions (user_id, title) VALUES ($1,$2) RETURNING id, created_at, updated_at`,
		userID, title).Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM chat_sessions WHERE id=$1`, id).
		Scan(&sess.ID, &sess.UserID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, userID string) ([]SessionSummary, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT s.id, s.user_id, s.title, s.created_at, s.updated_at,
       (SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = s.id),
       COALESCE((SELECT m.user_message FROM chat_messages m WHERE m.session_id = s.id ORDER BY m.created_at DESC, m.id DESC LIMIT 1), '')
FROM chat_sessions s WHERE s.user_id=$1 ORDER BY s.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.Title, &sum.CreatedAt, &sum.UpdatedAt, &sum.MessageCount, &sum.LastMessage); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteSession removes a session; its turns go with it via ON DELETE CASCADE.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendTurn inserts a turn and bumps the owning session's updated_at to the
// turn's creation time inside one transaction, so a reader never observes a
// session older than its newest turn.
func (s *Store) AppendTurn(ctx context.Context, t Turn) (Turn, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Turn{}, fmt.Errorf("append turn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO chat_messages (session_id, user_message, bot_response, context_used, confidence_score)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
		t.SessionID, t.UserMessage, t.BotResponse, t.ContextUsed, t.ConfidenceScore).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Turn{}, fmt.Errorf("append turn: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at=$1 WHERE id=$2 AND updated_at < $1`,
		t.CreatedAt, t.SessionID); err != nil {
		return Turn{}, fmt.Errorf("touch session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Turn{}, fmt.Errorf("append turn commit: %w", err)
	}
	return t, nil
}

func (s *Store) ListTurns(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, session_id, user_message, bot_response, context_used, confidence_score, created_at
		 FROM chat_messages WHERE session_id=$1 ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserMessage, &t.BotResponse, &t.ContextUsed, &t.ConfidenceScore, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
