package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestCreateSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	now := time.Now()
	query := regexp.QuoteMeta(`INSERT INTO chat_sessions (user_id, title) VALUES ($1,$2) RETURNING id, created_at, updated_at`)
	mock.ExpectQuery(query).
		WithArgs("user-1", "Flu symptoms").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("sess-1", now, now))

	sess, err := st.CreateSession(context.Background(), "user-1", "Flu symptoms")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID != "sess-1" || sess.UserID != "user-1" || sess.Title != "Flu symptoms" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	query := regexp.QuoteMeta(`SELECT id, user_id, title, created_at, updated_at FROM chat_sessions WHERE id=$1`)
	mock.ExpectQuery(query).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "created_at", "updated_at"}))

	if _, err := st.GetSession(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendTurnTouchesSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	created := time.Now()

	mock.ExpectBegin()
	insert := regexp.QuoteMeta(`INSERT INTO chat_messages (session_id, user_message, bot_response, context_used, confidence_score)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`)
	mock.ExpectQuery(insert).
		WithArgs("sess-1", "hello", "hi there", "", 0.5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("turn-1", created))
	touch := regexp.QuoteMeta(`UPDATE chat_sessions SET updated_at=$1 WHERE id=$2 AND updated_at < $1`)
	mock.ExpectExec(touch).WithArgs(created, "sess-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	turn, err := st.AppendTurn(context.Background(), Turn{
		SessionID:       "sess-1",
		UserMessage:     "hello",
		BotResponse:     "hi there",
		ConfidenceScore: 0.5,
	})
	if err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	if turn.ID != "turn-1" || !turn.CreatedAt.Equal(created) {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendTurnRollsBackOnTouchFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	created := time.Now()

	mock.ExpectBegin()
	insert := regexp.QuoteMeta(`INSERT INTO chat_messages (session_id, user_message, bot_response, context_used, confidence_score)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`)
	mock.ExpectQuery(insert).
		WithArgs("sess-1", "hello", "hi there", "", 0.5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("turn-1", created))
	touch := regexp.QuoteMeta(`UPDATE chat_sessions SET updated_at=$1 WHERE id=$2 AND updated_at < $1`)
	mock.ExpectExec(touch).WithArgs(created, "sess-1").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	if _, err := st.AppendTurn(context.Background(), Turn{
		SessionID:       "sess-1",
		UserMessage:     "hello",
		BotResponse:     "hi there",
		ConfidenceScore: 0.5,
	}); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sess, err := m.CreateSession(ctx, "user-1", "New Chat Session")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := m.GetSession(ctx, sess.ID); err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if _, err := m.GetSession(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	turn, err := m.AppendTurn(ctx, Turn{SessionID: sess.ID, UserMessage: "q", BotResponse: "a", ConfidenceScore: 0.7})
	if err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}
	got, err := m.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UpdatedAt.Before(turn.CreatedAt) {
		t.Fatalf("session updated_at %v predates turn %v", got.UpdatedAt, turn.CreatedAt)
	}

	sums, err := m.ListSessions(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sums) != 1 || sums[0].MessageCount != 1 || sums[0].LastMessage != "q" {
		t.Fatalf("unexpected summaries: %+v", sums)
	}

	if err := m.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := m.GetSession(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
