package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ali-rahimi/medibot/internal/medical"
	"github.com/ali-rahimi/medibot/internal/runtime"
	"github.com/ali-rahimi/medibot/internal/store"
)

type stubProcessor struct {
	result medical.ChatResult
	err    error
	gotReq medical.ChatRequest
	gotUID string
}

func (s *stubProcessor) ProcessChat(_ context.Context, userID string, req medical.ChatRequest) (medical.ChatResult, error) {
	s.gotUID = userID
	s.gotReq = req
	return s.result, s.err
}

var testSecret = []byte("test-secret")

func newChatServer(t *testing.T, proc ChatProcessor, mem *store.Memory) *echo.Echo {
	t.Helper()
	e := echo.New()
	h := &ChatHandler{Proc: proc, Sessions: medical.NewSessionManager(mem)}
	h.Register(e.Group("/api/chat"), testSecret)
	return e
}

func authedRequest(t *testing.T, method, target, body, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	tok, err := runtime.SignJWT(userID, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func TestChatRequiresAuth(t *testing.T) {
	e := newChatServer(t, &stubProcessor{}, store.NewMemory())
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestChatForwardsToProcessor(t *testing.T) {
	proc := &stubProcessor{result: medical.ChatResult{
		SessionID:       "s1",
		BotResponse:     "answer",
		ConfidenceScore: 0.8,
		IsNewSession:    true,
	}}
	e := newChatServer(t, proc, store.NewMemory())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat", `{"message":"I have a headache","session_title":"Headaches"}`, "u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if proc.gotUID != "u1" {
		t.Fatalf("user id = %q", proc.gotUID)
	}
	if proc.gotReq.Message != "I have a headache" || proc.gotReq.SessionTitle != "Headaches" {
		t.Fatalf("request = %+v", proc.gotReq)
	}
	var res medical.ChatResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.SessionID != "s1" || !res.IsNewSession {
		t.Fatalf("result = %+v", res)
	}
}

func TestChatErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &medical.ValidationError{Reason: "message is required"}, http.StatusBadRequest},
		{"not found", medical.ErrSessionNotFound, http.StatusNotFound},
		{"access denied", medical.ErrSessionAccessDenied, http.StatusForbidden},
		{"processing", &medical.ProcessingError{}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newChatServer(t, &stubProcessor{err: tc.err}, store.NewMemory())
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat", `{"message":"x"}`, "u1"))
			if rec.Code != tc.code {
				t.Fatalf("status = %d, want %d", rec.Code, tc.code)
			}
		})
	}
}

func TestSessionEndpoints(t *testing.T) {
	mem := store.NewMemory()
	e := newChatServer(t, &stubProcessor{}, mem)

	// Create.
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/chat/sessions", `{"title":"Allergies"}`, "u1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body.String())
	}
	var created SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Title != "Allergies" {
		t.Fatalf("created = %+v", created)
	}

	// List shows it with zero messages.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/chat/sessions", "", "u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []SessionSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].MessageCount != 0 {
		t.Fatalf("list = %+v", list)
	}

	// Another user cannot read or delete it.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/chat/sessions/"+created.ID, "", "u2"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign get status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/api/chat/sessions/"+created.ID, "", "u2"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete status = %d", rec.Code)
	}

	// Messages endpoint returns stored turns for the owner.
	if _, err := mem.AppendTurn(context.Background(), store.Turn{
		SessionID:       created.ID,
		UserMessage:     "q",
		BotResponse:     "a",
		ConfidenceScore: 0.7,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/chat/sessions/"+created.ID+"/messages", "", "u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("messages status = %d", rec.Code)
	}
	var turns []TurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &turns); err != nil {
		t.Fatalf("decode turns: %v", err)
	}
	if len(turns) != 1 || turns[0].BotResponse != "a" {
		t.Fatalf("turns = %+v", turns)
	}

	// Owner delete; a second read is 404.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/api/chat/sessions/"+created.ID, "", "u1"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/chat/sessions/"+created.ID, "", "u1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("post-delete get status = %d", rec.Code)
	}
}
