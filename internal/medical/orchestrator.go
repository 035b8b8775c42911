package medical

import (
	"context"
	"log"
	"time"
	"unicode/utf8"

	"github.com/ali-rahimi/medibot/internal/locks"
	"github.com/ali-rahimi/medibot/internal/store"
	"github.com/ali-rahimi/medibot/internal/telemetry"
)

const maxMessageLen = 1000

// ChatRequest is one incoming user message. SessionID empty means "start a
// new session"; SessionTitle is an optional title hint for that case.
type ChatRequest struct {
	Message      string `json:"message"`
	SessionID    string `json:"session_id,omitempty"`
	SessionTitle string `json:"session_title,omitempty"`
}

// ChatResult is the outcome of one processed message.
type ChatResult struct {
	SessionID        string    `json:"session_id,omitempty"`
	SessionTitle     string    `json:"session_title,omitempty"`
	UserMessage      string    `json:"user_message"`
	BotResponse      string    `json:"bot_response"`
	ConfidenceScore  float64   `json:"confidence_score"`
	SourceReferences []string  `json:"source_references"`
	Timestamp        time.Time `json:"timestamp"`
	IsNewSession     bool      `json:"is_new_session"`
}

// Generator is the external generation collaborator: one blocking
// completion call, no retries.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DocumentRetriever is what the orchestrator needs from retrieval;
// *Retriever satisfies it.
type DocumentRetriever interface {
	Search(ctx context.Context, query string) ([]RetrievedDocument, error)
}

// Orchestrator runs a user message through the full pipeline: emergency
// short-circuit, session resolution, retrieval, generation (or the
// deterministic fallback), scoring, enhancement, and persistence of the
// resulting turn.
type Orchestrator struct {
	sessions  *SessionManager
	retriever DocumentRetriever
	generator Generator
	locker    locks.Locker
	detector  EmergencyDetector
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

func NewOrchestrator(sessions *SessionManager, retriever DocumentRetriever, generator Generator, locker locks.Locker, tele *telemetry.Telemetry, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	if locker == nil {
		locker = locks.NewKeyedMutex()
	}
	return &Orchestrator{
		sessions:  sessions,
		retriever: retriever,
		generator: generator,
		locker:    locker,
		telemetry: tele,
		logger:    logger,
	}
}

// Sessions exposes the session manager for the read-only transport
// endpoints, which reuse its ownership check.
func (o *Orchestrator) Sessions() *SessionManager { return o.sessions }

// ProcessChat turns one user message into a stored, scored, safety-checked
// response. Retrieval and generation failures degrade to the fallback
// responder and never surface; session NotFound/AccessDenied and
// persistence failures do.
func (o *Orchestrator) ProcessChat(ctx context.Context, userID string, req ChatRequest) (ChatResult, error) {
	start := time.Now()

	if err := validateRequest(req); err != nil {
		o.telemetry.RecordChat(telemetry.OutcomeRejected, 0, time.Since(start))
		return ChatResult{}, err
	}

	if o.detector.Evaluate(req.Message) {
		return o.emergencyResult(ctx, userID, req, start), nil
	}

	sess, err := o.sessions.ResolveOrCreate(ctx, userID, req.SessionID, req.SessionTitle, req.Message)
	if err != nil {
		o.telemetry.RecordChat(telemetry.OutcomeRejected, 0, time.Since(start))
		return ChatResult{}, err
	}

	history, err := o.sessions.History(ctx, sess.ID)
	if err != nil {
		return ChatResult{}, processingErr("load history for session %s: %w", sess.ID, err)
	}

	botResponse, confidence, references, contextUsed, outcome := o.generate(ctx, req.Message, history)
	if ctx.Err() != nil {
		// Cancelled mid-flight: abandon without persisting a partial turn.
		return ChatResult{}, ctx.Err()
	}

	turn, err := o.persistTurn(ctx, store.Turn{
		SessionID:       sess.ID,
		UserMessage:     req.Message,
		BotResponse:     botResponse,
		ContextUsed:     contextUsed,
		ConfidenceScore: confidence,
	})
	if err != nil {
		return ChatResult{}, err
	}

	o.telemetry.RecordChat(outcome, confidence, time.Since(start))
	return ChatResult{
		SessionID:        sess.ID,
		SessionTitle:     sess.Title,
		UserMessage:      req.Message,
		BotResponse:      botResponse,
		ConfidenceScore:  confidence,
		SourceReferences: references,
		Timestamp:        turn.CreatedAt,
		IsNewSession:     req.SessionID == "",
	}, nil
}

// generate runs retrieval and generation and reports the final response
// text, confidence, references, the raw joined context for persistence
// (empty when nothing matched), and the telemetry outcome.
func (o *Orchestrator) generate(ctx context.Context, message string, history []store.Turn) (string, float64, []string, string, string) {
	docs, err := o.retriever.Search(ctx, message)
	if err != nil {
		o.logger.Printf("retrieval unavailable, serving fallback: %v", err)
		return FallbackResponse(message), fallbackConfidence, nil, "", telemetry.OutcomeFallback
	}

	var contextUsed string
	if len(docs) > 0 {
		contextUsed = JoinContext(docs)
	}

	prompt := ComposePrompt(message, contextUsed, FormatHistory(history))
	raw, err := o.generator.Complete(ctx, prompt)
	if err != nil {
		o.logger.Printf("generation failed, serving fallback: %v", err)
		return FallbackResponse(message), fallbackConfidence, nil, "", telemetry.OutcomeFallback
	}

	confidence := Score(docs)
	references := SourceReferences(docs)
	return EnhanceResponse(raw, confidence, references), confidence, references, contextUsed, telemetry.OutcomeAnswered
}

// persistTurn appends the turn under the per-session lock so concurrent
// writers to one session are serialized while other sessions proceed.
func (o *Orchestrator) persistTurn(ctx context.Context, t store.Turn) (store.Turn, error) {
	release, err := o.locker.Acquire(ctx, t.SessionID)
	if err != nil {
		return store.Turn{}, processingErr("serialize session %s: %w", t.SessionID, err)
	}
	defer release()

	if ctx.Err() != nil {
		return store.Turn{}, ctx.Err()
	}
	turn, err := o.sessions.store.AppendTurn(ctx, t)
	if err != nil {
		return store.Turn{}, processingErr("persist turn for session %s: %w", t.SessionID, err)
	}
	return turn, nil
}

// emergencyResult is the terminal short-circuit: the fixed guidance goes
// out with confidence 1.0 no matter what, and the turn is persisted for
// audit on a best-effort basis.
func (o *Orchestrator) emergencyResult(ctx context.Context, userID string, req ChatRequest, start time.Time) ChatResult {
	res := ChatResult{
		UserMessage:     req.Message,
		BotResponse:     EmergencyResponse,
		ConfidenceScore: 1.0,
		Timestamp:       time.Now().UTC(),
		IsNewSession:    req.SessionID == "",
	}

	sess, err := o.sessions.ResolveOrCreate(ctx, userID, req.SessionID, req.SessionTitle, req.Message)
	if err != nil {
		o.logger.Printf("emergency response without audit trail (session unavailable): %v", err)
		o.telemetry.RecordChat(telemetry.OutcomeEmergency, 1.0, time.Since(start))
		return res
	}
	res.SessionID = sess.ID
	res.SessionTitle = sess.Title

	turn, err := o.persistTurn(ctx, store.Turn{
		SessionID:       sess.ID,
		UserMessage:     req.Message,
		BotResponse:     EmergencyResponse,
		ConfidenceScore: 1.0,
	})
	if err != nil {
		o.logger.Printf("emergency turn not persisted: %v", err)
	} else {
		res.Timestamp = turn.CreatedAt
	}

	o.telemetry.RecordChat(telemetry.OutcomeEmergency, 1.0, time.Since(start))
	return res
}

func validateRequest(req ChatRequest) error {
	if req.Message == "" {
		return &ValidationError{Reason: "message is required"}
	}
	if utf8.RuneCountInString(req.Message) > maxMessageLen {
		return &ValidationError{Reason: "message exceeds 1000 characters"}
	}
	return nil
}
