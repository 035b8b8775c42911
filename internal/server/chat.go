package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ali-rahimi/medibot/internal/medical"
	"github.com/ali-rahimi/medibot/internal/runtime"
)

// ChatProcessor is the pipeline entrypoint the handler invokes per message.
// *medical.Orchestrator satisfies it.
type ChatProcessor interface {
	ProcessChat(ctx context.Context, userID string, req medical.ChatRequest) (medical.ChatResult, error)
}

type ChatHandler struct {
	Proc     ChatProcessor
	Sessions *medical.SessionManager
}

func (h *ChatHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.POST("", h.chat)
	g.GET("/sessions", h.listSessions)
	g.POST("/sessions", h.createSession)
	g.GET("/sessions/:id", h.getSession)
	g.GET("/sessions/:id/messages", h.listMessages)
	g.DELETE("/sessions/:id", h.deleteSession)
}

// Chat
//
//	@Summary		Process a chat message
//	@Description	Runs one user message through the medical pipeline and returns the stored exchange
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		medical.ChatRequest	true	"Chat payload"
//	@Success		200		{object}	medical.ChatResult
//	@Failure		400		{object}	HTTPError
//	@Failure		403		{object}	HTTPError
//	@Failure		404		{object}	HTTPError
//	@Failure		500		{object}	HTTPError
//	@Router			/api/chat [post]
func (h *ChatHandler) chat(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req medical.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.Proc.ProcessChat(c.Request().Context(), userID, req)
	if err != nil {
		return chatHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ChatHandler) listSessions(c echo.Context) error {
	userID := c.Get("user_id").(string)
	items, err := h.Sessions.List(c.Request().Context(), userID)
	if err != nil {
		return chatHTTPError(err)
	}
	out := make([]SessionSummaryResponse, 0, len(items))
	for _, s := range items {
		out = append(out, SessionSummaryResponse{
			SessionResponse: SessionResponse{
				ID:        s.ID,
				Title:     s.Title,
				CreatedAt: s.CreatedAt,
				UpdatedAt: s.UpdatedAt,
			},
			MessageCount: s.MessageCount,
			LastMessage:  s.LastMessage,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ChatHandler) createSession(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.Sessions.Create(c.Request().Context(), userID, req.Title)
	if err != nil {
		return chatHTTPError(err)
	}
	return c.JSON(http.StatusCreated, SessionResponse{
		ID:        sess.ID,
		Title:     sess.Title,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	})
}

func (h *ChatHandler) getSession(c echo.Context) error {
	userID := c.Get("user_id").(string)
	sess, err := h.Sessions.GetOwned(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return chatHTTPError(err)
	}
	return c.JSON(http.StatusOK, SessionResponse{
		ID:        sess.ID,
		Title:     sess.Title,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	})
}

func (h *ChatHandler) listMessages(c echo.Context) error {
	userID := c.Get("user_id").(string)
	sess, err := h.Sessions.GetOwned(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return chatHTTPError(err)
	}
	turns, err := h.Sessions.History(c.Request().Context(), sess.ID)
	if err != nil {
		return chatHTTPError(err)
	}
	out := make([]TurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, TurnResponse{
			ID:              t.ID,
			UserMessage:     t.UserMessage,
			BotResponse:     t.BotResponse,
			ConfidenceScore: t.ConfidenceScore,
			CreatedAt:       t.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ChatHandler) deleteSession(c echo.Context) error {
	userID := c.Get("user_id").(string)
	if err := h.Sessions.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return chatHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// chatHTTPError maps pipeline errors onto HTTP statuses. ProcessingError
// already carries a user-safe message; everything else unexpected becomes a
// plain 500.
func chatHTTPError(err error) error {
	var verr *medical.ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	}
	if errors.Is(err, medical.ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if errors.Is(err, medical.ErrSessionAccessDenied) {
		return echo.NewHTTPError(http.StatusForbidden, "session does not belong to you")
	}
	var perr *medical.ProcessingError
	if errors.As(err, &perr) {
		return echo.NewHTTPError(http.StatusInternalServerError, perr.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return echo.NewHTTPError(http.StatusRequestTimeout, "request cancelled")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
