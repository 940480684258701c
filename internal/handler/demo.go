package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/cove/agent-demo/internal/audit"
	"github.com/cove/agent-demo/internal/booking"
	"github.com/cove/agent-demo/internal/config"
	apperrors "github.com/cove/agent-demo/internal/errors"
	"github.com/cove/agent-demo/internal/httputil"
	"github.com/cove/agent-demo/internal/model"
	"github.com/cove/agent-demo/internal/prompt"
	"github.com/cove/agent-demo/internal/service"
	"github.com/cove/agent-demo/internal/util"
)

type DemoHandler struct {
	demoService *service.DemoService
	calLink     string
	keepAlive   time.Duration
}

func NewDemoHandler(demoService *service.DemoService, calLink string) *DemoHandler {
	return &DemoHandler{
		demoService: demoService,
		calLink:     calLink,
		keepAlive:   config.StreamKeepAlive,
	}
}

func (h *DemoHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/create-demo", h.CreateDemo)
	r.Post("/chat", h.Chat)
	r.Post("/chat/stream", h.ChatStream)
	r.Get("/sessions/{sessionId}", h.GetSession)
	r.Post("/sessions/{sessionId}/booking-shown", h.BookingShown)

	return r
}

type CreateDemoRequest struct {
	Website   string `json:"website"`
	Email     string `json:"email"`
	AgentType string `json:"agentType"`
}

type CreateDemoResponse struct {
	SessionID   string          `json:"sessionId"`
	CompanyName string          `json:"companyName"`
	AgentType   model.AgentType `json:"agentType"`
}

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	Response     string `json:"response"`
	MessageCount int    `json:"messageCount"`
}

type SessionResponse struct {
	model.Session
	Greeting   string          `json:"greeting"`
	BookingURL string          `json:"bookingUrl"`
	Messages   []model.Message `json:"messages"`
}

// POST /api/create-demo
func (h *DemoHandler) CreateDemo(w http.ResponseWriter, r *http.Request) {
	var req CreateDemoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.demoService.CreateSession(r.Context(), service.CreateSessionParams{
		Website:   req.Website,
		Email:     req.Email,
		AgentType: req.AgentType,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLeadCaptured,
		SessionID: result.SessionID,
		EmailHash: util.HashEmail(result.Email),
		Details: map[string]any{
			"agent_type":   string(result.AgentType),
			"company_name": result.CompanyName,
			"scraped":      result.Scraped,
			"favicon":      result.Favicon,
		},
	})

	writeJSON(w, http.StatusOK, CreateDemoResponse{
		SessionID:   result.SessionID,
		CompanyName: result.CompanyName,
		AgentType:   result.AgentType,
	})
}

// POST /api/chat
func (h *DemoHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.demoService.HandleTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logTurnConflict(r, req.SessionID, err)
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:     result.Reply,
		MessageCount: result.MessageCount,
	})
}

// POST /api/chat/stream
//
// Emits "delta" events as the reply is generated, then a single "done" or
// "error" event. Failures before the turn is accepted are plain JSON errors.
// Comment pings keep the connection warm while the completer is quiet.
func (h *DemoHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var stream *chatStream
	defer func() {
		if stream != nil {
			stream.close()
		}
	}()

	logger := log.With().Str("sessionId", req.SessionID).Logger()

	result, err := h.demoService.StreamTurn(r.Context(), req.SessionID, req.Message,
		func() error {
			cs, err := openChatStream(w, h.keepAlive)
			if err != nil {
				return err
			}
			stream = cs
			return nil
		},
		func(fragment string) error {
			if err := stream.send("delta", map[string]string{"text": fragment}); err != nil {
				logger.Debug().Err(err).Msg("chat stream delta not delivered")
				return err
			}
			return nil
		},
	)
	if err != nil {
		h.logTurnConflict(r, req.SessionID, err)
		if stream == nil {
			httputil.WriteError(w, err)
			return
		}
		logger.Warn().Err(err).Msg("chat stream ended with error")
		if err := stream.send("error", httputil.ErrorResponse{
			Error: "Internal server error",
			Code:  apperrors.GetCode(err),
		}); err != nil {
			logger.Debug().Err(err).Msg("chat stream error event not delivered")
		}
		return
	}

	if err := stream.send("done", ChatResponse{
		Response:     result.Reply,
		MessageCount: result.MessageCount,
	}); err != nil {
		logger.Debug().Err(err).Msg("chat stream done event not delivered")
	}
}

// GET /api/sessions/{sessionId}
func (h *DemoHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	ctx := r.Context()

	session, err := h.demoService.GetSession(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	messages, err := h.demoService.ListMessages(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Session:    *session,
		Greeting:   prompt.Greeting(session.AgentType, session.CompanyName),
		BookingURL: booking.URL(h.calLink, session.Email),
		Messages:   messages,
	})
}

// POST /api/sessions/{sessionId}/booking-shown
func (h *DemoHandler) BookingShown(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	if err := h.demoService.MarkBookingShown(r.Context(), sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventBookingShown,
		SessionID: sessionID,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *DemoHandler) logTurnConflict(r *http.Request, sessionID string, err error) {
	if apperrors.GetCode(err) != apperrors.ErrCodeConflict {
		return
	}
	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventTurnConflict,
		SessionID: sessionID,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, apperrors.BodyTooLarge(tooLarge.Limit))
			return false
		}
		httputil.WriteError(w, apperrors.ValidationError("Invalid request body"))
		return false
	}
	return true
}
