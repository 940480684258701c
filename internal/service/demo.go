package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/cove/agent-demo/internal/database"
	apperrors "github.com/cove/agent-demo/internal/errors"
	"github.com/cove/agent-demo/internal/llm"
	"github.com/cove/agent-demo/internal/model"
	"github.com/cove/agent-demo/internal/prompt"
	"github.com/cove/agent-demo/internal/repository"
	"github.com/cove/agent-demo/internal/scraper"
	"github.com/cove/agent-demo/internal/util"
)

// TxRunner runs fn inside a single storage transaction. *database.DB satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type CreateSessionParams struct {
	Website   string
	Email     string
	AgentType string
}

type CreateSessionResult struct {
	SessionID   string
	CompanyName string
	AgentType   model.AgentType
	Email       string
	Scraped     bool
	Favicon     string
}

type TurnResult struct {
	Reply        string
	MessageCount int
}

// DemoService owns the lifecycle of a demo session: creation from a scraped
// website and the turn-by-turn conversation with the persona.
type DemoService struct {
	tx          TxRunner
	sessionRepo repository.SessionRepository
	messageRepo repository.MessageRepository
	scraper     scraper.Scraper
	completer   llm.Completer
	locker      TurnLocker
}

func NewDemoService(
	tx TxRunner,
	sessionRepo repository.SessionRepository,
	messageRepo repository.MessageRepository,
	scr scraper.Scraper,
	completer llm.Completer,
	locker TurnLocker,
) *DemoService {
	return &DemoService{
		tx:          tx,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		scraper:     scr,
		completer:   completer,
		locker:      locker,
	}
}

func (s *DemoService) CreateSession(ctx context.Context, params CreateSessionParams) (*CreateSessionResult, error) {
	website := strings.TrimSpace(params.Website)
	email := strings.TrimSpace(params.Email)
	rawAgentType := strings.TrimSpace(params.AgentType)

	switch {
	case website == "":
		return nil, apperrors.MissingRequired("website")
	case email == "":
		return nil, apperrors.MissingRequired("email")
	case rawAgentType == "":
		return nil, apperrors.MissingRequired("agentType")
	}

	agentType, err := model.ParseAgentType(rawAgentType)
	if err != nil {
		return nil, apperrors.InvalidInput("agentType", fmt.Sprintf("must be one of %s", model.AgentTypeList()))
	}

	website = NormalizeWebsite(website)

	companyName := scraper.DefaultCompanyName
	content := prompt.NoContent()
	var favicon string

	result, err := s.scraper.Scrape(ctx, website)
	if err != nil {
		log.Warn().Err(err).
			Str("website", website).
			Str("email", util.MaskEmail(email)).
			Msg("scrape failed, continuing with defaults")
	} else {
		companyName = result.CompanyName
		content = prompt.ContentOf(result.Content)
		favicon = result.Favicon
	}

	session, err := s.sessionRepo.Create(ctx, model.CreateSessionParams{
		Email:          email,
		CompanyURL:     website,
		CompanyName:    companyName,
		AgentType:      agentType,
		ScrapedContent: content.Text(),
	})
	if err != nil {
		log.Error().Err(err).
			Str("website", website).
			Str("email", util.MaskEmail(email)).
			Msg("failed to create demo session")
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("email", util.MaskEmail(email)).
		Str("companyName", companyName).
		Str("agentType", string(agentType)).
		Bool("scraped", content.Present()).
		Msg("demo session created")

	return &CreateSessionResult{
		SessionID:   session.ID,
		CompanyName: session.CompanyName,
		AgentType:   session.AgentType,
		Email:       session.Email,
		Scraped:     content.Present(),
		Favicon:     favicon,
	}, nil
}

// HandleTurn appends the visitor's message, asks the completer for the
// persona's reply, and records the reply as one completed exchange. The
// visitor's message stays persisted even when the completion fails.
func (s *DemoService) HandleTurn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	release, turn, err := s.beginTurn(ctx, sessionID, userText)
	if err != nil {
		return nil, err
	}
	defer release()

	reply, err := s.completer.Complete(ctx, turn.system, turn.history)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("completion failed")
		return nil, apperrors.External("completion", err)
	}

	return s.finishTurn(ctx, sessionID, reply)
}

// StreamTurn is HandleTurn with the reply forwarded to emit fragment by
// fragment as the completer produces it. ready, when set, runs once the turn
// is accepted and before the completer starts. The full reply is persisted
// only after the stream ends cleanly.
func (s *DemoService) StreamTurn(ctx context.Context, sessionID, userText string, ready func() error, emit func(fragment string) error) (*TurnResult, error) {
	release, turn, err := s.beginTurn(ctx, sessionID, userText)
	if err != nil {
		return nil, err
	}
	defer release()

	if ready != nil {
		if err := ready(); err != nil {
			return nil, fmt.Errorf("open stream: %w", err)
		}
	}

	var reply strings.Builder
	for fragment, err := range s.completer.Stream(ctx, turn.system, turn.history) {
		if err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("completion stream failed")
			return nil, apperrors.External("completion", err)
		}
		reply.WriteString(fragment)
		if err := emit(fragment); err != nil {
			return nil, fmt.Errorf("emit fragment: %w", err)
		}
	}

	return s.finishTurn(ctx, sessionID, reply.String())
}

func (s *DemoService) MarkBookingShown(ctx context.Context, sessionID string) error {
	if !util.IsValidUUID(sessionID) {
		return apperrors.NotFound("Session")
	}

	if err := s.sessionRepo.MarkBookingShown(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Session")
		}
		return apperrors.Database(err)
	}

	log.Info().Str("sessionId", sessionID).Msg("booking prompt shown")
	return nil
}

func (s *DemoService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if !util.IsValidUUID(sessionID) {
		return nil, apperrors.NotFound("Session")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	return session, nil
}

func (s *DemoService) ListMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	msgs, err := s.messageRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return msgs, nil
}

type preparedTurn struct {
	system  string
	history []llm.Turn
}

// beginTurn validates input, takes the session's turn lock, persists the
// visitor's message and loads the history the completer will see. On success
// the caller owns release.
func (s *DemoService) beginTurn(ctx context.Context, sessionID, userText string) (func(), *preparedTurn, error) {
	if sessionID == "" {
		return nil, nil, apperrors.MissingRequired("sessionId")
	}
	if userText == "" {
		return nil, nil, apperrors.MissingRequired("message")
	}
	if !util.IsValidUUID(sessionID) {
		return nil, nil, apperrors.NotFound("Session")
	}

	release, err := s.locker.Acquire(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	turn, err := s.prepareTurn(ctx, sessionID, userText)
	if err != nil {
		release()
		return nil, nil, err
	}
	return release, turn, nil
}

func (s *DemoService) prepareTurn(ctx context.Context, sessionID, userText string) (*preparedTurn, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	if _, err := s.messageRepo.Create(ctx, model.CreateMessageParams{
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   userText,
	}); err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to store user message")
		return nil, apperrors.Database(err)
	}

	msgs, err := s.messageRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	history := make([]llm.Turn, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, llm.Turn{Role: m.Role, Content: m.Content})
	}

	companyName := session.CompanyName
	if companyName == "" {
		companyName = scraper.DefaultCompanyName
	}

	return &preparedTurn{
		system:  prompt.Build(session.AgentType, companyName, prompt.ContentFromStored(session.ScrapedContent)),
		history: history,
	}, nil
}

// finishTurn stores the reply and counts the exchange in one transaction.
func (s *DemoService) finishTurn(ctx context.Context, sessionID, reply string) (*TurnResult, error) {
	var count int
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.messageRepo.WithTx(tx).Create(ctx, model.CreateMessageParams{
			SessionID: sessionID,
			Role:      model.RoleAssistant,
			Content:   reply,
		}); err != nil {
			return fmt.Errorf("store assistant message: %w", err)
		}

		n, err := s.sessionRepo.WithTx(tx).IncrementMessageCount(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("increment message count: %w", err)
		}
		count = n
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to record exchange")
		return nil, apperrors.Database(err)
	}

	log.Debug().Str("sessionId", sessionID).Int("messageCount", count).Msg("exchange completed")
	return &TurnResult{Reply: reply, MessageCount: count}, nil
}
