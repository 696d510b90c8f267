// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
)

// Assistant answers staff questions about the business.
// Flow: assemble context -> ask the model -> log the exchange.
type Assistant struct {
	assembler     *ContextAssembler
	enforcer      *ResponseEnforcer
	conversations *ConversationStore
	logger        *zap.Logger
	now           func() time.Time
}

// NewAssistant wires the three stages together. A nil clock uses time.Now.
func NewAssistant(
	assembler *ContextAssembler,
	enforcer *ResponseEnforcer,
	conversations *ConversationStore,
	logger *zap.Logger,
	now func() time.Time,
) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Assistant{
		assembler:     assembler,
		enforcer:      enforcer,
		conversations: conversations,
		logger:        logger,
		now:           now,
	}
}

// Handle runs one query to completion. It always returns a usable reply.
func (a *Assistant) Handle(ctx context.Context, q entities.Query) entities.Reply {
	if q.SessionID == "" {
		q.SessionID = uuid.NewString()
	}

	start := a.now()
	a.logger.Info("staff assistant request",
		zap.String("session", q.SessionID),
		zap.String("staff", q.AskerID),
		zap.String("message", q.Text))

	// 1. Build context from the business store
	dataContext := a.assembler.Assemble(ctx, q.Text, start)

	// 2. Ask the model for a structured answer
	response := a.enforcer.Respond(ctx, q.Text, dataContext, q.PriorContext)

	// 3. Record the exchange, even if the caller has gone away
	a.conversations.Append(context.WithoutCancel(ctx), q.SessionID, q.AskerID, q.Text, response)

	return entities.Reply{
		Response:  response,
		SessionID: q.SessionID,
		Timestamp: a.now().UTC(),
	}
}

// History returns the recorded exchanges for a session.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]entities.Exchange, error) {
	return a.conversations.History(ctx, sessionID)
}
