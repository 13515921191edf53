package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"actubot/bot/session"
	"actubot/bot/turn"
	"actubot/core/logger"
)

const turnApology = "Oups, le bot a rencontré une erreur inattendue. Recommençons depuis le menu."

// Processor is the outermost turn boundary. It serializes turns per
// conversation, stamps logging metadata, and converts panics and unhandled
// errors into an apology while clearing the conversation's transient state.
// Committed profiles are never touched by error recovery.
type Processor struct {
	dispatcher *Dispatcher
	sessions   *session.Manager

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProcessor builds the turn boundary around a dispatcher.
func NewProcessor(dispatcher *Dispatcher, sessions *session.Manager) *Processor {
	return &Processor{
		dispatcher: dispatcher,
		sessions:   sessions,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockConversation returns the mutex serializing turns for one conversation.
// Entries are never evicted; an idle conversation costs one mutex.
func (p *Processor) lockConversation(conversationID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[conversationID] = l
	}
	return l
}

// Process handles one inbound activity to completion and returns the
// outbound activities it produced. Turns for the same conversation run one
// at a time; different conversations run concurrently.
func (p *Processor) Process(ctx context.Context, a turn.Activity) ([]turn.Activity, error) {
	turnID := a.ID
	if turnID == "" {
		turnID = uuid.NewString()
	}
	ctx = logger.WithTurnMeta(ctx, turnID, a.ConversationID, a.UserID)
	ctx = logger.WithRID(ctx, logger.BuildRID(turnID, a.ConversationID, a.UserID))
	ctx = logger.WithChannel(ctx, a.ChannelID)

	lock := p.lockConversation(a.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	tc := turn.NewContext(a)
	err := p.handle(ctx, tc)
	if err != nil {
		p.recoverTurn(ctx, tc, err)
	}

	messages, attachments := tc.Counters()
	logger.Info(ctx, "bot", "turn",
		slog.String("status", logger.Status(err)),
		slog.String("type", a.Type),
		slog.Int("messages", messages),
		slog.Int("attachments", attachments),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return tc.Replies(), nil
}

// handle runs one turn, converting a panic into an error for recovery.
func (p *Processor) handle(ctx context.Context, tc *turn.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn panic: %v", r)
		}
	}()

	switch tc.Activity.Type {
	case turn.TypeConversationUpdate:
		return p.dispatcher.Welcome(ctx, tc)
	case turn.TypeMessage:
		return p.dispatcher.Route(ctx, tc)
	default:
		logger.Debug(ctx, "bot", "turn.ignored",
			slog.String("type", tc.Activity.Type),
		)
		return nil
	}
}

// recoverTurn is the unhandled-error path: log, clear DialogState and
// SessionFlags so the conversation cannot stay stuck in a broken step, drop
// any half-built replies, and apologize.
func (p *Processor) recoverTurn(ctx context.Context, tc *turn.Context, cause error) {
	logger.Error(ctx, "bot", "turn.recover",
		slog.String("status", "fail"),
		slog.String("err", cause.Error()),
	)
	if err := p.sessions.Clear(ctx, tc.ConversationID()); err != nil {
		logger.Error(ctx, "bot", "turn.recover",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	tc.DropReplies()
	tc.Send(turnApology)
}
