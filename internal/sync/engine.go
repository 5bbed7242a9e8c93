// Package sync mirrors the inbox controller's state into the session cache.
package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/freightmsg/internal/bus"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/store"
)

// Engine persists inbox snapshots. It subscribes to "inbox.*" events on the
// bus and handles them one at a time.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to inbox events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	ch, unsub := e.bus.Subscribe("inbox.", 256)

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the event loop to exit.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
	if n := e.bus.Dropped(); n > 0 {
		e.logger.Warn("bus deliveries dropped", zap.Uint64("count", n))
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	var err error
	switch p := evt.Payload.(type) {
	case []convo.Conversation:
		if evt.Kind == bus.KindConversationsLoaded {
			err = e.SaveConversations(p)
		}
	case inbox.ThreadLoaded:
		err = e.SaveThread(p)
	case string:
		if evt.Kind == bus.KindConversationDeleted {
			err = e.db.DeleteConversation(p)
		}
	}
	if err != nil {
		e.logger.Error("failed to persist inbox event", zap.String("kind", evt.Kind), zap.Error(err))
	}
}

// SaveConversations replaces the cached inbox and stamps the refresh
// checkpoint.
func (e *Engine) SaveConversations(list []convo.Conversation) error {
	rows := make([]store.ConversationRow, 0, len(list))
	for _, c := range list {
		if c.Local {
			continue
		}
		rows = append(rows, ConversationRow(c))
	}
	if err := e.db.ReplaceConversations(rows); err != nil {
		return fmt.Errorf("save conversations: %w", err)
	}
	return e.db.SetCheckpoint(store.CheckpointLastRefresh, time.Now().UTC().Format(time.RFC3339))
}

// SaveThread replaces the cached thread of one conversation. Unconfirmed
// messages are never cached.
func (e *Engine) SaveThread(t inbox.ThreadLoaded) error {
	rows := make([]store.MessageRow, 0, len(t.Messages))
	for _, m := range t.Messages {
		if m.IsTemp() {
			continue
		}
		rows = append(rows, MessageRow(t.ConversationID, m))
	}
	if err := e.db.ReplaceThread(t.ConversationID, rows); err != nil {
		return fmt.Errorf("save thread: %w", err)
	}
	return e.db.SetCheckpoint(store.CheckpointLastThread, t.ConversationID)
}

// Cached loads the last persisted inbox.
func (e *Engine) Cached() ([]convo.Conversation, error) {
	rows, err := e.db.ListConversations()
	if err != nil {
		return nil, err
	}
	out := make([]convo.Conversation, 0, len(rows))
	for _, r := range rows {
		out = append(out, ConversationFromRow(r))
	}
	return out, nil
}
