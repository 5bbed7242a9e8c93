// Package outbox implements the optimistic send pipeline: a synchronous
// pre-send gate, an immediately visible "sending" message, receiver
// resolution, a final shipment status check and the network send. Every
// attempt that passes the gate is journaled.
package outbox

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/freightmsg/internal/bus"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/mapper"
	"github.com/matheus3301/freightmsg/internal/marketapi"
	"github.com/matheus3301/freightmsg/internal/metrics"
	"github.com/matheus3301/freightmsg/internal/moderation"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/status"
	"github.com/matheus3301/freightmsg/internal/store"
	"github.com/matheus3301/freightmsg/internal/wire"
)

// Backend is the part of the marketplace API a send needs.
type Backend interface {
	Send(ctx context.Context, req marketapi.SendRequest) (wire.RawMessage, error)
	Shipment(ctx context.Context, shipmentID string) (wire.RawShipment, error)
}

// Journal records attempts. *store.DB implements it.
type Journal interface {
	QueueOutbox(e store.OutboxEntry) error
	MarkOutboxSending(clientMsgID, receiverID string) error
	MarkOutboxSent(clientMsgID, serverMsgID string) error
	MarkOutboxFailed(clientMsgID, errMsg string) error
}

// Attempt is one send that passed the gate.
type Attempt struct {
	ClientID string
	// Text is the trimmed body that is sent; Draft is the input as typed and
	// is what a rollback restores.
	Text         string
	Draft        string
	Conversation convo.Conversation
	Session      session.Context
	Viewer       convo.Role
	// Temp is the optimistic message shown while the send is outstanding.
	Temp convo.Message

	phase    *status.Machine
	shipment *wire.RawShipment
}

// Phase reports the attempt's state.
func (a *Attempt) Phase() status.State {
	return a.phase.Current()
}

// Options configures a Pipeline.
type Options struct {
	Gate    *moderation.Gate
	Journal Journal
	Bus     *bus.Bus
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
	// Allowed overrides AllowedStatuses.
	Allowed []string
}

// Pipeline runs send attempts against one backend.
type Pipeline struct {
	backend Backend
	gate    *moderation.Gate
	journal Journal
	bus     *bus.Bus
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
	allowed map[string]bool
}

// NewPipeline creates a pipeline. Zero options fall back to the default
// denylist, no journal, no bus and the wall clock.
func NewPipeline(backend Backend, opts Options) *Pipeline {
	p := &Pipeline{
		backend: backend,
		gate:    opts.Gate,
		journal: opts.Journal,
		bus:     opts.Bus,
		metrics: opts.Metrics,
		log:     opts.Logger,
		now:     opts.Now,
		allowed: make(map[string]bool),
	}
	if p.gate == nil {
		p.gate = moderation.NewGate(nil)
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	allowed := opts.Allowed
	if allowed == nil {
		allowed = AllowedStatuses
	}
	for _, s := range allowed {
		p.allowed[NormalizeStatus(s)] = true
	}
	return p
}

// Prepare runs the synchronous gate. On success the returned attempt carries
// the optimistic message to append; on failure nothing may be appended.
func (p *Pipeline) Prepare(text string, conv *convo.Conversation, sc session.Context, viewer convo.Role) (*Attempt, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		p.metrics.Send(metrics.OutcomeRejected)
		return nil, ErrEmptyMessage
	}
	if conv == nil {
		p.metrics.Send(metrics.OutcomeRejected)
		return nil, ErrNoConversation
	}
	if err := p.gate.Check(body); err != nil {
		p.metrics.Send(metrics.OutcomeBlocked)
		p.log.Info("send blocked by content gate", zap.String("conversation", conv.ID))
		return nil, err
	}

	now := p.now()
	created := now
	a := &Attempt{
		ClientID:     uuid.NewString(),
		Text:         body,
		Draft:        text,
		Conversation: conv.Clone(),
		Session:      sc,
		Viewer:       viewer,
		Temp: convo.Message{
			ID:         fmt.Sprintf("temp-%d", now.UnixMilli()),
			From:       mapper.SelfName,
			FromType:   viewer,
			Text:       body,
			Time:       mapper.DisplayTime(now, now),
			CreatedAt:  &created,
			IsRead:     true,
			Status:     convo.StatusSending,
			ShipmentID: conv.ShipmentID,
			IsMine:     true,
			SenderID:   sc.UserID,
		},
	}
	a.Conversation.Messages = nil
	a.phase = status.NewSendMachine(p.bus, a.Temp.ID)

	if p.journal != nil {
		if err := p.journal.QueueOutbox(store.OutboxEntry{
			ClientMsgID:    a.ClientID,
			ConversationID: conv.ID,
			ShipmentID:     conv.ShipmentID,
			Body:           body,
		}); err != nil {
			p.log.Warn("failed to journal send", zap.Error(err))
		}
	}
	_ = a.phase.Transition(status.Sending)
	p.bus.Publish(bus.NewEvent(bus.KindMessageSending, a.Temp))
	return a, nil
}

// Deliver resolves the receiver, re-checks the shipment and sends. It returns
// the confirmed message that replaces a.Temp. On error the caller must roll
// the optimistic message back.
func (p *Pipeline) Deliver(ctx context.Context, a *Attempt) (convo.Message, error) {
	msg, err := p.deliver(ctx, a)
	if err != nil {
		_ = a.phase.Transition(status.Failed)
		p.markFailed(a, err)
		p.bus.Publish(bus.NewEvent(bus.KindMessageRolledBack, a.Temp))
		class := Classify(err)
		outcome := metrics.OutcomeRejected
		switch class {
		case ClassNetwork, ClassCanceled, ClassOther:
			outcome = metrics.OutcomeFailed
		}
		p.metrics.Send(outcome)
		p.log.Warn("send failed",
			zap.String("conversation", a.Conversation.ID),
			zap.String("class", class.String()),
			zap.Error(err),
		)
		return convo.Message{}, err
	}

	_ = a.phase.Transition(status.Sent)
	if p.journal != nil {
		if err := p.journal.MarkOutboxSent(a.ClientID, msg.ServerID); err != nil {
			p.log.Warn("failed to journal sent", zap.Error(err))
		}
	}
	p.metrics.Send(metrics.OutcomeSent)
	p.bus.Publish(bus.NewEvent(bus.KindMessageSent, msg))
	return msg, nil
}

func (p *Pipeline) deliver(ctx context.Context, a *Attempt) (convo.Message, error) {
	receiver, err := p.resolveReceiver(ctx, a)
	if err != nil {
		return convo.Message{}, err
	}
	if shipmentID := a.Conversation.ShipmentID; shipmentID != "" {
		shipment, err := p.shipment(ctx, a)
		if err != nil {
			return convo.Message{}, err
		}
		if !p.allowed[NormalizeStatus(shipment.Status)] {
			return convo.Message{}, &StatusGateError{ShipmentID: shipmentID, Status: shipment.Status}
		}
	}

	if p.journal != nil {
		if err := p.journal.MarkOutboxSending(a.ClientID, receiver); err != nil {
			p.log.Warn("failed to journal sending", zap.Error(err))
		}
	}
	raw, err := p.backend.Send(ctx, marketapi.SendRequest{
		ReceiverID: receiver,
		ShipmentID: a.Conversation.ShipmentID,
		Message:    a.Text,
	})
	if err != nil {
		return convo.Message{}, fmt.Errorf("send message: %w", err)
	}

	msg := a.Temp
	msg.ID = fmt.Sprintf("sent-%d", p.now().UnixMilli())
	msg.ServerID = raw.ServerID
	msg.Status = convo.StatusSent
	msg.ReceiverID = receiver
	return msg, nil
}

// resolveReceiver prefers the conversation's counterpart and falls back to
// the linked shipment's parties, never choosing the current user.
func (p *Pipeline) resolveReceiver(ctx context.Context, a *Attempt) (string, error) {
	self := a.Session.UserID
	if id := a.Conversation.CounterpartID; id != "" && id != self {
		return id, nil
	}
	shipmentID := a.Conversation.ShipmentID
	if shipmentID == "" {
		return "", ErrRecipientNotFound
	}
	shipment, err := p.shipment(ctx, a)
	if err != nil {
		return "", err
	}
	if !p.allowed[NormalizeStatus(shipment.Status)] {
		return "", &StatusGateError{ShipmentID: shipmentID, Status: shipment.Status}
	}

	candidates := slices.Concat(shipment.CarrierIDs, shipment.ShipperIDs)
	if a.Viewer.CarrierSide() {
		candidates = slices.Concat(shipment.ShipperIDs, shipment.CarrierIDs)
	}
	for _, id := range candidates {
		if id != "" && id != self {
			return id, nil
		}
	}
	return "", ErrRecipientNotFound
}

// shipment fetches the linked shipment once per attempt.
func (p *Pipeline) shipment(ctx context.Context, a *Attempt) (wire.RawShipment, error) {
	if a.shipment != nil {
		return *a.shipment, nil
	}
	s, err := p.backend.Shipment(ctx, a.Conversation.ShipmentID)
	if err != nil {
		return wire.RawShipment{}, fmt.Errorf("fetch shipment %s: %w", a.Conversation.ShipmentID, err)
	}
	a.shipment = &s
	return s, nil
}

func (p *Pipeline) markFailed(a *Attempt, cause error) {
	if p.journal == nil {
		return
	}
	if err := p.journal.MarkOutboxFailed(a.ClientID, cause.Error()); err != nil {
		p.log.Warn("failed to journal failure", zap.Error(err))
	}
}
