// Package inbox is the single-owner controller of the unified messages view:
// the conversation list, the open thread, the draft and the send in flight.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/freightmsg/internal/bus"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/deeplink"
	"github.com/matheus3301/freightmsg/internal/mapper"
	"github.com/matheus3301/freightmsg/internal/metrics"
	"github.com/matheus3301/freightmsg/internal/notify"
	"github.com/matheus3301/freightmsg/internal/outbox"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/wire"
)

var (
	ErrNoConversation = outbox.ErrNoConversation
	ErrSendInFlight   = outbox.ErrSendInFlight
	// ErrUnknownConversation is returned for an id not in the list.
	ErrUnknownConversation = errors.New("unknown conversation")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("inbox controller closed")
)

// Toast texts for non-send outcomes.
const (
	toastLoadFailed   = "Konuşmalar yüklenemedi."
	toastThreadFailed = "Mesajlar yüklenemedi."
	toastDeleted      = "Konuşma silindi."
	toastDeleteFailed = "Konuşma silinemedi."
	toastNoSession    = "Oturum bulunamadı, lütfen tekrar giriş yapın."
)

// Backend is the marketplace API surface the controller uses.
type Backend interface {
	outbox.Backend
	Conversations(ctx context.Context, role convo.Role) ([]wire.RawConversation, error)
	ShipmentThread(ctx context.Context, shipmentID string) ([]wire.RawMessage, error)
	UserThread(ctx context.Context, userID string) ([]wire.RawMessage, error)
	DeleteConversation(ctx context.Context, userID, shipmentID string) error
}

// ThreadLoaded is the payload of bus.KindThreadLoaded.
type ThreadLoaded struct {
	ConversationID string
	Messages       []convo.Message
}

// View is a consistent copy of the controller state.
type View struct {
	Role          convo.Role           `json:"role"`
	Conversations []convo.Conversation `json:"conversations"`
	Selected      *convo.Conversation  `json:"selected,omitempty"`
	Draft         string               `json:"draft"`
	Sending       bool                 `json:"sending"`
	Toast         *notify.Toast        `json:"toast,omitempty"`
}

// Options configures a Controller. Nil fields get working defaults.
type Options struct {
	Sessions    *session.Store
	Pipeline    *outbox.Pipeline
	Mapper      *mapper.Mapper
	Toasts      *notify.Notifier
	Links       *deeplink.Pending
	Bus         *bus.Bus
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	DefaultRole convo.Role
	Now         func() time.Time
}

// Controller owns the view state. All methods are safe for concurrent use;
// network calls run without the lock held.
type Controller struct {
	backend  Backend
	sessions *session.Store
	pipeline *outbox.Pipeline
	mapper   *mapper.Mapper
	toasts   *notify.Notifier
	links    *deeplink.Pending
	bus      *bus.Bus
	metrics  *metrics.Metrics
	log      *zap.Logger
	role     convo.Role
	now      func() time.Time

	life context.Context
	stop context.CancelFunc

	mu            sync.Mutex
	conversations []convo.Conversation
	selectedID    string
	draft         string
	sending       bool
}

// New creates a controller over backend.
func New(backend Backend, opts Options) *Controller {
	c := &Controller{
		backend:  backend,
		sessions: opts.Sessions,
		pipeline: opts.Pipeline,
		mapper:   opts.Mapper,
		toasts:   opts.Toasts,
		links:    opts.Links,
		bus:      opts.Bus,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		role:     opts.DefaultRole,
		now:      opts.Now,
	}
	if c.sessions == nil {
		c.sessions = session.NewStore(session.Context{}, opts.Bus)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.mapper == nil {
		c.mapper = mapper.New()
	}
	if c.toasts == nil {
		c.toasts = notify.New(0, opts.Bus)
	}
	if c.links == nil {
		c.links = &deeplink.Pending{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.pipeline == nil {
		c.pipeline = outbox.NewPipeline(backend, outbox.Options{
			Bus: opts.Bus, Metrics: opts.Metrics, Logger: c.log, Now: c.now,
		})
	}
	c.life, c.stop = context.WithCancel(context.Background())
	return c
}

// Close cancels every in-flight call. Results that arrive afterwards are
// dropped. Close is idempotent.
func (c *Controller) Close() {
	c.stop()
}

// scope derives a context that ends with either ctx or the controller.
func (c *Controller) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// live reports whether results fetched under ctx may still be applied.
// Callers hold c.mu.
func (c *Controller) live(ctx context.Context) bool {
	return ctx.Err() == nil && c.life.Err() == nil
}

func (c *Controller) viewer(sc session.Context) convo.Role {
	if sc.Role != "" {
		return sc.Role
	}
	if c.role != "" {
		return c.role
	}
	return convo.RoleIndividual
}

func (c *Controller) session() (session.Context, error) {
	sc, err := c.sessions.Current()
	if err != nil {
		c.toasts.Error(toastNoSession)
	}
	return sc, err
}

// QueueDeepLink stores a link for the next Refresh to consume.
func (c *Controller) QueueDeepLink(l deeplink.Link) {
	c.links.Set(l)
}

// Refresh reloads and normalizes the conversation list, then consumes a
// pending deep link if one is queued.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.life.Err() != nil {
		return ErrClosed
	}
	sc, err := c.session()
	if err != nil {
		return err
	}
	ctx, cancel := c.scope(ctx)
	defer cancel()

	rows, err := c.backend.Conversations(ctx, c.viewer(sc))
	if err != nil {
		if c.life.Err() == nil && ctx.Err() == nil {
			c.toasts.Error(toastLoadFailed)
		}
		return fmt.Errorf("load conversations: %w", err)
	}
	list := convo.Normalize(rows, sc.UserID)
	c.metrics.Collapsed(len(rows) - len(list))

	c.mu.Lock()
	if !c.live(ctx) {
		c.mu.Unlock()
		return ctx.Err()
	}
	c.conversations = c.merge(list)
	snapshot := cloneList(c.conversations)
	c.mu.Unlock()

	c.log.Debug("conversations loaded", zap.Int("raw", len(rows)), zap.Int("normalized", len(list)))
	c.bus.Publish(bus.NewEvent(bus.KindConversationsLoaded, snapshot))

	if link, ok := c.links.Take(); ok {
		return c.ApplyDeepLink(ctx, link)
	}
	return nil
}

// merge carries local state over a freshly normalized list: loaded threads,
// the cleared unread count of the open conversation, and a locally created
// conversation the backend does not know yet. Callers hold c.mu.
func (c *Controller) merge(list []convo.Conversation) []convo.Conversation {
	prev := make(map[string]convo.Conversation, len(c.conversations))
	for _, conv := range c.conversations {
		prev[conv.ID] = conv
	}
	for i := range list {
		old, ok := prev[list[i].ID]
		if !ok {
			continue
		}
		list[i].Messages = old.Messages
		if list[i].ID == c.selectedID {
			list[i].UnreadCount = 0
		}
	}
	if c.selectedID != "" && convo.Index(list, c.selectedID) < 0 {
		if old, ok := prev[c.selectedID]; ok && old.Local {
			list = append([]convo.Conversation{old}, list...)
		} else {
			c.selectedID = ""
		}
	}
	return list
}

// Open selects a conversation and loads its thread.
func (c *Controller) Open(ctx context.Context, id string) error {
	if c.life.Err() != nil {
		return ErrClosed
	}
	sc, err := c.session()
	if err != nil {
		return err
	}

	c.mu.Lock()
	i := convo.Index(c.conversations, id)
	if i < 0 {
		c.mu.Unlock()
		return ErrUnknownConversation
	}
	c.selectedID = id
	c.conversations[i].UnreadCount = 0
	target := c.conversations[i].Clone()
	c.mu.Unlock()

	ctx, cancel := c.scope(ctx)
	defer cancel()

	var raws []wire.RawMessage
	switch {
	case target.ShipmentID != "":
		raws, err = c.backend.ShipmentThread(ctx, target.ShipmentID)
	case target.CounterpartID != "":
		raws, err = c.backend.UserThread(ctx, target.CounterpartID)
	}
	if err != nil {
		if c.life.Err() == nil && ctx.Err() == nil {
			c.toasts.Error(toastThreadFailed)
		}
		return fmt.Errorf("load thread %s: %w", id, err)
	}
	msgs := forCounterpart(c.mapper.MapAll(raws, sc, c.viewer(sc)), target.CounterpartID)

	c.mu.Lock()
	if !c.live(ctx) {
		c.mu.Unlock()
		return ctx.Err()
	}
	i = convo.Index(c.conversations, id)
	if i < 0 {
		c.mu.Unlock()
		return ErrUnknownConversation
	}
	for _, m := range c.conversations[i].Messages {
		if m.IsTemp() && m.Status == convo.StatusSending {
			msgs = append(msgs, m)
		}
	}
	c.conversations[i].Messages = msgs
	payload := ThreadLoaded{ConversationID: id, Messages: confirmed(msgs)}
	c.mu.Unlock()

	c.bus.Publish(bus.NewEvent(bus.KindThreadLoaded, payload))
	return nil
}

// forCounterpart keeps the messages of a shared shipment thread that were
// exchanged with counterpart. Messages without party ids are kept.
func forCounterpart(msgs []convo.Message, counterpart string) []convo.Message {
	if counterpart == "" {
		return msgs
	}
	return slices.DeleteFunc(msgs, func(m convo.Message) bool {
		if m.SenderID == "" && m.ReceiverID == "" {
			return false
		}
		return m.SenderID != counterpart && m.ReceiverID != counterpart
	})
}

func confirmed(msgs []convo.Message) []convo.Message {
	out := make([]convo.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.IsTemp() {
			out = append(out, m)
		}
	}
	return out
}

// ApplyDeepLink opens the conversation with the linked counterpart, creating
// an empty one at the top of the list when none exists, and prefills the
// draft.
func (c *Controller) ApplyDeepLink(ctx context.Context, l deeplink.Link) error {
	if l.Empty() {
		return nil
	}
	c.mu.Lock()
	i := slices.IndexFunc(c.conversations, func(conv convo.Conversation) bool {
		if l.UserID != "" && conv.CounterpartID != l.UserID {
			return false
		}
		return l.ShipmentID == "" || conv.ShipmentID == l.ShipmentID
	})
	var id string
	if i >= 0 {
		id = c.conversations[i].ID
	} else {
		fresh := convo.Conversation{
			ID:            convo.ThreadID(l.ShipmentID, l.UserID),
			CounterpartID: l.UserID,
			ShipmentID:    l.ShipmentID,
			LastMessageAt: c.now(),
			Local:         true,
		}
		if l.UserID != "" {
			fresh.CounterpartName = "Kullanıcı #" + l.UserID
		}
		if l.ShipmentID != "" {
			fresh.TrackingNumber = "#" + l.ShipmentID
		}
		c.conversations = append([]convo.Conversation{fresh}, c.conversations...)
		id = fresh.ID
	}
	c.mu.Unlock()

	if err := c.Open(ctx, id); err != nil {
		return err
	}
	if l.Prefill != "" {
		c.SetDraft(l.Prefill)
	}
	return nil
}

// SetDraft replaces the compose text.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
	c.bus.Publish(bus.NewEvent(bus.KindDraftChanged, text))
}

// Send delivers the draft to the open conversation. The gate runs first and
// a rejected draft stays in place. Once it passes, a "sending" message is
// appended and the draft cleared. A failed delivery removes that message and
// restores the draft. Only one send may be outstanding.
func (c *Controller) Send(ctx context.Context) error {
	if c.life.Err() != nil {
		return ErrClosed
	}
	sc, err := c.session()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		c.toasts.Info(outbox.UserMessage(ErrSendInFlight))
		return ErrSendInFlight
	}
	var selected *convo.Conversation
	i := convo.Index(c.conversations, c.selectedID)
	if i >= 0 {
		selected = &c.conversations[i]
	}
	attempt, err := c.pipeline.Prepare(c.draft, selected, sc, c.viewer(sc))
	if err != nil {
		c.mu.Unlock()
		c.toasts.Error(outbox.UserMessage(err))
		return err
	}
	selected.Messages = append(selected.Messages, attempt.Temp)
	c.draft = ""
	c.sending = true
	c.mu.Unlock()

	ctx, cancel := c.scope(ctx)
	defer cancel()
	msg, sendErr := c.pipeline.Deliver(ctx, attempt)

	c.mu.Lock()
	c.sending = false
	if c.life.Err() != nil {
		c.mu.Unlock()
		return ErrClosed
	}
	i = convo.Index(c.conversations, attempt.Conversation.ID)
	if sendErr != nil {
		if i >= 0 {
			c.conversations[i].Messages = removeMessage(c.conversations[i].Messages, attempt.Temp.ID)
		}
		if c.draft == "" {
			c.draft = attempt.Draft
		}
		c.mu.Unlock()
		c.toasts.Error(outbox.UserMessage(sendErr))
		return sendErr
	}

	var payload *ThreadLoaded
	if i >= 0 {
		conv := &c.conversations[i]
		conv.Messages = replaceMessage(conv.Messages, attempt.Temp.ID, msg)
		conv.LastMessage = msg.Text
		conv.LastMessageAt = c.now()
		payload = &ThreadLoaded{ConversationID: conv.ID, Messages: confirmed(conv.Messages)}
		convo.SortByRecency(c.conversations)
	}
	c.mu.Unlock()

	if payload != nil {
		c.bus.Publish(bus.NewEvent(bus.KindThreadLoaded, *payload))
	}
	return nil
}

func removeMessage(msgs []convo.Message, id string) []convo.Message {
	return slices.DeleteFunc(msgs, func(m convo.Message) bool { return m.ID == id })
}

func replaceMessage(msgs []convo.Message, id string, with convo.Message) []convo.Message {
	if i := slices.IndexFunc(msgs, func(m convo.Message) bool { return m.ID == id }); i >= 0 {
		msgs[i] = with
		return msgs
	}
	return append(msgs, with)
}

// Delete removes a conversation on the backend and locally.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if c.life.Err() != nil {
		return ErrClosed
	}
	c.mu.Lock()
	i := convo.Index(c.conversations, id)
	if i < 0 {
		c.mu.Unlock()
		return ErrUnknownConversation
	}
	target := c.conversations[i]
	c.mu.Unlock()

	if target.CounterpartID == "" {
		c.toasts.Error(toastDeleteFailed)
		return outbox.ErrRecipientNotFound
	}

	ctx, cancel := c.scope(ctx)
	defer cancel()
	if err := c.backend.DeleteConversation(ctx, target.CounterpartID, target.ShipmentID); err != nil {
		if c.life.Err() == nil && ctx.Err() == nil {
			c.toasts.Error(toastDeleteFailed)
		}
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}

	c.mu.Lock()
	if !c.live(ctx) {
		c.mu.Unlock()
		return ctx.Err()
	}
	if i := convo.Index(c.conversations, id); i >= 0 {
		c.conversations = slices.Delete(c.conversations, i, i+1)
	}
	if c.selectedID == id {
		c.selectedID = ""
		if !c.sending {
			c.draft = ""
		}
	}
	c.mu.Unlock()

	c.toasts.Success(toastDeleted)
	c.bus.Publish(bus.NewEvent(bus.KindConversationDeleted, id))
	return nil
}

// Seed installs a cached list when nothing has been loaded yet.
func (c *Controller) Seed(list []convo.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.conversations) == 0 {
		c.conversations = cloneList(list)
	}
}

// Reset drops all view state, e.g. after logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.conversations = nil
	c.selectedID = ""
	c.draft = ""
	c.mu.Unlock()
}

// Snapshot returns a copy of the view state. Only the selected conversation
// carries its messages.
func (c *Controller) Snapshot() View {
	sc, _ := c.sessions.Current()
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Role:          c.viewer(sc),
		Conversations: make([]convo.Conversation, 0, len(c.conversations)),
		Draft:         c.draft,
		Sending:       c.sending,
	}
	for _, conv := range c.conversations {
		if conv.ID == c.selectedID {
			sel := conv.Clone()
			v.Selected = &sel
		}
		conv.Messages = nil
		v.Conversations = append(v.Conversations, conv)
	}
	if t, ok := c.toasts.Current(); ok {
		v.Toast = &t
	}
	return v
}

func cloneList(list []convo.Conversation) []convo.Conversation {
	out := make([]convo.Conversation, len(list))
	for i, conv := range list {
		out[i] = conv.Clone()
	}
	return out
}
