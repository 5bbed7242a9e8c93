package api

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/matheus3301/freightmsg/internal/bus"
	"github.com/matheus3301/freightmsg/internal/deeplink"
	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/status"
	"github.com/matheus3301/freightmsg/internal/store"
)

// Checkpoints reports when the inbox was last persisted.
type Checkpoints interface {
	LastRefresh() time.Time
}

// Deps are the collaborators of a Service.
type Deps struct {
	SessionName string
	Inbox       *inbox.Controller
	DB          *store.DB
	Sessions    *session.Store
	Machine     *status.Machine
	Checkpoints Checkpoints
	Bus         *bus.Bus
	Logger      *zap.Logger
}

// Service implements InboxServer on top of the inbox controller.
type Service struct {
	Deps
	startedAt time.Time
}

var _ InboxServer = (*Service)(nil)

// NewService creates the gRPC service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{Deps: d, startedAt: time.Now()}
}

func reply(v any) (*structpb.Struct, error) {
	s, err := encode(v)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "%v", err)
	}
	return s, nil
}

func request(in *structpb.Struct, v any) error {
	if err := decode(in, v); err != nil {
		return grpcstatus.Errorf(codes.InvalidArgument, "%v", err)
	}
	return nil
}

func (s *Service) GetSession(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	info := SessionInfo{
		Session:  s.SessionName,
		Status:   string(s.Machine.Current()),
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
	}
	if sc, err := s.Sessions.Current(); err == nil {
		info.Authenticated = true
		info.UserID = sc.UserID
		info.Role = sc.Role
		info.Name = sc.Name
	}
	if s.Checkpoints != nil {
		if t := s.Checkpoints.LastRefresh(); !t.IsZero() {
			info.LastRefresh = &t
		}
	}
	if s.DB != nil {
		if c, err := s.DB.Stats(); err == nil {
			info.Conversations = c.Conversations
			info.Messages = c.Messages
			info.PendingSends = c.PendingSends
		}
	}
	return reply(info)
}

func (s *Service) GetView(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return reply(s.Inbox.Snapshot())
}

func (s *Service) ListConversations(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListRequest
	if err := request(in, &req); err != nil {
		return nil, err
	}
	if req.Refresh {
		if err := s.Inbox.Refresh(ctx); err != nil {
			return nil, toStatus(err)
		}
	}
	return reply(ConversationList{Conversations: s.Inbox.Snapshot().Conversations})
}

func (s *Service) OpenConversation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ConversationRequest
	if err := request(in, &req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "conversation id is required")
	}
	if err := s.Inbox.Open(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return reply(ConversationReply{Conversation: s.Inbox.Snapshot().Selected})
}

func (s *Service) SetDraft(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req DraftRequest
	if err := request(in, &req); err != nil {
		return nil, err
	}
	s.Inbox.SetDraft(req.Text)
	return reply(Empty{})
}

func (s *Service) SendMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SendRequest
	if err := request(in, &req); err != nil {
		return nil, err
	}
	if req.ConversationID != "" {
		if sel := s.Inbox.Snapshot().Selected; sel == nil || sel.ID != req.ConversationID {
			if err := s.Inbox.Open(ctx, req.ConversationID); err != nil {
				return nil, toStatus(err)
			}
		}
	}
	if req.Text != "" {
		s.Inbox.SetDraft(req.Text)
	}
	if err := s.Inbox.Send(ctx); err != nil {
		return nil, toStatus(err)
	}
	return reply(ConversationReply{Conversation: s.Inbox.Snapshot().Selected})
}

func (s *Service) DeleteConversation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ConversationRequest
	if err := request(in, &req); err != nil {
		return nil, err
	}
	if err := s.Inbox.Delete(ctx, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return reply(Empty{})
}

func (s *Service) ApplyDeepLink(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req LinkRequest
	if err := request(in, &req); err != nil {
		return nil, err
	}
	link := deeplink.Link{UserID: req.UserID, ShipmentID: req.ShipmentID, Prefill: req.Prefill}
	if link.Empty() {
		return nil, grpcstatus.Error(codes.InvalidArgument, "deep link needs a user or shipment id")
	}
	if err := s.Inbox.ApplyDeepLink(ctx, link); err != nil {
		return nil, toStatus(err)
	}
	return reply(ConversationReply{Conversation: s.Inbox.Snapshot().Selected})
}

func (s *Service) SearchMessages(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SearchRequest
	if err := request(in, &req); err != nil {
		return nil, err
	}
	results, err := s.DB.SearchMessages(req.Query, req.ConversationID, req.Limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "search messages: %v", err)
	}
	out := SearchReply{Results: make([]SearchHit, 0, len(results))}
	for _, r := range results {
		hit := SearchHit{
			ConversationID: r.Message.ConversationID,
			MessageID:      r.Message.MsgID,
			SenderName:     r.Message.SenderName,
			Body:           r.Message.Body,
			Snippet:        r.Snippet,
		}
		if r.Message.CreatedAt > 0 {
			t := time.UnixMilli(r.Message.CreatedAt).UTC()
			hit.CreatedAt = &t
		}
		out.Results = append(out.Results, hit)
	}
	return reply(out)
}

func (s *Service) ListOutbox(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req OutboxRequest
	if err := request(in, &req); err != nil {
		return nil, err
	}
	entries, err := s.DB.ListOutbox(req.Limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list outbox: %v", err)
	}
	out := OutboxReply{Entries: make([]OutboxItem, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, OutboxItem{
			ClientMsgID:    e.ClientMsgID,
			ConversationID: e.ConversationID,
			ReceiverID:     e.ReceiverID,
			ShipmentID:     e.ShipmentID,
			Body:           e.Body,
			Status:         e.Status,
			Error:          e.ErrorMessage,
			ServerMsgID:    e.ServerMsgID,
			CreatedAt:      time.UnixMilli(e.CreatedAt).UTC(),
			UpdatedAt:      time.UnixMilli(e.UpdatedAt).UTC(),
		})
	}
	return reply(out)
}

// Logout forgets the session identity and clears the view. The session file
// is left alone.
func (s *Service) Logout(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.Sessions.Invalidate()
	s.Inbox.Reset()
	if err := s.Machine.Transition(status.AuthRequired); err != nil {
		s.Logger.Warn("session state unchanged on logout", zap.Error(err))
	}
	return reply(Empty{})
}

func (s *Service) WatchEvents(in *structpb.Struct, stream grpc.ServerStream) error {
	var req WatchRequest
	if err := request(in, &req); err != nil {
		return err
	}
	ch, unsub := s.Bus.Subscribe(req.Namespace, 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			out := Event{ID: evt.ID, Kind: evt.Kind, Timestamp: evt.Timestamp}
			if evt.Payload != nil {
				if data, err := json.Marshal(evt.Payload); err == nil {
					out.Payload = data
				}
			}
			msg, err := encode(out)
			if err != nil {
				s.Logger.Warn("dropping unencodable event", zap.String("kind", evt.Kind), zap.Error(err))
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}
