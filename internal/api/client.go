package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/inbox"
)

// Client is a typed client of the Inbox service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon's Unix domain socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	in, err := encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return decode(out, resp)
}

// Session reports daemon status and the signed-in user.
func (c *Client) Session(ctx context.Context) (SessionInfo, error) {
	var info SessionInfo
	err := c.call(ctx, MethodGetSession, Empty{}, &info)
	return info, err
}

// View returns the controller state.
func (c *Client) View(ctx context.Context) (inbox.View, error) {
	var v inbox.View
	err := c.call(ctx, MethodGetView, Empty{}, &v)
	return v, err
}

// Conversations lists conversations, reloading them first when refresh is set.
func (c *Client) Conversations(ctx context.Context, refresh bool) ([]convo.Conversation, error) {
	var out ConversationList
	err := c.call(ctx, MethodListConversations, ListRequest{Refresh: refresh}, &out)
	return out.Conversations, err
}

// Open selects a conversation and returns it with its thread.
func (c *Client) Open(ctx context.Context, id string) (*convo.Conversation, error) {
	var out ConversationReply
	err := c.call(ctx, MethodOpenConversation, ConversationRequest{ID: id}, &out)
	return out.Conversation, err
}

// SetDraft replaces the compose text.
func (c *Client) SetDraft(ctx context.Context, text string) error {
	return c.call(ctx, MethodSetDraft, DraftRequest{Text: text}, nil)
}

// Send sends text, or the draft when text is empty, to conversationID or
// the open conversation.
func (c *Client) Send(ctx context.Context, conversationID, text string) (*convo.Conversation, error) {
	var out ConversationReply
	err := c.call(ctx, MethodSendMessage, SendRequest{ConversationID: conversationID, Text: text}, &out)
	return out.Conversation, err
}

// Delete removes a conversation.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.call(ctx, MethodDeleteConversation, ConversationRequest{ID: id}, nil)
}

// ApplyDeepLink opens or creates the linked conversation.
func (c *Client) ApplyDeepLink(ctx context.Context, req LinkRequest) (*convo.Conversation, error) {
	var out ConversationReply
	err := c.call(ctx, MethodApplyDeepLink, req, &out)
	return out.Conversation, err
}

// Search searches cached messages.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]SearchHit, error) {
	var out SearchReply
	err := c.call(ctx, MethodSearchMessages, req, &out)
	return out.Results, err
}

// Outbox lists recent send attempts.
func (c *Client) Outbox(ctx context.Context, limit int) ([]OutboxItem, error) {
	var out OutboxReply
	err := c.call(ctx, MethodListOutbox, OutboxRequest{Limit: limit}, &out)
	return out.Entries, err
}

// Logout forgets the session identity on the daemon.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, MethodLogout, Empty{}, nil)
}

// Watch streams bus events matching namespace until ctx ends or the stream
// fails. fn returning an error stops the stream with that error.
func (c *Client) Watch(ctx context.Context, namespace string, fn func(Event) error) error {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod(MethodWatchEvents))
	if err != nil {
		return err
	}
	in, err := encode(WatchRequest{Namespace: namespace})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(in); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			return err
		}
		var evt Event
		if err := decode(msg, &evt); err != nil {
			return err
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
}
