// Package marketapi is the marketplace REST backend client.
package marketapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matheus3301/freightmsg/internal/config"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/metrics"
	"github.com/matheus3301/freightmsg/internal/wire"
)

// ErrUnauthenticated is returned when a call is attempted without a token.
var ErrUnauthenticated = errors.New("marketapi: missing auth token")

// APIError is a backend rejection: an HTTP status of 400 or more, or a
// {"success": false} envelope.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request rejected"
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: %d %s", e.Endpoint, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, msg)
}

// NetworkError wraps a transport failure where no response arrived.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SendRequest is the body of a send call.
type SendRequest struct {
	ReceiverID string `json:"receiverId"`
	ShipmentID string `json:"shipmentId,omitempty"`
	Message    string `json:"message"`
}

// Client talks to the marketplace backend with one bearer token.
type Client struct {
	base      string
	endpoints Endpoints
	timeout   time.Duration
	limiter   *rate.Limiter
	http      *fasthttp.Client
	metrics   *metrics.Metrics
	log       *zap.Logger

	token func() string
}

// New creates a client. token is called per request so a logout or token
// refresh takes effect immediately.
func New(cfg config.API, token func() string, m *metrics.Metrics, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		endpoints: ResolveEndpoints(cfg.Endpoints),
		timeout:   cfg.Timeout(),
		limiter:   rate.NewLimiter(limit, burst),
		http: &fasthttp.Client{
			Name:                "freightmsg",
			MaxIdleConnDuration: 30 * time.Second,
		},
		metrics: m,
		log:     log,
		token:   token,
	}
}

// Conversations lists the conversations visible to role.
func (c *Client) Conversations(ctx context.Context, role convo.Role) ([]wire.RawConversation, error) {
	body, err := c.do(ctx, "conversations", fasthttp.MethodGet, c.endpoints.Conversations(role), nil)
	if err != nil {
		return nil, err
	}
	rows, err := wire.DecodeConversations(body)
	return rows, c.envelope("conversations", err)
}

// ShipmentThread fetches the messages exchanged about a shipment.
func (c *Client) ShipmentThread(ctx context.Context, shipmentID string) ([]wire.RawMessage, error) {
	body, err := c.do(ctx, "shipment_thread", fasthttp.MethodGet, expand(c.endpoints.ShipmentThread, shipmentID), nil)
	if err != nil {
		return nil, err
	}
	msgs, err := wire.DecodeMessages(body)
	return msgs, c.envelope("shipment_thread", err)
}

// UserThread fetches the direct messages with a user.
func (c *Client) UserThread(ctx context.Context, userID string) ([]wire.RawMessage, error) {
	body, err := c.do(ctx, "user_thread", fasthttp.MethodGet, expand(c.endpoints.UserThread, userID), nil)
	if err != nil {
		return nil, err
	}
	msgs, err := wire.DecodeMessages(body)
	return msgs, c.envelope("user_thread", err)
}

// Send posts a message and returns the server's record of it, which may be
// empty when the backend answers without a body.
func (c *Client) Send(ctx context.Context, req SendRequest) (wire.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return wire.RawMessage{}, fmt.Errorf("encode send: %w", err)
	}
	body, err := c.do(ctx, "send", fasthttp.MethodPost, c.endpoints.Send, payload)
	if err != nil {
		return wire.RawMessage{}, err
	}
	msg, err := wire.DecodeMessage(body)
	return msg, c.envelope("send", err)
}

// DeleteConversation removes the thread with userID, scoped to shipmentID
// when it is non-empty.
func (c *Client) DeleteConversation(ctx context.Context, userID, shipmentID string) error {
	path := expand(c.endpoints.Delete, userID)
	if shipmentID != "" {
		path += "?" + url.Values{"shipmentId": {shipmentID}}.Encode()
	}
	body, err := c.do(ctx, "delete", fasthttp.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	_, err = wire.DecodeObject(body)
	return c.envelope("delete", err)
}

// Shipment fetches a shipment's status and parties.
func (c *Client) Shipment(ctx context.Context, shipmentID string) (wire.RawShipment, error) {
	body, err := c.do(ctx, "shipment", fasthttp.MethodGet, expand(c.endpoints.Shipment, shipmentID), nil)
	if err != nil {
		return wire.RawShipment{}, err
	}
	s, err := wire.DecodeShipment(body)
	return s, c.envelope("shipment", err)
}

func (c *Client) envelope(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	var envErr *wire.EnvelopeError
	if errors.As(err, &envErr) {
		return &APIError{Endpoint: endpoint, Message: envErr.Message}
	}
	return fmt.Errorf("%s: %w", endpoint, err)
}

// do performs one request. The returned body is a copy owned by the caller.
// fasthttp has no context support, so the context only supplies the deadline
// and is checked again once the call returns.
func (c *Client) do(ctx context.Context, endpoint, method, path string, payload []byte) ([]byte, error) {
	token := ""
	if c.token != nil {
		token = c.token()
	}
	if token == "" {
		return nil, ErrUnauthenticated
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.APIRequest(endpoint, 0, elapsed)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
			return nil, context.DeadlineExceeded
		}
		c.log.Warn("backend request failed",
			zap.String("endpoint", endpoint),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := resp.StatusCode()
	c.metrics.APIRequest(endpoint, status, elapsed)
	body := append([]byte(nil), resp.Body()...)
	c.log.Debug("backend request",
		zap.String("endpoint", endpoint),
		zap.String("method", method),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	)

	if status >= 400 {
		apiErr := &APIError{Endpoint: endpoint, Status: status}
		f, err := wire.DecodeObject(body)
		var envErr *wire.EnvelopeError
		switch {
		case errors.As(err, &envErr):
			apiErr.Message = envErr.Message
		case err == nil:
			apiErr.Message = f.Get(wire.FieldErrorMessage)
		}
		return nil, apiErr
	}
	return body, nil
}
