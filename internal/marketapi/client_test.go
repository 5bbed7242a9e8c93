package marketapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/freightmsg/internal/config"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/metrics"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Default().API
	cfg.BaseURL = srv.URL
	cfg.RatePerSecond = 0
	return New(cfg, func() string { return "tok" }, metrics.New(), nil)
}

func TestConversationsByRole(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		io.WriteString(w, `{"success":true,"data":[{"shipmentId":"42","carrierName":"Acme","otherUserId":7}]}`)
	}))

	for _, role := range []convo.Role{convo.RoleIndividual, convo.RoleNakliyeci, convo.RoleTasiyici} {
		rows, err := c.Conversations(context.Background(), role)
		if err != nil {
			t.Fatalf("Conversations(%s): %v", role, err)
		}
		if len(rows) != 1 || rows[0].ShipmentID != "42" {
			t.Fatalf("rows = %+v", rows)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	want := []string{DefaultShipperConversations, DefaultCarrierConversations, DefaultDriverConversations}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("path[%d] = %q, want %q", i, paths[i], p)
		}
	}
}

func TestSend(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != DefaultSend {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.ReceiverID != "7" || req.ShipmentID != "42" || req.Message != "selam" {
			t.Errorf("req = %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"success":true,"data":{"id":991,"message":"selam","senderId":1}}`)
	}))

	msg, err := c.Send(context.Background(), SendRequest{ReceiverID: "7", ShipmentID: "42", Message: "selam"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ServerID != "991" || msg.Body != "selam" {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestDeleteConversationQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/messages/conversation/7" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("shipmentId"); got != "42" {
			t.Errorf("shipmentId = %q", got)
		}
		io.WriteString(w, `{"success":true}`)
	}))
	if err := c.DeleteConversation(context.Background(), "7", "42"); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
}

func TestShipment(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/shipments/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, `{"success":true,"data":{"shipment":{"id":42,"status":"pending","userId":3}}}`)
	}))
	s, err := c.Shipment(context.Background(), "42")
	if err != nil {
		t.Fatalf("Shipment: %v", err)
	}
	if s.Status != "pending" || len(s.ShipperIDs) != 1 {
		t.Fatalf("shipment = %+v", s)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		status0 bool
	}{
		{"http error", http.StatusForbidden, `{"message":"yetkisiz"}`, "yetkisiz", false},
		{"http error envelope", http.StatusBadRequest, `{"success":false,"message":"geçersiz"}`, "geçersiz", false},
		{"envelope failure", http.StatusOK, `{"success":false,"error":"kapalı"}`, "kapalı", true},
		{"plain text", http.StatusInternalServerError, `oops`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			_, err := c.UserThread(context.Background(), "7")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if tt.status0 != (apiErr.Status == 0) {
				t.Errorf("status = %d", apiErr.Status)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.Default().API
	cfg.BaseURL = url
	cfg.TimeoutSeconds = 1
	c := New(cfg, func() string { return "tok" }, nil, nil)

	_, err := c.ShipmentThread(context.Background(), "1")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestMissingToken(t *testing.T) {
	c := New(config.Default().API, func() string { return "" }, nil, nil)
	if _, err := c.Conversations(context.Background(), convo.RoleIndividual); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `[]`)
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.UserThread(ctx, "7"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
