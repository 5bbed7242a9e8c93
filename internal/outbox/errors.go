package outbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/matheus3301/freightmsg/internal/marketapi"
	"github.com/matheus3301/freightmsg/internal/moderation"
)

var (
	// ErrEmptyMessage rejects a send whose text is blank.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNoConversation rejects a send with no conversation selected.
	ErrNoConversation = errors.New("no conversation selected")
	// ErrRecipientNotFound means no receiver id could be resolved.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrSendInFlight rejects a send while another is outstanding.
	ErrSendInFlight = errors.New("a message is already being sent")
)

// StatusGateError means the linked shipment is not in a state that allows
// messaging.
type StatusGateError struct {
	ShipmentID string
	Status     string
}

func (e *StatusGateError) Error() string {
	status := e.Status
	if status == "" {
		status = "unknown"
	}
	return fmt.Sprintf("shipment %s does not allow messaging in status %s", e.ShipmentID, status)
}

// Class groups send errors by how they are reported.
type Class int

const (
	ClassNone Class = iota
	ClassContent
	ClassEmpty
	ClassNoConversation
	ClassInFlight
	ClassRecipient
	ClassStatusGate
	ClassNetwork
	ClassCanceled
	ClassOther
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassContent:
		return "content"
	case ClassEmpty:
		return "empty"
	case ClassNoConversation:
		return "no_conversation"
	case ClassInFlight:
		return "in_flight"
	case ClassRecipient:
		return "recipient"
	case ClassStatusGate:
		return "status_gate"
	case ClassNetwork:
		return "network"
	case ClassCanceled:
		return "canceled"
	}
	return "other"
}

// Classify maps err onto a Class.
func Classify(err error) Class {
	var (
		violation *moderation.Violation
		gate      *StatusGateError
		netErr    *marketapi.NetworkError
		apiErr    *marketapi.APIError
	)
	switch {
	case err == nil:
		return ClassNone
	case errors.As(err, &violation):
		return ClassContent
	case errors.Is(err, ErrEmptyMessage):
		return ClassEmpty
	case errors.Is(err, ErrNoConversation):
		return ClassNoConversation
	case errors.Is(err, ErrSendInFlight):
		return ClassInFlight
	case errors.Is(err, ErrRecipientNotFound):
		return ClassRecipient
	case errors.As(err, &gate):
		return ClassStatusGate
	case errors.As(err, &apiErr) && isStatusRejection(apiErr):
		return ClassStatusGate
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return ClassNetwork
	case errors.As(err, &apiErr) && apiErr.Status >= 500:
		return ClassNetwork
	}
	return ClassOther
}

// UserMessage is the Turkish toast text for a send error.
func UserMessage(err error) string {
	switch Classify(err) {
	case ClassNone:
		return ""
	case ClassContent:
		return "Mesajınız uygunsuz ifadeler içeriyor."
	case ClassEmpty:
		return "Mesaj boş olamaz."
	case ClassNoConversation:
		return "Lütfen bir konuşma seçin."
	case ClassInFlight:
		return "Önceki mesaj hâlâ gönderiliyor."
	case ClassRecipient:
		return "Alıcı bulunamadı, lütfen konuşmayı yeniden başlatın."
	case ClassStatusGate:
		return fmt.Sprintf("Bu gönderi için mesajlaşma henüz açık değil (durum: %s).", StatusLabel(gatedStatus(err)))
	case ClassCanceled:
		return "Gönderim iptal edildi."
	}
	return "Mesaj gönderilemedi, lütfen tekrar deneyin."
}

// gatedStatus is the shipment status a status-gate error names, or "".
func gatedStatus(err error) string {
	var gate *StatusGateError
	if errors.As(err, &gate) {
		return gate.Status
	}
	var apiErr *marketapi.APIError
	if errors.As(err, &apiErr) {
		status, _ := rejectedStatus(apiErr.Message)
		return status
	}
	return ""
}

// isStatusRejection reports whether a 4xx reply refuses the send because of
// the shipment status. 401 and 403 are session failures, not status gates.
func isStatusRejection(e *marketapi.APIError) bool {
	if e.Status < 400 || e.Status >= 500 || e.Status == 401 || e.Status == 403 {
		return false
	}
	_, ok := rejectedStatus(e.Message)
	return ok
}

// gatedStatuses are the states the backend names when it refuses messaging.
var gatedStatuses = map[string]bool{
	"pending": true, "open": true, "waiting_for_offers": true, "offer_accepted": true,
	"cancelled": true, "canceled": true, "draft": true, "expired": true,
}

// rejectedStatus scans a backend message for a shipment status. ok is true
// when the message names a gated status or mentions a status at all; status
// is the first gated status found.
func rejectedStatus(msg string) (status string, ok bool) {
	words := strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_' && r != '-'
	})
	for _, w := range words {
		w = NormalizeStatus(w)
		switch {
		case gatedStatuses[w]:
			return w, true
		case w == "status" || w == "durum" || w == "durumu" || w == "durumda":
			ok = true
		}
	}
	return "", ok
}

// AllowedStatuses are the shipment states in which messaging is open.
var AllowedStatuses = []string{
	"accepted", "assigned", "in_progress", "picked_up", "in_transit", "delivered", "completed",
}

// NormalizeStatus lower-cases s and folds dashes and spaces to underscores.
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// StatusLabel is the Turkish display label of a shipment status.
func StatusLabel(s string) string {
	switch NormalizeStatus(s) {
	case "":
		return "bilinmiyor"
	case "pending":
		return "beklemede"
	case "open", "waiting_for_offers":
		return "teklif bekleniyor"
	case "offer_accepted":
		return "teklif kabul edildi"
	case "cancelled", "canceled":
		return "iptal edildi"
	case "draft":
		return "taslak"
	case "expired":
		return "süresi doldu"
	}
	return s
}
