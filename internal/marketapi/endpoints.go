package marketapi

import (
	"net/url"
	"strings"

	"github.com/matheus3301/freightmsg/internal/config"
	"github.com/matheus3301/freightmsg/internal/convo"
)

// Default backend paths. {id} is replaced with the path-escaped argument.
const (
	DefaultShipperConversations = "/api/messages/conversations"
	DefaultCarrierConversations = "/api/carrier/messages/conversations"
	DefaultDriverConversations  = "/api/driver/messages/conversations"
	DefaultShipmentThread       = "/api/messages/shipment/{id}"
	DefaultUserThread           = "/api/messages/conversation/{id}"
	DefaultSend                 = "/api/messages"
	DefaultDelete               = "/api/messages/conversation/{id}"
	DefaultShipment             = "/api/shipments/{id}"
)

// Endpoints is the resolved set of backend paths.
type Endpoints struct {
	ShipperConversations string
	CarrierConversations string
	DriverConversations  string
	ShipmentThread       string
	UserThread           string
	Send                 string
	Delete               string
	Shipment             string
}

// ResolveEndpoints fills unset overrides with the defaults.
func ResolveEndpoints(o config.Endpoints) Endpoints {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return Endpoints{
		ShipperConversations: pick(o.ShipperConversations, DefaultShipperConversations),
		CarrierConversations: pick(o.CarrierConversations, DefaultCarrierConversations),
		DriverConversations:  pick(o.DriverConversations, DefaultDriverConversations),
		ShipmentThread:       pick(o.ShipmentThread, DefaultShipmentThread),
		UserThread:           pick(o.UserThread, DefaultUserThread),
		Send:                 pick(o.Send, DefaultSend),
		Delete:               pick(o.Delete, DefaultDelete),
		Shipment:             pick(o.Shipment, DefaultShipment),
	}
}

// Conversations returns the list path for role.
func (e Endpoints) Conversations(role convo.Role) string {
	switch role {
	case convo.RoleNakliyeci, convo.RoleCarrier:
		return e.CarrierConversations
	case convo.RoleTasiyici:
		return e.DriverConversations
	default:
		return e.ShipperConversations
	}
}

func expand(path, id string) string {
	return strings.ReplaceAll(path, "{id}", url.PathEscape(id))
}
