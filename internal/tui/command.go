package tui

import (
	"errors"
	"strings"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/deeplink"
)

// Command represents a parsed prompt command.
type Command struct {
	Name string
	Args string
}

var errLinkTarget = errors.New("link needs userId or shipmentId")

var aliases = map[string]string{
	"q":    "quit",
	"exit": "quit",
	"h":    "help",
	"r":    "refresh",
	"s":    "search",
	"o":    "open",
	"rm":   "delete",
	"del":  "delete",
}

// ParseCommand parses a command string (without the leading ':'). Names are
// lowercased and aliases resolved.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if full, ok := aliases[cmd.Name]; ok {
		cmd.Name = full
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// linkRequest turns ":link" arguments, in deep link query form, into a
// request.
func linkRequest(args string) (api.LinkRequest, error) {
	l, err := deeplink.ParseQuery(args)
	if err != nil {
		return api.LinkRequest{}, err
	}
	if l.Empty() {
		return api.LinkRequest{}, errLinkTarget
	}
	return api.LinkRequest{UserID: l.UserID, ShipmentID: l.ShipmentID, Prefill: l.Prefill}, nil
}
