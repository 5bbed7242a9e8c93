package api

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/marketapi"
	"github.com/matheus3301/freightmsg/internal/outbox"
	"github.com/matheus3301/freightmsg/internal/session"
)

// Code maps a controller error onto a gRPC status code.
func Code(err error) codes.Code {
	var apiErr *marketapi.APIError
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, session.ErrNoSession), errors.Is(err, marketapi.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden):
		return codes.Unauthenticated
	case errors.Is(err, inbox.ErrUnknownConversation):
		return codes.NotFound
	case errors.Is(err, inbox.ErrClosed):
		return codes.Unavailable
	}

	switch outbox.Classify(err) {
	case outbox.ClassContent, outbox.ClassEmpty:
		return codes.InvalidArgument
	case outbox.ClassNoConversation, outbox.ClassStatusGate:
		return codes.FailedPrecondition
	case outbox.ClassRecipient:
		return codes.NotFound
	case outbox.ClassInFlight:
		return codes.Aborted
	case outbox.ClassNetwork:
		return codes.Unavailable
	case outbox.ClassCanceled:
		return codes.Canceled
	}
	return codes.Internal
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	return grpcstatus.Error(Code(err), err.Error())
}
