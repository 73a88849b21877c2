package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/services"
	"github.com/kassabot/raffle-backend/internal/transport"
)

// ErrorReporter forwards unexpected failures to the operator channel so
// somebody sees them without tailing logs
type ErrorReporter struct {
	messenger   transport.Messenger
	errorChatID int64
}

// NewErrorReporter creates a new ErrorReporter. A zero errorChatID
// disables forwarding.
func NewErrorReporter(messenger transport.Messenger, errorChatID int64) *ErrorReporter {
	return &ErrorReporter{messenger: messenger, errorChatID: errorChatID}
}

// Report logs the error and pushes it to the operator channel
func (r *ErrorReporter) Report(ctx context.Context, err error) {
	slog.Error("Unhandled error", "error", err)
	if r.errorChatID == 0 {
		return
	}
	if serr := r.messenger.Send(ctx, r.errorChatID, "Error encountered: "+err.Error(), nil); serr != nil {
		slog.Error("Failed to forward error to operator channel", "error", serr)
	}
}

// respondError maps domain errors to HTTP status codes and user-facing
// text. Anything outside the known set becomes a generic 500 and is
// forwarded to the operator channel.
func respondError(c *gin.Context, reporter *ErrorReporter, err error) {
	status, message := http.StatusInternalServerError, services.MsgServerError
	switch {
	case errors.Is(err, models.ErrForbidden):
		status, message = http.StatusForbidden, services.MsgForbidden
	case errors.Is(err, models.ErrUserNotFound):
		status, message = http.StatusNotFound, services.MsgUserNotFound
	case errors.Is(err, models.ErrAlreadyWinner):
		status, message = http.StatusConflict, services.MsgAlreadyWinner
	case errors.Is(err, models.ErrAlreadyRegistered):
		status, message = http.StatusConflict, services.MsgDoubleRegister
	case errors.Is(err, models.ErrNoRaffle):
		status, message = http.StatusNotFound, services.MsgNoRaffle
	case errors.Is(err, models.ErrNoEntries):
		status, message = http.StatusNotFound, services.MsgNoEntries
	case errors.Is(err, models.ErrInvalidFile):
		status, message = http.StatusBadRequest, services.MsgInvalidFile
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	default:
		reporter.Report(c.Request.Context(), err)
	}
	c.JSON(status, gin.H{"error": message})
}
