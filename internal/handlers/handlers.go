package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vancomm/minefield/internal/minefield"
	"github.com/vancomm/minefield/internal/repository"
)

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Add("Content-Type", "application/json")
	return w.Write(payload)
}

func SendJSONOrLog(w http.ResponseWriter,
	logger *slog.Logger,
	v any,
) {
	_, err := SendJSON(w, v)
	if err != nil {
		logger.Error(
			"failed to send data",
			slog.Any("data", v),
			slog.Any("error", err),
		)
	}
}

func SendErrorOrLog(
	w http.ResponseWriter,
	logger *slog.Logger,
	status int,
	e error,
) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	payload, err := json.Marshal(wrapError(e))
	if err == nil {
		_, err = w.Write(payload)
	}
	if err != nil {
		logger.Error(
			"failed to send error message",
			slog.Any("sent error", e),
			slog.Any("error", err),
		)
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

// statusFor maps domain errors to a response status. Anything unknown is an
// internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, minefield.ErrOutOfBounds),
		errors.Is(err, minefield.ErrInvalidConfiguration),
		errors.Is(err, ErrBadCommand):
		return http.StatusBadRequest
	case errors.Is(err, minefield.ErrGameFinished),
		errors.Is(err, minefield.ErrIllegalTransition),
		errors.Is(err, repository.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// sendDomainError reports err with the matching status. Internal errors are
// logged and their text is not sent to the client.
func sendDomainError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, slog.Any("error", err))
		SendErrorOrLog(w, logger, status, errors.New(http.StatusText(status)))
		return
	}
	SendErrorOrLog(w, logger, status, err)
}
