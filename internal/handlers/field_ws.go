package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// ConnectWS plays a field over a websocket. Every text message holds one
// command per line and is answered with the field after the last command,
// or with an error object if a command fails.
func (h FieldHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	id, err := parseFieldID(r)
	if err != nil {
		SendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if !h.authorize(w, r, id) {
		return
	}
	if _, err := h.repo.GetFieldSession(r.Context(), id); err != nil {
		sendDomainError(w, h.logger, "unable to fetch field session", err)
		return
	}

	c, err := h.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("unable to upgrade", slog.Any("error", err))
		return
	}

	defer c.Close()

	logger := h.logger.With(slog.String("id", id.String()))
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("abnormal ws break", slog.Any("error", err))
			}
			break
		}
		if mt != websocket.TextMessage {
			break
		}
		text := strings.TrimSpace(string(message))
		logger.Debug("\t> " + text)

		var reply any
		for _, line := range strings.Split(text, "\n") {
			cmd, err := ParseCommand(line)
			if err == nil {
				session, field, playErr := h.play(r.Context(), id, cmd)
				if playErr == nil {
					reply = NewFieldDTO(session, field)
					continue
				}
				err = playErr
			}
			if statusFor(err) == http.StatusInternalServerError {
				logger.Error("unable to process command", slog.Any("error", err))
				return
			}
			reply = wrapError(err)
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			logger.Error("unable to write json", slog.Any("error", err))
			break
		}
		logger.Debug("\t< <field data>")
	}
}
