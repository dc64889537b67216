package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/middleware"
	"github.com/vancomm/minefield/internal/minefield"
	"github.com/vancomm/minefield/internal/repository"
)

type FieldRepository interface {
	CreateFieldSession(context.Context, repository.CreateFieldSessionParams) (*repository.FieldSession, error)
	GetFieldSession(context.Context, uuid.UUID) (*repository.FieldSession, error)
	ListFieldSessions(context.Context, repository.FieldSessionFilter) ([]repository.FieldSession, error)
	WithFieldForUpdate(context.Context, uuid.UUID, func(*minefield.Field) error) (*repository.FieldSession, error)
}

type FieldHandler struct {
	logger *slog.Logger
	repo   FieldRepository
	jwt    *config.JWT
	ws     *config.WebSocket
	game   config.Game
}

func NewFieldHandler(
	logger *slog.Logger,
	repo FieldRepository,
	jwt *config.JWT,
	ws *config.WebSocket,
	game *config.Game,
) *FieldHandler {
	handler := &FieldHandler{
		logger: logger,
		repo:   repo,
		jwt:    jwt,
		ws:     ws,
		game:   *game,
	}

	return handler
}

var (
	ErrBadFieldID   = errors.New("field id must be a uuid")
	ErrUnauthorized = errors.New("missing or invalid field token")
	ErrForbidden    = errors.New("token does not grant access to this field")
)

func parseFieldID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, ErrBadFieldID
	}
	return id, nil
}

// authorize checks that the request carries a token for field id and reports
// the failure to the client otherwise.
func (h FieldHandler) authorize(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	claims, ok := middleware.FieldClaims(r.Context())
	if !ok {
		SendErrorOrLog(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return false
	}
	if claims.FieldID != id.String() {
		SendErrorOrLog(w, h.logger, http.StatusForbidden, ErrForbidden)
		return false
	}
	return true
}

func (h FieldHandler) NewField(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseCreateFieldDTO(r.URL.Query())
	if err != nil {
		SendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}

	params, err := dto.Params(h.game)
	if err != nil {
		sendDomainError(w, h.logger, "unable to resolve field params", err)
		return
	}

	field, err := minefield.New(params)
	if err != nil {
		sendDomainError(w, h.logger, "unable to create field", err)
		return
	}

	session, err := h.repo.CreateFieldSession(r.Context(), repository.CreateFieldSessionParams{
		Name:  dto.NamePtr(),
		Field: field,
	})
	if err != nil {
		sendDomainError(w, h.logger, "unable to store field session", err)
		return
	}

	token, err := h.jwt.Sign(
		config.NewFieldClaims(session.FieldSessionID.String(), h.jwt.TokenLifetime),
	)
	if err != nil {
		sendDomainError(w, h.logger, "unable to sign field token", err)
		return
	}

	h.logger.Debug("field created",
		slog.String("id", session.FieldSessionID.String()),
		slog.String("params", params.String()),
	)

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	SendJSONOrLog(w, h.logger, CreatedFieldDTO{
		FieldDTO: NewFieldDTO(session, field),
		Token:    token,
	})
}

func (h FieldHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	id, err := parseFieldID(r)
	if err != nil {
		SendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}

	session, field, err := h.play(r.Context(), id, Command{Move: Noop})
	if err != nil {
		sendDomainError(w, h.logger, "unable to fetch field session", err)
		return
	}

	SendJSONOrLog(w, h.logger, NewFieldDTO(session, field))
}

func (h FieldHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter repository.FieldSessionFilter
	if s := query.Get("state"); s != "" {
		state, ok := minefield.GameStateFromString(s)
		if !ok {
			SendErrorOrLog(w, h.logger, http.StatusBadRequest,
				fmt.Errorf("unknown game state %q", s))
			return
		}
		filter.State = &state
	}
	if s := query.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			SendErrorOrLog(w, h.logger, http.StatusBadRequest,
				fmt.Errorf("limit must be an int"))
			return
		}
		filter.Limit = limit
	}

	sessions, err := h.repo.ListFieldSessions(r.Context(), filter)
	if err != nil {
		sendDomainError(w, h.logger, "unable to list field sessions", err)
		return
	}

	dtos := make([]FieldSummaryDTO, 0, len(sessions))
	for _, s := range sessions {
		dtos = append(dtos, NewFieldSummaryDTO(s))
	}
	SendJSONOrLog(w, h.logger, dtos)
}

func (h FieldHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, err := parseFieldID(r)
	if err != nil {
		SendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if !h.authorize(w, r, id) {
		return
	}

	query := r.URL.Query()
	move, err := ParseMove(query.Get("move"))
	if err != nil {
		SendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}
	pos, err := ParsePosition(query)
	if err != nil {
		SendErrorOrLog(w, h.logger, http.StatusBadRequest, err)
		return
	}

	session, field, err := h.play(r.Context(), id, Command{move, pos})
	if err != nil {
		sendDomainError(w, h.logger, "unable to apply move", err)
		return
	}

	SendJSONOrLog(w, h.logger, NewFieldDTO(session, field))
}

// play applies cmd to the stored field under a row lock and returns the
// updated session with its decoded field.
func (h FieldHandler) play(
	ctx context.Context, id uuid.UUID, cmd Command,
) (*repository.FieldSession, *minefield.Field, error) {
	if cmd.Move == Noop {
		session, err := h.repo.GetFieldSession(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		field, err := session.Field()
		if err != nil {
			return nil, nil, err
		}
		return session, field, nil
	}

	var field *minefield.Field
	session, err := h.repo.WithFieldForUpdate(ctx, id, func(f *minefield.Field) error {
		field = f
		minefield.WithStateListener(func(from, to minefield.GameState) {
			h.logger.Info("field state changed",
				slog.String("id", id.String()),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		})(f)
		return cmd.Move.Apply(f, cmd.X, cmd.Y, h.game.Questions)
	})
	if err != nil {
		return nil, nil, err
	}
	return session, field, nil
}
