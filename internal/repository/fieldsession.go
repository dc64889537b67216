package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vancomm/minefield/internal/minefield"
)

type FieldSession struct {
	FieldSessionID uuid.UUID  `db:"field_session_id"`
	Name           *string    `db:"name"`
	Width          int32      `db:"width"`
	Height         int32      `db:"height"`
	MineCount      int32      `db:"mine_count"`
	GameState      int16      `db:"game_state"`
	TilesRemaining int32      `db:"tiles_remaining"`
	State          []byte     `db:"state"`
	StartedAt      time.Time  `db:"started_at"`
	EndedAt        *time.Time `db:"ended_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Field decodes the stored field.
func (s FieldSession) Field(opts ...minefield.Option) (*minefield.Field, error) {
	var f minefield.Field
	for _, opt := range opts {
		opt(&f)
	}
	if err := f.UnmarshalBinary(s.State); err != nil {
		return nil, err
	}
	return &f, nil
}

type CreateFieldSessionParams struct {
	Name  *string
	Field *minefield.Field
}

func (q *Queries) CreateFieldSession(
	ctx context.Context, params CreateFieldSessionParams,
) (*FieldSession, error) {
	state, err := params.Field.MarshalBinary()
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO field_session (
			field_session_id, name, width, height, mine_count,
			game_state, tiles_remaining, state
		)
		VALUES (
			@field_session_id, @name, @width, @height, @mine_count,
			@game_state, @tiles_remaining, @state
		)
		RETURNING *;`,
		pgx.NamedArgs{
			"field_session_id": id,
			"name":             params.Name,
			"width":            params.Field.Width(),
			"height":           params.Field.Height(),
			"mine_count":       params.Field.MineCount(),
			"game_state":       int16(params.Field.State()),
			"tiles_remaining":  params.Field.TilesRemaining(),
			"state":            state,
		},
	)
	session, err := pgx.CollectExactlyOneRow(
		rows, pgx.RowToAddrOfStructByName[FieldSession],
	)
	return session, classify(err)
}

func (q *Queries) GetFieldSession(ctx context.Context, id uuid.UUID) (*FieldSession, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT * FROM field_session WHERE field_session_id = $1",
		id,
	)
	session, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[FieldSession])
	return session, classify(err)
}

func (q *Queries) getFieldSessionForUpdate(ctx context.Context, id uuid.UUID) (*FieldSession, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT * FROM field_session WHERE field_session_id = $1 FOR UPDATE",
		id,
	)
	session, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[FieldSession])
	return session, classify(err)
}

type FieldSessionFilter struct {
	State *minefield.GameState
	Limit int
}

func (f FieldSessionFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.State != nil {
		clauses = append(clauses, "game_state = @game_state")
		args["game_state"] = int16(*f.State)
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	args["limit"] = limit
	return strings.Join(clauses, " AND "), args
}

func (q *Queries) ListFieldSessions(
	ctx context.Context, filter FieldSessionFilter,
) ([]FieldSession, error) {
	query := "SELECT * FROM field_session"
	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += " ORDER BY created_at DESC LIMIT @limit;"

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[FieldSession])
}

type UpdateFieldSessionParams struct {
	Field   *minefield.Field
	EndedAt *time.Time
}

func (q *Queries) UpdateFieldSession(
	ctx context.Context, id uuid.UUID, params UpdateFieldSessionParams,
) (*FieldSession, error) {
	state, err := params.Field.MarshalBinary()
	if err != nil {
		return nil, err
	}
	rows, _ := q.db.Query(
		ctx,
		`UPDATE field_session SET
			game_state = @game_state,
			tiles_remaining = @tiles_remaining,
			state = @state,
			ended_at = @ended_at,
			updated_at = now()
		WHERE field_session_id = @field_session_id
		RETURNING *;`,
		pgx.NamedArgs{
			"field_session_id": id,
			"game_state":       int16(params.Field.State()),
			"tiles_remaining":  params.Field.TilesRemaining(),
			"state":            state,
			"ended_at":         params.EndedAt,
		},
	)
	session, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[FieldSession])
	return session, classify(err)
}

// Repository runs queries that need their own transaction.
type Repository struct {
	*Queries
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Queries: New(pool), pool: pool}
}

// WithFieldForUpdate locks the session row, applies fn to the decoded field and
// stores the result. Nothing is written if fn fails. The end time is set
// the first time the field is found finished.
func (r *Repository) WithFieldForUpdate(
	ctx context.Context, id uuid.UUID, fn func(*minefield.Field) error,
) (*FieldSession, error) {
	var updated *FieldSession
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		q := r.WithTx(tx)
		session, err := q.getFieldSessionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		field, err := session.Field()
		if err != nil {
			return err
		}
		if err := fn(field); err != nil {
			return err
		}
		endedAt := session.EndedAt
		if field.Finished() && endedAt == nil {
			now := time.Now().UTC()
			endedAt = &now
		}
		updated, err = q.UpdateFieldSession(ctx, id, UpdateFieldSessionParams{
			Field:   field,
			EndedAt: endedAt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
