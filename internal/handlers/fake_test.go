package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minefield/internal/minefield"
	"github.com/vancomm/minefield/internal/repository"
)

// memRepository keeps sessions in memory and behaves like the postgres
// repository: failed updates are not stored.
type memRepository struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]repository.FieldSession
	order    []uuid.UUID
}

func newMemRepository() *memRepository {
	return &memRepository{sessions: make(map[uuid.UUID]repository.FieldSession)}
}

func (m *memRepository) CreateFieldSession(
	_ context.Context, params repository.CreateFieldSessionParams,
) (*repository.FieldSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if params.Name != nil {
		for _, s := range m.sessions {
			if s.Name != nil && *s.Name == *params.Name {
				return nil, repository.ErrNameTaken
			}
		}
	}

	state, err := params.Field.MarshalBinary()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	s := repository.FieldSession{
		FieldSessionID: uuid.New(),
		Name:           params.Name,
		Width:          int32(params.Field.Width()),
		Height:         int32(params.Field.Height()),
		MineCount:      int32(params.Field.MineCount()),
		GameState:      int16(params.Field.State()),
		TilesRemaining: int32(params.Field.TilesRemaining()),
		State:          state,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.sessions[s.FieldSessionID] = s
	m.order = append(m.order, s.FieldSessionID)
	return &s, nil
}

func (m *memRepository) GetFieldSession(
	_ context.Context, id uuid.UUID,
) (*repository.FieldSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memRepository) ListFieldSessions(
	_ context.Context, filter repository.FieldSessionFilter,
) ([]repository.FieldSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sessions []repository.FieldSession
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.sessions[m.order[i]]
		if filter.State != nil && s.GameState != int16(*filter.State) {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (m *memRepository) WithFieldForUpdate(
	_ context.Context, id uuid.UUID, fn func(*minefield.Field) error,
) (*repository.FieldSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	field, err := s.Field()
	if err != nil {
		return nil, err
	}
	if err := fn(field); err != nil {
		return nil, err
	}
	if s.State, err = field.MarshalBinary(); err != nil {
		return nil, err
	}
	s.GameState = int16(field.State())
	s.TilesRemaining = int32(field.TilesRemaining())
	if field.Finished() && s.EndedAt == nil {
		now := time.Now().UTC()
		s.EndedAt = &now
	}
	s.UpdatedAt = time.Now().UTC()
	m.sessions[id] = s
	return &s, nil
}
