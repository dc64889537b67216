package handlers

import (
	"fmt"
	"strings"

	"github.com/gorilla/schema"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/minefield"
	"github.com/vancomm/minefield/internal/repository"
)

type CreateFieldDTO struct {
	Difficulty string `schema:"difficulty"`
	Width      int    `schema:"width"`
	Height     int    `schema:"height"`
	MineCount  int    `schema:"mine_count"`
	Name       string `schema:"name"`
}

func ParseCreateFieldDTO(src map[string][]string) (CreateFieldDTO, error) {
	var dto CreateFieldDTO
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	if err := dec.Decode(&dto, src); err != nil {
		return dto, fmt.Errorf("%w: %w", ErrBadCommand, err)
	}
	return dto, nil
}

// Params resolves the requested field size against the service defaults.
// Explicit dimensions without a difficulty select a custom field.
func (dto CreateFieldDTO) Params(defaults config.Game) (minefield.Params, error) {
	game := defaults
	if dto.Difficulty != "" {
		d, err := config.ParseDifficulty(dto.Difficulty)
		if err != nil {
			return minefield.Params{}, fmt.Errorf("%w: %w", ErrBadCommand, err)
		}
		game.Difficulty = d
	}
	if dto.Width != 0 || dto.Height != 0 || dto.MineCount != 0 {
		if dto.Difficulty == "" {
			game.Difficulty = config.Custom
		}
		game.Custom = minefield.Params{
			Width:     dto.Width,
			Height:    dto.Height,
			MineCount: dto.MineCount,
		}
	}
	return game.Params()
}

func (dto CreateFieldDTO) NamePtr() *string {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil
	}
	return &name
}

type CellStatus int8

const (
	Question      CellStatus = -3
	Unknown       CellStatus = -2
	Flag          CellStatus = -1
	CorrectFlag   CellStatus = 64 // post-game-over
	ExplodedMine  CellStatus = 65
	WrongFlag     CellStatus = 66
	UnflaggedMine CellStatus = 67
	// 0-8 for an uncovered tile with the given number of mined neighbors
)

// cellStatus is what a player may see of a tile. Covered values stay hidden
// until the game is over.
func cellStatus(t minefield.Tile, finished bool) CellStatus {
	mine := t.Value == minefield.Mine
	switch t.State {
	case minefield.Uncovered:
		if mine {
			return ExplodedMine
		}
		return CellStatus(t.Value)
	case minefield.Flagged:
		switch {
		case !finished:
			return Flag
		case mine:
			return CorrectFlag
		default:
			return WrongFlag
		}
	}
	if finished && mine {
		return UnflaggedMine
	}
	if t.State == minefield.Question {
		return Question
	}
	return Unknown
}

func NewGrid(f *minefield.Field) []CellStatus {
	grid := make([]CellStatus, 0, f.Width()*f.Height())
	for _, t := range f.Tiles() {
		grid = append(grid, cellStatus(t, f.Finished()))
	}
	return grid
}

type FieldDTO struct {
	FieldID        string       `json:"field_id"`
	Name           *string      `json:"name,omitempty"`
	Width          int          `json:"width"`
	Height         int          `json:"height"`
	MineCount      int          `json:"mine_count"`
	MinesLeft      int          `json:"mines_left"`
	TilesRemaining int          `json:"tiles_remaining"`
	State          string       `json:"state"`
	Grid           []CellStatus `json:"grid"`
	StartedAt      int64        `json:"started_at"`
	EndedAt        *int64       `json:"ended_at,omitempty"`
}

func NewFieldDTO(session *repository.FieldSession, f *minefield.Field) *FieldDTO {
	var endedAt *int64
	if session.EndedAt != nil {
		e := session.EndedAt.UnixMilli()
		endedAt = &e
	}
	return &FieldDTO{
		FieldID:        session.FieldSessionID.String(),
		Name:           session.Name,
		Width:          f.Width(),
		Height:         f.Height(),
		MineCount:      f.MineCount(),
		MinesLeft:      f.MineCount() - f.Flags(),
		TilesRemaining: f.TilesRemaining(),
		State:          f.State().String(),
		Grid:           NewGrid(f),
		StartedAt:      session.StartedAt.UnixMilli(),
		EndedAt:        endedAt,
	}
}

// FieldSummaryDTO lists a session without its grid.
type FieldSummaryDTO struct {
	FieldID        string  `json:"field_id"`
	Name           *string `json:"name,omitempty"`
	Width          int32   `json:"width"`
	Height         int32   `json:"height"`
	MineCount      int32   `json:"mine_count"`
	TilesRemaining int32   `json:"tiles_remaining"`
	State          string  `json:"state"`
	StartedAt      int64   `json:"started_at"`
	EndedAt        *int64  `json:"ended_at,omitempty"`
}

func NewFieldSummaryDTO(session repository.FieldSession) FieldSummaryDTO {
	var endedAt *int64
	if session.EndedAt != nil {
		e := session.EndedAt.UnixMilli()
		endedAt = &e
	}
	return FieldSummaryDTO{
		FieldID:        session.FieldSessionID.String(),
		Name:           session.Name,
		Width:          session.Width,
		Height:         session.Height,
		MineCount:      session.MineCount,
		TilesRemaining: session.TilesRemaining,
		State:          minefield.GameState(session.GameState).String(),
		StartedAt:      session.StartedAt.UnixMilli(),
		EndedAt:        endedAt,
	}
}

type CreatedFieldDTO struct {
	*FieldDTO
	Token string `json:"token"`
}
