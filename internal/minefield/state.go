package minefield

import (
	"fmt"
	"strconv"
)

// TileState is the player-visible state of a tile. The numeric values are
// the codes written by [Field.Encode].
type TileState uint8

const (
	Covered TileState = iota
	Flagged
	Question
	Uncovered
)

func (s TileState) String() string {
	switch s {
	case Covered:
		return "covered"
	case Flagged:
		return "flagged"
	case Question:
		return "question"
	case Uncovered:
		return "uncovered"
	default:
		return "TileState(" + strconv.Itoa(int(s)) + ")"
	}
}

// IsCovered reports whether the tile is still covered, with or without a mark.
func (s TileState) IsCovered() bool {
	return s != Uncovered
}

func ParseTileState(code uint8) (TileState, error) {
	if code > uint8(Uncovered) {
		return 0, fmt.Errorf("%w: invalid tile state code %d", ErrCorruptData, code)
	}
	return TileState(code), nil
}

// NextMark returns the state a covered tile cycles to when the player
// toggles its mark. Question marks are skipped unless enabled.
func NextMark(s TileState, questions bool) TileState {
	switch s {
	case Covered:
		return Flagged
	case Flagged:
		if questions {
			return Question
		}
		return Covered
	case Uncovered:
		return Uncovered
	default:
		return Covered
	}
}

type GameState uint8

const (
	NotStarted GameState = iota
	Running
	Won
	Lost
)

func (s GameState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "GameState(" + strconv.Itoa(int(s)) + ")"
	}
}

// Finished reports whether s is terminal.
func (s GameState) Finished() bool {
	return s == Won || s == Lost
}

func ParseGameState(code uint8) (GameState, error) {
	if code > uint8(Lost) {
		return 0, fmt.Errorf("%w: invalid game state code %d", ErrCorruptData, code)
	}
	return GameState(code), nil
}

// GameStateFromString is the inverse of [GameState.String].
func GameStateFromString(s string) (GameState, bool) {
	for st := NotStarted; st <= Lost; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}
