package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gorilla/schema"

	"github.com/vancomm/minefield/internal/minefield"
)

var ErrBadCommand = errors.New("bad command")

type Move uint8

const (
	Noop Move = iota
	Open
	Flag
	Question
	Cover
	Mark
	Chord
)

var moveNames = [...]string{"noop", "open", "flag", "question", "cover", "mark", "chord"}

func (m Move) String() string {
	if int(m) < len(moveNames) {
		return moveNames[m]
	}
	return "Move(" + strconv.Itoa(int(m)) + ")"
}

func ParseMove(s string) (Move, error) {
	for i, name := range moveNames[1:] {
		if strings.EqualFold(s, name) {
			return Move(i + 1), nil
		}
	}
	return Noop, fmt.Errorf(
		"%w: move must be one of %s", ErrBadCommand, strings.Join(moveNames[1:], ", "),
	)
}

// Apply plays m on f at (x, y).
func (m Move) Apply(f *minefield.Field, x, y int, questions bool) error {
	switch m {
	case Noop:
		return nil
	case Open:
		return f.Reveal(x, y)
	case Flag:
		return f.SetMark(x, y, minefield.Flagged)
	case Question:
		if !questions {
			return fmt.Errorf("%w: question marks are disabled", ErrBadCommand)
		}
		return f.SetMark(x, y, minefield.Question)
	case Cover:
		return f.SetMark(x, y, minefield.Covered)
	case Mark:
		return f.ToggleMark(x, y, questions)
	case Chord:
		return f.Chord(x, y)
	}
	return fmt.Errorf("%w: unknown move %s", ErrBadCommand, m)
}

type Position struct {
	X int `schema:"x,required"`
	Y int `schema:"y,required"`
}

func ParsePosition(src map[string][]string) (Position, error) {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	var pos Position
	if err := dec.Decode(&pos, src); err != nil {
		return pos, fmt.Errorf("%w: %w", ErrBadCommand, err)
	}
	return pos, nil
}

// Command is one line of the websocket protocol: a letter followed by the
// tile coordinates, or "g" alone to fetch the field.
type Command struct {
	Move Move
	Position
}

var commandMoves = map[string]Move{
	"g": Noop,
	"o": Open,
	"f": Flag,
	"q": Question,
	"u": Cover,
	"m": Mark,
	"c": Chord,
}

func ParseCommand(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", ErrBadCommand)
	}
	move, ok := commandMoves[parts[0]]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrBadCommand, parts[0])
	}

	nargs := 2
	if move == Noop {
		nargs = 0
	}
	if len(parts)-1 != nargs {
		return Command{}, fmt.Errorf("%w: %q takes %d arguments", ErrBadCommand, parts[0], nargs)
	}

	cmd := Command{Move: move}
	if nargs == 0 {
		return cmd, nil
	}
	var err error
	if cmd.X, err = strconv.Atoi(parts[1]); err != nil {
		return Command{}, fmt.Errorf("%w: x must be an int", ErrBadCommand)
	}
	if cmd.Y, err = strconv.Atoi(parts[2]); err != nil {
		return Command{}, fmt.Errorf("%w: y must be an int", ErrBadCommand)
	}
	return cmd, nil
}
