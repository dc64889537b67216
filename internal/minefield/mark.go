package minefield

import "fmt"

// SetMark sets the mark on a covered tile. Setting [Uncovered] is the same
// as calling [Field.Reveal].
func (f *Field) SetMark(x, y int, s TileState) error {
	if s == Uncovered {
		return f.Reveal(x, y)
	}
	if s > Uncovered {
		return fmt.Errorf("%w: unknown tile state %d", ErrIllegalTransition, s)
	}
	i, err := f.markable(x, y)
	if err != nil {
		return err
	}
	f.states[i] = s
	return nil
}

// ToggleMark cycles the mark on a covered tile: covered, flagged, question
// (when questions is set), covered again.
func (f *Field) ToggleMark(x, y int, questions bool) error {
	i, err := f.markable(x, y)
	if err != nil {
		return err
	}
	f.states[i] = NextMark(f.states[i], questions)
	return nil
}

func (f *Field) markable(x, y int) (int, error) {
	i, err := f.index(x, y)
	if err != nil {
		return 0, err
	}
	if f.state != Running {
		return 0, ErrGameFinished
	}
	if f.states[i] == Uncovered {
		return 0, fmt.Errorf("%w: tile (%d, %d) is uncovered", ErrIllegalTransition, x, y)
	}
	return i, nil
}
