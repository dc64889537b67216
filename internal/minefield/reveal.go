package minefield

import "github.com/gammazero/deque"

// Reveal uncovers the tile at (x, y). The first reveal of a game places the
// mines. Uncovering a tile with no adjacent mines uncovers its neighbours as
// well, and so on outwards. Revealing a flagged or already uncovered tile
// does nothing.
func (f *Field) Reveal(x, y int) error {
	i, err := f.index(x, y)
	if err != nil {
		return err
	}

	switch f.state {
	case Won, Lost:
		return ErrGameFinished
	case NotStarted:
		f.generate(i)
		f.setState(Running)
	}

	if f.states[i] == Flagged || f.states[i] == Uncovered {
		return nil
	}

	f.flood(i)
	f.settle(f.values[i] == Mine)
	return nil
}

// flood uncovers start and every tile reachable from it through tiles
// with no adjacent mines.
func (f *Field) flood(start int) {
	var todo deque.Deque[int]
	todo.PushBack(start)

	for todo.Len() > 0 {
		i := todo.PopFront()
		if f.states[i] == Uncovered {
			continue
		}
		f.states[i] = Uncovered
		if f.values[i] == Mine {
			continue
		}
		f.tilesRemaining--
		if f.values[i] != 0 {
			continue
		}
		for n := range f.neighbors(i) {
			if f.states[n] != Uncovered {
				todo.PushBack(n)
			}
		}
	}
}

func (f *Field) settle(exploded bool) {
	if exploded {
		f.setState(Lost)
	} else if f.tilesRemaining == 0 {
		f.setState(Won)
	}
}
