package minefield

// Chord uncovers every unflagged covered neighbour of the uncovered number
// at (x, y), provided exactly that many neighbours are flagged. Otherwise it
// does nothing.
func (f *Field) Chord(x, y int) error {
	i, err := f.index(x, y)
	if err != nil {
		return err
	}
	if f.state != Running {
		return ErrGameFinished
	}
	if f.states[i] != Uncovered || f.values[i] <= 0 {
		return nil
	}

	flags := 0
	todo := make([]int, 0, 8)
	for n := range f.neighbors(i) {
		switch f.states[n] {
		case Flagged:
			flags++
		case Covered, Question:
			todo = append(todo, n)
		}
	}
	if flags != int(f.values[i]) {
		return nil
	}

	// A wrong flag means at least one neighbour is a mine. Only the mines
	// are uncovered then, so a lost game never also runs out of safe tiles.
	mines := todo[:0:0]
	for _, n := range todo {
		if f.values[n] == Mine {
			mines = append(mines, n)
		}
	}
	if len(mines) > 0 {
		todo = mines
	}
	for _, n := range todo {
		f.flood(n)
	}
	f.settle(len(mines) > 0)
	return nil
}
