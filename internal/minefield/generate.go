package minefield

import "log/slog"

// generate places the mines, never on tile start, and fills in the
// adjacent-mine counts.
func (f *Field) generate(start int) {
	candidates := make([]int, 0, len(f.values)-1)
	for i := range f.values {
		if i != start {
			candidates = append(candidates, i)
		}
	}

	/*
	 * Pick mineCount candidates at random, moving the tail of the list
	 * into each chosen slot so no tile is drawn twice.
	 */
	k := len(candidates)
	for range f.mineCount {
		j := f.rnd.IntN(k)
		i := candidates[j]
		k--
		candidates[j] = candidates[k]

		f.values[i] = Mine
		for n := range f.neighbors(i) {
			if f.values[n] != Mine {
				f.values[n]++
			}
		}
	}

	Log.Debug("mines placed",
		slog.String("params", f.Params().String()),
		slog.Int("startX", start%f.width), slog.Int("startY", start/f.width))
}
