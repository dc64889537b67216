package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vancomm/minefield/internal/minefield"
)

// symbol is the character shown for t. Mines and wrong flags are only shown
// once the game is over.
func symbol(t minefield.Tile, finished bool) string {
	mine := t.Value == minefield.Mine
	switch t.State {
	case minefield.Uncovered:
		switch {
		case mine:
			return "X"
		case t.Value == 0:
			return " "
		default:
			return strconv.Itoa(int(t.Value))
		}
	case minefield.Flagged:
		if finished && !mine {
			return "!"
		}
		return "F"
	}
	if finished && mine {
		return "*"
	}
	if t.State == minefield.Question {
		return "?"
	}
	return "."
}

func render(w io.Writer, f *minefield.Field) {
	width := len(strconv.Itoa(max(f.Width(), f.Height()) - 1))
	cell := fmt.Sprintf("%%%ds", width)

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width+1))
	for x := range f.Width() {
		fmt.Fprintf(&b, cell+" ", strconv.Itoa(x))
	}
	b.WriteString("\n")

	for p, t := range f.Tiles() {
		if p.X == 0 {
			fmt.Fprintf(&b, cell+" ", strconv.Itoa(p.Y))
		}
		fmt.Fprintf(&b, cell+" ", symbol(t, f.Finished()))
		if p.X == f.Width()-1 {
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "%s  mines left: %d  tiles remaining: %d\n",
		f.State(), f.MineCount()-f.Flags(), f.TilesRemaining())
	io.WriteString(w, b.String())
}
