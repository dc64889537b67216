package minefield

import (
	"fmt"
	"hash/maphash"
	"iter"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
)

var Log *slog.Logger = slog.Default()

// MaxTiles bounds Width*Height for both construction and decoding.
const MaxTiles = 1 << 20

// Mine is the tile value of a mined tile.
const Mine = -1

type Params struct {
	Width, Height, MineCount int
}

func (p Params) Unpack() (w int, h int, mc int) {
	return p.Width, p.Height, p.MineCount
}

func (p Params) Validate() error {
	w, h, mc := p.Unpack()
	if w < 1 || h < 1 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidConfiguration, w, h)
	}
	if w > MaxTiles || h > MaxTiles || w*h > MaxTiles {
		return fmt.Errorf("%w: field %dx%d is too large", ErrInvalidConfiguration, w, h)
	}
	if mc < 1 || mc >= w*h {
		return fmt.Errorf(
			"%w: mine count %d must be in [1, %d)", ErrInvalidConfiguration, mc, w*h,
		)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("%dx%d(%d)", p.Width, p.Height, p.MineCount)
}

type Point struct {
	X, Y int
}

type Tile struct {
	State TileState
	Value int8
}

// Field is the game state of a single minesweeper board. A Field is not safe
// for concurrent use.
type Field struct {
	width, height, mineCount int
	tilesRemaining           int
	state                    GameState
	values                   []int8 // row-major, Mine or 0..8
	states                   []TileState

	rnd      *rand.Rand
	listener func(from, to GameState)
}

type Option func(*Field)

// WithRand sets the source used to place mines on the first reveal.
func WithRand(r *rand.Rand) Option {
	return func(f *Field) {
		f.rnd = r
	}
}

// WithStateListener registers fn to be called after every game state change.
func WithStateListener(fn func(from, to GameState)) Option {
	return func(f *Field) {
		f.listener = fn
	}
}

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (f *Field) apply(opts []Option) {
	for _, opt := range opts {
		opt(f)
	}
	if f.rnd == nil {
		f.rnd = createRand()
	}
}

// New creates a field with every tile covered. Mines are placed on the
// first call to [Field.Reveal].
func New(p Params, opts ...Option) (*Field, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w, h, mc := p.Unpack()
	f := &Field{
		width:          w,
		height:         h,
		mineCount:      mc,
		tilesRemaining: w*h - mc,
		state:          NotStarted,
		values:         make([]int8, w*h),
		states:         make([]TileState, w*h),
	}
	f.apply(opts)
	return f, nil
}

func (f *Field) Width() int          { return f.width }
func (f *Field) Height() int         { return f.height }
func (f *Field) MineCount() int      { return f.mineCount }
func (f *Field) TilesRemaining() int { return f.tilesRemaining }
func (f *Field) State() GameState    { return f.state }
func (f *Field) Finished() bool      { return f.state.Finished() }

func (f *Field) Params() Params {
	return Params{Width: f.width, Height: f.height, MineCount: f.mineCount}
}

func (f *Field) InBounds(x, y int) bool {
	return 0 <= x && x < f.width && 0 <= y && y < f.height
}

func (f *Field) index(x, y int) (int, error) {
	if !f.InBounds(x, y) {
		return 0, fmt.Errorf(
			"%w: (%d, %d) not in %dx%d", ErrOutOfBounds, x, y, f.width, f.height,
		)
	}
	return y*f.width + x, nil
}

func (f *Field) TileState(x, y int) (TileState, error) {
	i, err := f.index(x, y)
	if err != nil {
		return 0, err
	}
	return f.states[i], nil
}

// TileValue returns Mine or the number of adjacent mines. Values are all
// zero until the game has started.
func (f *Field) TileValue(x, y int) (int, error) {
	i, err := f.index(x, y)
	if err != nil {
		return 0, err
	}
	return int(f.values[i]), nil
}

// Flags returns the number of flagged tiles.
func (f *Field) Flags() int {
	n := 0
	for _, s := range f.states {
		if s == Flagged {
			n++
		}
	}
	return n
}

// Tiles walks the field in row-major order.
func (f *Field) Tiles() iter.Seq2[Point, Tile] {
	return func(yield func(Point, Tile) bool) {
		for y := range f.height {
			for x := range f.width {
				i := y*f.width + x
				if !yield(Point{x, y}, Tile{f.states[i], f.values[i]}) {
					return
				}
			}
		}
	}
}

// neighbors yields the in-bounds indices around i, excluding i itself.
func (f *Field) neighbors(i int) iter.Seq[int] {
	return func(yield func(int) bool) {
		x, y := i%f.width, i/f.width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 || !f.InBounds(x+dx, y+dy) {
					continue
				}
				if !yield((y+dy)*f.width + (x + dx)) {
					return
				}
			}
		}
	}
}

func (f *Field) setState(s GameState) {
	if f.state == s {
		return
	}
	from := f.state
	f.state = s
	Log.Debug("game state changed",
		slog.String("from", from.String()), slog.String("to", s.String()))
	if f.listener != nil {
		f.listener(from, s)
	}
}

// String dumps the player's view of the field, one row per line.
func (f *Field) String() string {
	var b strings.Builder
	for p, t := range f.Tiles() {
		switch t.State {
		case Covered:
			b.WriteString(".")
		case Flagged:
			b.WriteString("F")
		case Question:
			b.WriteString("?")
		case Uncovered:
			if t.Value == Mine {
				b.WriteString("*")
			} else if t.Value == 0 {
				b.WriteString(" ")
			} else {
				b.WriteString(strconv.Itoa(int(t.Value)))
			}
		}
		if p.X == f.width-1 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}
