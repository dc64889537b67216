package minefield

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

/*
Wire format, all integers big-endian:

	int32  width
	int32  height
	int32  mine count
	int32  tiles remaining
	uint8  game state
	uint8  tile state  * width*height (row-major)
	int8   tile value  * width*height (row-major)

There is no version field; any change to the layout is breaking.
*/

const headerSize = 4*4 + 1

type header struct {
	Width, Height, MineCount, TilesRemaining int32
	State                                    uint8
}

// Encode writes the complete state of the field to w.
func (f *Field) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	hdr := header{
		Width:          int32(f.width),
		Height:         int32(f.height),
		MineCount:      int32(f.mineCount),
		TilesRemaining: int32(f.tilesRemaining),
		State:          uint8(f.state),
	}
	if err := binary.Write(bw, binary.BigEndian, hdr); err != nil {
		return err
	}
	for _, s := range f.states {
		if err := bw.WriteByte(byte(s)); err != nil {
			return err
		}
	}
	for _, v := range f.values {
		if err := bw.WriteByte(byte(v)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (f *Field) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(headerSize + 2*len(f.values))
	if err := f.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces f with the field encoded in data. Options
// previously applied to f are kept.
func (f *Field) UnmarshalBinary(data []byte) error {
	g, err := decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	g.rnd, g.listener = f.rnd, f.listener
	if g.rnd == nil {
		g.rnd = createRand()
	}
	*f = *g
	return nil
}

// Decode reads a field written by [Field.Encode]. Mines are never placed
// again: a field that was already started comes back exactly as it was.
func Decode(r io.Reader, opts ...Option) (*Field, error) {
	f, err := decode(r)
	if err != nil {
		return nil, err
	}
	f.apply(opts)
	return f, nil
}

func decode(r io.Reader) (*Field, error) {
	var hdr header
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, corrupt(err)
	}

	w, h := int(hdr.Width), int(hdr.Height)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrCorruptData, w, h)
	}
	params := Params{Width: w, Height: h, MineCount: int(hdr.MineCount)}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	state, err := ParseGameState(hdr.State)
	if err != nil {
		return nil, err
	}

	f := &Field{
		width:          w,
		height:         h,
		mineCount:      params.MineCount,
		tilesRemaining: int(hdr.TilesRemaining),
		state:          state,
		values:         make([]int8, w*h),
		states:         make([]TileState, w*h),
	}

	buf := make([]byte, w*h)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, corrupt(err)
	}
	for i, b := range buf {
		if f.states[i], err = ParseTileState(b); err != nil {
			return nil, err
		}
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, corrupt(err)
	}
	for i, b := range buf {
		v := int8(b)
		if v < Mine || v > 8 {
			return nil, fmt.Errorf("%w: invalid tile value %d", ErrCorruptData, v)
		}
		f.values[i] = v
	}

	if err := f.check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	return f, nil
}

func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: unexpected end of data", ErrCorruptData)
	}
	return fmt.Errorf("%w: %w", ErrCorruptData, err)
}

// check verifies that the counters and game state agree with the grids.
func (f *Field) check() error {
	if f.state == NotStarted {
		for i := range f.values {
			if f.values[i] != 0 || f.states[i] != Covered {
				return errors.New("field not started but tiles are set")
			}
		}
		if f.tilesRemaining != len(f.values)-f.mineCount {
			return fmt.Errorf("tiles remaining %d, want %d",
				f.tilesRemaining, len(f.values)-f.mineCount)
		}
		return nil
	}

	var mines, covered int
	exploded := false
	for i, v := range f.values {
		if v == Mine {
			mines++
			exploded = exploded || f.states[i] == Uncovered
			continue
		}
		if f.states[i] != Uncovered {
			covered++
		}
		adjacent := 0
		for n := range f.neighbors(i) {
			if f.values[n] == Mine {
				adjacent++
			}
		}
		if int(v) != adjacent {
			return fmt.Errorf("tile %d has value %d but %d adjacent mines", i, v, adjacent)
		}
	}
	switch {
	case mines != f.mineCount:
		return fmt.Errorf("%d mines on the field, want %d", mines, f.mineCount)
	case covered != f.tilesRemaining:
		return fmt.Errorf("tiles remaining %d, counted %d", f.tilesRemaining, covered)
	case exploded != (f.state == Lost):
		return fmt.Errorf("game %s with exploded mine = %t", f.state, exploded)
	case (covered == 0) != (f.state == Won):
		return fmt.Errorf("game %s with %d tiles remaining", f.state, covered)
	}
	return nil
}
