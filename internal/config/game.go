package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vancomm/minefield/internal/minefield"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Custom Difficulty = "custom"
)

var presets = map[Difficulty]minefield.Params{
	Easy:   {Width: 8, Height: 8, MineCount: 10},
	Medium: {Width: 16, Height: 16, MineCount: 40},
	Hard:   {Width: 30, Height: 16, MineCount: 99},
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presets[d]; ok || d == Custom {
		return d, nil
	}
	return "", fmt.Errorf("difficulty must be one of easy, medium, hard, custom (got %q)", s)
}

// Preset returns the field size of a fixed difficulty.
func (d Difficulty) Preset() (minefield.Params, bool) {
	p, ok := presets[d]
	return p, ok
}

// Game holds the settings a new field is created from.
type Game struct {
	Difficulty Difficulty
	Custom     minefield.Params
	Questions  bool
}

func DefaultGame() *Game {
	return &Game{
		Difficulty: Easy,
		Custom:     presets[Easy],
	}
}

// NewGame reads MINEFIELD_DIFFICULTY, MINEFIELD_WIDTH, MINEFIELD_HEIGHT,
// MINEFIELD_MINES and MINEFIELD_QUESTIONS. Unset variables keep the easy
// defaults.
func NewGame() (*Game, error) {
	g := DefaultGame()

	if s, ok := os.LookupEnv("MINEFIELD_DIFFICULTY"); ok {
		d, err := ParseDifficulty(s)
		if err != nil {
			return nil, err
		}
		g.Difficulty = d
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MINEFIELD_WIDTH", &g.Custom.Width},
		{"MINEFIELD_HEIGHT", &g.Custom.Height},
		{"MINEFIELD_MINES", &g.Custom.MineCount},
	}
	for _, v := range ints {
		s, ok := os.LookupEnv(v.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
		*v.dst = n
	}

	if s, ok := os.LookupEnv("MINEFIELD_QUESTIONS"); ok {
		g.Questions = s != "0" && s != ""
	}

	if _, err := g.Params(); err != nil {
		return nil, err
	}
	return g, nil
}

// Params returns the field size for the configured difficulty.
func (g Game) Params() (minefield.Params, error) {
	p, ok := g.Difficulty.Preset()
	if !ok {
		p = g.Custom
	}
	if err := p.Validate(); err != nil {
		return minefield.Params{}, err
	}
	return p, nil
}
