package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/minefield"
	"github.com/vancomm/minefield/internal/store"
)

const usage = `  new [difficulty]   start a new field (easy, medium, hard or custom)
  show               print the field
  reveal x y         uncover a tile
  flag x y           flag a tile
  question x y       put a question mark on a tile
  mark x y           cycle the mark on a tile
  cover x y          remove the mark from a tile
  chord x y          uncover the neighbors of a satisfied number
  slots              list saved slots
  drop               delete the slot
`

var errUsage = errors.New("bad usage, run with -h for help")

type cli struct {
	log   *logrus.Entry
	store *store.Store
	slot  string
	game  *config.Game
	out   io.Writer
}

type tileMove func(f *minefield.Field, x, y int, questions bool) error

var moves = map[string]tileMove{
	"reveal": func(f *minefield.Field, x, y int, _ bool) error {
		return f.Reveal(x, y)
	},
	"flag": func(f *minefield.Field, x, y int, _ bool) error {
		return f.SetMark(x, y, minefield.Flagged)
	},
	"question": func(f *minefield.Field, x, y int, questions bool) error {
		if !questions {
			return errors.New("question marks are disabled, set MINEFIELD_QUESTIONS=1")
		}
		return f.SetMark(x, y, minefield.Question)
	},
	"mark": func(f *minefield.Field, x, y int, questions bool) error {
		return f.ToggleMark(x, y, questions)
	},
	"cover": func(f *minefield.Field, x, y int, _ bool) error {
		return f.SetMark(x, y, minefield.Covered)
	},
	"chord": func(f *minefield.Field, x, y int, _ bool) error {
		return f.Chord(x, y)
	},
}

func (c *cli) run(args []string) error {
	name, args := args[0], args[1:]
	switch name {
	case "new":
		if len(args) > 1 {
			return errUsage
		}
		game := *c.game
		if len(args) == 1 {
			d, err := config.ParseDifficulty(args[0])
			if err != nil {
				return err
			}
			game.Difficulty = d
		}
		f, err := c.newField(game)
		if err != nil {
			return err
		}
		return c.save(f)
	case "show":
		if len(args) != 0 {
			return errUsage
		}
		f, err := c.load()
		if err != nil {
			return err
		}
		render(c.out, f)
		return nil
	case "slots":
		slots, err := c.store.Slots()
		if err != nil {
			return err
		}
		for _, s := range slots {
			fmt.Fprintln(c.out, s)
		}
		return nil
	case "drop":
		c.log.Info("slot dropped")
		return c.store.Delete(c.slot)
	}

	move, ok := moves[name]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}
	if len(args) != 2 {
		return errUsage
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("x must be an int: %w", errUsage)
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("y must be an int: %w", errUsage)
	}

	f, err := c.load()
	if err != nil {
		return err
	}
	if err := move(f, x, y, c.game.Questions); err != nil {
		c.log.WithFields(logrus.Fields{"move": name, "x": x, "y": y}).
			WithError(err).Info("move rejected")
		return err
	}
	c.log.WithFields(logrus.Fields{"move": name, "x": x, "y": y}).Debug("move applied")
	return c.save(f)
}

func (c *cli) listener(from, to minefield.GameState) {
	c.log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Info("game state changed")
}

func (c *cli) newField(game config.Game) (*minefield.Field, error) {
	p, err := game.Params()
	if err != nil {
		return nil, err
	}
	c.log.WithField("params", p.String()).Info("new field")
	return minefield.New(p, minefield.WithStateListener(c.listener))
}

// load reads the slot. An empty slot, or one that cannot be decoded, starts
// a fresh field with the configured settings.
func (c *cli) load() (*minefield.Field, error) {
	f, err := c.store.Get(c.slot, minefield.WithStateListener(c.listener))
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, store.ErrNotFound):
		return c.newField(*c.game)
	case errors.Is(err, minefield.ErrCorruptData):
		c.log.WithError(err).Warn("saved field is corrupt, starting over")
		fmt.Fprintln(c.out, "saved field was unreadable, starting a new one")
		return c.newField(*c.game)
	default:
		return nil, err
	}
}

func (c *cli) save(f *minefield.Field) error {
	if err := c.store.Set(c.slot, f); err != nil {
		return err
	}
	render(c.out, f)
	return nil
}
