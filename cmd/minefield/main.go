package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/store"
)

var (
	dbPath  string
	slot    string
	logPath string
)

func init() {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	flag.StringVar(&dbPath, "db", filepath.Join(dir, "minefield", "fields.db"), "save file path")
	flag.StringVar(&slot, "slot", "main", "save slot")
	flag.StringVar(&logPath, "log", "", "log file path (default $MINEFIELD_LOG_FILE or the user cache dir)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: %s [flags] <command> [args]\n\ncommands:\n%s\nflags:\n",
			filepath.Base(os.Args[0]), usage)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logFile := config.NewLogFile()
	if logPath != "" {
		logFile.Path = logPath
	}
	log, err := logFile.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "unable to open log file:", err)
		log = logrus.New()
		log.SetOutput(os.Stderr)
	}

	game, err := config.NewGame()
	if err != nil {
		log.WithError(err).Error("bad game settings")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.WithError(err).Error("unable to create save directory")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		log.WithError(err).Error("unable to open save file")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer st.Close()

	c := &cli{
		log:   log.WithField("slot", slot),
		store: st,
		slot:  slot,
		game:  game,
		out:   os.Stdout,
	}
	if err := c.run(flag.Args()); err != nil {
		c.log.WithError(err).Warn("command failed")
		fmt.Fprintln(os.Stderr, err)
		st.Close()
		os.Exit(1)
	}
}
