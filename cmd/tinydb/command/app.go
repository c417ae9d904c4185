// Package command implements the mitchellh/cli.Command subcommands of
// the tinydb CLI, grounded on the teacher's cmd/tinydb/command package
// (ListenCommand, StartCommand): flag.NewFlagSet per command, a Help
// string with a "Usage:" block, and a one-line Synopsis.
package command

import (
	"io"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"

	"tinydb/config"
	"tinydb/internal/registry"
)

// App is the state shared by every subcommand: the process-wide
// registry of open database files, the configured logger, and a
// colorable stdout for REPL/inspect output.
type App struct {
	Config   *config.Config
	Registry *registry.Registry
	Log      *logrus.Logger
	Stdout   io.Writer
}

// NewApp builds an App from a loaded Config, configuring logrus's
// level the way the teacher's engine.Start does from engine.Config.
func NewApp(cfg *config.Config) *App {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	return &App{
		Config:   cfg,
		Registry: registry.New(),
		Log:      log,
		Stdout:   colorable.NewColorableStdout(),
	}
}
