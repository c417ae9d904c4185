package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/mitchellh/cli"
	_ "golang.org/x/net/trace" // registers the /debug/requests handler on http.DefaultServeMux

	"tinydb/cmd/tinydb/command"
	"tinydb/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.CommandLine.Parse(args)
	args = flag.CommandLine.Args()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
			return 1
		}
		cfg = loaded
	}

	app := command.NewApp(cfg)
	defer app.Registry.CloseAll()

	if cfg.DebugTrace {
		go func() {
			app.Log.WithError(http.ListenAndServe("localhost:6060", nil)).
				Error("main: /debug/requests server exited")
		}()
		app.Log.Info("tracing enabled at http://localhost:6060/debug/requests")
	}

	commands := map[string]cli.CommandFactory{
		"open": func() (cli.Command, error) {
			return &command.OpenCommand{App: app}, nil
		},
		"inspect": func() (cli.Command, error) {
			return &command.InspectCommand{App: app}, nil
		},
		"dump-page": func() (cli.Command, error) {
			return &command.DumpPageCommand{App: app}, nil
		},
		"run-program": func() (cli.Command, error) {
			return &command.RunProgramCommand{App: app}, nil
		},
		"repl": func() (cli.Command, error) {
			return &command.ReplCommand{App: app}, nil
		},
	}

	tinyCLI := &cli.CLI{
		Name:         "tinydb",
		Args:         args,
		Commands:     commands,
		HelpFunc:     cli.BasicHelpFunc("tinydb"),
		Autocomplete: true,
	}

	exitCode, err := tinyCLI.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return 1
	}
	return exitCode
}
