package command

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/posener/complete"

	"tinydb/internal/registry"
	"tinydb/internal/vm"
)

// ReplCommand reads DBM programs from stdin, one per blank-line- or
// "run"-terminated block, runs each against an open database, and
// prints result rows — an interactive analogue of run-program, grounded
// on the teacher's listen.go connection handler (bufio.Scanner with a
// custom onSemicolon split function feeding dbEngine.Command), adapted
// from a network connection to stdin/stdout and from SQL text to DBM
// program text.
type ReplCommand struct {
	App *App
}

func (c *ReplCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb repl <file>

Reads DBM instructions from stdin, one per line, separated from the
next program by a blank line or the line "run". Each program runs
against <file> as soon as it is terminated, printing one line per
result row.
`)
}

func (c *ReplCommand) Synopsis() string {
	return "Interactive prompt for running DBM programs against a database"
}

func (c *ReplCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictFiles("*")
}

func (c *ReplCommand) AutocompleteFlags() complete.Flags {
	return complete.Flags{}
}

func (c *ReplCommand) Run(args []string) int {
	flags := flag.NewFlagSet("repl", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(c.App.Stdout, c.Help())
		return 1
	}

	path := flags.Arg(0)
	handle, err := c.App.Registry.Open(path, c.App.Config.PageSize)
	if err != nil {
		c.App.Log.WithError(err).Error("repl: opening database")
		return 1
	}
	defer c.App.Registry.Close(path)

	fmt.Fprint(c.App.Stdout, "tinydb> ")
	scanner := bufio.NewScanner(os.Stdin)
	var block []string
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || trimmed == "run" {
			c.runBlock(handle, block)
			block = block[:0]
			fmt.Fprint(c.App.Stdout, "tinydb> ")
			continue
		}
		block = append(block, scanner.Text())
	}
	c.runBlock(handle, block)

	if err := scanner.Err(); err != nil {
		c.App.Log.WithError(err).Error("repl: reading stdin")
		return 1
	}
	return 0
}

func (c *ReplCommand) runBlock(handle *registry.Handle, block []string) {
	if len(block) == 0 {
		return
	}

	instructions, err := vm.ParseProgram(strings.NewReader(strings.Join(block, "\n")))
	if err != nil {
		c.App.Log.WithError(err).Error("repl: parsing program")
		return
	}

	prog := vm.NewProgram(handle.Pager, instructions, c.App.Log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for row := range prog.Results() {
			fmt.Fprintln(c.App.Stdout, row...)
		}
	}()

	exitCode, err := prog.Run()
	<-done
	if err != nil {
		c.App.Log.WithError(err).Error("repl: execution failed")
		return
	}
	if err := handle.Pager.Flush(); err != nil {
		c.App.Log.WithError(err).Error("repl: flushing pager")
		return
	}
	fmt.Fprintf(c.App.Stdout, "(exit %d)\n", exitCode)
}
