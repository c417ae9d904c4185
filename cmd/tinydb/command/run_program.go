package command

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/posener/complete"

	"tinydb/internal/vm"
)

// RunProgramCommand assembles a DBM program from its textual notation
// (ParseProgram) and runs it against an open database file, printing
// each emitted result row. This is the primary way to drive the engine
// without a SQL compiler: the caller writes the DBM program by hand.
type RunProgramCommand struct {
	App *App
}

func (c *RunProgramCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb run-program <file> <program>

<program> is a path to a text file containing a DBM program using the
instruction notation of the opcode reference (one instruction per line,
or semicolon-separated), e.g.:

	Integer 2 0
	OpenRead 0 0 4
	Rewind 0 6
	Column 0 0 1
	ResultRow 1 1
	Next 0 3
	Close 0
	Halt
`)
}

func (c *RunProgramCommand) Synopsis() string {
	return "Runs a DBM program against a database file"
}

// AutocompleteArgs completes both positional arguments as filesystem
// paths; posener/complete has no notion of "this is the Nth arg", so a
// file predictor is offered for every position.
func (c *RunProgramCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictFiles("*")
}

func (c *RunProgramCommand) AutocompleteFlags() complete.Flags {
	return complete.Flags{}
}

func (c *RunProgramCommand) Run(args []string) int {
	flags := flag.NewFlagSet("run-program", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 2 {
		fmt.Fprintln(c.App.Stdout, c.Help())
		return 1
	}

	dbPath, programPath := flags.Arg(0), flags.Arg(1)

	programFile, err := os.Open(programPath)
	if err != nil {
		c.App.Log.WithError(err).Error("run-program: opening program file")
		return 1
	}
	defer programFile.Close()

	instructions, err := vm.ParseProgram(programFile)
	if err != nil {
		c.App.Log.WithError(err).Error("run-program: parsing program")
		return 1
	}

	handle, err := c.App.Registry.Open(dbPath, c.App.Config.PageSize)
	if err != nil {
		c.App.Log.WithError(err).Error("run-program: opening database")
		return 1
	}
	defer c.App.Registry.Close(dbPath)

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
		c.App.Log.WithError(err).Error("run-program: execution failed")
		return 1
	}
	if err := handle.Pager.Flush(); err != nil {
		c.App.Log.WithError(err).Error("run-program: flushing pager")
		return 1
	}

	return int(exitCode)
}
