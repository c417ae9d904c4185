package command

import (
	"flag"
	"fmt"
	"strings"
)

// OpenCommand formats (if new) and opens a database file, reporting its
// header fields, then closes it again. It exists mainly to let a user
// or script confirm a file is well-formed before driving it with
// run-program or repl.
type OpenCommand struct {
	App *App
}

func (c *OpenCommand) Help() string {
	return strings.TrimSpace(`
Usage: tinydb open <file>
`)
}

func (c *OpenCommand) Synopsis() string {
	return "Opens (formatting if new) a database file and reports its header"
}

func (c *OpenCommand) Run(args []string) int {
	flags := flag.NewFlagSet("open", flag.ContinueOnError)
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
		c.App.Log.WithError(err).Error("open: opening database")
		return 1
	}
	defer c.App.Registry.Close(path)

	fmt.Fprintf(c.App.Stdout, "opened %s (id=%s)\n", handle.Path, handle.ID)
	fmt.Fprintf(c.App.Stdout, "page size:   %d\n", handle.Pager.PageSize())
	fmt.Fprintf(c.App.Stdout, "total pages: %d\n", handle.Pager.TotalPages())
	return 0
}
