// Command cbk keeps the books of a training company: students, invoices,
// expenses and reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/etnz/coursebooks/cmd"
	"github.com/etnz/coursebooks/config"
	"github.com/google/subcommands"
)

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	cfg.SetupLogging(os.Stderr)
	cmd.Configure(cfg)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	cmd.Completion(commander, flag.CommandLine).Complete("cbk")

	flag.Parse()

	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

func registered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, sc subcommands.Command) {
		found = found || sc.Name() == name
	})
	return found
}
