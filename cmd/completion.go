package cmd

import (
	"flag"
	"slices"

	"github.com/etnz/coursebooks"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// fileFlags are the flags naming a file.
var fileFlags = map[string]bool{"o": true, "store-path": true, "to-path": true}

// Completion returns the shell completion of the registered subcommands and global flags.
func Completion(c *subcommands.Commander, global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(global),
	}
	root.Flags["store"] = predict.Set{"dir", "sqlite", "postgres", "redis"}

	c.VisitCommands(func(_ *subcommands.CommandGroup, sc subcommands.Command) {
		fs := flag.NewFlagSet(sc.Name(), flag.ContinueOnError)
		sc.SetFlags(fs)
		sub := &complete.Command{Flags: flagPredictors(fs)}
		switch sc.Name() {
		case "restore":
			sub.Args = predict.Files("*.json")
		case "expense", "expenses":
			sub.Flags["c"] = predict.Set(slices.Clone(coursebooks.ExpenseCategories))
		case "migrate":
			sub.Flags["to"] = predict.Set{"dir", "sqlite", "postgres", "redis"}
		case "export-csv":
			sub.Flags["c"] = predict.Set(slices.Clone(coursebooks.ExpenseCategories))
			sub.Flags["what"] = predict.Set{"students", "expenses"}
		}
		root.Sub[sc.Name()] = sub
	})
	return root
}

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		switch {
		case isBool(f):
			flags[f.Name] = predict.Nothing
		case fileFlags[f.Name]:
			flags[f.Name] = predict.Files("*")
		default:
			flags[f.Name] = predict.Something
		}
	})
	return flags
}

func isBool(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
