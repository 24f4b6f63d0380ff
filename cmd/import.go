package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger"
	"github.com/etnz/coinledger/importers"
)

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from csv exports" }
func (*importCmd) Usage() string {
	return `clt import <file.csv>...

  Imports transactions from csv exports. Imports are repeatable: rows
  already present in the ledger are skipped, and rows targeting an
  already imported transaction complete it instead of duplicating it.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return subcommands.ExitUsageError
	}

	db, ledger, err := loadLedger()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	var total importers.Stats
	for _, path := range f.Args() {
		file, err := os.Open(path)
		if err != nil {
			return fail(err)
		}
		stats, err := importers.ImportCSV(ledger, file)
		file.Close()
		if err != nil {
			return fail(fmt.Errorf("importing %q: %w", path, err))
		}
		total.Created += stats.Created
		total.Merged += stats.Merged
		total.Skipped += stats.Skipped
	}

	if err := coinledger.SaveLedger(db, ledger); err != nil {
		return fail(err)
	}
	fmt.Printf("Imported %d transactions (%d merged, %d duplicates skipped)\n",
		total.Created, total.Merged, total.Skipped)
	return subcommands.ExitSuccess
}
