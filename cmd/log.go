package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/coinledger/renderer"
)

type logCmd struct{}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "chronological transaction listing" }
func (*logCmd) Usage() string {
	return `clt log

  Lists every transaction in chronological order with its splits,
  flagging the unbalanced ones.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {}

func (c *logCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, ledger, err := loadLedger()
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	printMarkdown(renderer.LogMarkdown(ledger))
	return subcommands.ExitSuccess
}
