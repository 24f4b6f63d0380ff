package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"google.golang.org/genai"

	"github.com/etnz/coinledger"
	"github.com/etnz/coinledger/agent"
	"github.com/etnz/coinledger/renderer"
)

type assistCmd struct {
	reportCmd
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "interactive session with the AI tax assistant" }
func (*assistCmd) Usage() string {
	return `clt assist [question]

  Start an interactive session with the AI tax assistant. It can run
  the income, spending, taxes and balances reports on your ledger and
  search the web for coin and market facts.
`
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	accountant := agent.NewAccountant(ledgerReports{&c.reportCmd})
	analyst := agent.NewAnalyst()
	a := agent.New(os.Stdout, os.Stdin, accountant, analyst)

	if err := a.Run(ctx, client, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// ledgerReports lets the Accountant expert run the same reports the
// CLI subcommands do.
type ledgerReports struct {
	cmd *reportCmd
}

func (r ledgerReports) Income(ctx context.Context) (string, error) {
	db, taxes, err := r.cmd.classify(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return renderer.IncomeMarkdown(taxes), nil
}

func (r ledgerReports) Spending(ctx context.Context) (string, error) {
	db, taxes, err := r.cmd.classify(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return renderer.SpendingMarkdown(taxes), nil
}

func (r ledgerReports) CapitalGains(ctx context.Context, method string, longTermDays int) (string, error) {
	order, err := coinledger.ParseLotOrder(method)
	if err != nil {
		return "", err
	}
	db, taxes, err := r.cmd.classify(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()
	gains, err := taxes.CapitalGains(longTermDays, order)
	if err != nil {
		return "", err
	}
	return renderer.GainsMarkdown(gains, order, false), nil
}

func (r ledgerReports) Balances(ctx context.Context) (string, error) {
	db, ledger, err := loadLedger()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return renderer.BalancesMarkdown(ledger), nil
}
