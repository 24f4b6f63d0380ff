package coinledger

import (
	"errors"
	"fmt"
	"strings"
)

// Recoverable conditions: callers are expected to log and skip.
var (
	// ErrDuplicateAccount is returned when an account with the same full
	// name already exists in the ledger.
	ErrDuplicateAccount = errors.New("duplicate account")
	// ErrDuplicateImport is returned when a transaction with the same
	// import id already exists in the ledger.
	ErrDuplicateImport = errors.New("duplicate import id")
)

// FatalError marks an invariant violation in the ledger or in the tax
// computation. There is no partial recovery from a FatalError: a tax
// report with silently skipped events is worse than no report, so the
// whole computation aborts.
//
// The error carries enough context (transaction, coin, account) to be
// actionable without re-running with extra logging.
type FatalError struct {
	Msg     string
	Txn     *Transaction
	Coin    *Coin
	Account *Account
}

func (e *FatalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if e.Txn != nil {
		fmt.Fprintf(&b, " (transaction %d on %s: %q)", e.Txn.ID(), e.Txn.Date().DayString(), e.Txn.Description())
	}
	if e.Coin != nil {
		fmt.Fprintf(&b, " (coin %s)", e.Coin.ID())
	}
	if e.Account != nil {
		fmt.Fprintf(&b, " (account %s)", e.Account.FullName())
	}
	return b.String()
}

// fatalf builds a *FatalError with a formatted message and no context.
// Context is attached with the with* chainers.
func fatalf(format string, args ...any) *FatalError {
	return &FatalError{Msg: fmt.Sprintf(format, args...)}
}

func (e *FatalError) withTxn(t *Transaction) *FatalError { e.Txn = t; return e }
func (e *FatalError) withCoin(c *Coin) *FatalError       { e.Coin = c; return e }
func (e *FatalError) withAccount(a *Account) *FatalError { e.Account = a; return e }

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
