package coinledger

import (
	"fmt"
	"iter"
	"log"
	"sort"
)

// Root account names created by InitLedger.
const (
	RootAssets      = "Assets"
	RootLiabilities = "Liabilities"
	RootIncome      = "Income"
	RootExpenses    = "Expenses"
	RootEquity      = "Equity"
)

// Ledger holds the whole in-memory state of a coin ledger: the account
// arena, the coin registry and all transactions. It is populated once by
// persistence or importers and treated as read-only during tax
// computation.
type Ledger struct {
	accounts       []*Account
	accountsByName map[string]*Account

	coins         map[string]*Coin
	coinsBySymbol map[string]*Coin

	transactions   []*Transaction
	txnsByImportID map[string][]*Transaction

	// derived child index, rebuilt lazily after mutation
	children      map[*Account][]*Account
	childrenDirty bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accountsByName: make(map[string]*Account),
		coins:          make(map[string]*Coin),
		coinsBySymbol:  make(map[string]*Coin),
		txnsByImportID: make(map[string][]*Transaction),
		children:       make(map[*Account][]*Account),
	}
}

// InitLedger creates a ledger with the five root placeholder accounts.
func InitLedger() *Ledger {
	l := NewLedger()
	for _, name := range []string{RootAssets, RootLiabilities, RootIncome, RootExpenses, RootEquity} {
		if _, err := l.NewAccount(name, true, nil, false, nil); err != nil {
			panic(err) // empty ledger cannot have duplicates
		}
	}
	return l
}

// NewCoin registers a coin. Creation is idempotent: if the id is already
// known the existing coin is returned unchanged.
func (l *Ledger) NewCoin(id, name, symbol string, numID int) *Coin {
	if c, ok := l.coins[id]; ok {
		return c
	}
	c := &Coin{id: id, name: name, symbol: symbol, numID: numID}
	l.coins[id] = c
	if _, taken := l.coinsBySymbol[symbol]; taken {
		log.Printf("warning: coin symbol %q is ambiguous, %q keeps it", symbol, l.coinsBySymbol[symbol].ID())
	} else {
		l.coinsBySymbol[symbol] = c
	}
	return c
}

// Coin returns the coin with the given id, or nil if unknown.
func (l *Ledger) Coin(id string) *Coin { return l.coins[id] }

// CoinBySymbol returns the coin registered first under this symbol, or
// nil if unknown.
func (l *Ledger) CoinBySymbol(symbol string) *Coin { return l.coinsBySymbol[symbol] }

// Coins iterates over all coins in unspecified order.
func (l *Ledger) Coins() iter.Seq[*Coin] {
	return func(yield func(*Coin) bool) {
		for _, c := range l.coins {
			if !yield(c) {
				return
			}
		}
	}
}

// NewAccount creates an account under parent. A single-coin account
// requires its coin. If an account with the same full name already
// exists the ledger is left untouched and the call fails with
// ErrDuplicateAccount; callers are expected to log and skip.
func (l *Ledger) NewAccount(name string, placeholder bool, parent *Account, singleCoin bool, coin *Coin) (*Account, error) {
	if name == "" {
		return nil, fatalf("account without a name")
	}
	if singleCoin && coin == nil {
		return nil, fatalf("single-coin account %q without a coin", name)
	}
	fullName := MakeFullName(parent, name)
	if _, ok := l.accountsByName[fullName]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateAccount, fullName)
	}
	a := &Account{
		id:          len(l.accounts),
		name:        name,
		placeholder: placeholder,
		parent:      parent,
		singleCoin:  singleCoin,
		coin:        coin,
	}
	l.accounts = append(l.accounts, a)
	l.accountsByName[fullName] = a
	l.childrenDirty = true
	return a, nil
}

// Account resolves an account by its full name, or nil if unknown.
func (l *Ledger) Account(fullName string) *Account { return l.accountsByName[fullName] }

// MustAccount resolves an account by its full name and panics if it does
// not exist. Used for the well-known tax accounts at startup.
func (l *Ledger) MustAccount(fullName string) *Account {
	a := l.Account(fullName)
	if a == nil {
		panic(fmt.Sprintf("there is no account %q", fullName))
	}
	return a
}

// Accounts iterates over all accounts in creation order.
func (l *Ledger) Accounts() iter.Seq[*Account] {
	return func(yield func(*Account) bool) {
		for _, a := range l.accounts {
			if !yield(a) {
				return
			}
		}
	}
}

// Children returns the direct children of an account, sorted by name.
// The index is derived from the arena after load, not maintained
// incrementally.
func (l *Ledger) Children(a *Account) []*Account {
	if l.childrenDirty {
		l.children = make(map[*Account][]*Account)
		for _, acc := range l.accounts {
			if acc.parent != nil {
				l.children[acc.parent] = append(l.children[acc.parent], acc)
			}
		}
		for _, kids := range l.children {
			sort.Slice(kids, func(i, j int) bool { return kids[i].name < kids[j].name })
		}
		l.childrenDirty = false
	}
	return l.children[a]
}

// RootAccounts returns the accounts without a parent, sorted by name.
func (l *Ledger) RootAccounts() []*Account {
	var roots []*Account
	for _, a := range l.accounts {
		if a.parent == nil {
			roots = append(roots, a)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].name < roots[j].name })
	return roots
}

// NewTransaction validates every proto split and creates the transaction
// and its splits atomically: if any proto split is invalid, nothing is
// created and the validation error is returned.
func (l *Ledger) NewTransaction(date Datetime, description string, protos []ProtoSplit, importID string) (*Transaction, error) {
	txn := &Transaction{
		id:          len(l.transactions),
		date:        date,
		description: description,
		importID:    importID,
	}
	splits := make([]*Split, 0, len(protos))
	for _, p := range protos {
		s, err := newSplit(txn, p)
		if err != nil {
			return nil, err
		}
		splits = append(splits, s)
	}
	txn.splits = splits
	l.transactions = append(l.transactions, txn)
	if importID != "" {
		l.txnsByImportID[importID] = append(l.txnsByImportID[importID], txn)
	}
	return txn, nil
}

// AddSplit appends a validated split to an existing transaction, for the
// second phase of import reconciliation. A split whose import id is
// already present in the transaction is skipped with ErrDuplicateImport.
func (l *Ledger) AddSplit(txn *Transaction, p ProtoSplit) error {
	if p.ImportID != "" && txn.HasSplitWithImportID(p.ImportID) {
		return fmt.Errorf("%w: split %q in transaction %d", ErrDuplicateImport, p.ImportID, txn.ID())
	}
	s, err := newSplit(txn, p)
	if err != nil {
		return err
	}
	txn.splits = append(txn.splits, s)
	return nil
}

// Transactions iterates over all transactions in creation order.
func (l *Ledger) Transactions() iter.Seq[*Transaction] {
	return func(yield func(*Transaction) bool) {
		for _, t := range l.transactions {
			if !yield(t) {
				return
			}
		}
	}
}

// TransactionByImportID returns the transaction with the given import
// id, or nil if there is none. Multiple transactions sharing an import
// id is an invariant violation. The lookup is indexed, like the account
// full-name index, so per-record importer lookups stay cheap.
func (l *Ledger) TransactionByImportID(importID string) (*Transaction, error) {
	txns := l.txnsByImportID[importID]
	switch len(txns) {
	case 0:
		return nil, nil
	case 1:
		return txns[0], nil
	default:
		return nil, fatalf("multiple transactions with import id %q", importID)
	}
}

// BalanceTransaction balances the unbalanced single-coin transaction
// identified by txnImportID by appending a split on the given account
// that nets the transaction to zero.
func (l *Ledger) BalanceTransaction(txnImportID string, account *Account) error {
	txn, err := l.TransactionByImportID(txnImportID)
	if err != nil {
		return err
	}
	if txn == nil {
		return fatalf("there is no transaction with import id %q", txnImportID)
	}
	if txn.Balanced() {
		log.Printf("warning: transaction %d is already balanced, skipping", txn.ID())
		return nil
	}
	coin := txn.GetCoin()
	if coin == nil {
		return fatalf("cannot balance a multi-coin transaction").withTxn(txn)
	}
	var sum Amount
	for _, s := range txn.splits {
		sum = sum.Add(s.Amount())
	}
	if sum.IsZero() {
		return fatalf("transaction nets to zero but is not balanced").withTxn(txn)
	}
	return l.AddSplit(txn, ProtoSplit{
		Account: account,
		Memo:    "balancing split",
		Amount:  sum.Neg(),
		Coin:    coin,
	})
}
