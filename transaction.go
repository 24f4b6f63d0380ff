package coinledger

// ProtoSplit is a draft split: the information of a split before it is
// committed to a transaction, so that a whole transaction can be
// validated and created atomically.
type ProtoSplit struct {
	Account  *Account
	Memo     string
	Amount   Amount
	Coin     *Coin
	ImportID string
}

// Split is one signed (account, coin, amount) leg of a transaction. A
// split belongs to exactly one transaction and is never mutated after
// creation.
type Split struct {
	txn      *Transaction
	account  *Account
	memo     string
	amount   Amount
	coin     *Coin
	importID string
}

func (s *Split) Transaction() *Transaction { return s.txn }
func (s *Split) Account() *Account         { return s.account }
func (s *Split) Memo() string              { return s.memo }
func (s *Split) Amount() Amount            { return s.amount }
func (s *Split) Coin() *Coin               { return s.coin }
func (s *Split) ImportID() string          { return s.importID }

// newSplit enforces the structural split invariants: the target account
// must not be a placeholder, and a single-coin account only takes splits
// of its own coin.
func newSplit(txn *Transaction, p ProtoSplit) (*Split, error) {
	if p.Account == nil {
		return nil, fatalf("split without an account").withTxn(txn)
	}
	if p.Coin == nil {
		return nil, fatalf("split without a coin").withTxn(txn).withAccount(p.Account)
	}
	if p.Amount.IsZero() {
		return nil, fatalf("split with a zero amount").withTxn(txn).withAccount(p.Account).withCoin(p.Coin)
	}
	if p.Account.Placeholder() {
		return nil, fatalf("placeholder account cannot hold splits").withTxn(txn).withAccount(p.Account)
	}
	if p.Account.SingleCoin() && p.Account.Coin() != p.Coin {
		return nil, fatalf("split coin does not match single-coin account").
			withTxn(txn).withAccount(p.Account).withCoin(p.Coin)
	}
	return &Split{
		txn:      txn,
		account:  p.Account,
		memo:     p.Memo,
		amount:   p.Amount,
		coin:     p.Coin,
		importID: p.ImportID,
	}, nil
}

// Transaction is a dated set of splits. Transactions are created by
// importers and never mutated afterwards, except for date correction and
// split append during two-phase import reconciliation.
type Transaction struct {
	id          int
	date        Datetime
	description string
	importID    string
	splits      []*Split
}

func (t *Transaction) ID() int             { return t.id }
func (t *Transaction) Date() Datetime      { return t.date }
func (t *Transaction) Description() string { return t.description }
func (t *Transaction) ImportID() string    { return t.importID }
func (t *Transaction) Splits() []*Split    { return t.splits }

// SetDate corrects the transaction date during import reconciliation.
func (t *Transaction) SetDate(date Datetime) { t.date = date }

// Matched reports whether the transaction has at least one strictly
// positive and one strictly negative split.
func (t *Transaction) Matched() bool {
	var pos, neg bool
	for _, s := range t.splits {
		if s.amount.IsPositive() {
			pos = true
		}
		if s.amount.IsNegative() {
			neg = true
		}
	}
	return pos && neg
}

// GetCoin returns the common coin across all splits, or nil if the
// splits span more than one coin.
func (t *Transaction) GetCoin() *Coin {
	var coin *Coin
	for _, s := range t.splits {
		if coin == nil {
			coin = s.coin
		} else if coin != s.coin {
			return nil
		}
	}
	return coin
}

// Balanced reports whether the transaction is matched, has at least two
// splits, and, when all splits share one coin, nets to exactly zero.
func (t *Transaction) Balanced() bool {
	if !t.Matched() || len(t.splits) < 2 {
		return false
	}
	if t.GetCoin() == nil {
		return true
	}
	var sum Amount
	for _, s := range t.splits {
		sum = sum.Add(s.amount)
	}
	return sum.IsZero()
}

// HasSplitWithImportID reports whether any split carries this import id.
func (t *Transaction) HasSplitWithImportID(importID string) bool {
	if importID == "" {
		return false
	}
	for _, s := range t.splits {
		if s.importID == importID {
			return true
		}
	}
	return false
}
