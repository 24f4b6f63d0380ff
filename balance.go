package coinledger

// Balance is a per-coin sum of split amounts.
type Balance map[*Coin]Amount

// Add accumulates an amount for a coin.
func (b Balance) Add(coin *Coin, amount Amount) {
	b[coin] = b[coin].Add(amount)
}

// AddBalance accumulates another balance into this one.
func (b Balance) AddBalance(other Balance) {
	for coin, amount := range other {
		b.Add(coin, amount)
	}
}

// IsZero reports whether every coin nets to zero.
func (b Balance) IsZero() bool {
	for _, amount := range b {
		if !amount.IsZero() {
			return false
		}
	}
	return true
}

// Balances computes the balance of every non-placeholder account from
// the ledger's splits.
func (l *Ledger) Balances() map[*Account]Balance {
	balances := make(map[*Account]Balance)
	for txn := range l.Transactions() {
		for _, s := range txn.Splits() {
			b, ok := balances[s.Account()]
			if !ok {
				b = make(Balance)
				balances[s.Account()] = b
			}
			b.Add(s.Coin(), s.Amount())
		}
	}
	return balances
}

// TreeBalance returns the total balance of an account and all its
// descendants, using the precomputed per-account balances.
func (l *Ledger) TreeBalance(a *Account, balances map[*Account]Balance) Balance {
	total := make(Balance)
	if own, ok := balances[a]; ok {
		total.AddBalance(own)
	}
	for _, child := range l.Children(a) {
		total.AddBalance(l.TreeBalance(child, balances))
	}
	return total
}
