package coinledger

import (
	"sort"
)

// TaxAccounts names the well-known accounts the classifier matches
// splits against. All fields are required except ERC20, which only
// matters for ledgers tracking ERC-20 style tokens whose transfer fees
// are paid in a different coin.
type TaxAccounts struct {
	Assets    *Account
	Wallets   *Account
	ERC20     *Account
	Exchanges *Account
	Equity    *Account
	Expenses  *Account

	MiningFees      *Account
	TradingFees     *Account
	TransactionFees *Account

	ForkIncome    *Account
	AirdropIncome *Account
	MiningIncome  *Account
}

// HistoricPrices values a coin in USD at a point in time. It either
// returns a price or fails; it never silently returns zero for a coin
// with genuine price history.
type HistoricPrices interface {
	HistoricUSDPrice(date Datetime, coin *Coin) (Amount, error)
}

// Taxes holds the per-coin tax event streams derived from a ledger.
type Taxes struct {
	ledger *Ledger
	events map[string][]TaxEvent // by coin id, chronological
}

// workingSplit is a coalesced split the classifier consumes: all splits
// of a transaction sharing the same (account, coin) pair merged into one
// signed amount.
type workingSplit struct {
	account *Account
	coin    *Coin
	amount  Amount
}

// coalesce merges a transaction's splits by (account, coin). Importers
// sometimes emit several small splits for one logical movement; rule
// matching wants the net movement.
func coalesce(txn *Transaction) []*workingSplit {
	var splits []*workingSplit
	for _, s := range txn.Splits() {
		merged := false
		for _, w := range splits {
			if w.account == s.Account() && w.coin == s.Coin() {
				w.amount = w.amount.Add(s.Amount())
				merged = true
				break
			}
		}
		if !merged {
			splits = append(splits, &workingSplit{account: s.Account(), coin: s.Coin(), amount: s.Amount()})
		}
	}
	return splits
}

// extract removes and returns the first split matching pred, or nil.
func extract(splits *[]*workingSplit, pred func(*workingSplit) bool) *workingSplit {
	for i, w := range *splits {
		if pred(w) {
			*splits = append((*splits)[:i], (*splits)[i+1:]...)
			return w
		}
	}
	return nil
}

// extractAll removes and returns every split matching pred.
func extractAll(splits *[]*workingSplit, pred func(*workingSplit) bool) []*workingSplit {
	var out []*workingSplit
	kept := (*splits)[:0]
	for _, w := range *splits {
		if pred(w) {
			out = append(out, w)
		} else {
			kept = append(kept, w)
		}
	}
	*splits = kept
	return out
}

func in(ancestor *Account) func(*workingSplit) bool {
	return func(w *workingSplit) bool { return w.account.IsContainedIn(ancestor) }
}

// NewTaxes classifies every ledger transaction dated at or before until
// into tax events. Each transaction must match exactly one of the fixed
// classification rules; a transaction matching none, or violating the
// structural expectations of its rule, aborts the whole computation.
func NewTaxes(ledger *Ledger, until Datetime, accounts TaxAccounts, prices HistoricPrices) (*Taxes, error) {
	t := &Taxes{
		ledger: ledger,
		events: make(map[string][]TaxEvent),
	}

	// mining income is bucketed per coin and calendar day before it
	// becomes events
	mining := make(map[string]map[int64]*TaxEvent)

	for txn := range ledger.Transactions() {
		if txn.Date().After(until) {
			continue
		}

		splits := coalesce(txn)
		coin := txn.GetCoin()

		// mining income
		if incomeSplit := extract(&splits, in(accounts.MiningIncome)); incomeSplit != nil {
			if coin == nil {
				return nil, fatalf("got a multi-coin mining transaction").withTxn(txn)
			}
			asset := extract(&splits, in(accounts.Assets))
			extract(&splits, in(accounts.MiningFees)) // net income: the fee is not spent
			if len(splits) > 0 {
				return nil, fatalf("leftover splits in mining transaction").withTxn(txn).withAccount(splits[0].account)
			}
			if asset == nil {
				return nil, fatalf("no asset split in mining transaction").withTxn(txn)
			}
			if !asset.amount.IsPositive() {
				return nil, fatalf("expect positive mining income, got %s", asset.amount).withTxn(txn).withCoin(coin)
			}

			day := txn.Date().EndOfDay()
			price, err := prices.HistoricUSDPrice(day, coin)
			if err != nil {
				return nil, err
			}
			byDay := mining[coin.ID()]
			if byDay == nil {
				byDay = make(map[int64]*TaxEvent)
				mining[coin.ID()] = byDay
			}
			ev := byDay[day.Day()]
			if ev == nil {
				ev = &TaxEvent{Date: day, Type: MiningIncome}
				byDay[day.Day()] = ev
			}
			ev.Amount = ev.Amount.Add(asset.amount)
			ev.AmountUSD = ev.AmountUSD.Add(asset.amount.Mul(price))
			continue
		}

		// fork and airdrop income
		forkPred := func(w *workingSplit) bool {
			return w.account.IsContainedIn(accounts.ForkIncome) || w.account.IsContainedIn(accounts.AirdropIncome)
		}
		if incomeSplit := extract(&splits, forkPred); incomeSplit != nil {
			if coin == nil {
				return nil, fatalf("got a multi-coin fork income transaction").withTxn(txn)
			}
			asset := extract(&splits, in(accounts.Assets))
			extract(&splits, in(accounts.TransactionFees)) // acquired net of the fee
			if len(splits) > 0 {
				return nil, fatalf("leftover splits in fork income transaction").withTxn(txn).withAccount(splits[0].account)
			}
			if asset == nil {
				return nil, fatalf("no asset split in fork income transaction").withTxn(txn)
			}
			if !asset.amount.IsPositive() {
				return nil, fatalf("expect positive fork income, got %s", asset.amount).withTxn(txn).withCoin(coin)
			}

			// fork income is valued at the spot price of the fork itself,
			// not end of day
			price, err := prices.HistoricUSDPrice(txn.Date(), coin)
			if err != nil {
				return nil, err
			}
			t.append(coin, TaxEvent{
				Date:      txn.Date(),
				Amount:    asset.amount,
				AmountUSD: asset.amount.Mul(price),
				Type:      ForkIncome,
			})
			continue
		}

		// single-coin spending, including the cross-coin case of an
		// ERC-20 balance decreasing while the network fee is paid in ETH
		spendCoin := coin
		if spendCoin == nil {
			var erc20Decrease, ethFee bool
			for _, w := range splits {
				if w.account.IsContainedIn(accounts.ERC20) && w.amount.IsNegative() {
					erc20Decrease = true
				}
				if w.account.IsContainedIn(accounts.TransactionFees) && w.amount.IsPositive() && w.coin.Symbol() == "ETH" {
					ethFee = true
					spendCoin = w.coin
				}
			}
			if !erc20Decrease || !ethFee {
				spendCoin = nil
			}
		}
		if spendCoin != nil {
			extractAll(&splits, func(w *workingSplit) bool {
				return w.account.IsContainedIn(accounts.Assets) || w.account.IsContainedIn(accounts.Equity)
			})
			expenses := extractAll(&splits, in(accounts.Expenses))
			if len(splits) > 0 {
				return nil, fatalf("leftover splits in single-coin transaction").withTxn(txn).withAccount(splits[0].account)
			}

			for _, e := range expenses {
				if e.account.IsContainedIn(accounts.MiningFees) {
					return nil, fatalf("unexpected mining fee expense").withTxn(txn).withAccount(e.account)
				}
				if e.account.IsContainedIn(accounts.TradingFees) {
					return nil, fatalf("unexpected trading fee expense").withTxn(txn).withAccount(e.account)
				}
				price, err := prices.HistoricUSDPrice(txn.Date(), spendCoin)
				if err != nil {
					return nil, err
				}
				typ := SpentGeneral
				if e.account.IsContainedIn(accounts.TransactionFees) {
					typ = SpentTransactionFee
				}
				t.append(spendCoin, TaxEvent{
					Date:      txn.Date(),
					Amount:    e.amount,
					AmountUSD: e.amount.Mul(price),
					Type:      typ,
					Memo:      txn.Description() + " (" + e.account.FullName() + ")",
				})
			}
			continue
		}

		// conversion spending: paying for something by spending a non-USD
		// wallet balance
		if wallet := extract(&splits, in(accounts.Wallets)); wallet != nil {
			events, err := classifyConversion(txn, wallet, splits, accounts, prices)
			if err != nil {
				return nil, err
			}
			for _, ce := range events {
				t.append(ce.coin, ce.event)
			}
			continue
		}

		// everything else has to be a trade on an exchange
		events, err := classifyTrade(txn, splits, accounts, prices)
		if err != nil {
			return nil, err
		}
		for _, ce := range events {
			t.append(ce.coin, ce.event)
		}
	}

	// flush the per-day mining buckets into the event streams
	for coinID, byDay := range mining {
		coin := ledger.Coin(coinID)
		for _, ev := range byDay {
			t.append(coin, *ev)
		}
	}

	// sort each coin's events chronologically
	for id := range t.events {
		evs := t.events[id]
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Date.Before(evs[j].Date) })
	}

	return t, nil
}

// coinEvent pairs an event with the coin whose stream it belongs to.
type coinEvent struct {
	coin  *Coin
	event TaxEvent
}

// matchFee extracts the optional fee-match split: the coin-and-amount
// mirror image of the fee, representing the fee collected by the fee
// account's counterpart. At most one mirror is consumed; a transaction
// carrying a second identical mirror fails its rule's leftover-split
// check.
func matchFee(splits *[]*workingSplit, fee *workingSplit) *workingSplit {
	if fee == nil {
		return nil
	}
	return extract(splits, func(w *workingSplit) bool {
		return w.coin == fee.coin && w.amount.Equal(fee.amount.Neg())
	})
}

// feeUSD decides how a fee split contributes. When the fee is paid in
// the buy or sell coin it is already part of that side and must not have
// a fee-match; when it is paid in a third coin it must have one, and it
// becomes its own spending event whose USD value is folded into the buy
// side's cost.
func feeUSD(txn *Transaction, fee, feeMatch, buy, sell *workingSplit, typ EventType,
	memo string, prices HistoricPrices) (Amount, *coinEvent, error) {

	if fee == nil {
		return Amount{}, nil, nil
	}
	if fee.coin == buy.coin || fee.coin == sell.coin {
		if feeMatch != nil {
			return Amount{}, nil, fatalf("unexpected fee match split").withTxn(txn).withCoin(fee.coin)
		}
		return Amount{}, nil, nil
	}
	if feeMatch == nil {
		return Amount{}, nil, fatalf("expected fee match split").withTxn(txn).withCoin(fee.coin)
	}
	price, err := prices.HistoricUSDPrice(txn.Date(), fee.coin)
	if err != nil {
		return Amount{}, nil, err
	}
	usd := fee.amount.Mul(price)
	return usd, &coinEvent{coin: fee.coin, event: TaxEvent{
		Date:      txn.Date(),
		Amount:    fee.amount,
		AmountUSD: usd,
		Type:      typ,
		Memo:      memo,
	}}, nil
}

// tradeValueUSD values a buy/sell pair: the sell side's historic value
// by default, overridden by the buy side when it is USD (nominal) or
// USDT (priced).
func tradeValueUSD(txn *Transaction, buy, sell *workingSplit, prices HistoricPrices) (Amount, error) {
	switch {
	case buy.coin.IsUSD():
		return buy.amount, nil
	case buy.coin.ID() == TetherCoinID:
		price, err := prices.HistoricUSDPrice(txn.Date(), buy.coin)
		if err != nil {
			return Amount{}, err
		}
		return buy.amount.Mul(price), nil
	default:
		price, err := prices.HistoricUSDPrice(txn.Date(), sell.coin)
		if err != nil {
			return Amount{}, err
		}
		return sell.amount.Neg().Mul(price), nil
	}
}

// classifyConversion handles spending a wallet balance on a good or
// service, with an optional transaction fee.
func classifyConversion(txn *Transaction, wallet *workingSplit, splits []*workingSplit,
	accounts TaxAccounts, prices HistoricPrices) ([]*coinEvent, error) {

	if !wallet.amount.IsNegative() {
		return nil, fatalf("expect a negative amount in the wallet split").withTxn(txn).withAccount(wallet.account)
	}

	fee := extract(&splits, in(accounts.TransactionFees))
	if fee != nil && !fee.amount.IsPositive() {
		return nil, fatalf("expect a positive transaction fee").withTxn(txn).withAccount(fee.account)
	}
	feeMatch := matchFee(&splits, fee)

	if len(splits) != 1 {
		return nil, fatalf("expected 1 split left in conversion spending, got %d", len(splits)).withTxn(txn)
	}
	expense := extract(&splits, func(w *workingSplit) bool {
		return w.account.IsContainedIn(accounts.Expenses) &&
			!w.account.IsContainedIn(accounts.TransactionFees) &&
			!w.account.IsContainedIn(accounts.MiningFees) &&
			!w.account.IsContainedIn(accounts.TradingFees) &&
			w.amount.IsPositive()
	})
	if expense == nil {
		return nil, fatalf("couldn't get buy and sell splits").withTxn(txn)
	}

	value, err := tradeValueUSD(txn, expense, wallet, prices)
	if err != nil {
		return nil, err
	}

	feeMemo := ""
	if fee != nil {
		feeMemo = txn.Description() + " (" + fee.account.FullName() + ")"
	}
	extraFeeUSD, feeEvent, err := feeUSD(txn, fee, feeMatch, expense, wallet, SpentTransactionFee, feeMemo, prices)
	if err != nil {
		return nil, err
	}

	events := make([]*coinEvent, 0, 3)
	if feeEvent != nil {
		events = append(events, feeEvent)
	}
	// a third-coin fee adds to the cost basis of what was bought
	events = append(events,
		&coinEvent{coin: expense.coin, event: TaxEvent{
			Date:      txn.Date(),
			Amount:    expense.amount,
			AmountUSD: value.Add(extraFeeUSD),
			Type:      SpentGeneral,
			Memo:      txn.Description() + " (" + expense.account.FullName() + ")",
		}},
		&coinEvent{coin: wallet.coin, event: TaxEvent{
			Date:      txn.Date(),
			Amount:    wallet.amount.Neg(),
			AmountUSD: value,
			Type:      TradeSell,
		}},
	)
	return events, nil
}

// classifyTrade handles the fallback rule: a trade on an exchange, with
// an optional trading fee.
func classifyTrade(txn *Transaction, splits []*workingSplit,
	accounts TaxAccounts, prices HistoricPrices) ([]*coinEvent, error) {

	fee := extract(&splits, in(accounts.TradingFees))
	if fee != nil && !fee.amount.IsPositive() {
		return nil, fatalf("expect a positive trading fee").withTxn(txn).withAccount(fee.account)
	}

	for _, w := range splits {
		if !w.account.IsContainedIn(accounts.Exchanges) {
			return nil, fatalf("don't know how to handle that transaction").withTxn(txn).withAccount(w.account)
		}
	}
	feeMatch := matchFee(&splits, fee)

	if len(splits) != 2 {
		return nil, fatalf("expected 2 splits for a trade transaction, got %d", len(splits)).withTxn(txn)
	}
	sell := extract(&splits, func(w *workingSplit) bool { return w.amount.IsNegative() })
	buy := extract(&splits, func(w *workingSplit) bool { return w.amount.IsPositive() })
	if buy == nil || sell == nil || len(splits) > 0 {
		return nil, fatalf("couldn't get buy and sell splits").withTxn(txn)
	}

	value, err := tradeValueUSD(txn, buy, sell, prices)
	if err != nil {
		return nil, err
	}
	extraFeeUSD, feeEvent, err := feeUSD(txn, fee, feeMatch, buy, sell, SpentTradingFee, "", prices)
	if err != nil {
		return nil, err
	}

	events := make([]*coinEvent, 0, 3)
	if feeEvent != nil {
		events = append(events, feeEvent)
	}
	events = append(events,
		&coinEvent{coin: buy.coin, event: TaxEvent{
			Date:      txn.Date(),
			Amount:    buy.amount,
			AmountUSD: value.Add(extraFeeUSD),
			Type:      TradeBuy,
		}},
		&coinEvent{coin: sell.coin, event: TaxEvent{
			Date:      txn.Date(),
			Amount:    sell.amount.Neg(),
			AmountUSD: value,
			Type:      TradeSell,
		}},
	)
	return events, nil
}

func (t *Taxes) append(coin *Coin, ev TaxEvent) {
	t.events[coin.ID()] = append(t.events[coin.ID()], ev)
}

// CoinIDs returns the ids of all coins with events, sorted.
func (t *Taxes) CoinIDs() []string {
	ids := make([]string, 0, len(t.events))
	for id := range t.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Events returns the chronological event stream of one coin.
func (t *Taxes) Events(coinID string) []TaxEvent { return t.events[coinID] }

// Ledger returns the ledger the events were derived from.
func (t *Taxes) Ledger() *Ledger { return t.ledger }

// CoinEvent pairs a tax event with its coin for cross-coin listings.
type CoinEvent struct {
	Coin  *Coin
	Event TaxEvent
}

// EventsOfType returns all events of one type across coins, sorted by
// date.
func (t *Taxes) EventsOfType(typ EventType) []CoinEvent {
	var out []CoinEvent
	for _, id := range t.CoinIDs() {
		coin := t.ledger.Coin(id)
		for _, ev := range t.events[id] {
			if ev.Type == typ {
				out = append(out, CoinEvent{Coin: coin, Event: ev})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Event.Date.Before(out[j].Event.Date) })
	return out
}
