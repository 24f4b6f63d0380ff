package coinledger

import (
	"testing"
	"time"
)

// stubPrices values every coin at a fixed USD price.
type stubPrices map[string]Amount

func (p stubPrices) HistoricUSDPrice(date Datetime, coin *Coin) (Amount, error) {
	price, ok := p[coin.ID()]
	if !ok {
		return Amount{}, fatalf("no price for %s", coin.ID()).withCoin(coin)
	}
	return price, nil
}

// taxLedger builds the account tree the classifier matches against.
func taxLedger(t *testing.T) (*Ledger, TaxAccounts) {
	t.Helper()
	l := InitLedger()

	btc := l.NewCoin("bitcoin", "Bitcoin", "BTC", 1)
	l.NewCoin("ethereum", "Ethereum", "ETH", 1027)
	l.NewCoin(USDCoinID, "US Dollar", "USD", 0)

	mk := func(name string, placeholder bool, parent *Account) *Account {
		t.Helper()
		a, err := l.NewAccount(name, placeholder, parent, false, nil)
		if err != nil {
			t.Fatalf("NewAccount(%q) failed: %v", name, err)
		}
		return a
	}

	var accounts TaxAccounts
	accounts.Assets = l.MustAccount(RootAssets)
	accounts.Equity = l.MustAccount(RootEquity)
	accounts.Expenses = l.MustAccount(RootExpenses)

	accounts.Wallets = mk("Wallets", true, accounts.Assets)
	accounts.Exchanges = mk("Exchanges", true, accounts.Assets)
	if _, err := l.NewAccount("Bitcoin Core", false, accounts.Wallets, true, btc); err != nil {
		t.Fatal(err)
	}
	mk("Kraken", false, accounts.Exchanges)

	fees := mk("Fees", true, accounts.Expenses)
	accounts.MiningFees = mk("Mining", false, fees)
	accounts.TradingFees = mk("Trading", false, fees)
	accounts.TransactionFees = mk("Transaction", false, fees)
	mk("Purchases", false, accounts.Expenses)

	income := l.MustAccount(RootIncome)
	accounts.MiningIncome = mk("Mining", false, income)
	accounts.ForkIncome = mk("Forks", false, income)
	accounts.AirdropIncome = mk("Airdrops", false, income)

	mk("Opening Balances", false, accounts.Equity)

	return l, accounts
}

// addTxn creates a transaction or fails the test.
func addTxn(t *testing.T, l *Ledger, date Datetime, description string, protos []ProtoSplit) {
	t.Helper()
	if _, err := l.NewTransaction(date, description, protos, ""); err != nil {
		t.Fatalf("NewTransaction(%q) failed: %v", description, err)
	}
}

func split(t *testing.T, l *Ledger, account, coinID, amount string) ProtoSplit {
	t.Helper()
	return ProtoSplit{
		Account: l.MustAccount(account),
		Coin:    l.Coin(coinID),
		Amount:  amt(t, amount),
	}
}

func TestClassifyMiningIncomeBucketsPerDay(t *testing.T) {
	l, accounts := taxLedger(t)
	prices := stubPrices{"bitcoin": A(50000)}

	// two payouts on the same day, one the day after
	addTxn(t, l, NewDatetime(2021, time.March, 1, 10, 0, 0), "payout", []ProtoSplit{
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "0.3"),
		split(t, l, "Income::Mining", "bitcoin", "-0.3"),
	})
	addTxn(t, l, NewDatetime(2021, time.March, 1, 18, 0, 0), "payout", []ProtoSplit{
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "0.2"),
		split(t, l, "Income::Mining", "bitcoin", "-0.2"),
	})
	addTxn(t, l, NewDatetime(2021, time.March, 2, 10, 0, 0), "payout", []ProtoSplit{
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "0.1"),
		split(t, l, "Income::Mining", "bitcoin", "-0.1"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}

	events := taxes.Events("bitcoin")
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 day buckets", len(events))
	}
	first := events[0]
	if first.Type != MiningIncome {
		t.Errorf("event type = %s", first.Type)
	}
	if !first.Amount.Equal(amt(t, "0.5")) || !first.AmountUSD.Equal(A(25000)) {
		t.Errorf("day bucket = %s (%s USD), want 0.5 (25000 USD)", first.Amount, first.AmountUSD)
	}
	if !first.Date.SameDay(NewDay(2021, time.March, 1)) {
		t.Errorf("day bucket dated %s", first.Date)
	}
	if !events[1].Amount.Equal(amt(t, "0.1")) {
		t.Errorf("second day bucket = %s, want 0.1", events[1].Amount)
	}
}

func TestClassifyMiningIncomeNetsTheFee(t *testing.T) {
	l, accounts := taxLedger(t)
	prices := stubPrices{"bitcoin": A(50000)}

	// the pool kept 0.01: income is the net 0.5, the fee is not a
	// disposal because the coins were never owned
	addTxn(t, l, NewDay(2021, time.March, 1), "payout", []ProtoSplit{
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "0.5"),
		split(t, l, "Expenses::Fees::Mining", "bitcoin", "0.01"),
		split(t, l, "Income::Mining", "bitcoin", "-0.51"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}
	events := taxes.Events("bitcoin")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !events[0].Amount.Equal(amt(t, "0.5")) {
		t.Errorf("income = %s, want the net 0.5", events[0].Amount)
	}
}

func TestClassifyForkIncome(t *testing.T) {
	l, accounts := taxLedger(t)
	bch := l.NewCoin("bitcoin-cash", "Bitcoin Cash", "BCH", 1831)
	if _, err := l.NewAccount("BCH Wallet", false, accounts.Wallets, true, bch); err != nil {
		t.Fatal(err)
	}
	prices := stubPrices{"bitcoin-cash": A(300)}

	addTxn(t, l, NewDatetime(2017, time.August, 1, 13, 16, 0), "BCH fork", []ProtoSplit{
		split(t, l, "Assets::Wallets::BCH Wallet", "bitcoin-cash", "2"),
		split(t, l, "Income::Forks", "bitcoin-cash", "-2"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}
	events := taxes.Events("bitcoin-cash")
	if len(events) != 1 || events[0].Type != ForkIncome {
		t.Fatalf("events = %v", events)
	}
	// valued at the fork's own timestamp, not end of day
	if events[0].Date != NewDatetime(2017, time.August, 1, 13, 16, 0) {
		t.Errorf("fork dated %s, want the transaction timestamp", events[0].Date)
	}
	if !events[0].AmountUSD.Equal(A(600)) {
		t.Errorf("fork income = %s USD, want 600", events[0].AmountUSD)
	}
}

func TestClassifyTransfer(t *testing.T) {
	l, accounts := taxLedger(t)
	prices := stubPrices{"bitcoin": A(50000)}

	// moving coins between own accounts: only the network fee is an event
	addTxn(t, l, NewDay(2021, time.March, 1), "to cold storage", []ProtoSplit{
		split(t, l, "Assets::Exchanges::Kraken", "bitcoin", "-0.5005"),
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "0.5"),
		split(t, l, "Expenses::Fees::Transaction", "bitcoin", "0.0005"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}
	events := taxes.Events("bitcoin")
	if len(events) != 1 {
		t.Fatalf("got %d events, want only the fee", len(events))
	}
	fee := events[0]
	if fee.Type != SpentTransactionFee {
		t.Errorf("event type = %s", fee.Type)
	}
	if !fee.Amount.Equal(amt(t, "0.0005")) || !fee.AmountUSD.Equal(A(25)) {
		t.Errorf("fee = %s (%s USD), want 0.0005 (25 USD)", fee.Amount, fee.AmountUSD)
	}
}

func TestClassifyTrade(t *testing.T) {
	l, accounts := taxLedger(t)
	prices := stubPrices{"bitcoin": A(50000), "ethereum": A(2500)}

	// 0.5 BTC for 9.9 ETH, fee 0.1 ETH kept by the exchange
	addTxn(t, l, NewDay(2021, time.March, 1), "BTC/ETH", []ProtoSplit{
		split(t, l, "Assets::Exchanges::Kraken", "bitcoin", "-0.5"),
		split(t, l, "Assets::Exchanges::Kraken", "ethereum", "9.9"),
		split(t, l, "Expenses::Fees::Trading", "ethereum", "0.1"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}

	sells := taxes.EventsOfType(TradeSell)
	if len(sells) != 1 {
		t.Fatalf("got %d sell events, want 1", len(sells))
	}
	sell := sells[0].Event
	if sells[0].Coin.ID() != "bitcoin" || !sell.Amount.Equal(amt(t, "0.5")) {
		t.Errorf("sell side = %s %s", sell.Amount, sells[0].Coin.Symbol())
	}
	// valued at the sell side in USD
	if !sell.AmountUSD.Equal(A(25000)) {
		t.Errorf("sell value = %s USD, want 25000", sell.AmountUSD)
	}

	buys := taxes.EventsOfType(TradeBuy)
	if len(buys) != 1 {
		t.Fatalf("got %d buy events, want 1", len(buys))
	}
	buy := buys[0].Event
	if buys[0].Coin.ID() != "ethereum" || !buy.Amount.Equal(amt(t, "9.9")) {
		t.Errorf("buy side = %s %s", buy.Amount, buys[0].Coin.Symbol())
	}
	// the fee is paid in the buy coin: no separate fee event
	if n := len(taxes.EventsOfType(SpentTradingFee)); n != 0 {
		t.Errorf("got %d trading fee events, want 0", n)
	}
}

func TestClassifyTradeAgainstUSD(t *testing.T) {
	l, accounts := taxLedger(t)
	// no price needed: the buy side is USD and carries the value
	prices := stubPrices{}

	addTxn(t, l, NewDay(2021, time.June, 1), "sell BTC", []ProtoSplit{
		split(t, l, "Assets::Exchanges::Kraken", "bitcoin", "-0.1"),
		split(t, l, "Assets::Exchanges::Kraken", USDCoinID, "3500"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}
	sells := taxes.EventsOfType(TradeSell)
	if len(sells) != 1 || !sells[0].Event.AmountUSD.Equal(A(3500)) {
		t.Fatalf("sell events = %v, want one valued 3500 USD", sells)
	}
}

func TestClassifyTradeAgainstUSDT(t *testing.T) {
	l, accounts := taxLedger(t)
	l.NewCoin(TetherCoinID, "Tether", "USDT", 825)
	// the buy side is USDT: the trade is valued through the USDT price,
	// the sell coin's price is never consulted
	prices := stubPrices{TetherCoinID: amt(t, "0.999")}

	addTxn(t, l, NewDay(2021, time.June, 1), "sell BTC for USDT", []ProtoSplit{
		split(t, l, "Assets::Exchanges::Kraken", "bitcoin", "-0.1"),
		split(t, l, "Assets::Exchanges::Kraken", TetherCoinID, "5000"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}
	sells := taxes.EventsOfType(TradeSell)
	if len(sells) != 1 || !sells[0].Event.AmountUSD.Equal(A(4995)) {
		t.Fatalf("sell events = %v, want one valued 4995 USD", sells)
	}
	buys := taxes.EventsOfType(TradeBuy)
	if len(buys) != 1 || buys[0].Coin.ID() != TetherCoinID || !buys[0].Event.AmountUSD.Equal(A(4995)) {
		t.Fatalf("buy events = %v, want 5000 USDT valued 4995 USD", buys)
	}
}

func TestClassifyConversionWithThirdCoinFee(t *testing.T) {
	l, accounts := taxLedger(t)
	prices := stubPrices{"ethereum": A(2500)}

	// paying a 5000 USD invoice from the wallet, network fee in ETH
	// fronted by the exchange
	addTxn(t, l, NewDay(2021, time.June, 1), "invoice", []ProtoSplit{
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "-0.1"),
		split(t, l, "Expenses::Purchases", USDCoinID, "5000"),
		split(t, l, "Expenses::Fees::Transaction", "ethereum", "0.001"),
		split(t, l, "Assets::Exchanges::Kraken", "ethereum", "-0.001"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}

	fees := taxes.EventsOfType(SpentTransactionFee)
	if len(fees) != 1 {
		t.Fatalf("got %d fee events, want 1", len(fees))
	}
	if fees[0].Coin.ID() != "ethereum" || !fees[0].Event.Amount.Equal(amt(t, "0.001")) || !fees[0].Event.AmountUSD.Equal(amt(t, "2.5")) {
		t.Errorf("fee event = %s %s (%s USD)", fees[0].Event.Amount, fees[0].Coin.Symbol(), fees[0].Event.AmountUSD)
	}

	// the fee's USD value adds to what the purchase cost
	spent := taxes.EventsOfType(SpentGeneral)
	if len(spent) != 1 {
		t.Fatalf("got %d spending events, want 1", len(spent))
	}
	if spent[0].Coin.ID() != USDCoinID || !spent[0].Event.AmountUSD.Equal(amt(t, "5002.5")) {
		t.Errorf("spending = %s %s (%s USD), want 5000 USD costing 5002.5", spent[0].Event.Amount, spent[0].Coin.Symbol(), spent[0].Event.AmountUSD)
	}

	// the wallet side is a plain disposal at the trade value
	sells := taxes.EventsOfType(TradeSell)
	if len(sells) != 1 {
		t.Fatalf("got %d sell events, want 1", len(sells))
	}
	if sells[0].Coin.ID() != "bitcoin" || !sells[0].Event.Amount.Equal(amt(t, "0.1")) || !sells[0].Event.AmountUSD.Equal(A(5000)) {
		t.Errorf("sell = %s %s (%s USD), want 0.1 BTC at 5000", sells[0].Event.Amount, sells[0].Coin.Symbol(), sells[0].Event.AmountUSD)
	}
	if n := len(taxes.EventsOfType(TradeBuy)); n != 0 {
		t.Errorf("got %d buy events, want 0", n)
	}
}

func TestClassifyTokenTransferWithEthereumFee(t *testing.T) {
	l, accounts := taxLedger(t)
	eth := l.Coin("ethereum")
	link := l.NewCoin("chainlink", "Chainlink", "LINK", 1975)

	tokens, err := l.NewAccount("Tokens", true, accounts.Wallets, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	accounts.ERC20 = tokens
	if _, err := l.NewAccount("LINK Holdings", false, tokens, true, link); err != nil {
		t.Fatal(err)
	}
	if _, err := l.NewAccount("MetaMask", false, accounts.Wallets, true, eth); err != nil {
		t.Fatal(err)
	}
	prices := stubPrices{"ethereum": A(2500)}

	// the token balance decreases while the network fee is paid in ETH:
	// only the fee is spent, the tokens just move
	addTxn(t, l, NewDay(2021, time.June, 1), "LINK to exchange", []ProtoSplit{
		split(t, l, "Assets::Wallets::Tokens::LINK Holdings", "chainlink", "-10"),
		split(t, l, "Assets::Exchanges::Kraken", "chainlink", "10"),
		split(t, l, "Expenses::Fees::Transaction", "ethereum", "0.002"),
		split(t, l, "Assets::Wallets::MetaMask", "ethereum", "-0.002"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}
	if n := len(taxes.Events("chainlink")); n != 0 {
		t.Errorf("got %d token events, want 0", n)
	}
	events := taxes.Events("ethereum")
	if len(events) != 1 || events[0].Type != SpentTransactionFee {
		t.Fatalf("ethereum events = %v, want only the fee", events)
	}
	if !events[0].Amount.Equal(amt(t, "0.002")) || !events[0].AmountUSD.Equal(A(5)) {
		t.Errorf("fee = %s (%s USD), want 0.002 (5 USD)", events[0].Amount, events[0].AmountUSD)
	}
}

func TestClassifyRejectsBadFeeMatch(t *testing.T) {
	prices := stubPrices{"bitcoin": A(50000), "ethereum": A(2500)}

	t.Run("missing", func(t *testing.T) {
		l, accounts := taxLedger(t)
		// a third-coin fee with no mirror split accounting for it
		addTxn(t, l, NewDay(2021, time.June, 1), "invoice", []ProtoSplit{
			split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "-0.1"),
			split(t, l, "Expenses::Purchases", USDCoinID, "5000"),
			split(t, l, "Expenses::Fees::Transaction", "ethereum", "0.001"),
		})
		if _, err := NewTaxes(l, Now(), accounts, prices); !IsFatal(err) {
			t.Errorf("missing fee match error = %v, want fatal", err)
		}
	})

	t.Run("unexpected", func(t *testing.T) {
		l, accounts := taxLedger(t)
		if _, err := l.NewAccount("Binance", false, accounts.Exchanges, false, nil); err != nil {
			t.Fatal(err)
		}
		// the fee is paid in the buy coin and already part of that side:
		// a mirror split on top of it makes no sense
		addTxn(t, l, NewDay(2021, time.June, 1), "BTC/ETH", []ProtoSplit{
			split(t, l, "Assets::Exchanges::Kraken", "bitcoin", "-0.5"),
			split(t, l, "Assets::Exchanges::Kraken", "ethereum", "10"),
			split(t, l, "Expenses::Fees::Trading", "ethereum", "0.1"),
			split(t, l, "Assets::Exchanges::Binance", "ethereum", "-0.1"),
		})
		if _, err := NewTaxes(l, Now(), accounts, prices); !IsFatal(err) {
			t.Errorf("unexpected fee match error = %v, want fatal", err)
		}
	})

	t.Run("duplicated", func(t *testing.T) {
		l, accounts := taxLedger(t)
		if _, err := l.NewAccount("Binance", false, accounts.Exchanges, false, nil); err != nil {
			t.Fatal(err)
		}
		// two distinct accounts each mirroring the fee: one is consumed
		// as the match, the other is an unexplainable leftover
		addTxn(t, l, NewDay(2021, time.June, 1), "invoice", []ProtoSplit{
			split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "-0.1"),
			split(t, l, "Expenses::Purchases", USDCoinID, "5000"),
			split(t, l, "Expenses::Fees::Transaction", "ethereum", "0.001"),
			split(t, l, "Assets::Exchanges::Kraken", "ethereum", "-0.001"),
			split(t, l, "Assets::Exchanges::Binance", "ethereum", "-0.001"),
		})
		if _, err := NewTaxes(l, Now(), accounts, prices); !IsFatal(err) {
			t.Errorf("duplicated fee match error = %v, want fatal", err)
		}
	})
}

func TestClassifyPurchase(t *testing.T) {
	l, accounts := taxLedger(t)
	prices := stubPrices{"bitcoin": A(50000)}

	addTxn(t, l, NewDay(2021, time.June, 1), "pizza", []ProtoSplit{
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "-0.1"),
		split(t, l, "Expenses::Purchases", "bitcoin", "0.1"),
	})

	taxes, err := NewTaxes(l, Now(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}
	spent := taxes.EventsOfType(SpentGeneral)
	if len(spent) != 1 {
		t.Fatalf("got %d spending events, want 1", len(spent))
	}
	if !spent[0].Event.Amount.Equal(amt(t, "0.1")) || !spent[0].Event.AmountUSD.Equal(A(5000)) {
		t.Errorf("spending = %s (%s USD)", spent[0].Event.Amount, spent[0].Event.AmountUSD)
	}
}

func TestClassifyHonorsUntil(t *testing.T) {
	l, accounts := taxLedger(t)
	prices := stubPrices{"bitcoin": A(50000)}

	addTxn(t, l, NewDay(2021, time.March, 1), "payout", []ProtoSplit{
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "0.5"),
		split(t, l, "Income::Mining", "bitcoin", "-0.5"),
	})
	addTxn(t, l, NewDay(2022, time.March, 1), "payout", []ProtoSplit{
		split(t, l, "Assets::Wallets::Bitcoin Core", "bitcoin", "0.5"),
		split(t, l, "Income::Mining", "bitcoin", "-0.5"),
	})

	taxes, err := NewTaxes(l, NewDay(2021, time.December, 31).EndOfDay(), accounts, prices)
	if err != nil {
		t.Fatalf("NewTaxes failed: %v", err)
	}
	if n := len(taxes.Events("bitcoin")); n != 1 {
		t.Errorf("got %d events, want only the 2021 one", n)
	}
}

func TestClassifyRejectsUnknownShape(t *testing.T) {
	l, accounts := taxLedger(t)
	liabilities, err := l.NewAccount("Loan", false, l.MustAccount(RootLiabilities), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	addTxn(t, l, NewDay(2021, time.March, 1), "???", []ProtoSplit{
		{Account: liabilities, Coin: l.Coin("bitcoin"), Amount: A(1)},
		split(t, l, "Assets::Exchanges::Kraken", "ethereum", "-1"),
	})

	_, err = NewTaxes(l, Now(), accounts, stubPrices{"bitcoin": A(50000), "ethereum": A(2500)})
	if err == nil {
		t.Fatalf("unclassifiable transaction was accepted")
	}
	if !IsFatal(err) {
		t.Errorf("classification error is not fatal: %v", err)
	}
}
