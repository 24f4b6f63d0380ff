package coinledger

import (
	"testing"
	"time"
)

// eventTaxes builds a Taxes value directly from event streams, skipping
// classification.
func eventTaxes(l *Ledger, events map[string][]TaxEvent) *Taxes {
	return &Taxes{ledger: l, events: events}
}

func gainsLedger(t *testing.T) *Ledger {
	t.Helper()
	l := InitLedger()
	l.NewCoin("bitcoin", "Bitcoin", "BTC", 1)
	l.NewCoin(USDCoinID, "US Dollar", "USD", 0)
	return l
}

func TestCapitalGainsFIFO(t *testing.T) {
	l := gainsLedger(t)
	taxes := eventTaxes(l, map[string][]TaxEvent{
		"bitcoin": {
			{Date: NewDay(2020, time.January, 1), Amount: A(1), AmountUSD: A(10000), Type: TradeBuy},
			{Date: NewDay(2021, time.February, 1), Amount: A(1), AmountUSD: A(20000), Type: TradeBuy},
			{Date: NewDay(2021, time.June, 1), Amount: amt(t, "1.5"), AmountUSD: A(75000), Type: TradeSell},
		},
	})

	cg, err := taxes.CapitalGains(365, FIFO)
	if err != nil {
		t.Fatalf("CapitalGains failed: %v", err)
	}

	// the 2020 lot was held over a year, its fragment is long-term
	if len(cg.LongTerm) != 1 {
		t.Fatalf("got %d long-term records, want 1", len(cg.LongTerm))
	}
	long := cg.LongTerm[0]
	if !long.Amount.Equal(A(1)) || !long.Proceeds.Equal(A(50000)) || !long.Cost.Equal(A(10000)) {
		t.Errorf("long-term record = %+v", long)
	}
	if !long.Profit().Equal(A(40000)) {
		t.Errorf("long-term profit = %s, want 40000", long.Profit())
	}

	if len(cg.ShortTerm) != 1 {
		t.Fatalf("got %d short-term records, want 1", len(cg.ShortTerm))
	}
	short := cg.ShortTerm[0]
	if !short.Amount.Equal(amt(t, "0.5")) || !short.Proceeds.Equal(A(25000)) || !short.Cost.Equal(A(10000)) {
		t.Errorf("short-term record = %+v", short)
	}

	// half of the 2021 lot remains unsold
	lots := cg.Inventory("bitcoin").Lots()
	if len(lots) != 1 || !lots[0].Amount.Equal(amt(t, "0.5")) || !lots[0].CostInUSD.Equal(A(10000)) {
		t.Errorf("remaining lots = %v", lots)
	}
}

func TestCapitalGainsLIFO(t *testing.T) {
	l := gainsLedger(t)
	taxes := eventTaxes(l, map[string][]TaxEvent{
		"bitcoin": {
			{Date: NewDay(2020, time.January, 1), Amount: A(1), AmountUSD: A(10000), Type: TradeBuy},
			{Date: NewDay(2021, time.February, 1), Amount: A(1), AmountUSD: A(20000), Type: TradeBuy},
			{Date: NewDay(2021, time.June, 1), Amount: A(1), AmountUSD: A(50000), Type: TradeSell},
		},
	})

	cg, err := taxes.CapitalGains(365, LIFO)
	if err != nil {
		t.Fatalf("CapitalGains failed: %v", err)
	}
	// LIFO consumes the 2021 lot: short-term, cost 20000
	if len(cg.LongTerm) != 0 || len(cg.ShortTerm) != 1 {
		t.Fatalf("got %d long / %d short records, want 0/1", len(cg.LongTerm), len(cg.ShortTerm))
	}
	if got := cg.ShortTerm[0].Cost; !got.Equal(A(20000)) {
		t.Errorf("cost basis = %s, want the 2021 lot's 20000", got)
	}
}

func TestCapitalGainsSkipsUSD(t *testing.T) {
	l := gainsLedger(t)
	taxes := eventTaxes(l, map[string][]TaxEvent{
		USDCoinID: {
			{Date: NewDay(2021, time.June, 1), Amount: A(3500), AmountUSD: A(3500), Type: TradeBuy},
		},
	})

	cg, err := taxes.CapitalGains(365, FIFO)
	if err != nil {
		t.Fatalf("CapitalGains failed: %v", err)
	}
	if len(cg.ShortTerm) != 0 || len(cg.LongTerm) != 0 || cg.Inventory(USDCoinID) != nil {
		t.Errorf("USD was lot-tracked")
	}

	// a USD event whose amounts disagree means the ledger is broken
	taxes = eventTaxes(l, map[string][]TaxEvent{
		USDCoinID: {
			{Date: NewDay(2021, time.June, 1), Amount: A(3500), AmountUSD: A(3600), Type: TradeBuy},
		},
	})
	if _, err := taxes.CapitalGains(365, FIFO); err == nil || !IsFatal(err) {
		t.Errorf("mismatching USD event error = %v, want fatal", err)
	}
}

func TestCapitalGainsOverdisposal(t *testing.T) {
	l := gainsLedger(t)
	taxes := eventTaxes(l, map[string][]TaxEvent{
		"bitcoin": {
			{Date: NewDay(2021, time.January, 1), Amount: A(1), AmountUSD: A(30000), Type: TradeBuy},
			{Date: NewDay(2021, time.June, 1), Amount: A(2), AmountUSD: A(100000), Type: TradeSell},
		},
	})
	if _, err := taxes.CapitalGains(365, FIFO); err == nil || !IsFatal(err) {
		t.Errorf("selling more than acquired error = %v, want fatal", err)
	}
}

func TestCapitalGainsUnrealized(t *testing.T) {
	l := gainsLedger(t)
	taxes := eventTaxes(l, map[string][]TaxEvent{
		"bitcoin": {
			{Date: NewDay(2021, time.January, 1), Amount: A(2), AmountUSD: A(60000), Type: TradeBuy},
			{Date: NewDay(2021, time.June, 1), Amount: A(1), AmountUSD: A(50000), Type: TradeSell},
		},
	})
	cg, err := taxes.CapitalGains(365, FIFO)
	if err != nil {
		t.Fatalf("CapitalGains failed: %v", err)
	}

	unrealized, err := cg.Unrealized(NewDay(2021, time.December, 31), map[string]Amount{"bitcoin": A(47000)})
	if err != nil {
		t.Fatalf("Unrealized failed: %v", err)
	}
	if len(unrealized) != 1 {
		t.Fatalf("got %d unrealized records, want 1", len(unrealized))
	}
	u := unrealized[0]
	if !u.Amount.Equal(A(1)) || !u.Cost.Equal(A(30000)) || !u.Value.Equal(A(47000)) || !u.Profit.Equal(A(17000)) {
		t.Errorf("unrealized = %+v", u)
	}

	// a held coin without a spot price is a fatal error
	if _, err := cg.Unrealized(NewDay(2021, time.December, 31), nil); err == nil || !IsFatal(err) {
		t.Errorf("missing spot price error = %v, want fatal", err)
	}
}

func TestSortGainLoss(t *testing.T) {
	l := gainsLedger(t)
	btc := l.Coin("bitcoin")
	eth := l.NewCoin("ethereum", "Ethereum", "ETH", 1027)

	gains := []GainLoss{
		{Coin: eth, Disposed: NewDay(2021, time.January, 1)},
		{Coin: btc, Disposed: NewDay(2021, time.June, 1), Acquired: NewDay(2021, time.February, 1)},
		{Coin: btc, Disposed: NewDay(2021, time.June, 1), Acquired: NewDay(2021, time.January, 1)},
		{Coin: btc, Disposed: NewDay(2021, time.March, 1)},
	}
	SortGainLoss(gains)

	if gains[0].Coin != btc || !gains[0].Disposed.SameDay(NewDay(2021, time.March, 1)) {
		t.Errorf("first record = %+v", gains[0])
	}
	if !gains[1].Acquired.SameDay(NewDay(2021, time.January, 1)) {
		t.Errorf("same-day disposals are not ordered by acquisition")
	}
	if gains[3].Coin != eth {
		t.Errorf("coins are not grouped")
	}
}

func TestFuse(t *testing.T) {
	l := gainsLedger(t)
	btc := l.Coin("bitcoin")
	disposed := NewDay(2021, time.June, 1)

	gains := []GainLoss{
		{Coin: btc, Amount: A(1), Acquired: NewDay(2020, time.January, 1), Disposed: disposed, Proceeds: A(50000), Cost: A(10000)},
		{Coin: btc, Amount: A(1), Acquired: NewDay(2021, time.February, 1), Disposed: disposed, Proceeds: A(50000), Cost: A(20000)},
		{Coin: btc, Amount: A(1), Acquired: NewDay(2021, time.February, 1), Disposed: NewDay(2021, time.July, 1), Proceeds: A(40000), Cost: A(20000)},
	}
	fused := Fuse(gains)

	if len(fused) != 2 {
		t.Fatalf("got %d fused records, want 2", len(fused))
	}
	first := fused[0]
	if !first.Amount.Equal(A(2)) || !first.Proceeds.Equal(A(100000)) || !first.Cost.Equal(A(30000)) {
		t.Errorf("fused record = %+v", first)
	}
	if !first.VariousAcquiredDates {
		t.Errorf("fused record of lots acquired on different dates is not marked VARIOUS")
	}
	if fused[1].VariousAcquiredDates {
		t.Errorf("lone record is marked VARIOUS")
	}

	if got := Fuse(nil); got != nil {
		t.Errorf("Fuse(nil) = %v", got)
	}
}
