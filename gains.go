package coinledger

import (
	"sort"
)

// SpotPrices provides current USD prices keyed by coin id, for
// unrealized gain valuation.
type SpotPrices interface {
	CurrentUSDPrices() (map[string]Amount, error)
}

// CapitalGains is the result of matching every disposal in the event
// streams against acquisition lots.
type CapitalGains struct {
	ShortTerm []GainLoss
	LongTerm  []GainLoss

	// inventories holds the remaining (unsold) lots per coin id after
	// the run.
	inventories map[string]*Inventory

	longTermDays int
	ledger       *Ledger
}

// CapitalGains replays each coin's event stream through a tax-lot
// inventory: acquisitions become lots, disposals consume them, and every
// consumed lot fragment becomes one gain/loss record.
//
// USD is excluded from lot tracking; a USD event whose native amount
// differs from its USD amount means the ledger is in an impossible
// state.
func (t *Taxes) CapitalGains(longTermDays int, order LotOrder) (*CapitalGains, error) {
	cg := &CapitalGains{
		inventories:  make(map[string]*Inventory),
		longTermDays: longTermDays,
		ledger:       t.ledger,
	}
	longTermSeconds := int64(longTermDays) * secondsPerDay

	for _, coinID := range t.CoinIDs() {
		events := t.events[coinID]

		if coinID == USDCoinID {
			for _, e := range events {
				if !e.Amount.Equal(e.AmountUSD) {
					return nil, fatalf("got USD event with mismatching amounts: %s vs %s USD",
						e.Amount, e.AmountUSD).withCoin(t.ledger.Coin(coinID))
				}
			}
			continue
		}

		coin := t.ledger.Coin(coinID)
		inv := NewInventory(order)
		cg.inventories[coinID] = inv

		for _, e := range events {
			switch {
			case e.Type.IsAcquisition():
				if err := inv.Acquire(InventoryItem{Date: e.Date, Amount: e.Amount, CostInUSD: e.AmountUSD}); err != nil {
					return nil, err
				}

			case e.Type.IsDisposal():
				disposed, err := inv.Dispose(e.Amount)
				if err != nil {
					return nil, err
				}
				if len(disposed) == 0 {
					return nil, fatalf("got 0 disposals").withCoin(coin)
				}

				var gains []GainLoss
				if len(disposed) == 1 {
					d := disposed[0]
					if !d.Amount.Equal(e.Amount) {
						return nil, fatalf("disposal amount mismatch: %s vs %s", d.Amount, e.Amount).withCoin(coin)
					}
					g, err := newGainLoss(coin, e.Amount, d.Date, e.Date, e.AmountUSD, d.CostInUSD)
					if err != nil {
						return nil, err
					}
					gains = append(gains, g)
				} else {
					// several lots consumed: pro-rate the proceeds per
					// fragment
					for _, d := range disposed {
						proceeds := e.AmountUSD.MulDiv(d.Amount, e.Amount)
						g, err := newGainLoss(coin, d.Amount, d.Date, e.Date, proceeds, d.CostInUSD)
						if err != nil {
							return nil, err
						}
						gains = append(gains, g)
					}
				}

				for _, g := range gains {
					if g.Acquired.AbsDiff(g.Disposed) > longTermSeconds {
						cg.LongTerm = append(cg.LongTerm, g)
					} else {
						cg.ShortTerm = append(cg.ShortTerm, g)
					}
				}
			}
		}
	}

	return cg, nil
}

// Inventory returns the remaining inventory of a coin after the run, or
// nil if the coin had no events.
func (cg *CapitalGains) Inventory(coinID string) *Inventory { return cg.inventories[coinID] }

// UnrealizedGain values the unsold inventory of one coin at the current
// spot price.
type UnrealizedGain struct {
	Coin   *Coin
	Amount Amount
	Cost   Amount
	Value  Amount
	Profit Amount
}

// Unrealized values every coin's unsold lots against current spot USD
// prices. Coins with an empty inventory are skipped; a held coin missing
// from the price map is a fatal error.
func (cg *CapitalGains) Unrealized(now Datetime, spot map[string]Amount) ([]UnrealizedGain, error) {
	ids := make([]string, 0, len(cg.inventories))
	for id := range cg.inventories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []UnrealizedGain
	for _, id := range ids {
		unsold := cg.inventories[id].Unsold(now, cg.longTermDays)
		if unsold.Total.Amount.IsZero() {
			continue
		}
		price, ok := spot[id]
		if !ok {
			return nil, fatalf("no current USD price for held coin").withCoin(cg.ledger.Coin(id))
		}
		value := unsold.Total.Amount.Mul(price)
		out = append(out, UnrealizedGain{
			Coin:   cg.ledger.Coin(id),
			Amount: unsold.Total.Amount,
			Cost:   unsold.Total.CostInUSD,
			Value:  value,
			Profit: value.Sub(unsold.Total.CostInUSD),
		})
	}
	return out, nil
}

// SortGainLoss orders records by coin id, then disposal date, then
// acquisition date: the canonical order for fusing and reporting.
func SortGainLoss(gains []GainLoss) {
	sort.SliceStable(gains, func(i, j int) bool {
		a, b := gains[i], gains[j]
		if a.Coin.ID() != b.Coin.ID() {
			return a.Coin.ID() < b.Coin.ID()
		}
		if c := a.Disposed.Compare(b.Disposed); c != 0 {
			return c < 0
		}
		return a.Acquired.Before(b.Acquired)
	})
}

// Fuse merges gain/loss records of the same coin disposed within the
// same calendar day into one aggregate record, marking it when the
// merged records were acquired on different dates. The input is
// re-sorted into canonical order first.
func Fuse(gains []GainLoss) []GainLoss {
	if len(gains) == 0 {
		return nil
	}
	SortGainLoss(gains)

	fused := []GainLoss{gains[0]}
	for _, g := range gains[1:] {
		prev := &fused[len(fused)-1]
		if prev.Coin == g.Coin && prev.Disposed.SameDay(g.Disposed) {
			prev.Amount = prev.Amount.Add(g.Amount)
			prev.Proceeds = prev.Proceeds.Add(g.Proceeds)
			prev.Cost = prev.Cost.Add(g.Cost)
			if prev.Acquired.Compare(g.Acquired) != 0 {
				prev.VariousAcquiredDates = true
			}
		} else {
			fused = append(fused, g)
		}
	}
	return fused
}
