package coinledger

// LotOrder selects which end of the inventory a disposal consumes first.
type LotOrder int

const (
	// FIFO disposes the oldest acquisition first.
	FIFO LotOrder = iota
	// LIFO disposes the newest acquisition first.
	LIFO
)

func (o LotOrder) String() string {
	switch o {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	default:
		return "unknown"
	}
}

// ParseLotOrder parses a string into a LotOrder.
func ParseLotOrder(s string) (LotOrder, error) {
	switch s {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	default:
		return 0, fatalf("unknown lot order: %q", s)
	}
}

// InventoryItem is one acquisition lot: the amount still held from an
// acquisition and the USD cost basis remaining on it.
type InventoryItem struct {
	Date      Datetime
	Amount    Amount
	CostInUSD Amount
}

// Inventory is the tax-lot queue for a single coin. Lots are ordered by
// acquisition time; disposals consume from the head (FIFO) or the tail
// (LIFO), splitting the last touched lot pro-rata when it is only
// partially consumed.
type Inventory struct {
	order LotOrder
	lots  []InventoryItem
}

// NewInventory creates an empty inventory with the given disposal order.
func NewInventory(order LotOrder) *Inventory {
	return &Inventory{order: order}
}

// Order returns the disposal order of this inventory.
func (inv *Inventory) Order() LotOrder { return inv.order }

// Lots returns the remaining lots in acquisition order.
func (inv *Inventory) Lots() []InventoryItem { return inv.lots }

// Acquire appends a lot. Acquisition dates must be non-decreasing; the
// classifier emits events in chronological order, so a violation means
// the ledger is in an impossible state.
func (inv *Inventory) Acquire(item InventoryItem) error {
	if n := len(inv.lots); n > 0 && item.Date.Before(inv.lots[n-1].Date) {
		return fatalf("going backwards in time: acquisition on %s after lot of %s",
			item.Date.String(), inv.lots[n-1].Date.String())
	}
	inv.lots = append(inv.lots, item)
	return nil
}

// Dispose consumes the given amount from the inventory and returns the
// consumed lots, whole or fragmented, in consumption order. A partially
// consumed lot is split with its cost pro-rated exactly:
//
//	fragmentCost = lotCost × fragmentAmount / lotAmount
//
// Disposing more than the inventory holds is a fatal error.
func (inv *Inventory) Dispose(amount Amount) ([]InventoryItem, error) {
	var consumed []InventoryItem
	remaining := amount

	for remaining.IsPositive() {
		if len(inv.lots) == 0 {
			return nil, fatalf("amount remaining but no inventory: %s left to dispose", remaining)
		}

		match := len(inv.lots) - 1 // LIFO: tail
		if inv.order == FIFO {
			match = 0
		}
		lot := inv.lots[match]

		if remaining.GreaterOrEqual(lot.Amount) {
			// completely consume the match
			consumed = append(consumed, lot)
			remaining = remaining.Sub(lot.Amount)
			if inv.order == FIFO {
				inv.lots = inv.lots[1:]
			} else {
				inv.lots = inv.lots[:match]
			}
		} else {
			// partially consume the match
			partial := InventoryItem{
				Date:      lot.Date,
				Amount:    remaining,
				CostInUSD: lot.CostInUSD.MulDiv(remaining, lot.Amount),
			}
			inv.lots[match].Amount = lot.Amount.Sub(partial.Amount)
			inv.lots[match].CostInUSD = lot.CostInUSD.Sub(partial.CostInUSD)
			consumed = append(consumed, partial)
			remaining = Amount{}
		}
	}

	return consumed, nil
}

// Unsold is the total remaining amount and cost of an inventory, or of
// one of its holding-period buckets.
type Unsold struct {
	Amount    Amount
	CostInUSD Amount
}

func (u *Unsold) add(item InventoryItem) {
	u.Amount = u.Amount.Add(item.Amount)
	u.CostInUSD = u.CostInUSD.Add(item.CostInUSD)
}

// UnsoldInventory buckets the remaining lots by holding period.
type UnsoldInventory struct {
	ShortTerm Unsold
	LongTerm  Unsold
	Total     Unsold
}

// Unsold sums the remaining amount and cost across all lots, bucketing
// each lot as long-term when it has been held for more than longTermDays
// relative to now.
func (inv *Inventory) Unsold(now Datetime, longTermDays int) UnsoldInventory {
	var u UnsoldInventory
	threshold := int64(longTermDays) * secondsPerDay
	for _, lot := range inv.lots {
		u.Total.add(lot)
		if now.AbsDiff(lot.Date) > threshold {
			u.LongTerm.add(lot)
		} else {
			u.ShortTerm.add(lot)
		}
	}
	return u
}
