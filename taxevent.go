package coinledger

// EventType classifies the economic nature of a tax event.
type EventType int

const (
	// MiningIncome is income from mining, valued at the end-of-day price
	// and bucketed per calendar day.
	MiningIncome EventType = iota
	// ForkIncome is income from a hard fork or an airdrop, valued at the
	// spot price of the transaction's own timestamp.
	ForkIncome
	// SpentGeneral is a disposal paying for a good or service.
	SpentGeneral
	// SpentTransactionFee is a disposal paying a network or withdrawal fee.
	SpentTransactionFee
	// SpentTradingFee is a disposal paying an exchange's trading fee.
	SpentTradingFee
	// TradeBuy is the acquisition side of a trade.
	TradeBuy
	// TradeSell is the disposal side of a trade.
	TradeSell
)

func (t EventType) String() string {
	switch t {
	case MiningIncome:
		return "mining income"
	case ForkIncome:
		return "fork income"
	case SpentGeneral:
		return "general spending"
	case SpentTransactionFee:
		return "transaction fee"
	case SpentTradingFee:
		return "trading fee"
	case TradeBuy:
		return "trade buy"
	case TradeSell:
		return "trade sell"
	default:
		return "unknown"
	}
}

// IsAcquisition reports whether events of this type add to a coin's
// inventory.
func (t EventType) IsAcquisition() bool {
	return t == MiningIncome || t == ForkIncome || t == TradeBuy
}

// IsDisposal reports whether events of this type consume a coin's
// inventory.
func (t EventType) IsDisposal() bool {
	return t == SpentGeneral || t == SpentTransactionFee || t == SpentTradingFee || t == TradeSell
}

// TaxEvent is one economic event derived from a ledger transaction: a
// signed native-coin amount and its USD valuation at the event date.
// TaxEvents are ephemeral, fully recomputed on each tax run.
type TaxEvent struct {
	Date      Datetime
	Amount    Amount
	AmountUSD Amount
	Type      EventType
	Memo      string
}

// GainLoss is one realized capital gain or loss record: a disposal
// matched against one acquisition lot (or several, when fused).
type GainLoss struct {
	Coin     *Coin
	Amount   Amount
	Acquired Datetime
	Disposed Datetime
	Proceeds Amount
	Cost     Amount
	// VariousAcquiredDates marks a fused record blending lots acquired
	// on different dates.
	VariousAcquiredDates bool
}

// newGainLoss enforces the invariant that an asset cannot be disposed
// before it was acquired.
func newGainLoss(coin *Coin, amount Amount, acquired, disposed Datetime, proceeds, cost Amount) (GainLoss, error) {
	if disposed.Before(acquired) {
		return GainLoss{}, fatalf("disposal on %s predates acquisition on %s",
			disposed.DayString(), acquired.DayString()).withCoin(coin)
	}
	return GainLoss{
		Coin:     coin,
		Amount:   amount,
		Acquired: acquired,
		Disposed: disposed,
		Proceeds: proceeds,
		Cost:     cost,
	}, nil
}

// Profit returns proceeds minus cost.
func (g GainLoss) Profit() Amount { return g.Proceeds.Sub(g.Cost) }
