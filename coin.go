package coinledger

// USDCoinID is the distinguished coin id acting as the unit of account.
const USDCoinID = "us-dollar"

// TetherCoinID identifies USDT, which trades are valued through when it
// stands on the USD side of a pair.
const TetherCoinID = "tether"

// Coin represents a cryptocurrency or a fiat currency. Coins are created
// once and persist for the ledger's lifetime; identity is the string id.
type Coin struct {
	id     string
	name   string
	symbol string
	numID  int // CoinMarketCap numeric id, 0 if unknown
}

func (c *Coin) ID() string     { return c.id }
func (c *Coin) Name() string   { return c.name }
func (c *Coin) Symbol() string { return c.symbol }
func (c *Coin) NumID() int     { return c.numID }

// IsUSD reports whether this coin is the US dollar.
func (c *Coin) IsUSD() bool { return c.id == USDCoinID }

// SetNumID records the numeric external id once it is known.
func (c *Coin) SetNumID(numID int) { c.numID = numID }
