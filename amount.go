package coinledger

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountDigits is the number of decimal digits carried after the point.
// Every quantity and USD value in the ledger is a multiple of 10^-20.
const AmountDigits = 20

// Amount is a signed fixed-point decimal with [AmountDigits] fractional
// digits. Arithmetic is exact: Add, Sub and Mul never round, and Div
// truncates to the fixed-point grid. Binary floating point must never be
// used for ledger quantities, the drift accumulates across thousands of
// lots.
type Amount struct {
	value decimal.Decimal
}

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// A returns the Amount for a numeric value, truncated to the fixed-point grid.
func A[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Amount {
	return Amount{value: newDecimal(value).Truncate(AmountDigits)}
}

// ParseAmount parses a decimal string into an Amount.
//
// Parsing is deterministic and truncating: digits beyond the 20th
// fractional place are dropped, never rounded.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{value: d.Truncate(AmountDigits)}, nil
}

// String formats the amount with no exponent and no trailing-zero padding.
func (a Amount) String() string { return a.value.String() }

func (a Amount) Add(b Amount) Amount { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Sub(b Amount) Amount { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) Neg() Amount         { return Amount{value: a.value.Neg()} }
func (a Amount) Abs() Amount         { return Amount{value: a.value.Abs()} }

// Mul multiplies exactly and truncates the product back to the fixed-point grid.
func (a Amount) Mul(b Amount) Amount {
	return Amount{value: a.value.Mul(b.value).Truncate(AmountDigits)}
}

// Div divides and truncates the quotient to the fixed-point grid.
func (a Amount) Div(b Amount) Amount {
	q, _ := a.value.QuoRem(b.value, AmountDigits)
	return Amount{value: q}
}

// MulDiv computes a×b/c in one go, truncating only the final quotient.
// It is the pro-rating primitive for partial lot disposals.
func (a Amount) MulDiv(b, c Amount) Amount {
	q, _ := a.value.Mul(b.value).QuoRem(c.value, AmountDigits)
	return Amount{value: q}
}

func (a Amount) Equal(b Amount) bool          { return a.value.Equal(b.value) }
func (a Amount) Cmp(b Amount) int             { return a.value.Cmp(b.value) }
func (a Amount) LessThan(b Amount) bool       { return a.value.LessThan(b.value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.value.GreaterThan(b.value) }
func (a Amount) LessOrEqual(b Amount) bool    { return a.value.LessThanOrEqual(b.value) }
func (a Amount) GreaterOrEqual(b Amount) bool { return a.value.GreaterThanOrEqual(b.value) }
func (a Amount) IsZero() bool                 { return a.value.IsZero() }
func (a Amount) IsPositive() bool             { return a.value.IsPositive() }
func (a Amount) IsNegative() bool             { return a.value.IsNegative() }
func (a Amount) Sign() int                    { return a.value.Sign() }

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.value }

// SignedString returns the amount with an explicit sign, and "-" for zero.
func (a Amount) SignedString() string {
	if a.value.IsZero() {
		return "-"
	}
	if a.value.IsPositive() {
		return "+" + a.String()
	}
	return a.String()
}

// MarshalJSON implements the json.Marshaler interface.
func (a Amount) MarshalJSON() ([]byte, error) { return a.value.MarshalJSON() }

// UnmarshalJSON implements the json.Unmarshaler interface.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if err := a.value.UnmarshalJSON(b); err != nil {
		return err
	}
	a.value = a.value.Truncate(AmountDigits)
	return nil
}

// rawAmountSize is the width of the persisted binary form: a 128-bit
// two's-complement integer holding value×10^20, big-endian.
const rawAmountSize = 16

// Raw returns the fixed-width binary representation of the amount, used
// by the price cache schema. It panics if the scaled value does not fit
// in 128 bits, which cannot happen for any amount a real ledger holds.
func (a Amount) Raw() []byte {
	scaled := a.value.Shift(AmountDigits).Truncate(0).BigInt()
	neg := scaled.Sign() < 0
	if neg {
		// two's complement: store 2^128 + scaled
		scaled = new(big.Int).Add(scaled, twoPow128)
	}
	if scaled.Sign() < 0 || scaled.BitLen() > 128 {
		panic("amount out of range for raw encoding: " + a.String())
	}
	buf := make([]byte, rawAmountSize)
	scaled.FillBytes(buf)
	return buf
}

// AmountFromRaw decodes the fixed-width binary form produced by Raw.
func AmountFromRaw(raw []byte) (Amount, error) {
	if len(raw) != rawAmountSize {
		return Amount{}, fmt.Errorf("invalid raw amount: got %d bytes, want %d", len(raw), rawAmountSize)
	}
	scaled := new(big.Int).SetBytes(raw)
	if raw[0]&0x80 != 0 {
		scaled.Sub(scaled, twoPow128)
	}
	return Amount{value: decimal.NewFromBigInt(scaled, -AmountDigits)}, nil
}

var twoPow128 = new(big.Int).Lsh(big.NewInt(1), 128)
