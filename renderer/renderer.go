// Package renderer turns tax computation results into markdown reports.
package renderer

import (
	"github.com/Rhymond/go-money"

	"github.com/etnz/coinledger"
)

// usd formats a USD amount the way a bank statement would, rounded to
// the cent.
func usd(a coinledger.Amount) string {
	cents := a.Decimal().Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// signedUSD is usd with an explicit sign, for gain and loss columns.
func signedUSD(a coinledger.Amount) string {
	if a.Sign() >= 0 {
		return "+" + usd(a)
	}
	return "-" + usd(a.Neg())
}
