// Package importers loads transactions from exchange and wallet
// exports into a ledger.
//
// Imports are repeatable: every row carries an import id, and rows the
// ledger already holds are skipped. A row can also target an existing
// transaction by its import id, to complete a transfer whose two legs
// come from two different exports.
package importers

import (
	"errors"
	"fmt"
	"log"

	"github.com/etnz/coinledger"
)

// SplitRecord is one ledger split as an importer reads it.
type SplitRecord struct {
	Account  string // account full name
	Coin     string // coin id or symbol
	Amount   coinledger.Amount
	Memo     string
	ImportID string
}

// Record is one transaction as an importer reads it. When TxnImportID
// matches an already imported transaction, the splits are appended to
// it instead of creating a new one.
type Record struct {
	Date        coinledger.Datetime
	Description string
	TxnImportID string
	Splits      []SplitRecord
}

// Stats reports what an import run actually did.
type Stats struct {
	Created int // new transactions
	Merged  int // splits appended to existing transactions
	Skipped int // duplicates
}

// Apply loads records into the ledger, skipping whatever was imported
// before.
func Apply(ledger *coinledger.Ledger, records []Record) (Stats, error) {
	var stats Stats
	for _, r := range records {
		existing, err := ledger.TransactionByImportID(r.TxnImportID)
		if err != nil {
			return stats, err
		}
		if existing != nil {
			merged, err := merge(ledger, existing, r)
			if err != nil {
				return stats, err
			}
			if merged {
				stats.Merged++
			} else {
				stats.Skipped++
			}
			continue
		}

		protos := make([]coinledger.ProtoSplit, 0, len(r.Splits))
		for _, s := range r.Splits {
			p, err := resolve(ledger, s)
			if err != nil {
				return stats, fmt.Errorf("transaction %q: %w", r.TxnImportID, err)
			}
			protos = append(protos, p)
		}
		if _, err := ledger.NewTransaction(r.Date, r.Description, protos, r.TxnImportID); err != nil {
			return stats, fmt.Errorf("transaction %q: %w", r.TxnImportID, err)
		}
		stats.Created++
	}
	return stats, nil
}

// merge appends the record's splits to an existing transaction,
// skipping those already present. It reports whether anything new was
// added.
func merge(ledger *coinledger.Ledger, txn *coinledger.Transaction, r Record) (bool, error) {
	added := false
	for _, s := range r.Splits {
		p, err := resolve(ledger, s)
		if err != nil {
			return added, fmt.Errorf("transaction %q: %w", r.TxnImportID, err)
		}
		if err := ledger.AddSplit(txn, p); err != nil {
			if errors.Is(err, coinledger.ErrDuplicateImport) {
				continue
			}
			return added, err
		}
		added = true
	}
	if added {
		// transfers can be recorded hours apart on the two sides, keep
		// the earliest timestamp
		if r.Date.Before(txn.Date()) {
			txn.SetDate(r.Date)
		}
		if !txn.Balanced() {
			log.Printf("warning: transaction %q is still unbalanced after merge", r.TxnImportID)
		}
	}
	return added, nil
}

func resolve(ledger *coinledger.Ledger, s SplitRecord) (coinledger.ProtoSplit, error) {
	account := ledger.Account(s.Account)
	if account == nil {
		return coinledger.ProtoSplit{}, fmt.Errorf("unknown account %q", s.Account)
	}
	coin := ledger.Coin(s.Coin)
	if coin == nil {
		coin = ledger.CoinBySymbol(s.Coin)
	}
	if coin == nil {
		return coinledger.ProtoSplit{}, fmt.Errorf("unknown coin %q", s.Coin)
	}
	return coinledger.ProtoSplit{
		Account:  account,
		Memo:     s.Memo,
		Amount:   s.Amount,
		Coin:     coin,
		ImportID: s.ImportID,
	}, nil
}
