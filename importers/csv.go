package importers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/etnz/coinledger"
)

// csv files are one row per split, consecutive rows sharing a
// transaction id form one transaction:
//
//	date,txn,description,account,coin,amount,memo,split
//
// date is RFC3339 or 2006-01-02, account is a full name, coin is an id
// or a symbol, split is the optional per-split import id.

var csvHeader = []string{"date", "txn", "description", "account", "coin", "amount", "memo", "split"}

// ReadCSV parses a split-per-row csv export into records.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read csv header: %w", err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected csv header: got %q want %q in column %d", header[i], col, i+1)
		}
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := coinledger.ParseDatetime(row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := coinledger.ParseAmount(row[5])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q: %w", line, row[5], err)
		}

		split := SplitRecord{
			Account:  row[3],
			Coin:     row[4],
			Amount:   amount,
			Memo:     row[6],
			ImportID: row[7],
		}

		txnID := row[1]
		if txnID == "" {
			return nil, fmt.Errorf("line %d: missing transaction id", line)
		}
		if n := len(records); n > 0 && records[n-1].TxnImportID == txnID {
			records[n-1].Splits = append(records[n-1].Splits, split)
			continue
		}
		records = append(records, Record{
			Date:        date,
			Description: row[2],
			TxnImportID: txnID,
			Splits:      []SplitRecord{split},
		})
	}
	return records, nil
}

// ImportCSV reads a csv export and applies it to the ledger.
func ImportCSV(ledger *coinledger.Ledger, r io.Reader) (Stats, error) {
	records, err := ReadCSV(r)
	if err != nil {
		return Stats{}, err
	}
	return Apply(ledger, records)
}
