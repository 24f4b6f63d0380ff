package coinledger

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// The ledger and the price cache live in a single sqlite file. Saving
// rewrites the whole file content in one database transaction; the
// in-memory Ledger stays the source of truth while the program runs.

const schema = `
CREATE TABLE IF NOT EXISTS coins (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	symbol TEXT NOT NULL,
	num_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS accounts (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	placeholder INTEGER NOT NULL,
	parent_id   INTEGER REFERENCES accounts(id),
	coin_id     TEXT REFERENCES coins(id)
);
CREATE TABLE IF NOT EXISTS transactions (
	id          INTEGER PRIMARY KEY,
	date        INTEGER NOT NULL,
	description TEXT NOT NULL,
	import_id   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS splits (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id INTEGER NOT NULL REFERENCES transactions(id),
	account_id     INTEGER NOT NULL REFERENCES accounts(id),
	memo           TEXT NOT NULL,
	amount         BLOB NOT NULL,
	coin_id        TEXT NOT NULL REFERENCES coins(id),
	import_id      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS daily_data (
	coin_id   TEXT PRIMARY KEY REFERENCES coins(id),
	start_day INTEGER NOT NULL,
	prices    BLOB NOT NULL
);
`

// OpenDB opens (creating if needed) the sqlite file at path and makes
// sure the schema exists.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create directory for %q: %w", path, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize %q: %w", path, err)
	}
	return db, nil
}

// SaveLedger writes the full ledger content, replacing whatever the
// database held before. Atomic: on error nothing is changed.
func SaveLedger(db *sql.DB, l *Ledger) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// children first, foreign keys are on
	for _, table := range []string{"splits", "transactions", "accounts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("cannot clear %s: %w", table, err)
		}
	}

	for c := range l.Coins() {
		_, err := tx.Exec(`INSERT INTO coins (id, name, symbol, num_id) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name=excluded.name, symbol=excluded.symbol, num_id=excluded.num_id`,
			c.ID(), c.Name(), c.Symbol(), c.NumID())
		if err != nil {
			return fmt.Errorf("cannot save coin %q: %w", c.ID(), err)
		}
	}

	for a := range l.Accounts() {
		var parentID sql.NullInt64
		if p := a.Parent(); p != nil {
			parentID = sql.NullInt64{Int64: int64(p.ID()), Valid: true}
		}
		var coinID sql.NullString
		if a.SingleCoin() {
			coinID = sql.NullString{String: a.Coin().ID(), Valid: true}
		}
		_, err := tx.Exec(`INSERT INTO accounts (id, name, placeholder, parent_id, coin_id) VALUES (?, ?, ?, ?, ?)`,
			a.ID(), a.Name(), a.Placeholder(), parentID, coinID)
		if err != nil {
			return fmt.Errorf("cannot save account %q: %w", a.FullName(), err)
		}
	}

	stmtTxn, err := tx.Prepare(`INSERT INTO transactions (id, date, description, import_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmtTxn.Close()
	stmtSplit, err := tx.Prepare(`INSERT INTO splits (transaction_id, account_id, memo, amount, coin_id, import_id) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmtSplit.Close()

	for t := range l.Transactions() {
		if _, err := stmtTxn.Exec(t.ID(), t.Date().Unix(), t.Description(), t.ImportID()); err != nil {
			return fmt.Errorf("cannot save transaction %d: %w", t.ID(), err)
		}
		for _, s := range t.Splits() {
			_, err := stmtSplit.Exec(t.ID(), s.Account().ID(), s.Memo(), s.Amount().Raw(), s.Coin().ID(), s.ImportID())
			if err != nil {
				return fmt.Errorf("cannot save split of transaction %d: %w", t.ID(), err)
			}
		}
	}
	return tx.Commit()
}

// LoadLedger reads the whole ledger back. An empty database yields the
// initialized ledger with its root accounts.
func LoadLedger(db *sql.DB) (*Ledger, error) {
	l := NewLedger()

	rows, err := db.Query(`SELECT id, name, symbol, num_id FROM coins`)
	if err != nil {
		return nil, fmt.Errorf("cannot load coins: %w", err)
	}
	for rows.Next() {
		var id, name, symbol string
		var numID int
		if err := rows.Scan(&id, &name, &symbol, &numID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("cannot scan coin: %w", err)
		}
		l.NewCoin(id, name, symbol, numID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// parents are always created before their children, so loading in
	// id order resolves every parent reference
	rows, err = db.Query(`SELECT id, name, placeholder, parent_id, coin_id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("cannot load accounts: %w", err)
	}
	var arena []*Account
	for rows.Next() {
		var id int
		var name string
		var placeholder bool
		var parentID sql.NullInt64
		var coinID sql.NullString
		if err := rows.Scan(&id, &name, &placeholder, &parentID, &coinID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("cannot scan account: %w", err)
		}
		var parent *Account
		if parentID.Valid {
			if int(parentID.Int64) >= len(arena) {
				rows.Close()
				return nil, fatalf("account %q references unknown parent %d", name, parentID.Int64)
			}
			parent = arena[parentID.Int64]
		}
		var coin *Coin
		singleCoin := false
		if coinID.Valid {
			singleCoin = true
			if coin = l.Coin(coinID.String); coin == nil {
				rows.Close()
				return nil, fatalf("account %q references unknown coin %q", name, coinID.String)
			}
		}
		a, err := l.NewAccount(name, placeholder, parent, singleCoin, coin)
		if err != nil {
			rows.Close()
			return nil, err
		}
		if a.ID() != id {
			rows.Close()
			return nil, fatalf("account ids are not contiguous at %q", a.FullName())
		}
		arena = append(arena, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(arena) == 0 {
		return InitLedger(), nil
	}

	rows, err = db.Query(`SELECT id, date, description, import_id FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("cannot load transactions: %w", err)
	}
	type txnRow struct {
		id          int
		date        int64
		description string
		importID    string
	}
	var txns []txnRow
	for rows.Next() {
		var r txnRow
		if err := rows.Scan(&r.id, &r.date, &r.description, &r.importID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("cannot scan transaction: %w", err)
		}
		txns = append(txns, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range txns {
		protos, err := loadSplits(db, l, arena, r.id)
		if err != nil {
			return nil, err
		}
		t, err := l.NewTransaction(Unix(r.date), r.description, protos, r.importID)
		if err != nil {
			return nil, err
		}
		if t.ID() != r.id {
			return nil, fatalf("transaction ids are not contiguous at %d", r.id)
		}
	}
	return l, nil
}

func loadSplits(db *sql.DB, l *Ledger, arena []*Account, txnID int) ([]ProtoSplit, error) {
	rows, err := db.Query(`SELECT account_id, memo, amount, coin_id, import_id FROM splits WHERE transaction_id = ? ORDER BY id`, txnID)
	if err != nil {
		return nil, fmt.Errorf("cannot load splits of transaction %d: %w", txnID, err)
	}
	defer rows.Close()

	var protos []ProtoSplit
	for rows.Next() {
		var accountID int
		var memo, coinID, importID string
		var raw []byte
		if err := rows.Scan(&accountID, &memo, &raw, &coinID, &importID); err != nil {
			return nil, fmt.Errorf("cannot scan split of transaction %d: %w", txnID, err)
		}
		if accountID >= len(arena) {
			return nil, fatalf("split references unknown account %d", accountID)
		}
		coin := l.Coin(coinID)
		if coin == nil {
			return nil, fatalf("split references unknown coin %q", coinID)
		}
		amount, err := AmountFromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupted amount in transaction %d: %w", txnID, err)
		}
		protos = append(protos, ProtoSplit{
			Account:  arena[accountID],
			Memo:     memo,
			Amount:   amount,
			Coin:     coin,
			ImportID: importID,
		})
	}
	return protos, rows.Err()
}

// SavePrices writes the full price cache, replacing the previous one.
func SavePrices(db *sql.DB, prices *PriceDB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM daily_data"); err != nil {
		return fmt.Errorf("cannot clear daily_data: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO daily_data (coin_id, start_day, prices) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for d := range prices.Data() {
		blob := make([]byte, 0, d.Len()*rawAmountSize)
		for _, p := range d.Prices() {
			blob = append(blob, p.Raw()...)
		}
		if _, err := stmt.Exec(d.Coin().ID(), d.StartDay(), blob); err != nil {
			return fmt.Errorf("cannot save daily data for %q: %w", d.Coin().ID(), err)
		}
	}
	return tx.Commit()
}

// LoadPrices fills the price cache from the database. Series of coins
// the ledger does not know anymore are skipped with a warning.
func LoadPrices(db *sql.DB, l *Ledger, prices *PriceDB) error {
	rows, err := db.Query(`SELECT coin_id, start_day, prices FROM daily_data`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("cannot load daily data: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var coinID string
		var startDay int64
		var blob []byte
		if err := rows.Scan(&coinID, &startDay, &blob); err != nil {
			return fmt.Errorf("cannot scan daily data: %w", err)
		}
		coin := l.Coin(coinID)
		if coin == nil {
			log.Printf("warning: dropping cached prices for unknown coin %q", coinID)
			continue
		}
		if len(blob)%rawAmountSize != 0 {
			return fatalf("corrupted daily data for %q", coinID).withCoin(coin)
		}
		series := make([]Amount, 0, len(blob)/rawAmountSize)
		for i := 0; i < len(blob); i += rawAmountSize {
			a, err := AmountFromRaw(blob[i : i+rawAmountSize])
			if err != nil {
				return fmt.Errorf("corrupted daily data for %q: %w", coinID, err)
			}
			series = append(series, a)
		}
		prices.Add(NewDailyData(coin, startDay, series))
	}
	return rows.Err()
}
