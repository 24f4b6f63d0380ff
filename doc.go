// Package coinledger keeps a double-entry ledger of personal
// cryptocurrency activity and derives tax reports from it. It is
// designed to be local-first and auditable: the ledger is the single
// source of truth, and every report is recomputed from it.
//
// The core functionalities include:
//   - Ledger Management: accounts arranged in a tree under the five
//     standard roots, and transactions made of signed per-coin splits
//     that must net to zero.
//   - Transaction Classification: a fixed, ordered set of rules turning
//     each transaction into tax events (income, spending, trades) from
//     the accounts it touches, with no per-transaction labeling.
//   - Tax-Lot Inventory: FIFO or LIFO matching of disposals against
//     acquisition lots, producing realized capital gains split into
//     short-term and long-term.
//   - Price History: a cached store of daily USD closing prices, grown
//     lazily from CoinMarketCap and persisted with the ledger.
//   - Data Persistence: the ledger and the price cache live in a single
//     sqlite file, rewritten whole on save.
//
// This package serves as the foundational logic for the `clt`
// command-line tool, ensuring that all operations are consistent and
// based on a single source of truth.
package coinledger
