package coinledger

import (
	"context"
	"iter"
	"log"
)

// fetchPadDays widens every fetch window so that one network round trip
// covers a year around the requested day.
const fetchPadDays = 365

// RangeFetcher fetches the contiguous daily USD closing prices of a
// coin over an inclusive day-index range. Implementations retry
// transient failures themselves and honor the context.
type RangeFetcher interface {
	FetchDailyUSD(ctx context.Context, coin *Coin, fromDay, toDay int64) (days []int64, prices []Amount, err error)
}

// Fallback selects the price cache behavior when a requested day is
// still outside the series after fetching more data.
type Fallback int

const (
	// FallbackFail aborts the computation.
	FallbackFail Fallback = iota
	// FallbackNearest warns and returns the price of the closest
	// available day.
	FallbackNearest
)

func (f Fallback) String() string {
	switch f {
	case FallbackFail:
		return "fail"
	case FallbackNearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// ParseFallback parses a string into a Fallback.
func ParseFallback(s string) (Fallback, error) {
	switch s {
	case "fail":
		return FallbackFail, nil
	case "nearest":
		return FallbackNearest, nil
	default:
		return 0, fatalf("unknown price fallback: %q", s)
	}
}

// DailyData is one coin's daily USD closing price series: a contiguous
// array of prices where prices[i] is the close of day startDay+i, with
// no gaps.
type DailyData struct {
	coin     *Coin
	startDay int64
	prices   []Amount
}

// NewDailyData builds a series from its persisted form.
func NewDailyData(coin *Coin, startDay int64, prices []Amount) *DailyData {
	return &DailyData{coin: coin, startDay: startDay, prices: prices}
}

func (d *DailyData) Coin() *Coin     { return d.coin }
func (d *DailyData) StartDay() int64 { return d.startDay }
func (d *DailyData) Prices() []Amount { return d.prices }
func (d *DailyData) Len() int        { return len(d.prices) }

// Price returns the cached close of a day index, without fetching.
func (d *DailyData) Price(day int64) (Amount, bool) {
	idx := day - d.startDay
	if idx < 0 || idx >= int64(len(d.prices)) {
		return Amount{}, false
	}
	return d.prices[idx], true
}

// nearest returns the cached price closest to the day index. The series
// must not be empty.
func (d *DailyData) nearest(day int64) Amount {
	if day < d.startDay {
		return d.prices[0]
	}
	return d.prices[len(d.prices)-1]
}

// withinTolerance reports whether b matches a within ~1% relative
// tolerance, the slack allowed where a fetched range overlaps the cache.
func withinTolerance(a, b Amount) bool {
	if a.IsZero() {
		return b.IsZero()
	}
	diff := a.Sub(b).Abs()
	return diff.Mul(A(100)).LessOrEqual(a.Abs())
}

// splice validates a fetched range and merges it into the series,
// prepending or appending. Where the range overlaps the existing series
// by one day, the overlapping day is dropped after its price has been
// checked against the cached one.
func (d *DailyData) splice(days []int64, prices []Amount) error {
	if len(days) == 0 {
		return fatalf("got no daily price data").withCoin(d.coin)
	}
	for i := 1; i < len(days); i++ {
		if days[i] != days[i-1]+1 {
			return fatalf("got a gap in daily price data between day %d and %d", days[i-1], days[i]).withCoin(d.coin)
		}
	}

	if len(d.prices) == 0 {
		d.startDay = days[0]
		d.prices = prices
		return nil
	}

	if days[len(days)-1] == d.startDay {
		// prepend
		if !withinTolerance(d.prices[0], prices[len(prices)-1]) {
			return fatalf("price mismatch between new and existing data on day %d: %s vs %s",
				d.startDay, d.prices[0], prices[len(prices)-1]).withCoin(d.coin)
		}
		d.startDay = days[0]
		d.prices = append(prices[:len(prices)-1:len(prices)-1], d.prices...)
		return nil
	}

	lastDay := d.startDay + int64(len(d.prices)) - 1
	if days[0] == lastDay {
		// append
		if !withinTolerance(d.prices[len(d.prices)-1], prices[0]) {
			return fatalf("price mismatch between new and existing data on day %d: %s vs %s",
				lastDay, d.prices[len(d.prices)-1], prices[0]).withCoin(d.coin)
		}
		d.prices = append(d.prices, prices[1:]...)
		return nil
	}

	return fatalf("fetched range [%d,%d] does not touch cached range [%d,%d]",
		days[0], days[len(days)-1], d.startDay, lastDay).withCoin(d.coin)
}

// PriceDB owns the per-coin daily price series. Lookups grow the cache
// on demand: they are reads with an explicit write side, which is why
// every lookup goes through the owning *PriceDB handle rather than a
// read-only view.
type PriceDB struct {
	fetcher  RangeFetcher
	fallback Fallback
	data     map[string]*DailyData
}

// NewPriceDB creates a price database backed by the given fetcher.
func NewPriceDB(fetcher RangeFetcher, fallback Fallback) *PriceDB {
	return &PriceDB{
		fetcher:  fetcher,
		fallback: fallback,
		data:     make(map[string]*DailyData),
	}
}

// Add registers a series loaded from persistence. An existing series
// for the same coin is replaced.
func (db *PriceDB) Add(d *DailyData) { db.data[d.coin.ID()] = d }

// Data iterates over all series, for persistence.
func (db *PriceDB) Data() iter.Seq[*DailyData] {
	return func(yield func(*DailyData) bool) {
		for _, d := range db.data {
			if !yield(d) {
				return
			}
		}
	}
}

// Lookup returns the USD close for the coin on the date's day. If the
// day is outside the cached series, a window around it is fetched,
// validated and spliced in first. If the day is still outside the grown
// series the configured fallback applies.
func (db *PriceDB) Lookup(ctx context.Context, date Datetime, coin *Coin) (Amount, error) {
	d := db.data[coin.ID()]
	if d == nil {
		d = &DailyData{coin: coin}
		db.data[coin.ID()] = d
	}

	day := date.Day()
	if price, ok := d.Price(day); ok {
		return price, nil
	}

	var from, to int64
	switch {
	case len(d.prices) == 0:
		from, to = day-fetchPadDays, day+fetchPadDays
	case day < d.startDay:
		from, to = day-fetchPadDays, d.startDay
	default:
		from, to = d.startDay+int64(len(d.prices))-1, day+fetchPadDays
	}

	days, prices, err := db.fetcher.FetchDailyUSD(ctx, coin, from, to)
	if err != nil {
		return Amount{}, err
	}
	if err := d.splice(days, prices); err != nil {
		return Amount{}, err
	}

	if price, ok := d.Price(day); ok {
		return price, nil
	}

	if db.fallback == FallbackNearest {
		price := d.nearest(day)
		log.Printf("warning: no %s price for %s, using nearest available day", coin.Symbol(), date.DayString())
		return price, nil
	}
	return Amount{}, fatalf("couldn't get requested price for %s after fetching more data", date.DayString()).withCoin(coin)
}

// historicLookup binds a PriceDB and a context to the HistoricPrices
// interface the classifier consumes.
type historicLookup struct {
	db  *PriceDB
	ctx context.Context
}

func (h historicLookup) HistoricUSDPrice(date Datetime, coin *Coin) (Amount, error) {
	return h.db.Lookup(h.ctx, date, coin)
}

// Historic returns a HistoricPrices view of the database bound to ctx.
func (db *PriceDB) Historic(ctx context.Context) HistoricPrices {
	return historicLookup{db: db, ctx: ctx}
}
