package coinledger

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

const cmcApiKeyEnv = "COINMARKETCAP_API_KEY"

var cmcApiFlag = flag.String("cmc-api-key", "", "CoinMarketCap API key to use for fetching prices.\n If missing it will read the environment variable \""+cmcApiKeyEnv+"\".")

func cmcApiKey() string {
	// If the flag is not set, we try to read it from the environment variable.
	if *cmcApiFlag == "" {
		*cmcApiFlag = os.Getenv(cmcApiKeyEnv)
	}
	return *cmcApiFlag
}

// This file contains the client for the CoinMarketCap price API: the
// spot listing of all coins and the historical daily series the price
// cache grows from.

const cmcBaseURL = "https://web-api.coinmarketcap.com/v1"

// PriceSource is the remote quote provider. It is constructed once and
// injected where prices are needed; there is no ambient singleton.
type PriceSource struct {
	base    string
	client  *http.Client
	retries int
	backoff time.Duration
}

// NewPriceSource returns a price source with a daily-expiring disk
// cache and bounded retries.
func NewPriceSource() *PriceSource {
	return &PriceSource{
		base:    cmcBaseURL,
		client:  daily(),
		retries: 5,
		backoff: 2 * time.Second,
	}
}

// getJSON fetches addr, retrying transient failures with exponential
// backoff until the retry budget or the context runs out.
func (p *PriceSource) getJSON(ctx context.Context, addr string, data any) error {
	var err error
	backoff := p.backoff
	for attempt := 0; attempt < p.retries; attempt++ {
		if attempt > 0 {
			log.Printf("fetching %s failed (%v), retrying in %s", addr, err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
		if err = jwget(ctx, p.client, addr, data); err == nil {
			return nil
		}
	}
	return fmt.Errorf("giving up on %s after %d attempts: %w", addr, p.retries, err)
}

// jfloat extracts a float64 at a jsonpath, unwrapping the single-result
// list the library sometimes returns.
func jfloat(jobj any, path string) (float64, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("error evaluating %q: not a number: %v", path, jval)
	}
	return val, nil
}

func jstring(jobj any, path string) (string, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", fmt.Errorf("error evaluating %q: %w", path, err)
	}
	val, ok := jval.(string)
	if !ok {
		return "", fmt.Errorf("error evaluating %q: not a string: %v", path, jval)
	}
	return val, nil
}

// listings fetches the latest listing of all coins with their spot USD
// quote.
func (p *PriceSource) listings(ctx context.Context) ([]any, error) {
	addr := p.base + "/cryptocurrency/listings/latest?start=1&limit=5000&convert=USD"
	if key := cmcApiKey(); key != "" {
		addr += "&CMC_PRO_API_KEY=" + url.QueryEscape(key)
	}

	var jobj any
	if err := p.getJSON(ctx, addr, &jobj); err != nil {
		return nil, err
	}
	jval, err := jsonpath.Get("$.data", jobj)
	if err != nil {
		return nil, fmt.Errorf("unexpected listings payload: %w", err)
	}
	jlist, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected listings payload: data is not a list")
	}
	return jlist, nil
}

// CurrentUSDPrices returns the spot USD price of every listed coin,
// keyed by coin id.
func (p *PriceSource) CurrentUSDPrices() (map[string]Amount, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	jlist, err := p.listings(ctx)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]Amount, len(jlist))
	for _, entry := range jlist {
		slug, err := jstring(entry, "$.slug")
		if err != nil {
			return nil, err
		}
		price, err := jfloat(entry, "$.quote.USD.price")
		if err != nil {
			// some listings genuinely carry no quote, skip them
			log.Printf("warning: no USD quote for %q: %v", slug, err)
			continue
		}
		prices[slug] = A(price)
	}
	return prices, nil
}

// AddAllCoins registers every listed coin into the ledger. Known coins
// keep their identity, and get their numeric id backfilled.
func (p *PriceSource) AddAllCoins(ctx context.Context, ledger *Ledger) error {
	jlist, err := p.listings(ctx)
	if err != nil {
		return err
	}
	for _, entry := range jlist {
		slug, err := jstring(entry, "$.slug")
		if err != nil {
			return err
		}
		name, err := jstring(entry, "$.name")
		if err != nil {
			return err
		}
		symbol, err := jstring(entry, "$.symbol")
		if err != nil {
			return err
		}
		numID, err := jfloat(entry, "$.id")
		if err != nil {
			return err
		}
		coin := ledger.NewCoin(slug, name, symbol, int(numID))
		if coin.NumID() == 0 {
			coin.SetNumID(int(numID))
		}
	}
	return nil
}

// FetchDailyUSD fetches the daily USD closes for coin over the
// inclusive day-index range [fromDay, toDay]. Days the service skips
// inside the range are filled with the following day's close, so the
// returned series is contiguous.
func (p *PriceSource) FetchDailyUSD(ctx context.Context, coin *Coin, fromDay, toDay int64) (days []int64, prices []Amount, err error) {
	if toDay < fromDay {
		return nil, nil, fmt.Errorf("invalid fetch range [%d,%d]", fromDay, toDay)
	}
	addr := fmt.Sprintf("%s/cryptocurrency/ohlcv/historical?slug=%s&convert=USD&time_start=%s&time_end=%s",
		p.base, url.QueryEscape(coin.ID()),
		DayFromIndex(fromDay).DayString(), DayFromIndex(toDay).DayString())
	if key := cmcApiKey(); key != "" {
		addr += "&CMC_PRO_API_KEY=" + url.QueryEscape(key)
	}

	var jobj any
	if err := p.getJSON(ctx, addr, &jobj); err != nil {
		return nil, nil, err
	}
	jval, err := jsonpath.Get("$.data.quotes", jobj)
	if err != nil {
		return nil, nil, fmt.Errorf("unexpected historical payload for %q: %w", coin.ID(), err)
	}
	jquotes, ok := jval.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected historical payload for %q: quotes is not a list", coin.ID())
	}

	for _, q := range jquotes {
		stamp, err := jstring(q, "$.time_close")
		if err != nil {
			return nil, nil, err
		}
		when, err := ParseDatetime(stamp)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot parse quote timestamp for %q: %w", coin.ID(), err)
		}
		closePrice, err := jfloat(q, "$.quote.USD.close")
		if err != nil {
			return nil, nil, err
		}

		day := when.Day()
		// fill days the service skipped with this close, to keep the
		// series contiguous
		for len(days) > 0 && day > days[len(days)-1]+1 {
			days = append(days, days[len(days)-1]+1)
			prices = append(prices, A(closePrice))
		}
		days = append(days, day)
		prices = append(prices, A(closePrice))
	}
	return days, prices, nil
}
