package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"BenchmarkBuilder/internal/model"

	"github.com/guregu/null/v6"
)

// Resolution is the outcome of a display-name lookup. Fallback is set when
// Name is the ticker itself, either because the lookup failed (Err != nil)
// or because the provider reported no name.
type Resolution struct {
	Ticker   string
	Name     string
	Fallback bool
	Err      error
}

// NameResolver looks up display names, falling back to the ticker on failure.
type NameResolver struct {
	Provider Provider
}

// Resolve never fails: a lookup error is logged and the ticker is used as the name.
func (r *NameResolver) Resolve(ctx context.Context, ticker string) Resolution {
	info, err := r.Provider.FetchInfo(ctx, ticker)
	if err != nil {
		log.Printf("[WARN] could not retrieve name for %s: %v", ticker, err)
		return Resolution{Ticker: ticker, Name: ticker, Fallback: true, Err: err}
	}
	if name := info.DisplayName(); name != "" {
		return Resolution{Ticker: ticker, Name: name}
	}
	return Resolution{Ticker: ticker, Name: ticker, Fallback: true}
}

// FetchPrices downloads daily adjusted closes for every ticker in the benchmark
// and labels each column with the instrument's display name. Rows with no
// values are dropped and rows are sorted ascending by date.
func (c *Collector) FetchPrices(ctx context.Context, benchmark model.Benchmark, rng model.DateRange) (*model.PriceTable, []Resolution, error) {
	tickers := benchmark.Tickers()
	if len(tickers) == 0 {
		return nil, nil, fmt.Errorf("fetch prices: benchmark has no tickers")
	}

	hist, err := c.Provider.FetchHistory(ctx, HistoryRequest{
		Tickers:    benchmark.UniqueTickers(),
		Start:      rng.Start,
		End:        rng.End,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch prices: %w", err)
	}

	prices, err := adjustedClose(hist, benchmark.UniqueTickers())
	if err != nil {
		return nil, nil, fmt.Errorf("fetch prices: %w", err)
	}

	names := make(map[string]string, len(tickers))
	resolutions := make([]Resolution, 0, len(tickers))
	for _, t := range tickers {
		res := c.Resolver.Resolve(ctx, t)
		names[t] = res.Name
		resolutions = append(resolutions, res)
	}

	prices.RenameColumns(names)
	prices.DropEmptyRows()
	prices.SortByDate()

	log.Printf("[INFO] benchmark data: %d days x %d tickers", prices.NumRows(), prices.NumCols())
	if prices.NumRows() > 0 {
		log.Printf("[INFO] from %s to %s",
			prices.FirstDate().Format(model.DateLayout), prices.LastDate().Format(model.DateLayout))
	}
	return prices, resolutions, nil
}

// adjustedClose pivots per-ticker series into a date x ticker table. Columns
// follow the requested ticker order; tickers the provider omitted get no column.
// A lone unlabelled series is attributed to the sole requested ticker.
func adjustedClose(hist *model.History, tickers []string) (*model.PriceTable, error) {
	series := hist.Series
	if len(series) == 1 && series[0].Ticker == "" {
		if len(tickers) != 1 {
			return nil, fmt.Errorf("unlabelled series returned for %d tickers", len(tickers))
		}
		series = []model.Series{{Ticker: tickers[0], Bars: series[0].Bars}}
	}

	bySymbol := make(map[string]model.Series, len(series))
	for _, s := range series {
		if s.Ticker == "" {
			return nil, fmt.Errorf("unlabelled series in multi-series result")
		}
		bySymbol[s.Ticker] = s
	}

	table := &model.PriceTable{}
	for _, t := range tickers {
		if _, ok := bySymbol[t]; ok {
			table.Columns = append(table.Columns, t)
		}
	}

	rowOf := make(map[int64]int)
	for _, t := range table.Columns {
		for _, b := range bySymbol[t].Bars {
			d := dateOnly(b.Date)
			if _, ok := rowOf[d.Unix()]; !ok {
				rowOf[d.Unix()] = len(table.Dates)
				table.Dates = append(table.Dates, d)
			}
		}
	}
	sort.Slice(table.Dates, func(i, j int) bool { return table.Dates[i].Before(table.Dates[j]) })
	for i, d := range table.Dates {
		rowOf[d.Unix()] = i
	}

	table.Values = make([][]null.Float, len(table.Dates))
	for i := range table.Values {
		table.Values[i] = make([]null.Float, len(table.Columns))
	}
	for col, t := range table.Columns {
		for _, b := range bySymbol[t].Bars {
			table.Values[rowOf[dateOnly(b.Date).Unix()]][col] = b.Close
		}
	}
	return table, nil
}

// dateOnly truncates t to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
