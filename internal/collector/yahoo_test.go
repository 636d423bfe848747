package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aggSummary = `{"quoteSummary":{"result":[{
	"price":{"longName":"iShares Core U.S. Aggregate Bond ETF","shortName":"iShares Core U.S. Aggregate"},
	"quoteType":{"longName":"ignored","shortName":"ignored"},
	"fundProfile":{"family":"iShares","categoryName":"Intermediate Core Bond"},
	"defaultKeyStatistics":{"fundInceptionDate":{"raw":1064880000,"fmt":"2003-09-30"}}
}],"error":null}}`

const aggChart = `{"chart":{"result":[{
	"meta":{"symbol":"AGG","gmtoffset":-18000},
	"timestamp":[1704205800,1704292200,1704378600],
	"indicators":{
		"quote":[{"close":[99.1,99.4,99.0]}],
		"adjclose":[{"adjclose":[96.1,null,96.0]}]
	}
}],"error":null}}`

func newTestYahoo(t *testing.T, mux *http.ServeMux) *YahooProvider {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewYahooProvider("")
	p.BaseURL = srv.URL
	p.CookieURL = srv.URL + "/cookie"
	return p
}

func yahooMux(t *testing.T) (*http.ServeMux, *int) {
	crumbCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		crumbCalls++
		fmt.Fprint(w, "crumb123")
	})
	mux.HandleFunc("/v10/finance/quoteSummary/AGG", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("crumb") != "crumb123" {
			http.Error(w, `{"finance":{"error":{"code":"Unauthorized"}}}`, http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("modules") != quoteSummaryModules {
			http.Error(w, "unexpected modules", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, aggSummary)
	})
	mux.HandleFunc("/v10/finance/quoteSummary/NOPE", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for symbol: NOPE"}}}`)
	})
	mux.HandleFunc("/v8/finance/chart/AGG", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("interval") != "1d" || q.Get("period1") == "" || q.Get("period2") == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, aggChart)
	})
	mux.HandleFunc("/v8/finance/chart/EMPTY", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"symbol":"EMPTY","gmtoffset":0},"indicators":{"quote":[{}],"adjclose":[{}]}}],"error":null}}`)
	})
	return mux, &crumbCalls
}

func TestYahooProvider_FetchInfo(t *testing.T) {
	mux, crumbCalls := yahooMux(t)
	p := newTestYahoo(t, mux)

	info, err := p.FetchInfo(context.Background(), "AGG")
	require.NoError(t, err)
	assert.Equal(t, "iShares Core U.S. Aggregate Bond ETF", info.LongName)
	assert.Equal(t, "iShares Core U.S. Aggregate", info.ShortName)
	assert.Equal(t, "iShares", info.FundFamily)
	assert.Equal(t, "Intermediate Core Bond", info.Category)
	assert.Equal(t, float64(1064880000), info.FundInceptionDate)
	assert.Equal(t, "2003-09-30", ParseInceptionDate(info.FundInceptionDate).String)

	_, err = p.FetchInfo(context.Background(), "AGG")
	require.NoError(t, err)
	assert.Equal(t, 1, *crumbCalls, "crumb is fetched once per session")
}

func TestYahooProvider_SummaryModules(t *testing.T) {
	for _, m := range []string{"price", "quoteType", "summaryProfile", "fundProfile", "defaultKeyStatistics"} {
		assert.Contains(t, strings.Split(quoteSummaryModules, ","), m)
	}
}

func TestYahooProvider_FetchInfoNotFound(t *testing.T) {
	mux, _ := yahooMux(t)
	p := newTestYahoo(t, mux)

	_, err := p.FetchInfo(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestYahooProvider_FetchHistory(t *testing.T) {
	mux, _ := yahooMux(t)
	p := newTestYahoo(t, mux)

	hist, err := p.FetchHistory(context.Background(), HistoryRequest{
		Tickers:    []string{"AGG", "EMPTY"},
		Start:      day(2024, 1, 1),
		End:        day(2024, 1, 5),
		Interval:   "1d",
		AutoAdjust: true,
	})
	require.NoError(t, err)
	require.Len(t, hist.Series, 2)

	agg := hist.Series[0]
	assert.Equal(t, "AGG", agg.Ticker)
	require.Len(t, agg.Bars, 3)
	assert.Equal(t, day(2024, 1, 2), agg.Bars[0].Date)
	assert.Equal(t, day(2024, 1, 3), agg.Bars[1].Date)
	assert.Equal(t, day(2024, 1, 4), agg.Bars[2].Date)
	assert.Equal(t, 96.1, agg.Bars[0].Close.Float64)
	assert.False(t, agg.Bars[1].Close.Valid)

	assert.Equal(t, "EMPTY", hist.Series[1].Ticker)
	assert.Empty(t, hist.Series[1].Bars)
}

func TestYahooProvider_FetchHistoryUnadjusted(t *testing.T) {
	mux, _ := yahooMux(t)
	p := newTestYahoo(t, mux)

	hist, err := p.FetchHistory(context.Background(), HistoryRequest{
		Tickers: []string{"AGG"},
		Start:   day(2024, 1, 1),
		End:     day(2024, 1, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, 99.4, hist.Series[0].Bars[1].Close.Float64)
}

func TestYahooProvider_FetchHistoryError(t *testing.T) {
	mux, _ := yahooMux(t)
	p := newTestYahoo(t, mux)

	_, err := p.FetchHistory(context.Background(), HistoryRequest{
		Tickers: []string{"AGG", "MISSING"},
		Start:   day(2024, 1, 1),
		End:     day(2024, 1, 5),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING")
}

func TestYahooProvider_SymbolMap(t *testing.T) {
	p := NewYahooProvider("")
	assert.Equal(t, "^GSPC", p.yahooSymbol("SPX500"))
	assert.Equal(t, "AGG", p.yahooSymbol("AGG"))
}
