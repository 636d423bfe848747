package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"BenchmarkBuilder/internal/model"

	"github.com/guregu/null/v6"
)

const (
	yahooBaseURL   = "https://query1.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
	yahooUserAgent = "Mozilla/5.0"

	quoteSummaryModules = "price,quoteType,summaryProfile,fundProfile,defaultKeyStatistics"
)

// YahooProvider implements Provider using the Yahoo Finance public API.
type YahooProvider struct {
	Client    *http.Client
	BaseURL   string
	CookieURL string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	mu    sync.Mutex
	crumb string
}

// NewYahooProvider creates a Yahoo Finance provider with optional proxy support.
func NewYahooProvider(proxyURL string) *YahooProvider {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	jar, _ := cookiejar.New(nil)
	return &YahooProvider{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
			Jar:       jar,
		},
		BaseURL:   yahooBaseURL,
		CookieURL: yahooCookieURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) yahooSymbol(symbol string) string {
	if mapped, ok := p.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooRaw is Yahoo's {"raw": ..., "fmt": ...} value wrapper.
type yahooRaw struct {
	Raw any `json:"raw"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooQuoteSummary is the response structure from the quoteSummary API.
type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"price"`
			QuoteType *struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"quoteType"`
			FundProfile *struct {
				Family       string `json:"family"`
				CategoryName string `json:"categoryName"`
				Issuer       string `json:"issuer"`
			} `json:"fundProfile"`
			DefaultKeyStatistics *struct {
				FundFamily        string    `json:"fundFamily"`
				Category          string    `json:"category"`
				FundInceptionDate *yahooRaw `json:"fundInceptionDate"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

func toNullFloat(v interface{}) null.Float {
	switch n := v.(type) {
	case float64:
		return null.FloatFrom(n)
	case int:
		return null.FloatFrom(float64(n))
	default:
		return null.Float{}
	}
}

// session obtains the cookie and crumb Yahoo requires for quoteSummary.
func (p *YahooProvider) session(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.crumb != "" {
		return p.crumb, nil
	}

	// fc.yahoo.com answers 404 but sets the session cookie.
	if req, err := http.NewRequestWithContext(ctx, "GET", p.CookieURL, nil); err == nil {
		req.Header.Set("User-Agent", yahooUserAgent)
		if resp, err := p.Client.Do(req); err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	body, err := p.get(ctx, p.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return "", fmt.Errorf("yahoo crumb: empty response")
	}
	p.crumb = crumb
	return crumb, nil
}

func (p *YahooProvider) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// FetchInfo retrieves the descriptive record of one ticker from quoteSummary.
func (p *YahooProvider) FetchInfo(ctx context.Context, ticker string) (*model.TickerInfo, error) {
	crumb, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("modules", quoteSummaryModules)
	q.Set("crumb", crumb)
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s",
		p.BaseURL, url.PathEscape(p.yahooSymbol(ticker)), q.Encode())

	body, err := p.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var qs yahooQuoteSummary
	if err := json.Unmarshal(body, &qs); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if qs.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", qs.QuoteSummary.Error.Description)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no summary returned for %s", ticker)
	}

	r := qs.QuoteSummary.Result[0]
	info := &model.TickerInfo{Symbol: ticker}
	if r.Price != nil {
		info.LongName = r.Price.LongName
		info.ShortName = r.Price.ShortName
	}
	if r.QuoteType != nil {
		if info.LongName == "" {
			info.LongName = r.QuoteType.LongName
		}
		if info.ShortName == "" {
			info.ShortName = r.QuoteType.ShortName
		}
	}
	if r.FundProfile != nil {
		info.FundFamily = r.FundProfile.Family
		info.Category = r.FundProfile.CategoryName
		info.Issuer = r.FundProfile.Issuer
	}
	if ks := r.DefaultKeyStatistics; ks != nil {
		if info.FundFamily == "" {
			info.FundFamily = ks.FundFamily
		}
		if info.Category == "" {
			info.Category = ks.Category
		}
		if ks.FundInceptionDate != nil {
			info.FundInceptionDate = ks.FundInceptionDate.Raw
		}
	}
	return info, nil
}

// FetchHistory downloads daily bars for every requested ticker, one chart call each.
// With AutoAdjust the adjusted close replaces the raw close.
func (p *YahooProvider) FetchHistory(ctx context.Context, req HistoryRequest) (*model.History, error) {
	interval := req.Interval
	if interval == "" {
		interval = "1d"
	}
	h := &model.History{Series: make([]model.Series, 0, len(req.Tickers))}
	for _, t := range req.Tickers {
		bars, err := p.fetchChart(ctx, t, req.Start, req.End, interval, req.AutoAdjust)
		if err != nil {
			return nil, fmt.Errorf("fetch history %s: %w", t, err)
		}
		h.Series = append(h.Series, model.Series{Ticker: t, Bars: bars})
	}
	return h, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, start, end time.Time, interval string, adjust bool) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", interval)
	q.Set("events", "div,split")
	q.Set("includeAdjustedClose", "true")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.BaseURL, url.PathEscape(p.yahooSymbol(symbol)), q.Encode())

	body, err := p.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	var closes []interface{}
	if adjust && len(result.Indicators.AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		var c null.Float
		if i < len(closes) {
			c = toNullFloat(closes[i])
		}
		bars = append(bars, model.Bar{
			Date:  exchangeDate(ts, result.Meta.GMTOffset),
			Close: c,
		})
	}
	return bars, nil
}

// exchangeDate converts a bar timestamp into its trading date in exchange local time.
func exchangeDate(ts, gmtOffset int64) time.Time {
	return dateOnly(time.Unix(ts+gmtOffset, 0))
}
