package collector

import (
	"context"
	"time"

	"BenchmarkBuilder/internal/model"
)

// HistoryRequest describes one batch price download.
type HistoryRequest struct {
	Tickers    []string
	Start      time.Time
	End        time.Time // exclusive
	Interval   string
	AutoAdjust bool
}

// Provider is the market-data client the collector depends on.
type Provider interface {
	// FetchInfo performs one round trip and returns the descriptive record of a ticker.
	FetchInfo(ctx context.Context, ticker string) (*model.TickerInfo, error)
	// FetchHistory downloads daily prices for all requested tickers.
	FetchHistory(ctx context.Context, req HistoryRequest) (*model.History, error)
	Name() string
}
