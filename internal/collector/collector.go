package collector

import (
	"context"
	"fmt"

	"BenchmarkBuilder/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
type MockProvider struct {
	Infos      map[string]*model.TickerInfo
	InfoErrs   map[string]error
	History    *model.History
	HistoryErr error

	InfoCalls    []string
	HistoryCalls []HistoryRequest
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) FetchInfo(_ context.Context, ticker string) (*model.TickerInfo, error) {
	m.InfoCalls = append(m.InfoCalls, ticker)
	if err, ok := m.InfoErrs[ticker]; ok {
		return nil, err
	}
	if info, ok := m.Infos[ticker]; ok {
		cp := *info
		return &cp, nil
	}
	return &model.TickerInfo{Symbol: ticker}, nil
}

func (m *MockProvider) FetchHistory(_ context.Context, req HistoryRequest) (*model.History, error) {
	m.HistoryCalls = append(m.HistoryCalls, req)
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	if m.History == nil {
		return nil, fmt.Errorf("mock: no history configured")
	}
	return m.History, nil
}

// Collector orchestrates metadata and price retrieval from a Provider.
type Collector struct {
	Provider Provider
	Resolver *NameResolver
}

// NewCollector creates a new Collector.
func NewCollector(provider Provider) *Collector {
	return &Collector{
		Provider: provider,
		Resolver: &NameResolver{Provider: provider},
	}
}
