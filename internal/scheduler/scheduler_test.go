package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"BenchmarkBuilder/internal/collector"
	"BenchmarkBuilder/internal/model"
	"BenchmarkBuilder/internal/recorder"
	"BenchmarkBuilder/internal/writer"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type memRecorder struct {
	meta   []*recorder.MetadataRun
	prices []*recorder.PriceRun
}

func (m *memRecorder) RecordMetadata(run *recorder.MetadataRun) error {
	m.meta = append(m.meta, run)
	return nil
}

func (m *memRecorder) RecordPrices(run *recorder.PriceRun) error {
	m.prices = append(m.prices, run)
	return nil
}

func (m *memRecorder) Close() error { return nil }

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func newBuilder(t *testing.T, mock *collector.MockProvider, rec recorder.Recorder) *Builder {
	t.Helper()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &Builder{
		Collector: collector.NewCollector(mock),
		Recorder:  rec,
		Benchmark: model.Benchmark{
			{Name: "US_Equity", Tickers: []string{"SPY"}},
			{Name: "US_Bond", Tickers: []string{"AGG"}},
		},
		Range:     model.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 4)},
		OutputDir: filepath.Join(t.TempDir(), "data"),
	}
}

func sampleProvider() *collector.MockProvider {
	return &collector.MockProvider{
		Infos: map[string]*model.TickerInfo{
			"SPY": {LongName: "SPDR S&P 500 ETF Trust", FundInceptionDate: float64(727660800)},
		},
		InfoErrs: map[string]error{},
		History: &model.History{Series: []model.Series{
			{Ticker: "SPY", Bars: []model.Bar{
				{Date: day(2024, 1, 2), Close: null.FloatFrom(472.65)},
				{Date: day(2024, 1, 3), Close: null.FloatFrom(468.79)},
			}},
			{Ticker: "AGG", Bars: []model.Bar{
				{Date: day(2024, 1, 2), Close: null.FloatFrom(96.1)},
			}},
		}},
	}
}

func TestBuilder_Run(t *testing.T) {
	rec := &memRecorder{}
	b := newBuilder(t, sampleProvider(), rec)

	sum, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.Instruments)
	assert.Equal(t, 2, sum.Days)
	assert.Equal(t, 2, sum.Columns)
	assert.Equal(t, "2024-01-02", sum.FirstDate)
	assert.Equal(t, "2024-01-03", sum.LastDate)
	assert.Equal(t, []string{"AGG"}, sum.Fallbacks)

	for _, name := range []string{writer.MetadataFile, writer.PricesCSVFile, writer.PricesParquetFile} {
		_, err := os.Stat(filepath.Join(b.OutputDir, name))
		assert.NoError(t, err, name)
	}

	require.Len(t, rec.meta, 1)
	require.Len(t, rec.prices, 1)
	assert.Equal(t, sum.RunID, rec.meta[0].RunID)
	assert.Equal(t, sum.RunID, rec.prices[0].RunID)
	assert.Equal(t, "1993-01-22", rec.meta[0].Records[0].InceptionDate.String)
	require.Len(t, rec.prices[0].Fallbacks, 1)
	assert.Equal(t, "AGG", rec.prices[0].Fallbacks[0].Ticker)
	assert.Empty(t, rec.prices[0].Fallbacks[0].Reason)
}

func TestBuilder_RunMetadataFailureWritesNothing(t *testing.T) {
	mock := sampleProvider()
	mock.InfoErrs["AGG"] = errors.New("connection refused")
	rec := &memRecorder{}
	b := newBuilder(t, mock, rec)

	_, err := b.Run(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(b.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, rec.meta)
	assert.Empty(t, mock.HistoryCalls)
}

func TestScheduler_RunNowNotifies(t *testing.T) {
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), newBuilder(t, sampleProvider(), recorder.NewNoopRecorder()), sender)

	sum, err := s.RunNow()
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "Benchmark build finished")

	last, lastErr := s.Last()
	assert.NoError(t, lastErr)
	assert.Equal(t, sum, last)
	assert.Contains(t, s.HandleCommand("/status"), sum.RunID)
}

func TestScheduler_RunNowFailure(t *testing.T) {
	mock := sampleProvider()
	mock.HistoryErr = errors.New("provider down")
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), newBuilder(t, mock, recorder.NewNoopRecorder()), sender)

	_, err := s.RunNow()
	require.Error(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "provider down")
	assert.Contains(t, s.HandleCommand("/status"), "failed")
}

func TestScheduler_Commands(t *testing.T) {
	s := NewScheduler(context.Background(), newBuilder(t, sampleProvider(), recorder.NewNoopRecorder()), nil)
	assert.Equal(t, "no build has run yet", s.HandleCommand("/status"))
	assert.Contains(t, s.HandleCommand("/help"), "/rebuild")
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(context.Background(), newBuilder(t, sampleProvider(), recorder.NewNoopRecorder()), nil)
	assert.NoError(t, s.Register("0 0 6 * * 1-5"))
	assert.Error(t, s.Register("not a cron"))
	assert.Len(t, s.Cron.Entries(), 1)
}
