package scheduler

import (
	"context"
	"fmt"
	"log"

	"BenchmarkBuilder/internal/collector"
	"BenchmarkBuilder/internal/model"
	"BenchmarkBuilder/internal/notifier"
	"BenchmarkBuilder/internal/recorder"
	"BenchmarkBuilder/internal/writer"

	"github.com/google/uuid"
)

// Builder runs the full dataset build: metadata then prices.
type Builder struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Benchmark model.Benchmark
	Range     model.DateRange
	OutputDir string
}

// Run collects and writes metadata, then downloads and writes prices.
// Provider and filesystem errors abort the build. Recorder errors are logged only.
func (b *Builder) Run(ctx context.Context) (*notifier.BuildSummary, error) {
	sum := &notifier.BuildSummary{RunID: uuid.NewString(), OutputDir: b.OutputDir}
	log.Printf("[INFO] build %s: %d tickers in %d segments", sum.RunID, b.Benchmark.Len(), len(b.Benchmark))

	records, err := b.Collector.CollectMetadata(ctx, b.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("collect metadata: %w", err)
	}
	metaPath, err := writer.SaveMetadata(b.OutputDir, records)
	if err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}
	sum.Instruments = len(records)
	if err := b.Recorder.RecordMetadata(&recorder.MetadataRun{
		RunID: sum.RunID, Path: metaPath, Records: records,
	}); err != nil {
		log.Printf("[ERROR] record metadata run: %v", err)
	}

	prices, resolutions, err := b.Collector.FetchPrices(ctx, b.Benchmark, b.Range)
	if err != nil {
		return nil, err
	}
	csvPath, parquetPath, err := writer.SavePrices(b.OutputDir, prices)
	if err != nil {
		return nil, fmt.Errorf("save prices: %w", err)
	}

	sum.Days = prices.NumRows()
	sum.Columns = prices.NumCols()
	if sum.Days > 0 {
		sum.FirstDate = prices.FirstDate().Format(model.DateLayout)
		sum.LastDate = prices.LastDate().Format(model.DateLayout)
	}

	var fallbacks []recorder.NameFallback
	for _, r := range resolutions {
		if !r.Fallback {
			continue
		}
		fb := recorder.NameFallback{Ticker: r.Ticker}
		if r.Err != nil {
			fb.Reason = r.Err.Error()
		}
		fallbacks = append(fallbacks, fb)
		sum.Fallbacks = append(sum.Fallbacks, r.Ticker)
	}
	if err := b.Recorder.RecordPrices(&recorder.PriceRun{
		RunID:       sum.RunID,
		Rows:        sum.Days,
		Columns:     sum.Columns,
		FirstDate:   sum.FirstDate,
		LastDate:    sum.LastDate,
		CSVPath:     csvPath,
		ParquetPath: parquetPath,
		Fallbacks:   fallbacks,
	}); err != nil {
		log.Printf("[ERROR] record price run: %v", err)
	}

	log.Printf("[INFO] build %s finished", sum.RunID)
	return sum, nil
}
