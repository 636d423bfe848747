package recorder

import "BenchmarkBuilder/internal/model"

// MetadataRun records one metadata collection and the rows it produced.
type MetadataRun struct {
	RunID   string
	Path    string
	Records []model.MetadataRecord
}

// NameFallback is a ticker whose display name could not be resolved.
type NameFallback struct {
	Ticker string
	Reason string // empty when the provider simply reported no name
}

// PriceRun records one price download and where it was written.
type PriceRun struct {
	RunID       string
	Rows        int
	Columns     int
	FirstDate   string
	LastDate    string
	CSVPath     string
	ParquetPath string
	Fallbacks   []NameFallback
}

// Recorder persists build history for later inspection.
type Recorder interface {
	RecordMetadata(run *MetadataRun) error
	RecordPrices(run *PriceRun) error
	Close() error
}
