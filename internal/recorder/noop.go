package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordMetadata(_ *MetadataRun) error { return nil }
func (n *NoopRecorder) RecordPrices(_ *PriceRun) error      { return nil }
func (n *NoopRecorder) Close() error                        { return nil }
