package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"BenchmarkBuilder/internal/model"

	"github.com/guregu/null/v6"
)

// Bounds of a nanosecond timestamp; inception values outside them are unrepresentable.
const (
	minEpochSeconds = math.MinInt64 / int64(time.Second)
	maxEpochSeconds = math.MaxInt64 / int64(time.Second)
)

// FetchMetadata retrieves the metadata record of one ticker. Segment is left empty.
func (c *Collector) FetchMetadata(ctx context.Context, ticker string) (model.MetadataRecord, error) {
	info, err := c.Provider.FetchInfo(ctx, ticker)
	if err != nil {
		return model.MetadataRecord{}, fmt.Errorf("fetch metadata %s: %w", ticker, err)
	}
	return model.MetadataRecord{
		Ticker:       ticker,
		Name:         firstNonEmpty(info.LongName, info.ShortName),
		FundFamily:   firstNonEmpty(info.FundFamily),
		Provider:     firstNonEmpty(info.Issuer, info.FundFamily),
		Category:     firstNonEmpty(info.Category),
		RawInception: info.FundInceptionDate,
	}, nil
}

// CollectMetadata fetches one record per ticker, in segment order then ticker order,
// and tags each with its segment. Any fetch failure aborts the whole collection.
func (c *Collector) CollectMetadata(ctx context.Context, benchmark model.Benchmark) ([]model.MetadataRecord, error) {
	records := make([]model.MetadataRecord, 0, benchmark.Len())
	for _, seg := range benchmark {
		for _, ticker := range seg.Tickers {
			rec, err := c.FetchMetadata(ctx, ticker)
			if err != nil {
				return nil, err
			}
			rec.Segment = seg.Name
			records = append(records, rec)
		}
	}

	for i := range records {
		records[i].InceptionDate = ParseInceptionDate(records[i].RawInception)
	}

	log.Printf("[INFO] collected metadata for %d tickers in %d segments", len(records), len(benchmark))
	return records, nil
}

// ParseInceptionDate converts epoch seconds into a YYYY-MM-DD string.
// Missing or unparsable values yield null.
func ParseInceptionDate(v any) null.String {
	var secs float64
	switch n := v.(type) {
	case float64:
		secs = n
	case float32:
		secs = float64(n)
	case int:
		secs = float64(n)
	case int32:
		secs = float64(n)
	case int64:
		secs = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return null.String{}
		}
		secs = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return null.String{}
		}
		secs = f
	default:
		return null.String{}
	}

	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return null.String{}
	}
	if secs < float64(minEpochSeconds) || secs > float64(maxEpochSeconds) {
		return null.String{}
	}
	whole := math.Floor(secs)
	t := time.Unix(int64(whole), int64((secs-whole)*float64(time.Second))).UTC()
	return null.StringFrom(t.Format(model.DateLayout))
}

func firstNonEmpty(values ...string) null.String {
	for _, v := range values {
		if v != "" {
			return null.StringFrom(v)
		}
	}
	return null.String{}
}
