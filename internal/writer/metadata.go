package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"BenchmarkBuilder/internal/model"
)

// MetadataFile is the file name metadata is written to inside the output directory.
const MetadataFile = "benchmark_metadata.json"

// metadataJSON mirrors model.MetadataRecord with plain pointers so the encoder's
// HTML escaping setting applies to every field.
type metadataJSON struct {
	Ticker        string  `json:"ticker"`
	Name          *string `json:"name"`
	FundFamily    *string `json:"fund_family"`
	Provider      *string `json:"provider"`
	Category      *string `json:"category"`
	InceptionDate *string `json:"inception_date"`
	Segment       string  `json:"segment"`
}

func toMetadataJSON(records []model.MetadataRecord) []metadataJSON {
	out := make([]metadataJSON, 0, len(records))
	for _, r := range records {
		out = append(out, metadataJSON{
			Ticker:        r.Ticker,
			Name:          r.Name.Ptr(),
			FundFamily:    r.FundFamily.Ptr(),
			Provider:      r.Provider.Ptr(),
			Category:      r.Category.Ptr(),
			InceptionDate: r.InceptionDate.Ptr(),
			Segment:       r.Segment,
		})
	}
	return out
}

// SaveMetadata writes the records as a pretty-printed JSON array, creating dir if needed.
func SaveMetadata(dir string, records []model.MetadataRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(toMetadataJSON(records)); err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	path := filepath.Join(dir, MetadataFile)
	if err := os.WriteFile(path, bytes.TrimRight(buf.Bytes(), "\n"), 0644); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	log.Printf("[INFO] metadata saved to %s", path)
	return path, nil
}
