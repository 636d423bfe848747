package writer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"BenchmarkBuilder/internal/model"

	"github.com/parquet-go/parquet-go"
)

const (
	PricesCSVFile     = "benchmark_prices_named.csv"
	PricesParquetFile = "benchmark_prices_named.parquet"

	// DateColumn labels the date index in both price files.
	DateColumn = "Date"
)

// SavePrices writes the table as CSV and Parquet into dir, creating it if needed.
func SavePrices(dir string, table *model.PriceTable) (csvPath, parquetPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	csvData, err := EncodeCSV(table)
	if err != nil {
		return "", "", err
	}
	parquetData, err := EncodeParquet(table)
	if err != nil {
		return "", "", err
	}

	csvPath = filepath.Join(dir, PricesCSVFile)
	if err := os.WriteFile(csvPath, csvData, 0644); err != nil {
		return "", "", fmt.Errorf("write csv: %w", err)
	}
	parquetPath = filepath.Join(dir, PricesParquetFile)
	if err := os.WriteFile(parquetPath, parquetData, 0644); err != nil {
		return "", "", fmt.Errorf("write parquet: %w", err)
	}

	log.Printf("[INFO] saved CSV and Parquet data to %s", dir)
	return csvPath, parquetPath, nil
}

// EncodeCSV renders the table with a Date column first and one column per instrument.
// Missing values are empty cells.
func EncodeCSV(table *model.PriceTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{DateColumn}, table.Columns...)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i, d := range table.Dates {
		rec := make([]string, 0, len(header))
		rec = append(rec, d.Format(model.DateLayout))
		for _, v := range table.Values[i] {
			if v.Valid {
				rec = append(rec, strconv.FormatFloat(v.Float64, 'f', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// priceSchema builds a schema with a DATE column and one optional DOUBLE per instrument.
func priceSchema(columns []string) (*parquet.Schema, error) {
	group := parquet.Group{DateColumn: parquet.Date()}
	for _, c := range columns {
		if _, dup := group[c]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c)
		}
		group[c] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
	return parquet.NewSchema("benchmark_prices", group), nil
}

// EncodeParquet renders the table as a single row group Parquet file.
func EncodeParquet(table *model.PriceTable) ([]byte, error) {
	schema, err := priceSchema(table.Columns)
	if err != nil {
		return nil, fmt.Errorf("parquet schema: %w", err)
	}

	leaf := make(map[string]int, len(table.Columns)+1)
	for i, f := range schema.Fields() {
		leaf[f.Name()] = i
	}

	rows := make([]parquet.Row, len(table.Dates))
	for i, d := range table.Dates {
		row := make(parquet.Row, len(table.Columns)+1)
		idx := leaf[DateColumn]
		row[idx] = parquet.Int32Value(int32(d.Unix() / 86400)).Level(0, 0, idx)
		for j, c := range table.Columns {
			idx := leaf[c]
			if v := table.Values[i][j]; v.Valid {
				row[idx] = parquet.DoubleValue(v.Float64).Level(0, 1, idx)
			} else {
				row[idx] = parquet.NullValue().Level(0, 0, idx)
			}
		}
		rows[i] = row
	}

	var buf bytes.Buffer
	w := parquet.NewWriter(&buf, schema)
	if _, err := w.WriteRows(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
