package store

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/parquet-go/parquet-go"

	"MarketDigest/internal/model"
)

// QuoteRow is one flattened quote of an archived cycle.
type QuoteRow struct {
	Timestamp     string  `json:"timestamp" csv:"timestamp" parquet:"timestamp"`
	Category      string  `json:"category" csv:"category" parquet:"category"`
	Asset         string  `json:"asset" csv:"asset" parquet:"asset"`
	Symbol        string  `json:"symbol" csv:"symbol" parquet:"symbol"`
	Price         float64 `json:"price" csv:"price" parquet:"price"`
	Change        float64 `json:"change" csv:"change" parquet:"change"`
	ChangePercent float64 `json:"change_percent" csv:"change_percent" parquet:"change_percent"`
	Error         string  `json:"error,omitempty" csv:"error" parquet:"error,optional"`
}

// Rows flattens a snapshot, ordered by category then asset.
func Rows(snapshot *model.Snapshot) []QuoteRow {
	var rows []QuoteRow
	for category, block := range snapshot.Categories {
		for asset, q := range block.Quotes {
			row := QuoteRow{Timestamp: snapshot.Timestamp, Category: category, Asset: asset}
			if q.IsError() {
				row.Error = q.Error
			} else {
				row.Symbol = q.Symbol
				row.Price = q.CurrentPrice
				row.Change = q.Change.Unwrap()
				row.ChangePercent = q.ChangePercent.Unwrap()
			}
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Asset < rows[j].Asset
	})
	return rows
}

// ArchiveSaver writes one cycle's rows to path.
type ArchiveSaver interface {
	Save(rows []QuoteRow, path string) error
	Extension() string
}

// NewArchiveSaver returns the saver for format (json, csv, parquet), or nil when the
// format is empty or unsupported.
func NewArchiveSaver(format string) ArchiveSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONSaver{}
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// JSONSaver writes rows as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rows []QuoteRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// CSVSaver writes rows with a header line.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(rows []QuoteRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&rows, f)
}

// ParquetSaver writes rows as a single parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []QuoteRow, path string) error {
	return parquet.WriteFile(path, rows)
}
