package menu

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMissingColumns is returned when the CSV header lacks a required column.
var ErrMissingColumns = errors.New("menu csv missing required columns: Drink Name, Drink Type, Size, Price")

const (
	colName     = "drinkname"
	colCategory = "drinktype"
	colSize     = "size"
	colPrice    = "price"
)

// ReadCSV parses a menu CSV with a header row. Short rows are reported and skipped; a header
// without the required columns fails the whole read.
func ReadCSV(r io.Reader) ([]Row, []*RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read menu header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	cols := []string{colName, colCategory, colSize, colPrice}
	maxCol := 0
	for _, col := range cols {
		i, ok := idx[col]
		if !ok {
			return nil, nil, ErrMissingColumns
		}
		if i > maxCol {
			maxCol = i
		}
	}

	var (
		rows    []Row
		skipped []*RowError
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped = append(skipped, &RowError{Line: parseErr.Line, Reason: "malformed row", Err: err})
				continue
			}
			return rows, skipped, fmt.Errorf("read menu row: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		if len(record) <= maxCol {
			skipped = append(skipped, &RowError{Line: line, Reason: fmt.Sprintf("expected %d columns, got %d", maxCol+1, len(record))})
			continue
		}
		rows = append(rows, Row{
			Line:     line,
			Name:     strings.TrimSpace(record[idx[colName]]),
			Category: strings.TrimSpace(record[idx[colCategory]]),
			Size:     strings.TrimSpace(record[idx[colSize]]),
			Price:    strings.TrimSpace(record[idx[colPrice]]),
		})
	}
	return rows, skipped, nil
}

// LoadFile reads the CSV at path and builds a catalog. Rows the reader could not split
// are merged into the report's rejected list.
func LoadFile(path string) (*Catalog, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("open menu: %w", err)
	}
	defer f.Close()

	rows, skipped, err := ReadCSV(f)
	if err != nil {
		return nil, LoadReport{}, err
	}
	catalog, report := Load(rows)
	report.Rejected = append(skipped, report.Rejected...)
	return catalog, report, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "")
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
