package core

// decode.go turns an uploaded CSV document into header-keyed rows.
//
// The input is passed through an x/text transformer that strips a leading
// UTF-8 BOM (common in Excel exports) and replaces invalid byte sequences
// with U+FFFD, so encoding/csv only ever sees valid UTF-8. Blank lines are
// skipped. Rows shorter than the header leave the trailing columns absent
// rather than empty, which the validator reports.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column headers of the catch CSV.
const (
	ColumnID         = "_id"
	ColumnDate       = "date"
	ColumnArea       = "areaName"
	ColumnBeach      = "gearBeach"
	ColumnFate       = "Fate"
	ColumnCommonName = "Common Name"
	ColumnSpecies    = "Species name"
)

// RequiredColumns lists the CSV headers an import needs, in template order.
var RequiredColumns = []string{
	ColumnID,
	ColumnDate,
	ColumnArea,
	ColumnBeach,
	ColumnFate,
	ColumnCommonName,
	ColumnSpecies,
}

var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file: no header row")

	// ErrNoDataRows is returned when the input has a header but no records.
	ErrNoDataRows = errors.New("empty file: no data rows")
)

// RawRow is one CSV record keyed by header name.
type RawRow struct {
	Line   int
	Fields map[string]string
}

// Get returns the value for a column and whether the column was present.
func (r RawRow) Get(column string) (string, bool) {
	v, ok := r.Fields[column]
	return v, ok
}

// newUTF8Reader strips a UTF-8 BOM and sanitizes invalid sequences.
func newUTF8Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// DecodeCSV reads the whole document and returns its rows in file order.
func DecodeCSV(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(newUTF8Reader(r))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			fields[name] = record[i]
		}
		rows = append(rows, RawRow{Line: line, Fields: fields})
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// MissingColumns reports which required headers are absent from every row.
func MissingColumns(rows []RawRow) []string {
	if len(rows) == 0 {
		return append([]string(nil), RequiredColumns...)
	}
	var missing []string
	for _, col := range RequiredColumns {
		found := false
		for _, row := range rows {
			if _, ok := row.Fields[col]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col)
		}
	}
	return missing
}

// isBlankRecord reports whether every field is whitespace, e.g. a line of commas.
func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// TemplateCSV returns a header-only CSV for the import template download.
func TemplateCSV() []byte {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(RequiredColumns)
	w.Flush()
	return []byte(b.String())
}
