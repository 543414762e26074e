package core

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// NormalizeRow maps a raw CSV row onto a CatchRecord and attaches the
// species risk. It never fails: a missing column leaves the field invalid
// and an unparseable _id leaves ID invalid, both for the validator to catch.
func NormalizeRow(row RawRow) CatchRecord {
	rec := CatchRecord{
		Line:    row.Line,
		Name:    textField(row, ColumnCommonName),
		Species: textField(row, ColumnSpecies),
		Beach:   textField(row, ColumnBeach),
		Area:    textField(row, ColumnArea),
		Date:    textField(row, ColumnDate),
		Fate:    textField(row, ColumnFate),
	}

	if raw, ok := row.Get(ColumnID); ok {
		rec.RawID = strings.TrimSpace(raw)
		rec.ID = parseID(rec.RawID)
	}

	rec.Risk = RiskFor(rec.Species.String)
	return rec
}

// Normalize applies NormalizeRow to every row, preserving order.
func Normalize(rows []RawRow) []CatchRecord {
	out := make([]CatchRecord, len(rows))
	for i, row := range rows {
		out[i] = NormalizeRow(row)
	}
	return out
}

// textField returns the trimmed column value, invalid when the column is absent.
func textField(row RawRow, column string) pgtype.Text {
	v, ok := row.Get(column)
	if !ok {
		return pgtype.Text{}
	}
	return pgtype.Text{String: strings.TrimSpace(v), Valid: true}
}

// parseID accepts base-10 integers. Whole-number decimals such as "12.0"
// are accepted too since spreadsheet exports often write ids that way.
func parseID(s string) pgtype.Int8 {
	if s == "" {
		return pgtype.Int8{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return pgtype.Int8{Int64: n, Valid: true}
	}
	if whole, frac, ok := strings.Cut(s, "."); ok && whole != "" && strings.Trim(frac, "0") == "" {
		if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
			return pgtype.Int8{Int64: n, Valid: true}
		}
	}
	return pgtype.Int8{}
}
