package core

// validation.go checks normalized records before anything is written.
//
// Validation happens at two levels:
//  1. Header validation: every required column appears in the file
//  2. Record validation: id is an integer, risk is a known category and
//     every text field is present (an empty string is accepted)
//
// Validation is all-or-nothing. ValidateRecords returns every problem it
// finds so the caller can show them together, and the pipeline aborts the
// import if the list is non-empty.

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// maxValidationErrors caps how many problems are collected for one import.
const maxValidationErrors = 100

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Line    int    `json:"line,omitempty"`  // CSV line, 0 for file-level problems
	Field   string `json:"field,omitempty"` // Column name
	Value   string `json:"value,omitempty"` // The invalid value
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidateHeaders reports required columns missing from the whole file.
func ValidateHeaders(rows []RawRow) []ValidationError {
	var errs []ValidationError
	for _, col := range MissingColumns(rows) {
		errs = append(errs, ValidationError{
			Field:   col,
			Message: "missing required column",
		})
	}
	return errs
}

// ValidateRecord returns every problem with a single record.
func ValidateRecord(rec CatchRecord) []ValidationError {
	var errs []ValidationError

	if !rec.ID.Valid {
		msg := "invalid number: id must be an integer"
		if rec.RawID == "" {
			msg = "required field is empty: id must be an integer"
		}
		errs = append(errs, ValidationError{
			Line:    rec.Line,
			Field:   ColumnID,
			Value:   rec.RawID,
			Message: msg,
		})
	}

	if !rec.Risk.Valid() {
		errs = append(errs, ValidationError{
			Line:    rec.Line,
			Field:   "risk",
			Value:   string(rec.Risk),
			Message: "invalid enum: risk must be one of Unknown, Low, Medium, High",
		})
	}

	for _, f := range []struct {
		column string
		value  pgtype.Text
	}{
		{ColumnCommonName, rec.Name},
		{ColumnSpecies, rec.Species},
		{ColumnBeach, rec.Beach},
		{ColumnArea, rec.Area},
		{ColumnDate, rec.Date},
		{ColumnFate, rec.Fate},
	} {
		if !f.value.Valid {
			errs = append(errs, ValidationError{
				Line:    rec.Line,
				Field:   f.column,
				Message: "column not found in row",
			})
		}
	}

	return errs
}

// ValidateRecords validates a whole batch. An empty result means the batch
// may be written. At most maxValidationErrors problems are returned.
func ValidateRecords(recs []CatchRecord) []ValidationError {
	var errs []ValidationError
	for _, rec := range recs {
		errs = append(errs, ValidateRecord(rec)...)
		if len(errs) >= maxValidationErrors {
			return errs[:maxValidationErrors]
		}
	}
	return errs
}
