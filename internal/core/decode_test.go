package core

import (
	"errors"
	"io"
	"strings"
	"testing"
)

const csvHeader = "_id,date,areaName,gearBeach,Fate,Common Name,Species name\n"

func TestNewUTF8Reader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte("Bay\x80side"),
			expected: "Bay�side",
		},
		{
			name:     "valid unicode kept",
			input:    []byte("Whitetip reef, Côte"),
			expected: "Whitetip reef, Côte",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newUTF8Reader(strings.NewReader(string(tt.input))))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", string(got), tt.expected)
			}
		})
	}
}

func TestDecodeCSV(t *testing.T) {
	input := "\xEF\xBB\xBF" + csvHeader +
		"1,2024-01-02,Bayside,North Beach,Released,Bull,Carcharhinus leucas\n" +
		"\n" +
		",,,,,,\n" +
		"2,2024-01-03,Bayside,North Beach,\"Tagged, released\",Bull,Carcharhinus leucas\n"

	rows, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeCSV() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if got, _ := rows[0].Get(ColumnID); got != "1" {
		t.Errorf("rows[0] _id = %q, want %q (BOM must not leak into the header)", got, "1")
	}
	if got, _ := rows[1].Get(ColumnFate); got != "Tagged, released" {
		t.Errorf("rows[1] Fate = %q, want %q", got, "Tagged, released")
	}
	if rows[0].Line != 2 {
		t.Errorf("rows[0].Line = %d, want 2", rows[0].Line)
	}
	if rows[1].Line != 5 {
		t.Errorf("rows[1].Line = %d, want 5", rows[1].Line)
	}
}

func TestDecodeCSV_ShortRowLeavesColumnsAbsent(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader(csvHeader + "7,2024-01-02,Bayside\n"))
	if err != nil {
		t.Fatalf("DecodeCSV() error = %v", err)
	}

	if _, ok := rows[0].Get(ColumnArea); !ok {
		t.Error("areaName should be present")
	}
	if _, ok := rows[0].Get(ColumnBeach); ok {
		t.Error("gearBeach should be absent on a short row")
	}
}

func TestDecodeCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{name: "empty input", input: "", wantErr: ErrEmptyFile},
		{name: "header only", input: csvHeader, wantErr: ErrNoDataRows},
		{name: "header and blank lines", input: csvHeader + "\n\n", wantErr: ErrNoDataRows},
		{name: "bad quoting", input: csvHeader + "1,\"2024,x\n", wantMsg: "invalid csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("DecodeCSV() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestMissingColumns(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader("_id,date,Fate\n1,2024-01-01,Released\n"))
	if err != nil {
		t.Fatalf("DecodeCSV() error = %v", err)
	}

	got := MissingColumns(rows)
	want := []string{ColumnArea, ColumnBeach, ColumnCommonName, ColumnSpecies}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("MissingColumns() = %v, want %v", got, want)
	}
}

func TestTemplateCSV(t *testing.T) {
	if got := string(TemplateCSV()); got != csvHeader {
		t.Errorf("TemplateCSV() = %q, want %q", got, csvHeader)
	}
}
