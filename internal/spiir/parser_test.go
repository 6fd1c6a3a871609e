package spiir

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// row builds a 24-column CSV line in header order with the given overrides.
func row(t *testing.T, overrides map[int]string) string {
	t.Helper()
	fields := make([]string, len(headerColumns))
	fields[colID] = "id-1"
	fields[colAccountName] = "Primary"
	fields[colAccountType] = "Konto"
	fields[colDate] = "05-03-2024"
	fields[colDescription] = "Netto Hvidovre"
	fields[colAmount] = "-123,45"
	fields[colBalance] = "1.000,00"
	fields[colCurrency] = "DKK"
	for i, v := range overrides {
		fields[i] = v
	}
	for i, f := range fields {
		fields[i] = `"` + f + `"`
	}
	return strings.Join(fields, ";")
}

func parseOne(t *testing.T, overrides map[int]string) *Record {
	t.Helper()
	input := Header + "\n" + row(t, overrides) + "\n"
	records, err := NewParser().Parse(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Parse() returned %d records, want 1", len(records))
	}
	return &records[0]
}

func TestParse_HeaderMismatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "wrong column name",
			input: strings.Replace(Header, `"Id"`, `"ID"`, 1) + "\n",
		},
		{
			name:  "columns reordered",
			input: strings.Replace(Header, `"Id";"AccountId"`, `"AccountId";"Id"`, 1) + "\n",
		},
		{
			name:  "truncated header",
			input: strings.TrimSuffix(Header, `;"OriginalCurrency"`) + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(strings.NewReader(tt.input), "bad.csv")
			if !errors.Is(err, ErrNotSpiir) {
				t.Errorf("Parse() error = %v, want ErrNotSpiir", err)
			}
		})
	}
}

func TestParse_BOM(t *testing.T) {
	input := "\xEF\xBB\xBF" + Header + "\n" + row(t, nil) + "\n"
	records, err := NewParser().Parse(strings.NewReader(input), "bom.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Parse() returned %d records, want 1", len(records))
	}
}

func TestParse_Dates(t *testing.T) {
	rec := parseOne(t, nil)

	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !rec.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", rec.Date, want)
	}
	if !rec.CustomDate.IsZero() {
		t.Errorf("CustomDate = %v, want zero", rec.CustomDate)
	}
}

func TestParse_CustomDateOverride(t *testing.T) {
	rec := parseOne(t, map[int]string{colCustomDate: "31-12-2023"})

	if rec.Year() != 2023 {
		t.Errorf("Year() = %d, want 2023", rec.Year())
	}
	primary := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !rec.PrimaryDate.Equal(primary) {
		t.Errorf("PrimaryDate = %v, want %v", rec.PrimaryDate, primary)
	}
}

func TestParse_InvalidDateIsFatal(t *testing.T) {
	input := Header + "\n" + row(t, map[int]string{colDate: "2024-03-05"}) + "\n"
	if _, err := NewParser().Parse(strings.NewReader(input), "bad.csv"); err == nil {
		t.Error("Parse() expected error for ISO-formatted date")
	}
}

func TestParse_DanishDecimals(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1.234,56", "1234.56"},
		{"-123,45", "-123.45"},
		{"0,01", "0.01"},
		{"", "0"},
		{"1.000.000,00", "1000000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rec := parseOne(t, map[int]string{colAmount: tt.input})
			want := decimal.RequireFromString(tt.want)
			if !rec.Amount.Equal(want) {
				t.Errorf("Amount = %s, want %s", rec.Amount, want)
			}
		})
	}
}

func TestParse_InvalidDecimalIsFatal(t *testing.T) {
	input := Header + "\n" + row(t, map[int]string{colAmount: "abc"}) + "\n"
	if _, err := NewParser().Parse(strings.NewReader(input), "bad.csv"); err == nil {
		t.Error("Parse() expected error for non-numeric amount")
	}
}

func TestParse_CaseFolding(t *testing.T) {
	rec := parseOne(t, map[int]string{
		colDescription:  "REMA 1000 KØBENHAVN",
		colAccountName:  "Kærestekonto",
		colCategoryName: "Dagligvarer",
	})

	if rec.Description != "rema 1000 københavn" {
		t.Errorf("Description = %q", rec.Description)
	}
	if rec.RawDescription != "REMA 1000 KØBENHAVN" {
		t.Errorf("RawDescription = %q", rec.RawDescription)
	}
	if rec.AccountName != "kærestekonto" {
		t.Errorf("AccountName = %q", rec.AccountName)
	}
	if rec.RawAccountName != "Kærestekonto" {
		t.Errorf("RawAccountName = %q", rec.RawAccountName)
	}
	if rec.CategoryName != "dagligvarer" {
		t.Errorf("CategoryName = %q", rec.CategoryName)
	}
}

func TestParse_LineNumbers(t *testing.T) {
	input := Header + "\n" +
		row(t, map[int]string{colID: "a"}) + "\n" +
		row(t, map[int]string{colID: "b"}) + "\n"

	records, err := NewParser().Parse(strings.NewReader(input), "lines.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if records[0].Line != 2 || records[1].Line != 3 {
		t.Errorf("Line numbers = %d, %d, want 2, 3", records[0].Line, records[1].Line)
	}
	if records[0].File != "lines.csv" {
		t.Errorf("File = %q, want lines.csv", records[0].File)
	}
}

func TestCanParse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name   string
		path   string
		header string
		want   bool
	}{
		{"spiir export", "primary_2024.csv", Header + "\n\"x\";...", true},
		{"spiir export with BOM", "primary_2024.csv", "\xEF\xBB\xBF" + Header + "\n", true},
		{"spiir export with CRLF", "primary_2024.csv", Header + "\r\n", true},
		{"wrong extension", "primary_2024.txt", Header + "\n", false},
		{"foreign csv", "other.csv", "Date,Amount,Description\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CanParse(tt.path, []byte(tt.header)); got != tt.want {
				t.Errorf("CanParse(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// Parsers share no mutable state, so one instance can serve several files at
// once. Run with -race to catch regressions in the folding helpers.
func TestParse_ConcurrentUse(t *testing.T) {
	p := NewParser()
	input := Header + "\n" + row(t, map[int]string{colDescription: "Café Sønderborg"}) + "\n"

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := p.Parse(strings.NewReader(input), "concurrent.csv")
			if err != nil {
				t.Errorf("Parse() error = %v", err)
				return
			}
			if records[0].Description != "café sønderborg" {
				t.Errorf("Description = %q, want %q", records[0].Description, "café sønderborg")
			}
		}()
	}
	wg.Wait()
}
