package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tealeg/xlsx/v2"
)

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload(`{"labels":["2025","2026"],"values":[100.5,200.25]}`)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if len(p.Labels) != 2 || p.Labels[0] != "2025" || p.Values[1] != 200.25 {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestParsePayload_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not json", "{nope"},
		{"no labels", `{"labels":[],"values":[]}`},
		{"length mismatch", `{"labels":["2025"],"values":[1,2]}`},
		{"missing values", `{"labels":["2025","2026"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload(tt.input)
			if !errors.Is(err, ErrBadPayload) {
				t.Errorf("expected ErrBadPayload, got %v", err)
			}
		})
	}
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	payload := &Payload{
		Labels: []string{"2025", "2026"},
		Values: []float64{100.5, 200.25},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, payload); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}

	sheet, ok := f.Sheet[SheetName]
	if !ok {
		t.Fatalf("sheet %q not found", SheetName)
	}
	if len(sheet.Rows) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d", len(sheet.Rows))
	}

	header := sheet.Rows[0]
	if header.Cells[0].Value != "Year" || header.Cells[1].Value != "Projected Price (AED)" {
		t.Errorf("unexpected header: %q, %q", header.Cells[0].Value, header.Cells[1].Value)
	}

	for i, want := range payload.Labels {
		row := sheet.Rows[i+1]
		if row.Cells[0].Value != want {
			t.Errorf("row %d year = %q, want %q", i, row.Cells[0].Value, want)
		}
		v, err := row.Cells[1].Float()
		if err != nil {
			t.Fatalf("row %d value: %v", i, err)
		}
		if v != payload.Values[i] {
			t.Errorf("row %d value = %v, want %v", i, v, payload.Values[i])
		}
	}
}
