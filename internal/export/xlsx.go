package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx/v2"
)

// SheetName is the single worksheet the export carries.
const SheetName = "Projection"

// ErrBadPayload marks a missing or malformed export payload.
var ErrBadPayload = errors.New("bad export payload")

// Payload is the chart data the client posts back for download.
type Payload struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ParsePayload validates the projection JSON submitted with a download
// request. Presence and matching lengths are all that is checked.
func ParsePayload(s string) (*Payload, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: no data received", ErrBadPayload)
	}

	var p Payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if len(p.Labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrBadPayload)
	}
	if len(p.Labels) != len(p.Values) {
		return nil, fmt.Errorf("%w: %d labels for %d values", ErrBadPayload, len(p.Labels), len(p.Values))
	}
	return &p, nil
}

// WriteXLSX serializes the payload as a single-sheet spreadsheet with a
// header row and one row per year.
func WriteXLSX(w io.Writer, p *Payload) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Year")
	header.AddCell().SetString("Projected Price (AED)")

	for i, label := range p.Labels {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		row.AddCell().SetFloat(p.Values[i])
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
