package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"stocktake/internal/core"

	"github.com/shopspring/decimal"
)

// ExpiryLayout is the wire format for expiry dates in import and export
// files. A zero date renders as the empty cell.
const ExpiryLayout = "2006-01-02"

// RowError is one failed import row. Row numbers are 1-indexed and include
// the header, so the first data row is row 2.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ProductRow is one parsed product import line. The group is carried by
// name; resolution to an id happens against the tenant's groups upstream.
// Row is the 1-indexed file row (header included) for failure reporting.
type ProductRow struct {
	Row          int
	Code         string
	Description  string
	GroupName    string
	Unit         string
	Origin       string
	Currency     string
	Price        *decimal.Decimal
	BatchTracked bool
	Enabled      bool
}

// BaselineRow is one parsed expected-stock line for a session baseline.
type BaselineRow struct {
	Row         int
	ProductCode string
	Batch       string
	ExpiryDate  time.Time
	Quantity    decimal.Decimal
}

// Codec reads and writes the tabular interchange files. The shipped
// implementation is CSV; a spreadsheet format would slot in behind the
// same interface.
type Codec interface {
	ContentType() string
	FileExt() string

	// WriteSessionReport streams the observation report plus a trailing
	// total row.
	WriteSessionReport(w io.Writer, report *core.SessionReport, loc Locale) error

	// ReadProducts parses a product import file. Malformed rows are
	// collected, not fatal; only a broken header fails the whole file.
	ReadProducts(r io.Reader, loc Locale) ([]ProductRow, []RowError, error)

	// ReadBaselines parses an expected-stock file with the same per-row
	// failure semantics as ReadProducts.
	ReadBaselines(r io.Reader, loc Locale) ([]BaselineRow, []RowError, error)
}

type csvCodec struct{}

// NewCSV returns the CSV implementation of Codec.
func NewCSV() Codec {
	return csvCodec{}
}

func (csvCodec) ContentType() string { return "text/csv" }
func (csvCodec) FileExt() string     { return "csv" }

func (csvCodec) WriteSessionReport(w io.Writer, report *core.SessionReport, loc Locale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeaders[loc]); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, line := range report.Lines {
		price := ""
		if line.Price != nil {
			price = line.Price.StringFixed(2)
		}
		rec := []string{
			csvSafe(line.ProductCode),
			csvSafe(line.Description),
			csvSafe(line.Batch),
			formatExpiry(line.ExpiryDate),
			line.LocationPath,
			line.Quantity.String(),
			price,
			line.LineTotal.StringFixed(2),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write report line: %w", err)
		}
	}
	total := []string{totalLabel[loc], "", "", "", "", "", "", report.Total.StringFixed(2)}
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("failed to write report total: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func (csvCodec) ReadProducts(r io.Reader, loc Locale) ([]ProductRow, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(productHeaders[loc])
	cr.TrimLeadingSpace = true

	if err := checkHeader(cr, productHeaders[loc]); err != nil {
		return nil, nil, err
	}

	var (
		rows     []ProductRow
		failures []RowError
	)
	for rowNum := 2; ; rowNum++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failures = append(failures, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		row := ProductRow{
			Row:         rowNum,
			Code:        strings.TrimSpace(rec[0]),
			Description: strings.TrimSpace(rec[1]),
			GroupName:   strings.TrimSpace(rec[2]),
			Unit:        strings.TrimSpace(rec[3]),
			Origin:      strings.TrimSpace(rec[4]),
			Currency:    strings.TrimSpace(rec[5]),
		}
		if row.Code == "" {
			failures = append(failures, RowError{Row: rowNum, Message: "product code required"})
			continue
		}
		if s := strings.TrimSpace(rec[6]); s != "" {
			price, err := decimal.NewFromString(s)
			if err != nil {
				failures = append(failures, RowError{Row: rowNum, Message: fmt.Sprintf("invalid price %q", s)})
				continue
			}
			if price.IsNegative() {
				failures = append(failures, RowError{Row: rowNum, Message: fmt.Sprintf("negative price %s", price)})
				continue
			}
			row.Price = &price
		}
		batchTracked, err := parseFlag(rec[7])
		if err != nil {
			failures = append(failures, RowError{Row: rowNum, Message: fmt.Sprintf("invalid batch flag %q", rec[7])})
			continue
		}
		enabled, err := parseFlag(rec[8])
		if err != nil {
			failures = append(failures, RowError{Row: rowNum, Message: fmt.Sprintf("invalid enabled flag %q", rec[8])})
			continue
		}
		row.BatchTracked = batchTracked
		row.Enabled = enabled
		rows = append(rows, row)
	}
	return rows, failures, nil
}

func (csvCodec) ReadBaselines(r io.Reader, loc Locale) ([]BaselineRow, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(baselineHeaders[loc])
	cr.TrimLeadingSpace = true

	if err := checkHeader(cr, baselineHeaders[loc]); err != nil {
		return nil, nil, err
	}

	var (
		rows     []BaselineRow
		failures []RowError
	)
	for rowNum := 2; ; rowNum++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failures = append(failures, RowError{Row: rowNum, Message: err.Error()})
			continue
		}

		row := BaselineRow{
			Row:         rowNum,
			ProductCode: strings.TrimSpace(rec[0]),
			Batch:       strings.TrimSpace(rec[1]),
		}
		if row.ProductCode == "" {
			failures = append(failures, RowError{Row: rowNum, Message: "product code required"})
			continue
		}
		if s := strings.TrimSpace(rec[2]); s != "" {
			expiry, err := time.Parse(ExpiryLayout, s)
			if err != nil {
				failures = append(failures, RowError{Row: rowNum, Message: fmt.Sprintf("invalid expiry %q", s)})
				continue
			}
			row.ExpiryDate = expiry
		}
		qty, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
		if err != nil {
			failures = append(failures, RowError{Row: rowNum, Message: fmt.Sprintf("invalid quantity %q", rec[3])})
			continue
		}
		if qty.IsNegative() {
			failures = append(failures, RowError{Row: rowNum, Message: fmt.Sprintf("negative quantity %s", qty)})
			continue
		}
		row.Quantity = qty
		rows = append(rows, row)
	}
	return rows, failures, nil
}

// checkHeader consumes the first record and matches it against the expected
// localized header, case-insensitively.
func checkHeader(cr *csv.Reader, want []string) error {
	got, err := cr.Read()
	if err != nil {
		return fmt.Errorf("failed to read header row: %w", err)
	}
	for i := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), want[i]) {
			return fmt.Errorf("header column %d: want %q, got %q", i+1, want[i], got[i])
		}
	}
	return nil
}

// parseFlag reads a boolean cell. The empty cell means false.
func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no":
		return false, nil
	case "1", "true", "yes", "si", "sì":
		return true, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ExpiryLayout)
}

// csvSafe prevents CSV formula injection by prefixing cells that begin with
// a formula-triggering character with a single quote.
func csvSafe(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
