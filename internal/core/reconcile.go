package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ComputeLineTotal values one observation: price × quantity, zero when the
// product carries no price.
func ComputeLineTotal(price *decimal.Decimal, quantity decimal.Decimal) decimal.Decimal {
	if price == nil {
		return decimal.Zero
	}
	return price.Mul(quantity)
}

// LocationPath renders a location as "{aisleCode}-{column}-{row}" for export.
func LocationPath(aisleCode string, col, row int) string {
	return fmt.Sprintf("%s-%d-%d", aisleCode, col, row)
}

// ReportLine is one observation prepared for export, with its resolved
// product and rendered location path.
type ReportLine struct {
	ProductCode  string           `json:"product_code"`
	Description  string           `json:"description"`
	Unit         string           `json:"unit"`
	Batch        string           `json:"batch,omitempty"`
	ExpiryDate   time.Time        `json:"expiry_date,omitempty"`
	LocationPath string           `json:"location"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Currency     string           `json:"currency"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	LineTotal    decimal.Decimal  `json:"line_total"`
}

// SessionReport is the export view of a session: one row per observation
// plus the flat monetary total.
type SessionReport struct {
	Stocktaking Stocktaking     `json:"stocktaking"`
	Lines       []ReportLine    `json:"lines"`
	Total       decimal.Decimal `json:"total"`
}

// SumLineTotals returns the flat sum of the report's line totals.
func SumLineTotals(lines []ReportLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

// varianceKey matches observations to baseline rows: product, batch and
// expiry, location deliberately excluded (baseline stock is not
// location-specific).
type varianceKey struct {
	ProductID int
	Batch     string
	Expiry    time.Time
}

// VarianceLine is one reconciliation result row.
// Variance = observed − expected: positive is surplus, negative is missing.
type VarianceLine struct {
	ProductID   int             `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Batch       string          `json:"batch,omitempty"`
	ExpiryDate  time.Time       `json:"expiry_date,omitempty"`
	Observed    decimal.Decimal `json:"observed"`
	Expected    decimal.Decimal `json:"expected"`
	Variance    decimal.Decimal `json:"variance"`
}

// ComputeVariance reconciles accumulated observations against an imported
// baseline. Observations are summed per (product, batch, expiry) across all
// locations first. Matched keys yield observed − expected; baseline rows
// never observed are fully missing; observed keys absent from the baseline
// are fully surplus. productCodes maps product id to code for reporting.
func ComputeVariance(observations []Observation, baselines []Baseline, productCodes map[int]string) []VarianceLine {
	observed := make(map[varianceKey]decimal.Decimal)
	for _, o := range observations {
		k := varianceKey{ProductID: o.ProductID, Batch: o.Batch, Expiry: o.ExpiryDate}
		observed[k] = observed[k].Add(o.Quantity)
	}

	expected := make(map[varianceKey]decimal.Decimal)
	for _, b := range baselines {
		k := varianceKey{ProductID: b.ProductID, Batch: b.Batch, Expiry: b.ExpiryDate}
		expected[k] = b.ExpectedQty
	}

	keys := make(map[varianceKey]bool, len(observed)+len(expected))
	for k := range observed {
		keys[k] = true
	}
	for k := range expected {
		keys[k] = true
	}

	lines := make([]VarianceLine, 0, len(keys))
	for k := range keys {
		obs := observed[k]
		exp := expected[k]
		lines = append(lines, VarianceLine{
			ProductID:   k.ProductID,
			ProductCode: productCodes[k.ProductID],
			Batch:       k.Batch,
			ExpiryDate:  k.Expiry,
			Observed:    obs,
			Expected:    exp,
			Variance:    obs.Sub(exp),
		})
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductCode != lines[j].ProductCode {
			return lines[i].ProductCode < lines[j].ProductCode
		}
		if lines[i].Batch != lines[j].Batch {
			return lines[i].Batch < lines[j].Batch
		}
		return lines[i].ExpiryDate.Before(lines[j].ExpiryDate)
	})
	return lines
}
