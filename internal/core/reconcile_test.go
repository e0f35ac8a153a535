package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestComputeLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    *decimal.Decimal
		quantity decimal.Decimal
		want     string
	}{
		{"priced product", decPtr(10), decimal.NewFromInt(2), "20"},
		{"fractional price", decPtr(2.5), decimal.NewFromInt(3), "7.5"},
		{"no price counts as zero", nil, decimal.NewFromInt(99), "0"},
		{"zero quantity", decPtr(10), decimal.Zero, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLineTotal(tt.price, tt.quantity)
			if got.String() != tt.want {
				t.Errorf("ComputeLineTotal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSumLineTotals(t *testing.T) {
	// (price=10, qty=2) + (price=5, qty=3) = 35
	lines := []ReportLine{
		{Quantity: decimal.NewFromInt(2), Price: decPtr(10), LineTotal: ComputeLineTotal(decPtr(10), decimal.NewFromInt(2))},
		{Quantity: decimal.NewFromInt(3), Price: decPtr(5), LineTotal: ComputeLineTotal(decPtr(5), decimal.NewFromInt(3))},
	}
	if got := SumLineTotals(lines); !got.Equal(decimal.NewFromInt(35)) {
		t.Errorf("session total = %s, want 35", got)
	}
}

func TestLocationPath(t *testing.T) {
	if got := LocationPath("A1", 3, 7); got != "A1-3-7" {
		t.Errorf("LocationPath = %q, want A1-3-7", got)
	}
}

func TestComputeVariance(t *testing.T) {
	expiry := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	codes := map[int]string{1: "P001", 2: "P002", 3: "P003"}

	observations := []Observation{
		// P001 counted at two locations: 4 + 6 = 10 observed
		{ProductID: 1, LocationID: 11, Quantity: decimal.NewFromInt(4)},
		{ProductID: 1, LocationID: 12, Quantity: decimal.NewFromInt(6)},
		// P002 with a batch and expiry
		{ProductID: 2, LocationID: 11, Batch: "B42", ExpiryDate: expiry, Quantity: decimal.NewFromInt(5)},
		// P003 observed but absent from the baseline: fully surplus
		{ProductID: 3, LocationID: 13, Quantity: decimal.NewFromInt(2)},
	}
	baselines := []Baseline{
		{ProductID: 1, ExpectedQty: decimal.NewFromInt(12)},
		{ProductID: 2, Batch: "B42", ExpiryDate: expiry, ExpectedQty: decimal.NewFromInt(5)},
		// Never observed: fully missing
		{ProductID: 2, Batch: "B43", ExpiryDate: expiry, ExpectedQty: decimal.NewFromInt(8)},
	}

	lines := ComputeVariance(observations, baselines, codes)
	if len(lines) != 4 {
		t.Fatalf("expected 4 variance lines, got %d: %+v", len(lines), lines)
	}

	byKey := make(map[string]VarianceLine)
	for _, l := range lines {
		byKey[l.ProductCode+"/"+l.Batch] = l
	}

	if l := byKey["P001/"]; !l.Variance.Equal(decimal.NewFromInt(-2)) {
		t.Errorf("P001 variance = %s, want -2 (observed 10 across locations, expected 12)", l.Variance)
	}
	if l := byKey["P002/B42"]; !l.Variance.IsZero() {
		t.Errorf("P002/B42 variance = %s, want 0", l.Variance)
	}
	if l := byKey["P002/B43"]; !l.Variance.Equal(decimal.NewFromInt(-8)) || !l.Observed.IsZero() {
		t.Errorf("P002/B43 = %+v, want fully missing (variance -8)", l)
	}
	if l := byKey["P003/"]; !l.Variance.Equal(decimal.NewFromInt(2)) || !l.Expected.IsZero() {
		t.Errorf("P003 = %+v, want fully surplus (variance +2)", l)
	}
}

func TestComputeVariance_SortedOutput(t *testing.T) {
	codes := map[int]string{1: "B", 2: "A"}
	lines := ComputeVariance(
		[]Observation{
			{ProductID: 1, Quantity: decimal.NewFromInt(1)},
			{ProductID: 2, Quantity: decimal.NewFromInt(1)},
			{ProductID: 2, Batch: "Z", Quantity: decimal.NewFromInt(1)},
		},
		nil, codes,
	)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	order := []string{"A/", "A/Z", "B/"}
	for i, want := range order {
		got := lines[i].ProductCode + "/" + lines[i].Batch
		if got != want {
			t.Errorf("line %d = %s, want %s", i, got, want)
		}
	}
}

func TestComputeVariance_Empty(t *testing.T) {
	if lines := ComputeVariance(nil, nil, nil); len(lines) != 0 {
		t.Errorf("expected no variance lines, got %d", len(lines))
	}
}
