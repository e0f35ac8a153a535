package export

import (
	"strings"
	"testing"
	"time"

	"stocktake/internal/core"

	"github.com/shopspring/decimal"
)

func TestReadProducts(t *testing.T) {
	input := strings.Join([]string{
		"Code,Description,Group,Unit,Origin,Currency,Price,Batch,Enabled",
		"P001,Widget A,Hardware,unit,IT,EUR,2.50,yes,1",
		"P002,Widget B,,box,,EUR,,,true",
		",Missing code,,,,,,,",
		"P003,Bad price,,,,,abc,,",
		"P004,Bad flag,,,,,1.00,maybe,",
	}, "\n")

	rows, failures, err := NewCSV().ReadProducts(strings.NewReader(input), LocaleEN)
	if err != nil {
		t.Fatalf("ReadProducts failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 good rows, got %d", len(rows))
	}
	if rows[0].Code != "P001" || !rows[0].BatchTracked || !rows[0].Enabled {
		t.Errorf("row P001 parsed wrong: %+v", rows[0])
	}
	if rows[0].Price == nil || !rows[0].Price.Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("expected price 2.50, got %v", rows[0].Price)
	}
	if rows[0].GroupName != "Hardware" {
		t.Errorf("expected group Hardware, got %q", rows[0].GroupName)
	}
	if rows[1].Code != "P002" || rows[1].Price != nil || rows[1].BatchTracked {
		t.Errorf("row P002 parsed wrong: %+v", rows[1])
	}
	if rows[0].Row != 2 || rows[1].Row != 3 {
		t.Errorf("expected rows numbered 2 and 3, got %d and %d", rows[0].Row, rows[1].Row)
	}

	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d: %v", len(failures), failures)
	}
	// Failure rows are 1-indexed including the header.
	wantRows := []int{4, 5, 6}
	for i, f := range failures {
		if f.Row != wantRows[i] {
			t.Errorf("failure %d: expected row %d, got %d (%s)", i, wantRows[i], f.Row, f.Message)
		}
	}
}

func TestReadProducts_ItalianHeaders(t *testing.T) {
	input := strings.Join([]string{
		"Codice,Descrizione,Gruppo,Unità,Origine,Valuta,Prezzo,Lotto,Abilitato",
		"P001,Vite,Ferramenta,pz,IT,EUR,0.10,sì,sì",
	}, "\n")

	rows, failures, err := NewCSV().ReadProducts(strings.NewReader(input), LocaleIT)
	if err != nil {
		t.Fatalf("ReadProducts failed: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if len(rows) != 1 || !rows[0].BatchTracked || !rows[0].Enabled {
		t.Errorf("Italian row parsed wrong: %+v", rows)
	}
}

func TestReadProducts_WrongHeaderFailsFile(t *testing.T) {
	input := "Nope,Description,Group,Unit,Origin,Currency,Price,Batch,Enabled\nP001,,,,,,,,\n"
	_, _, err := NewCSV().ReadProducts(strings.NewReader(input), LocaleEN)
	if err == nil {
		t.Fatal("expected header mismatch to fail the whole file")
	}
}

func TestReadBaselines(t *testing.T) {
	input := strings.Join([]string{
		"Code,Batch,Expiry,Quantity",
		"P001,L42,2027-03-01,12",
		"P002,,,3.5",
		"P003,,31/12/2027,1",
		"P004,,,-2",
	}, "\n")

	rows, failures, err := NewCSV().ReadBaselines(strings.NewReader(input), LocaleEN)
	if err != nil {
		t.Fatalf("ReadBaselines failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 good rows, got %d", len(rows))
	}
	wantExpiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	if rows[0].ProductCode != "P001" || rows[0].Batch != "L42" || !rows[0].ExpiryDate.Equal(wantExpiry) {
		t.Errorf("row P001 parsed wrong: %+v", rows[0])
	}
	if !rows[0].Quantity.Equal(decimal.NewFromInt(12)) {
		t.Errorf("expected quantity 12, got %s", rows[0].Quantity)
	}
	if !rows[1].ExpiryDate.IsZero() {
		t.Errorf("expected empty expiry to stay zero, got %s", rows[1].ExpiryDate)
	}

	if len(failures) != 2 {
		t.Fatalf("expected 2 failures (bad expiry, negative qty), got %v", failures)
	}
	if failures[0].Row != 4 || failures[1].Row != 5 {
		t.Errorf("failure rows wrong: %v", failures)
	}
}

func TestWriteSessionReport(t *testing.T) {
	price := decimal.RequireFromString("2.00")
	report := &core.SessionReport{
		Lines: []core.ReportLine{
			{
				ProductCode:  "P001",
				Description:  "Widget A",
				Batch:        "L1",
				ExpiryDate:   time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC),
				LocationPath: "A1-1-2",
				Quantity:     decimal.NewFromInt(10),
				Price:        &price,
				LineTotal:    decimal.NewFromInt(20),
			},
			{
				ProductCode:  "P002",
				Description:  "=SUM(A1)",
				LocationPath: "A1-2-2",
				Quantity:     decimal.NewFromInt(5),
				LineTotal:    decimal.Zero,
			},
		},
		Total: decimal.NewFromInt(20),
	}

	var buf strings.Builder
	if err := NewCSV().WriteSessionReport(&buf, report, LocaleEN); err != nil {
		t.Fatalf("WriteSessionReport failed: %v", err)
	}

	want := strings.Join([]string{
		"Code,Description,Batch,Expiry,Location,Quantity,Price,Total",
		"P001,Widget A,L1,2027-03-01,A1-1-2,10,2.00,20.00",
		`P002,'=SUM(A1),,,A1-2-2,5,,0.00`,
		"Total,,,,,,,20.00",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("report mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteSessionReport_ItalianHeaders(t *testing.T) {
	var buf strings.Builder
	report := &core.SessionReport{Total: decimal.Zero}
	if err := NewCSV().WriteSessionReport(&buf, report, LocaleIT); err != nil {
		t.Fatalf("WriteSessionReport failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Codice,Descrizione,Lotto,Scadenza,Ubicazione,Quantità,Prezzo,Totale") {
		t.Errorf("expected Italian header, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Totale,,,,,,,0.00") {
		t.Errorf("expected Italian total row, got %q", buf.String())
	}
}

func TestParseLocale(t *testing.T) {
	cases := map[string]Locale{
		"":      LocaleEN,
		"en":    LocaleEN,
		"it":    LocaleIT,
		"de":    LocaleEN,
		"wrong": LocaleEN,
	}
	for in, want := range cases {
		if got := ParseLocale(in); got != want {
			t.Errorf("ParseLocale(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCSVSafe(t *testing.T) {
	cases := map[string]string{
		"plain":    "plain",
		"=SUM(A1)": "'=SUM(A1)",
		"+1":       "'+1",
		"-1":       "'-1",
		"@cmd":     "'@cmd",
		"":         "",
	}
	for in, want := range cases {
		if got := csvSafe(in); got != want {
			t.Errorf("csvSafe(%q) = %q, want %q", in, got, want)
		}
	}
}
