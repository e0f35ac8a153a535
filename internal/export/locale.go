package export

// Locale selects the header language for tabular files. Cell values are
// never localized, only the header row.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleIT Locale = "it"
)

// ParseLocale normalizes a requested locale, defaulting to English for
// anything unknown.
func ParseLocale(s string) Locale {
	if Locale(s) == LocaleIT {
		return LocaleIT
	}
	return LocaleEN
}

// reportHeaders is the column order of the session export file.
var reportHeaders = map[Locale][]string{
	LocaleEN: {"Code", "Description", "Batch", "Expiry", "Location", "Quantity", "Price", "Total"},
	LocaleIT: {"Codice", "Descrizione", "Lotto", "Scadenza", "Ubicazione", "Quantità", "Prezzo", "Totale"},
}

// productHeaders is the expected column order of a product import file.
var productHeaders = map[Locale][]string{
	LocaleEN: {"Code", "Description", "Group", "Unit", "Origin", "Currency", "Price", "Batch", "Enabled"},
	LocaleIT: {"Codice", "Descrizione", "Gruppo", "Unità", "Origine", "Valuta", "Prezzo", "Lotto", "Abilitato"},
}

// baselineHeaders is the expected column order of a baseline import file.
var baselineHeaders = map[Locale][]string{
	LocaleEN: {"Code", "Batch", "Expiry", "Quantity"},
	LocaleIT: {"Codice", "Lotto", "Scadenza", "Quantità"},
}

// totalLabel captions the trailing total row of the session export.
var totalLabel = map[Locale]string{
	LocaleEN: "Total",
	LocaleIT: "Totale",
}
