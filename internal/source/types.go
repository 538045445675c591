package source

import "time"

// Canonical column names after header normalization.
const (
	ColDate      = "DATE"
	ColCategory  = "ANONYMIZED_CATEGORY"
	ColBusiness  = "ANONYMIZED_BUSINESS"
	ColQuantity  = "QUANTITY"
	ColUnitPrice = "UNIT_PRICE"

	// Derived columns appended to every loaded dataset.
	ColSalesValue = "SALES_VALUE"
	ColMonthYear  = "MONTH_YEAR"
)

// RequiredColumns must be present in every source file.
var RequiredColumns = []string{ColDate, ColCategory, ColBusiness, ColQuantity, ColUnitPrice}

// Month layouts used by the two dashboards.
const (
	MonthLayoutISO    = "2006-01"  // 2024-03
	MonthLayoutAbbrev = "Jan-2006" // Mar-2024
)

// DefaultDateLayouts are tried in order until one parses.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006, 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// ParseOptions controls type coercion and derived-column rendering.
type ParseOptions struct {
	DateLayouts []string
	MonthLayout string
}

// DefaultParseOptions returns the ISO month layout and the default date grammar.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		DateLayouts: DefaultDateLayouts,
		MonthLayout: MonthLayoutISO,
	}
}

// WithDefaults fills unset fields from DefaultParseOptions.
func (o ParseOptions) WithDefaults() ParseOptions {
	if len(o.DateLayouts) == 0 {
		o.DateLayouts = DefaultDateLayouts
	}
	if o.MonthLayout == "" {
		o.MonthLayout = MonthLayoutISO
	}
	return o
}

// DiscoveredFile is a CSV file found on disk along with its change fingerprint.
type DiscoveredFile struct {
	Path      string
	Name      string
	MtimeNs   int64
	SizeBytes int64
}
