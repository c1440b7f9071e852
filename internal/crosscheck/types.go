package crosscheck

import (
	"github.com/tradedesk/tradecheck/internal/canonical"
)

// FindingID identifies one entry of the fixed check taxonomy.
type FindingID string

const (
	FindingIncoterms     FindingID = "INCOTERMS_MISMATCH"
	FindingPaymentMethod FindingID = "PAYMENT_METHOD_MISMATCH"
	FindingCurrency      FindingID = "CURRENCY_MISMATCH"
	FindingBuyerName     FindingID = "BUYER_NAME_MISMATCH"
	FindingAddress       FindingID = "ADDRESS_MISMATCH"
	FindingLeadTime      FindingID = "LEAD_TIME_MISMATCH"
	FindingDestination   FindingID = "DESTINATION_MISMATCH"
	FindingQuantity      FindingID = "QTY_MISMATCH"
	FindingPrice         FindingID = "PRICE_MISMATCH"
	FindingTotals        FindingID = "TOTALS_MISMATCH"
	FindingLineAmount    FindingID = "LINE_AMOUNT_INTEGRITY"
	FindingGrandTotal    FindingID = "GRAND_TOTAL_INTEGRITY"
)

// Severity classifies how badly a finding blocks the deal.
type Severity string

const (
	SeverityBlocking Severity = "BLOCKING"
	SeverityWarning  Severity = "WARNING"
	SeverityOK       Severity = "OK"
)

// SeverityByFinding is the static severity rule: legal, financial and
// identity checks block; logistics timing and destination checks warn.
var SeverityByFinding = map[FindingID]Severity{
	FindingIncoterms:     SeverityBlocking,
	FindingPaymentMethod: SeverityBlocking,
	FindingCurrency:      SeverityBlocking,
	FindingBuyerName:     SeverityBlocking,
	FindingAddress:       SeverityWarning,
	FindingLeadTime:      SeverityWarning,
	FindingDestination:   SeverityWarning,
	FindingQuantity:      SeverityBlocking,
	FindingPrice:         SeverityBlocking,
	FindingTotals:        SeverityBlocking,
	FindingLineAmount:    SeverityBlocking,
	FindingGrandTotal:    SeverityBlocking,
}

// ObservedValue is one document's value for the disputed field.
type ObservedValue struct {
	Doc   canonical.DocumentKind `json:"doc"`
	Value string                 `json:"value"`
}

// Finding is one detected disagreement. Findings are immutable value
// objects, regenerated on every detection pass.
type Finding struct {
	ID          FindingID       `json:"id"`
	FieldPath   string          `json:"field_path"`
	Severity    Severity        `json:"severity"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Impact      string          `json:"impact"`
	Observed    []ObservedValue `json:"observed"`
	Recommended string          `json:"recommended,omitempty"`
	FixActions  []string        `json:"fix_actions,omitempty"`
}

// ItemStatus classifies one SKU row of the item diff.
type ItemStatus string

const (
	ItemOK       ItemStatus = "OK"
	ItemMissing  ItemStatus = "MISSING"
	ItemMismatch ItemStatus = "MISMATCH"
)

// ItemCell is one document's view of a SKU.
type ItemCell struct {
	Present   bool     `json:"present"`
	Quantity  *float64 `json:"quantity,omitempty"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
}

// ItemDiffRow compares one SKU across the documents that carry item rows.
type ItemDiffRow struct {
	SKU    string                              `json:"sku"`
	Status ItemStatus                          `json:"status"`
	Docs   map[canonical.DocumentKind]ItemCell `json:"docs"`
}

// TotalsDiff reconciles quotation and invoice money summaries. Statuses are
// "OK", "MISMATCH", or "N/A" when either side is missing.
type TotalsDiff struct {
	SubtotalStatus string                              `json:"subtotal_status"`
	TotalStatus    string                              `json:"total_status"`
	Subtotals      map[canonical.DocumentKind]*float64 `json:"subtotals,omitempty"`
	GrandTotals    map[canonical.DocumentKind]*float64 `json:"grand_totals,omitempty"`
}

// MissingDoc suggests producing a document kind absent from the set.
type MissingDoc struct {
	Kind       canonical.DocumentKind `json:"kind"`
	Suggestion string                 `json:"suggestion"`
}

// Summary carries the counters and the readiness score of one pass.
type Summary struct {
	BlockingCount int `json:"blocking_count"`
	WarningCount  int `json:"warning_count"`
	OKCount       int `json:"ok_count"`
	Score         int `json:"score"`
}

// Result is the full output of one detection pass.
type Result struct {
	Summary     Summary       `json:"summary"`
	Findings    []Finding     `json:"findings"`
	MissingDocs []MissingDoc  `json:"missing_docs,omitempty"`
	ItemDiff    []ItemDiffRow `json:"item_diff,omitempty"`
	TotalsDiff  TotalsDiff    `json:"totals_diff"`
}

// Finding returns the finding with the given id, or nil.
func (r Result) Finding(id FindingID) *Finding {
	for i := range r.Findings {
		if r.Findings[i].ID == id {
			return &r.Findings[i]
		}
	}
	return nil
}

// BlockingFindings returns the blocking findings in detection order.
func (r Result) BlockingFindings() []Finding {
	out := make([]Finding, 0, len(r.Findings))
	for _, f := range r.Findings {
		if f.Severity == SeverityBlocking {
			out = append(out, f)
		}
	}
	return out
}

// GroupBySeverity buckets findings by severity.
func GroupBySeverity(findings []Finding) map[Severity][]Finding {
	grouped := make(map[Severity][]Finding)
	for _, f := range findings {
		grouped[f.Severity] = append(grouped[f.Severity], f)
	}
	return grouped
}

// SeverityOrder ranks severities for sorting, highest first.
func SeverityOrder(s Severity) int {
	switch s {
	case SeverityBlocking:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}
