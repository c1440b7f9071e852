package crosscheck

import (
	"strings"

	"github.com/tradedesk/tradecheck/internal/canonical"
)

// CheckCount is the fixed number of checks one detection pass performs:
// the scalar checks below plus item quantity, item unit price, totals
// reconciliation, and the two internal-consistency invariants.
var CheckCount = len(scalarChecks) + 5

// ScalarCheck compares one canonical field across all documents that define
// it. Get reports the document's value and whether it is defined. Set writes
// a literal value; Copy transfers the underlying (possibly composite) field
// from one document to another. Set is nil where a literal string cannot
// faithfully round-trip the field.
type ScalarCheck struct {
	ID        FindingID
	FieldPath string
	Title     string
	Impact    string
	Get       func(f *canonical.Fields) (string, bool)
	Set       func(f *canonical.Fields, v string)
	Copy      func(dst, src *canonical.Fields)
}

var scalarChecks = []ScalarCheck{
	{
		ID:        FindingIncoterms,
		FieldPath: "terms.incoterms",
		Title:     "Incoterms differ between documents",
		Impact:    "Cost and risk transfer points are ambiguous; customs clearance and insurance obligations may be assigned to the wrong party.",
		Get:       func(f *canonical.Fields) (string, bool) { return defined(f.Terms.Incoterms) },
		Set:       func(f *canonical.Fields, v string) { f.Terms.Incoterms = v },
		Copy:      func(dst, src *canonical.Fields) { dst.Terms.Incoterms = src.Terms.Incoterms },
	},
	{
		ID:        FindingPaymentMethod,
		FieldPath: "terms.payment_method",
		Title:     "Payment method differs between documents",
		Impact:    "The buyer may initiate payment under terms the seller never agreed to; banks may reject the settlement.",
		Get:       func(f *canonical.Fields) (string, bool) { return defined(f.Terms.PaymentMethod) },
		Set:       func(f *canonical.Fields, v string) { f.Terms.PaymentMethod = v },
		Copy:      func(dst, src *canonical.Fields) { dst.Terms.PaymentMethod = src.Terms.PaymentMethod },
	},
	{
		ID:        FindingCurrency,
		FieldPath: "terms.currency",
		Title:     "Settlement currency differs between documents",
		Impact:    "Invoiced amounts are not comparable; payment may arrive in the wrong currency with conversion losses.",
		Get:       func(f *canonical.Fields) (string, bool) { return defined(f.Terms.Currency) },
		Set:       func(f *canonical.Fields, v string) { f.Terms.Currency = v },
		Copy:      func(dst, src *canonical.Fields) { dst.Terms.Currency = src.Terms.Currency },
	},
	{
		ID:        FindingBuyerName,
		FieldPath: "buyer.name",
		Title:     "Buyer name differs between documents",
		Impact:    "Customs and banks match documents by party name; a mismatch can hold the shipment or the payment.",
		Get:       func(f *canonical.Fields) (string, bool) { return defined(f.Buyer.Name) },
		Set:       func(f *canonical.Fields, v string) { f.Buyer.Name = v },
		Copy:      func(dst, src *canonical.Fields) { dst.Buyer.Name = src.Buyer.Name },
	},
	{
		ID:        FindingAddress,
		FieldPath: "buyer.address",
		Title:     "Buyer address differs between documents",
		Impact:    "Deliveries and legal notices may be sent to an outdated address.",
		Get:       func(f *canonical.Fields) (string, bool) { return defined(f.Buyer.Address) },
		Set:       func(f *canonical.Fields, v string) { f.Buyer.Address = v },
		Copy:      func(dst, src *canonical.Fields) { dst.Buyer.Address = src.Buyer.Address },
	},
	{
		ID:        FindingLeadTime,
		FieldPath: "shipment.lead_time",
		Title:     "Lead time differs between documents",
		Impact:    "Production and booking schedules are planned against different dates.",
		Get:       func(f *canonical.Fields) (string, bool) { return defined(f.Shipment.LeadTime) },
		Set:       func(f *canonical.Fields, v string) { f.Shipment.LeadTime = v },
		Copy:      func(dst, src *canonical.Fields) { dst.Shipment.LeadTime = src.Shipment.LeadTime },
	},
	{
		ID:        FindingDestination,
		FieldPath: "shipment.destination",
		Title:     "Destination differs between documents",
		Impact:    "Freight may be booked to the wrong port or city.",
		Get: func(f *canonical.Fields) (string, bool) {
			return defined(joinParts(f.Shipment.DestCountry, f.Shipment.DestCity, f.Shipment.DestPort))
		},
		// Destination is composite (country/city/port); only a structural
		// copy from a source document is faithful.
		Copy: func(dst, src *canonical.Fields) {
			dst.Shipment.DestCountry = src.Shipment.DestCountry
			dst.Shipment.DestCity = src.Shipment.DestCity
			dst.Shipment.DestPort = src.Shipment.DestPort
		},
	},
}

// ScalarCheckByID returns the scalar check definition for a finding id.
func ScalarCheckByID(id FindingID) (ScalarCheck, bool) {
	for _, c := range scalarChecks {
		if c.ID == id {
			return c, true
		}
	}
	return ScalarCheck{}, false
}

// FieldPathByID maps every finding id of the taxonomy to its canonical
// field path.
func FieldPathByID(id FindingID) string {
	if c, ok := ScalarCheckByID(id); ok {
		return c.FieldPath
	}
	switch id {
	case FindingQuantity:
		return "items.quantity"
	case FindingPrice:
		return "items.unit_price"
	case FindingTotals:
		return "totals"
	case FindingLineAmount:
		return "items.amount"
	case FindingGrandTotal:
		return "totals.grand_total"
	}
	return ""
}

func defined(v string) (string, bool) {
	v = strings.TrimSpace(v)
	return v, v != ""
}

func joinParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " / ")
}
