package crosscheck

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/tradedesk/tradecheck/internal/canonical"
)

// itemKinds are the documents whose item rows must agree. The contract
// describes goods at a coarser grain and is excluded from row comparison.
var itemKinds = []canonical.DocumentKind{
	canonical.KindQuotation,
	canonical.KindCommercialInvoice,
	canonical.KindPackingList,
}

func equalMoney(a, b float64) bool {
	return scalar.EqualWithinAbs(a, b, moneyTolerance)
}

// buildItemDiff compares item rows keyed by SKU across the item-carrying
// documents present in the set. SKU order is first-seen across documents in
// fixed kind order, so the diff is deterministic.
func buildItemDiff(set canonical.DocumentSet) []ItemDiffRow {
	var present []canonical.DocumentKind
	for _, kind := range itemKinds {
		if set.Has(kind) {
			present = append(present, kind)
		}
	}
	if len(present) == 0 {
		return nil
	}

	var skus []string
	seen := make(map[string]struct{})
	for _, kind := range present {
		for _, item := range set[kind].Fields.Items {
			if _, ok := seen[item.SKU]; !ok {
				seen[item.SKU] = struct{}{}
				skus = append(skus, item.SKU)
			}
		}
	}

	rows := make([]ItemDiffRow, 0, len(skus))
	for _, sku := range skus {
		row := ItemDiffRow{
			SKU:  sku,
			Docs: make(map[canonical.DocumentKind]ItemCell, len(present)),
		}
		missing := false
		for _, kind := range present {
			item := set[kind].Fields.Item(sku)
			if item == nil {
				row.Docs[kind] = ItemCell{}
				missing = true
				continue
			}
			row.Docs[kind] = ItemCell{
				Present:   true,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
		}

		switch {
		case missing && len(present) > 1:
			row.Status = ItemMissing
		case cellsDisagree(row.Docs, present, func(c ItemCell) *float64 { return c.Quantity }) ||
			cellsDisagree(row.Docs, present, func(c ItemCell) *float64 { return c.UnitPrice }):
			row.Status = ItemMismatch
		default:
			row.Status = ItemOK
		}
		rows = append(rows, row)
	}
	return rows
}

// cellsDisagree reports whether two documents define different values for
// the selected numeric field. Undefined values (nil) never disagree: the
// packing list carries no prices.
func cellsDisagree(cells map[canonical.DocumentKind]ItemCell, kinds []canonical.DocumentKind, pick func(ItemCell) *float64) bool {
	var ref *float64
	for _, kind := range kinds {
		v := pick(cells[kind])
		if v == nil {
			continue
		}
		if ref == nil {
			ref = v
			continue
		}
		if !equalMoney(*ref, *v) {
			return true
		}
	}
	return false
}

func quantityFinding(rows []ItemDiffRow) (Finding, bool) {
	return itemFinding(rows, FindingQuantity,
		"Quantities differ between documents",
		"Shipped quantity will not match the invoiced or quoted quantity; customs values and payment amounts drift apart.",
		func(c ItemCell) *float64 { return c.Quantity })
}

func priceFinding(rows []ItemDiffRow) (Finding, bool) {
	return itemFinding(rows, FindingPrice,
		"Unit prices differ between documents",
		"The invoiced amount will not match the agreed price; the buyer may under- or over-pay.",
		func(c ItemCell) *float64 { return c.UnitPrice })
}

func itemFinding(rows []ItemDiffRow, id FindingID, title, impact string, pick func(ItemCell) *float64) (Finding, bool) {
	// Per-document aggregate of the disputed SKU values, e.g. "SKU001=480".
	perDoc := make(map[canonical.DocumentKind][]string)
	for _, row := range rows {
		if row.Status != ItemMismatch {
			continue
		}
		kinds := presentKinds(row.Docs)
		if !cellsDisagree(row.Docs, kinds, pick) {
			continue
		}
		for _, kind := range kinds {
			if v := pick(row.Docs[kind]); v != nil {
				perDoc[kind] = append(perDoc[kind], fmt.Sprintf("%s=%s", row.SKU, canonical.FormatNumber(*v)))
			}
		}
	}
	if len(perDoc) == 0 {
		return Finding{}, false
	}

	var observed []ObservedValue
	for _, kind := range itemKinds {
		if vals, ok := perDoc[kind]; ok {
			observed = append(observed, ObservedValue{Doc: kind, Value: strings.Join(vals, "; ")})
		}
	}
	if distinctValues(observed) < 2 {
		return Finding{}, false
	}
	return Finding{
		ID:          id,
		FieldPath:   FieldPathByID(id),
		Severity:    SeverityByFinding[id],
		Title:       title,
		Description: describeObserved(observed),
		Impact:      impact,
		Observed:    observed,
		FixActions:  unifyActions(observed),
	}, true
}

func presentKinds(cells map[canonical.DocumentKind]ItemCell) []canonical.DocumentKind {
	var kinds []canonical.DocumentKind
	for _, kind := range itemKinds {
		if cells[kind].Present {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// buildTotalsDiff reconciles subtotal and grand total between quotation and
// commercial invoice, the two documents whose totals must agree for payment.
func buildTotalsDiff(set canonical.DocumentSet) TotalsDiff {
	td := TotalsDiff{SubtotalStatus: "N/A", TotalStatus: "N/A"}
	q := set.Get(canonical.KindQuotation)
	inv := set.Get(canonical.KindCommercialInvoice)
	if q == nil || inv == nil {
		return td
	}

	td.Subtotals = map[canonical.DocumentKind]*float64{
		canonical.KindQuotation:         q.Fields.Totals.Subtotal,
		canonical.KindCommercialInvoice: inv.Fields.Totals.Subtotal,
	}
	td.GrandTotals = map[canonical.DocumentKind]*float64{
		canonical.KindQuotation:         q.Fields.Totals.GrandTotal,
		canonical.KindCommercialInvoice: inv.Fields.Totals.GrandTotal,
	}

	td.SubtotalStatus = compareMoney(q.Fields.Totals.Subtotal, inv.Fields.Totals.Subtotal)
	td.TotalStatus = compareMoney(q.Fields.Totals.GrandTotal, inv.Fields.Totals.GrandTotal)
	return td
}

func compareMoney(a, b *float64) string {
	if a == nil || b == nil {
		return "N/A"
	}
	if equalMoney(*a, *b) {
		return "OK"
	}
	return "MISMATCH"
}

func totalsFinding(td TotalsDiff) (Finding, bool) {
	if td.SubtotalStatus != "MISMATCH" && td.TotalStatus != "MISMATCH" {
		return Finding{}, false
	}

	// Report grand totals when they disagree, otherwise the subtotals.
	source := td.GrandTotals
	if td.TotalStatus != "MISMATCH" {
		source = td.Subtotals
	}
	var observed []ObservedValue
	for _, kind := range []canonical.DocumentKind{canonical.KindQuotation, canonical.KindCommercialInvoice} {
		if v := source[kind]; v != nil {
			observed = append(observed, ObservedValue{Doc: kind, Value: canonical.FormatNumber(*v)})
		}
	}

	return Finding{
		ID:          FindingTotals,
		FieldPath:   FieldPathByID(FindingTotals),
		Severity:    SeverityByFinding[FindingTotals],
		Title:       "Totals do not reconcile between quotation and invoice",
		Description: describeObserved(observed),
		Impact:      "The payable amount is ambiguous; the remittance will not match at least one document.",
		Observed:    observed,
		FixActions:  unifyActions(observed),
	}, true
}

func lineAmountFinding(set canonical.DocumentSet) (Finding, bool) {
	var observed []ObservedValue
	for _, kind := range set.Kinds() {
		var violations []string
		for _, item := range set[kind].Fields.Items {
			if item.Quantity == nil || item.UnitPrice == nil || item.Amount == nil {
				continue
			}
			expected := *item.Quantity * *item.UnitPrice
			if !equalMoney(*item.Amount, expected) {
				violations = append(violations, fmt.Sprintf("%s: amount %s, expected %s",
					item.SKU, canonical.FormatNumber(*item.Amount), canonical.FormatNumber(expected)))
			}
		}
		if len(violations) > 0 {
			observed = append(observed, ObservedValue{Doc: kind, Value: strings.Join(violations, "; ")})
		}
	}
	if len(observed) == 0 {
		return Finding{}, false
	}
	return Finding{
		ID:          FindingLineAmount,
		FieldPath:   FieldPathByID(FindingLineAmount),
		Severity:    SeverityByFinding[FindingLineAmount],
		Title:       "Line amounts do not equal quantity × unit price",
		Description: describeObserved(observed),
		Impact:      "The document's own arithmetic is wrong; every downstream total inherits the error.",
		Observed:    observed,
		FixActions:  []string{"Recalculate line amounts as quantity × unit price"},
	}, true
}

func grandTotalFinding(set canonical.DocumentSet) (Finding, bool) {
	var observed []ObservedValue
	for _, kind := range set.Kinds() {
		t := set[kind].Fields.Totals
		if t.Subtotal == nil || t.GrandTotal == nil {
			continue
		}
		expected := *t.Subtotal + deref(t.Shipping) + deref(t.Insurance)
		if !equalMoney(*t.GrandTotal, expected) {
			observed = append(observed, ObservedValue{
				Doc: kind,
				Value: fmt.Sprintf("grand total %s, expected %s",
					canonical.FormatNumber(*t.GrandTotal), canonical.FormatNumber(expected)),
			})
		}
	}
	if len(observed) == 0 {
		return Finding{}, false
	}
	return Finding{
		ID:          FindingGrandTotal,
		FieldPath:   FieldPathByID(FindingGrandTotal),
		Severity:    SeverityByFinding[FindingGrandTotal],
		Title:       "Grand total does not equal subtotal + shipping + insurance",
		Description: describeObserved(observed),
		Impact:      "The payable amount printed on the document is not the sum of its parts.",
		Observed:    observed,
		FixActions:  []string{"Recalculate the grand total as subtotal + shipping + insurance"},
	}, true
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
