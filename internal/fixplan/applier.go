package fixplan

import (
	"fmt"
	"strconv"

	"github.com/tradedesk/tradecheck/internal/canonical"
	"github.com/tradedesk/tradecheck/internal/crosscheck"
	"github.com/tradedesk/tradecheck/internal/diagnosis"
)

// FieldChange records one concrete document edit made by a fix.
type FieldChange struct {
	Doc   canonical.DocumentKind `json:"doc"`
	Field string                 `json:"field"`
	Old   string                 `json:"old"`
	New   string                 `json:"new"`
}

// ApplyResult reports one fix application. Applied is false for stale
// targets: a finding id absent from a fresh detection pass is a no-op, not
// an error.
type ApplyResult struct {
	Applied      bool                     `json:"applied"`
	FindingID    crosscheck.FindingID     `json:"finding_id"`
	UpdatedKinds []canonical.DocumentKind `json:"updated_document_kinds,omitempty"`
	NewSet       canonical.DocumentSet    `json:"-"`
	Changes      []FieldChange            `json:"changes,omitempty"`
}

// BulkResult reports a full blocking-fix sweep.
type BulkResult struct {
	AppliedCount int                      `json:"applied_count"`
	UpdatedKinds []canonical.DocumentKind `json:"updated_document_kinds,omitempty"`
	NewSet       canonical.DocumentSet    `json:"-"`
	Changes      []FieldChange            `json:"changes,omitempty"`
}

// ApplyFix propagates the chosen value for one finding into every document
// that defines the affected field, producing a new version-incremented
// document set. The input set is never mutated. Detection is re-run
// internally, so a fix against a finding that no longer exists degrades to
// a no-op.
func ApplyFix(set canonical.DocumentSet, findingID crosscheck.FindingID, chosenValue string) ApplyResult {
	result := crosscheck.Detect(set)
	finding := result.Finding(findingID)
	if finding == nil {
		return ApplyResult{FindingID: findingID, NewSet: set}
	}

	clone := set.Clone()
	var changes []FieldChange

	switch findingID {
	case crosscheck.FindingQuantity:
		changes = applyItemFix(set, clone, *finding, chosenValue, itemQuantity)
	case crosscheck.FindingPrice:
		changes = applyItemFix(set, clone, *finding, chosenValue, itemUnitPrice)
	case crosscheck.FindingTotals:
		changes = applyTotalsFix(set, clone, *finding, chosenValue)
	case crosscheck.FindingLineAmount:
		changes = recomputeLineAmounts(clone)
	case crosscheck.FindingGrandTotal:
		changes = recomputeGrandTotals(clone)
	default:
		changes = applyScalarFix(set, clone, *finding, chosenValue)
	}

	if len(changes) == 0 {
		return ApplyResult{FindingID: findingID, NewSet: set}
	}

	updated := bumpVersions(clone, changes)
	return ApplyResult{
		Applied:      true,
		FindingID:    findingID,
		UpdatedKinds: updated,
		NewSet:       clone,
		Changes:      changes,
	}
}

// ApplyAllBlockingFixes applies the diagnosed recommendation for every
// blocking finding, in detection order, each against the progressively
// updated set so later fixes observe earlier ones. Re-running the sweep on
// its own output applies nothing: a unified set reports no findings for the
// already-fixed fields.
func ApplyAllBlockingFixes(set canonical.DocumentSet) BulkResult {
	bulk := BulkResult{NewSet: set}
	updated := make(map[canonical.DocumentKind]struct{})

	for _, initial := range crosscheck.Detect(set).BlockingFindings() {
		// Earlier fixes may have resolved this finding already.
		current := crosscheck.Detect(bulk.NewSet).Finding(initial.ID)
		if current == nil {
			continue
		}
		diag := diagnosis.Diagnose(*current, bulk.NewSet)
		r := ApplyFix(bulk.NewSet, current.ID, diag.Resolution.Value)
		if !r.Applied {
			continue
		}
		bulk.NewSet = r.NewSet
		bulk.AppliedCount++
		bulk.Changes = append(bulk.Changes, r.Changes...)
		for _, kind := range r.UpdatedKinds {
			updated[kind] = struct{}{}
		}
	}

	for _, kind := range canonical.AllKinds {
		if _, ok := updated[kind]; ok {
			bulk.UpdatedKinds = append(bulk.UpdatedKinds, kind)
		}
	}
	return bulk
}

// sourceDoc resolves a chosen value back to the document that observed it.
func sourceDoc(finding crosscheck.Finding, chosenValue string) (canonical.DocumentKind, bool) {
	for _, o := range finding.Observed {
		if o.Value == chosenValue {
			return o.Doc, true
		}
	}
	// Totals options are formatted numbers; accept a numerically equal form.
	if want, err := strconv.ParseFloat(chosenValue, 64); err == nil {
		for _, o := range finding.Observed {
			if got, err := strconv.ParseFloat(o.Value, 64); err == nil && got == want {
				return o.Doc, true
			}
		}
	}
	return "", false
}

func applyScalarFix(orig, clone canonical.DocumentSet, finding crosscheck.Finding, chosenValue string) []FieldChange {
	check, ok := crosscheck.ScalarCheckByID(finding.ID)
	if !ok {
		return nil
	}
	source, hasSource := sourceDoc(finding, chosenValue)

	var changes []FieldChange
	for _, kind := range clone.Kinds() {
		fields := &clone[kind].Fields
		old, defined := check.Get(fields)
		if !defined || old == chosenValue {
			continue
		}
		switch {
		case hasSource && check.Copy != nil:
			check.Copy(fields, &orig[source].Fields)
		case check.Set != nil:
			check.Set(fields, chosenValue)
		default:
			// Composite field with no resolvable source document.
			continue
		}
		now, _ := check.Get(fields)
		changes = append(changes, FieldChange{Doc: kind, Field: check.FieldPath, Old: old, New: now})
	}
	return changes
}

type itemField int

const (
	itemQuantity itemField = iota
	itemUnitPrice
)

// applyItemFix unifies per-SKU quantities or unit prices to the source
// document resolved from the chosen value, then recomputes line amounts so
// the fix cannot introduce an arithmetic finding.
func applyItemFix(orig, clone canonical.DocumentSet, finding crosscheck.Finding, chosenValue string, field itemField) []FieldChange {
	source, ok := sourceDoc(finding, chosenValue)
	if !ok {
		return nil
	}
	src := orig[source]
	if src == nil {
		return nil
	}

	var changes []FieldChange
	for _, kind := range clone.Kinds() {
		if kind == source {
			continue
		}
		for i := range clone[kind].Fields.Items {
			item := &clone[kind].Fields.Items[i]
			srcItem := src.Fields.Item(item.SKU)
			if srcItem == nil {
				continue
			}
			var dst, from **float64
			var path string
			switch field {
			case itemQuantity:
				dst, from = &item.Quantity, &srcItem.Quantity
				path = fmt.Sprintf("items[%s].quantity", item.SKU)
			case itemUnitPrice:
				dst, from = &item.UnitPrice, &srcItem.UnitPrice
				path = fmt.Sprintf("items[%s].unit_price", item.SKU)
			}
			if *from == nil || *dst == nil || **dst == **from {
				continue
			}
			old := canonical.FormatNumber(**dst)
			*dst = canonical.Float(**from)
			changes = append(changes, FieldChange{
				Doc: kind, Field: path, Old: old, New: canonical.FormatNumber(**from),
			})
			changes = append(changes, recomputeAmount(kind, item)...)
		}
	}
	return changes
}

// applyTotalsFix copies the whole totals block from the resolved source so
// subtotal and grand total reconcile together. When the chosen value does
// not match any document, it is applied as a literal grand total and the
// subtotal is rederived to keep the document internally consistent.
func applyTotalsFix(orig, clone canonical.DocumentSet, finding crosscheck.Finding, chosenValue string) []FieldChange {
	targets := []canonical.DocumentKind{canonical.KindQuotation, canonical.KindCommercialInvoice}

	if source, ok := sourceDoc(finding, chosenValue); ok {
		src := orig[source].Fields.Totals
		var changes []FieldChange
		for _, kind := range targets {
			doc := clone.Get(kind)
			if doc == nil || kind == source {
				continue
			}
			changes = append(changes, copyTotals(kind, &doc.Fields.Totals, src)...)
		}
		return changes
	}

	value, err := strconv.ParseFloat(chosenValue, 64)
	if err != nil {
		return nil
	}
	var changes []FieldChange
	for _, kind := range targets {
		doc := clone.Get(kind)
		if doc == nil {
			continue
		}
		t := &doc.Fields.Totals
		if t.GrandTotal == nil || *t.GrandTotal == value {
			continue
		}
		old := canonical.FormatNumber(*t.GrandTotal)
		t.GrandTotal = canonical.Float(value)
		changes = append(changes, FieldChange{Doc: kind, Field: "totals.grand_total", Old: old, New: chosenValue})
		if t.Subtotal != nil {
			oldSub := canonical.FormatNumber(*t.Subtotal)
			sub := value - deref(t.Shipping) - deref(t.Insurance)
			if *t.Subtotal != sub {
				t.Subtotal = canonical.Float(sub)
				changes = append(changes, FieldChange{Doc: kind, Field: "totals.subtotal", Old: oldSub, New: canonical.FormatNumber(sub)})
			}
		}
	}
	return changes
}

func copyTotals(kind canonical.DocumentKind, dst *canonical.Totals, src canonical.Totals) []FieldChange {
	var changes []FieldChange
	set := func(field string, target **float64, from *float64) {
		if from == nil || *target == nil || **target == *from {
			return
		}
		old := canonical.FormatNumber(**target)
		*target = canonical.Float(*from)
		changes = append(changes, FieldChange{Doc: kind, Field: field, Old: old, New: canonical.FormatNumber(*from)})
	}
	set("totals.subtotal", &dst.Subtotal, src.Subtotal)
	set("totals.shipping", &dst.Shipping, src.Shipping)
	set("totals.insurance", &dst.Insurance, src.Insurance)
	set("totals.grand_total", &dst.GrandTotal, src.GrandTotal)
	return changes
}

func recomputeLineAmounts(clone canonical.DocumentSet) []FieldChange {
	var changes []FieldChange
	for _, kind := range clone.Kinds() {
		for i := range clone[kind].Fields.Items {
			changes = append(changes, recomputeAmount(kind, &clone[kind].Fields.Items[i])...)
		}
	}
	return changes
}

func recomputeAmount(kind canonical.DocumentKind, item *canonical.LineItem) []FieldChange {
	if item.Quantity == nil || item.UnitPrice == nil || item.Amount == nil {
		return nil
	}
	expected := *item.Quantity * *item.UnitPrice
	if *item.Amount == expected {
		return nil
	}
	old := canonical.FormatNumber(*item.Amount)
	item.Amount = canonical.Float(expected)
	return []FieldChange{{
		Doc:   kind,
		Field: fmt.Sprintf("items[%s].amount", item.SKU),
		Old:   old,
		New:   canonical.FormatNumber(expected),
	}}
}

func recomputeGrandTotals(clone canonical.DocumentSet) []FieldChange {
	var changes []FieldChange
	for _, kind := range clone.Kinds() {
		t := &clone[kind].Fields.Totals
		if t.Subtotal == nil || t.GrandTotal == nil {
			continue
		}
		expected := *t.Subtotal + deref(t.Shipping) + deref(t.Insurance)
		if *t.GrandTotal == expected {
			continue
		}
		old := canonical.FormatNumber(*t.GrandTotal)
		t.GrandTotal = canonical.Float(expected)
		changes = append(changes, FieldChange{
			Doc: kind, Field: "totals.grand_total", Old: old, New: canonical.FormatNumber(expected),
		})
	}
	return changes
}

func bumpVersions(clone canonical.DocumentSet, changes []FieldChange) []canonical.DocumentKind {
	touched := make(map[canonical.DocumentKind]struct{})
	for _, c := range changes {
		touched[c.Doc] = struct{}{}
	}
	var kinds []canonical.DocumentKind
	for _, kind := range canonical.AllKinds {
		if _, ok := touched[kind]; ok {
			clone[kind].Version++
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
