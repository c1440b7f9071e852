package crosscheck

import (
	"fmt"
	"strings"

	"github.com/tradedesk/tradecheck/internal/canonical"
)

// moneyTolerance is the absolute tolerance for money and quantity
// comparisons, below half a cent.
const moneyTolerance = 0.005

// Detect runs the fixed check list against the document set. It is pure and
// deterministic: the same set always yields the same result, in the same
// order. An empty or single-document set yields zero cross-document
// findings; that is a normal state, not an error.
func Detect(set canonical.DocumentSet) Result {
	var res Result

	for _, check := range scalarChecks {
		if f, ok := runScalarCheck(check, set); ok {
			res.Findings = append(res.Findings, f)
		}
	}

	res.ItemDiff = buildItemDiff(set)
	if f, ok := quantityFinding(res.ItemDiff); ok {
		res.Findings = append(res.Findings, f)
	}
	if f, ok := priceFinding(res.ItemDiff); ok {
		res.Findings = append(res.Findings, f)
	}

	res.TotalsDiff = buildTotalsDiff(set)
	if f, ok := totalsFinding(res.TotalsDiff); ok {
		res.Findings = append(res.Findings, f)
	}

	if f, ok := lineAmountFinding(set); ok {
		res.Findings = append(res.Findings, f)
	}
	if f, ok := grandTotalFinding(set); ok {
		res.Findings = append(res.Findings, f)
	}

	res.MissingDocs = missingDocs(set)
	res.Summary = summarize(res.Findings)
	return res
}

func runScalarCheck(check ScalarCheck, set canonical.DocumentSet) (Finding, bool) {
	var observed []ObservedValue
	for _, kind := range set.Kinds() {
		if v, ok := check.Get(&set[kind].Fields); ok {
			observed = append(observed, ObservedValue{Doc: kind, Value: v})
		}
	}
	if distinctValues(observed) < 2 {
		return Finding{}, false
	}
	return Finding{
		ID:          check.ID,
		FieldPath:   check.FieldPath,
		Severity:    SeverityByFinding[check.ID],
		Title:       check.Title,
		Description: describeObserved(observed),
		Impact:      check.Impact,
		Observed:    observed,
		FixActions:  unifyActions(observed),
	}, true
}

// distinctValues counts distinct observed values, verbatim for strings.
// Numeric fields are formatted canonically before they get here, so numbers
// compare by value.
func distinctValues(observed []ObservedValue) int {
	seen := make(map[string]struct{}, len(observed))
	for _, o := range observed {
		seen[o.Value] = struct{}{}
	}
	return len(seen)
}

func describeObserved(observed []ObservedValue) string {
	parts := make([]string, len(observed))
	for i, o := range observed {
		parts[i] = fmt.Sprintf("%s: %s", o.Doc, o.Value)
	}
	return "Documents disagree — " + strings.Join(parts, "; ")
}

func unifyActions(observed []ObservedValue) []string {
	actions := make([]string, len(observed))
	for i, o := range observed {
		actions[i] = fmt.Sprintf("Unify all documents to the %s value (%s)", o.Doc, o.Value)
	}
	return actions
}

// missingDocs reports the critical document kinds absent from the set.
// These are suggestions, not findings: they do not lower the score.
func missingDocs(set canonical.DocumentSet) []MissingDoc {
	var out []MissingDoc
	if !set.Has(canonical.KindCommercialInvoice) {
		out = append(out, MissingDoc{
			Kind:       canonical.KindCommercialInvoice,
			Suggestion: "No commercial invoice yet. Customs clearance and payment both require one; generate it from the contract once terms are settled.",
		})
	}
	if !set.Has(canonical.KindPackingList) {
		out = append(out, MissingDoc{
			Kind:       canonical.KindPackingList,
			Suggestion: "No packing list yet. The forwarder needs one to book space and the consignee needs it to receive the cargo.",
		})
	}
	return out
}

func summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityBlocking:
			s.BlockingCount++
		case SeverityWarning:
			s.WarningCount++
		}
	}
	s.OKCount = CheckCount - s.BlockingCount - s.WarningCount
	s.Score = 100 - 12*s.BlockingCount - 4*s.WarningCount
	if s.Score < 0 {
		s.Score = 0
	}
	return s
}
