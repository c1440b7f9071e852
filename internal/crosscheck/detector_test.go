package crosscheck

import (
	"reflect"
	"testing"

	"github.com/tradedesk/tradecheck/internal/canonical"
)

// consistentSet builds a four-document set with no disagreements: two SKUs,
// reconciled totals, identical terms everywhere a document defines them.
func consistentSet() canonical.DocumentSet {
	baseFields := func() canonical.Fields {
		return canonical.Fields{
			Buyer: canonical.Party{
				Name:    "Acme Imports LLC",
				Address: "100 Harbor Blvd, Los Angeles",
			},
			Seller: canonical.Party{Name: "Hanbit Trading Co."},
			Terms: canonical.Terms{
				Incoterms:     "FOB",
				PaymentMethod: "T/T",
				Currency:      "USD",
			},
			Shipment: canonical.Shipment{
				DestCountry: "US",
				DestCity:    "Los Angeles",
				DestPort:    "Long Beach",
				LeadTime:    "30 days",
			},
		}
	}
	items := func(withPrices bool) []canonical.LineItem {
		rows := []canonical.LineItem{
			{SKU: "SKU001", Name: "Widget", Quantity: canonical.Float(500)},
			{SKU: "SKU002", Name: "Gadget", Quantity: canonical.Float(200)},
		}
		if withPrices {
			rows[0].UnitPrice = canonical.Float(12.5)
			rows[0].Amount = canonical.Float(6250)
			rows[1].UnitPrice = canonical.Float(8)
			rows[1].Amount = canonical.Float(1600)
		}
		return rows
	}
	totals := func() canonical.Totals {
		return canonical.Totals{
			Subtotal:   canonical.Float(7850),
			Shipping:   canonical.Float(900),
			Insurance:  canonical.Float(100),
			GrandTotal: canonical.Float(8850),
		}
	}

	quotation := baseFields()
	quotation.Items = items(true)
	quotation.Totals = totals()

	contract := baseFields()
	contract.Totals = totals()

	invoice := baseFields()
	invoice.Items = items(true)
	invoice.Totals = totals()

	packing := baseFields()
	packing.Terms = canonical.Terms{}
	packing.Shipment.LeadTime = ""
	packing.Items = items(false)

	return canonical.DocumentSet{
		canonical.KindQuotation:         {Kind: canonical.KindQuotation, Version: 1, Fields: quotation},
		canonical.KindContract:          {Kind: canonical.KindContract, Version: 1, Fields: contract},
		canonical.KindCommercialInvoice: {Kind: canonical.KindCommercialInvoice, Version: 1, Fields: invoice},
		canonical.KindPackingList:       {Kind: canonical.KindPackingList, Version: 1, Fields: packing},
	}
}

// quantityDriftSet is the consistent set with the invoice quantity for SKU001
// lowered to 480, with the invoice's own arithmetic kept internally valid.
func quantityDriftSet() canonical.DocumentSet {
	set := consistentSet()
	inv := set[canonical.KindCommercialInvoice].Fields
	inv.Items[0].Quantity = canonical.Float(480)
	inv.Items[0].Amount = canonical.Float(6000)
	inv.Totals.Subtotal = canonical.Float(7600)
	inv.Totals.GrandTotal = canonical.Float(8600)
	set[canonical.KindCommercialInvoice].Fields = inv
	return set
}

func TestDetectConsistentSet(t *testing.T) {
	res := Detect(consistentSet())

	if len(res.Findings) != 0 {
		t.Fatalf("expected no findings, got %d: %+v", len(res.Findings), res.Findings)
	}
	if res.Summary.Score != 100 {
		t.Errorf("expected score 100, got %d", res.Summary.Score)
	}
	if res.Summary.OKCount != CheckCount {
		t.Errorf("expected all %d checks OK, got %d", CheckCount, res.Summary.OKCount)
	}
	if len(res.MissingDocs) != 0 {
		t.Errorf("expected no missing docs, got %+v", res.MissingDocs)
	}
	if res.TotalsDiff.TotalStatus != "OK" || res.TotalsDiff.SubtotalStatus != "OK" {
		t.Errorf("expected reconciled totals, got %+v", res.TotalsDiff)
	}
	for _, row := range res.ItemDiff {
		if row.Status != ItemOK {
			t.Errorf("expected OK item row for %s, got %s", row.SKU, row.Status)
		}
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	set := quantityDriftSet()
	first := Detect(set)
	second := Detect(set)
	if !reflect.DeepEqual(first, second) {
		t.Error("two passes over the same set produced different results")
	}
}

func TestDetectIncotermsDrift(t *testing.T) {
	set := consistentSet()
	set[canonical.KindContract].Fields.Terms.Incoterms = "CIF"

	res := Detect(set)

	f := res.Finding(FindingIncoterms)
	if f == nil {
		t.Fatal("expected an incoterms finding")
	}
	if f.Severity != SeverityBlocking {
		t.Errorf("expected BLOCKING, got %s", f.Severity)
	}
	if f.FieldPath != "terms.incoterms" {
		t.Errorf("unexpected field path %q", f.FieldPath)
	}
	if len(f.Observed) != 3 {
		t.Errorf("expected 3 observed values, got %d", len(f.Observed))
	}
	if len(f.FixActions) != len(f.Observed) {
		t.Errorf("expected one unify action per observation, got %d", len(f.FixActions))
	}
	if res.Summary.BlockingCount != 1 || res.Summary.Score != 88 {
		t.Errorf("expected 1 blocking / score 88, got %d / %d",
			res.Summary.BlockingCount, res.Summary.Score)
	}
}

func TestDetectQuantityDrift(t *testing.T) {
	res := Detect(quantityDriftSet())

	qty := res.Finding(FindingQuantity)
	if qty == nil {
		t.Fatal("expected a quantity finding")
	}
	wantObserved := map[canonical.DocumentKind]string{
		canonical.KindQuotation:         "SKU001=500",
		canonical.KindCommercialInvoice: "SKU001=480",
		canonical.KindPackingList:       "SKU001=500",
	}
	for _, o := range qty.Observed {
		if want := wantObserved[o.Doc]; o.Value != want {
			t.Errorf("observed %s = %q, want %q", o.Doc, o.Value, want)
		}
	}

	totals := res.Finding(FindingTotals)
	if totals == nil {
		t.Fatal("expected a totals finding from the drifted invoice")
	}
	if res.TotalsDiff.TotalStatus != "MISMATCH" {
		t.Errorf("expected total MISMATCH, got %s", res.TotalsDiff.TotalStatus)
	}

	// The invoice is internally valid, so no integrity findings.
	if res.Finding(FindingLineAmount) != nil || res.Finding(FindingGrandTotal) != nil {
		t.Error("did not expect integrity findings")
	}
	if res.Summary.BlockingCount != 2 || res.Summary.Score != 76 {
		t.Errorf("expected 2 blocking / score 76, got %d / %d",
			res.Summary.BlockingCount, res.Summary.Score)
	}

	for _, row := range res.ItemDiff {
		switch row.SKU {
		case "SKU001":
			if row.Status != ItemMismatch {
				t.Errorf("SKU001 status = %s, want MISMATCH", row.Status)
			}
		case "SKU002":
			if row.Status != ItemOK {
				t.Errorf("SKU002 status = %s, want OK", row.Status)
			}
		}
	}
}

func TestDetectMissingItemRow(t *testing.T) {
	set := consistentSet()
	pl := set[canonical.KindPackingList].Fields
	pl.Items = pl.Items[:1]
	set[canonical.KindPackingList].Fields = pl

	res := Detect(set)

	var row *ItemDiffRow
	for i := range res.ItemDiff {
		if res.ItemDiff[i].SKU == "SKU002" {
			row = &res.ItemDiff[i]
		}
	}
	if row == nil {
		t.Fatal("expected SKU002 in the item diff")
	}
	if row.Status != ItemMissing {
		t.Errorf("SKU002 status = %s, want MISSING", row.Status)
	}
	if row.Docs[canonical.KindPackingList].Present {
		t.Error("packing list cell should be absent")
	}
}

func TestDetectMissingDocuments(t *testing.T) {
	set := consistentSet()
	delete(set, canonical.KindCommercialInvoice)
	delete(set, canonical.KindPackingList)

	res := Detect(set)

	if len(res.MissingDocs) != 2 {
		t.Fatalf("expected 2 missing doc suggestions, got %d", len(res.MissingDocs))
	}
	if res.MissingDocs[0].Kind != canonical.KindCommercialInvoice {
		t.Errorf("expected invoice first, got %s", res.MissingDocs[0].Kind)
	}
	// Suggestions do not lower the score.
	if res.Summary.Score != 100 {
		t.Errorf("expected score 100, got %d", res.Summary.Score)
	}
	if res.TotalsDiff.TotalStatus != "N/A" {
		t.Errorf("expected N/A totals without an invoice, got %s", res.TotalsDiff.TotalStatus)
	}
}

func TestDetectEmptySet(t *testing.T) {
	res := Detect(canonical.DocumentSet{})
	if len(res.Findings) != 0 {
		t.Errorf("empty set must yield no findings, got %d", len(res.Findings))
	}
	if res.Summary.Score != 100 {
		t.Errorf("expected score 100, got %d", res.Summary.Score)
	}
}

func TestDetectLineAmountIntegrity(t *testing.T) {
	set := consistentSet()
	set[canonical.KindQuotation].Fields.Items[0].Amount = canonical.Float(9999)

	res := Detect(set)

	f := res.Finding(FindingLineAmount)
	if f == nil {
		t.Fatal("expected a line amount integrity finding")
	}
	if f.Severity != SeverityBlocking {
		t.Errorf("expected BLOCKING, got %s", f.Severity)
	}
	if len(f.Observed) != 1 || f.Observed[0].Doc != canonical.KindQuotation {
		t.Errorf("expected one quotation observation, got %+v", f.Observed)
	}
}

func TestDetectGrandTotalIntegrity(t *testing.T) {
	set := consistentSet()
	set[canonical.KindContract].Fields.Totals.GrandTotal = canonical.Float(9000)

	res := Detect(set)

	f := res.Finding(FindingGrandTotal)
	if f == nil {
		t.Fatal("expected a grand total integrity finding")
	}
	if len(f.Observed) != 1 || f.Observed[0].Doc != canonical.KindContract {
		t.Errorf("expected one contract observation, got %+v", f.Observed)
	}
}

func TestDetectToleratesNearEqualMoney(t *testing.T) {
	set := consistentSet()
	// Within half a cent of the quotation's 8850.
	set[canonical.KindCommercialInvoice].Fields.Totals.GrandTotal = canonical.Float(8850.004)
	set[canonical.KindCommercialInvoice].Fields.Totals.Subtotal = canonical.Float(7850.004)

	res := Detect(set)

	if res.Finding(FindingTotals) != nil {
		t.Error("sub-tolerance difference must not raise a totals finding")
	}
}

func TestSeverityPartition(t *testing.T) {
	res := Detect(quantityDriftSet())
	s := res.Summary
	if s.BlockingCount+s.WarningCount+s.OKCount != CheckCount {
		t.Errorf("severity buckets must partition the %d checks, got %d+%d+%d",
			CheckCount, s.BlockingCount, s.WarningCount, s.OKCount)
	}
}

func TestWarningSeverityAndScore(t *testing.T) {
	set := consistentSet()
	set[canonical.KindContract].Fields.Shipment.LeadTime = "45 days"

	res := Detect(set)

	f := res.Finding(FindingLeadTime)
	if f == nil {
		t.Fatal("expected a lead time finding")
	}
	if f.Severity != SeverityWarning {
		t.Errorf("expected WARNING, got %s", f.Severity)
	}
	if res.Summary.Score != 96 {
		t.Errorf("expected score 96 for one warning, got %d", res.Summary.Score)
	}
}

func TestDestinationCompositeCheck(t *testing.T) {
	set := consistentSet()
	set[canonical.KindPackingList].Fields.Shipment.DestPort = "Oakland"

	res := Detect(set)

	f := res.Finding(FindingDestination)
	if f == nil {
		t.Fatal("expected a destination finding")
	}
	var plValue string
	for _, o := range f.Observed {
		if o.Doc == canonical.KindPackingList {
			plValue = o.Value
		}
	}
	if plValue != "US / Los Angeles / Oakland" {
		t.Errorf("unexpected composite destination %q", plValue)
	}
}
