package report

import (
	"testing"

	"github.com/tradedesk/tradecheck/internal/canonical"
	"github.com/tradedesk/tradecheck/internal/crosscheck"
)

func driftedSet() canonical.DocumentSet {
	fields := func(incoterms string) canonical.Fields {
		return canonical.Fields{
			Buyer: canonical.Party{Name: "Acme Imports LLC"},
			Terms: canonical.Terms{Incoterms: incoterms, Currency: "USD"},
		}
	}
	return canonical.DocumentSet{
		canonical.KindQuotation: {Kind: canonical.KindQuotation, Version: 1, Fields: fields("FOB")},
		canonical.KindContract:  {Kind: canonical.KindContract, Version: 3, Fields: fields("CIF")},
	}
}

func TestAssemble(t *testing.T) {
	rep := Assemble(driftedSet(), Options{ProjectName: "LA-2026-018", BrandName: "TradeDesk"})

	if rep.GeneratedAt.IsZero() {
		t.Error("expected a timestamp")
	}
	if len(rep.Result.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(rep.Result.Findings))
	}
	if len(rep.Diagnoses) != len(rep.Result.Findings) {
		t.Errorf("expected one diagnosis per finding, got %d", len(rep.Diagnoses))
	}

	// The diagnosed recommendation is folded back into the finding.
	f := rep.Result.Findings[0]
	if f.ID != crosscheck.FindingIncoterms {
		t.Fatalf("unexpected finding %s", f.ID)
	}
	if f.Recommended != "CIF" {
		t.Errorf("expected the contract's value recommended, got %q", f.Recommended)
	}

	if len(rep.Questions) != 1 {
		t.Errorf("expected 1 confirmation question, got %d", len(rep.Questions))
	}
	if len(rep.Kits) != 1 {
		t.Errorf("expected 1 message kit, got %d", len(rep.Kits))
	}
}

func TestAssembleCleanSet(t *testing.T) {
	set := driftedSet()
	set[canonical.KindContract].Fields.Terms.Incoterms = "FOB"

	rep := Assemble(set, Options{ProjectName: "LA-2026-018"})

	if len(rep.Result.Findings) != 0 || len(rep.Questions) != 0 || len(rep.Kits) != 0 {
		t.Errorf("clean set must produce an empty report body: %+v", rep.Result.Findings)
	}
	if rep.Result.Summary.Score != 100 {
		t.Errorf("expected score 100, got %d", rep.Result.Summary.Score)
	}
}

func TestVersions(t *testing.T) {
	got := Versions(driftedSet())
	if got[canonical.KindQuotation] != 1 || got[canonical.KindContract] != 3 {
		t.Errorf("unexpected versions map: %+v", got)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}
}
