package crosscheck

import "testing"

func TestFixedCheckList(t *testing.T) {
	if len(scalarChecks) != 7 {
		t.Errorf("expected 7 scalar checks, got %d", len(scalarChecks))
	}
	if CheckCount != 12 {
		t.Errorf("expected 12 checks in total, got %d", CheckCount)
	}
	for _, check := range scalarChecks {
		if FieldPathByID(check.ID) != check.FieldPath {
			t.Errorf("field path lookup for %s diverges from the check definition", check.ID)
		}
	}
}

func TestResultAccessorsChainOnDetect(t *testing.T) {
	set := quantityDriftSet()

	// Both accessors must work directly on a detection pass's return value.
	if f := Detect(set).Finding(FindingQuantity); f == nil {
		t.Fatal("expected the quantity finding")
	}
	if f := Detect(set).Finding(FindingID("NO_SUCH_ID")); f != nil {
		t.Errorf("expected nil for an unknown id, got %+v", f)
	}

	blocking := Detect(set).BlockingFindings()
	if len(blocking) != 2 {
		t.Fatalf("expected 2 blocking findings, got %d", len(blocking))
	}
	if blocking[0].ID != FindingQuantity || blocking[1].ID != FindingTotals {
		t.Errorf("blocking findings out of detection order: %s, %s", blocking[0].ID, blocking[1].ID)
	}
}
