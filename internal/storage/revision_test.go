package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/tradedesk/tradecheck/internal/canonical"
)

func TestPostgresRevisionRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRevisionRepository(db)

	rev := &DocumentRevision{
		ShipmentID: uuid.New(),
		Kind:       canonical.KindQuotation,
		Version:    1,
		Fields: canonical.Fields{
			Terms: canonical.Terms{Incoterms: "FOB", Currency: "USD"},
		},
	}

	mock.ExpectExec("INSERT INTO document_revisions").
		WithArgs(sqlmock.AnyArg(), rev.ShipmentID, "quotation", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(context.Background(), rev)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if rev.ID == uuid.Nil {
		t.Error("expected revision ID to be generated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRevisionRepository_LatestVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRevisionRepository(db)

	shipmentID := uuid.New()

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(3)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(shipmentID, "contract").
		WillReturnRows(rows)

	version, err := repo.LatestVersion(context.Background(), shipmentID, canonical.KindContract)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if version != 3 {
		t.Errorf("expected version 3, got %d", version)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRevisionRepository_LatestVersion_NoRevisions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRevisionRepository(db)

	shipmentID := uuid.New()

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(0)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(shipmentID, "quotation").
		WillReturnRows(rows)

	version, err := repo.LatestVersion(context.Background(), shipmentID, canonical.KindQuotation)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if version != 0 {
		t.Errorf("expected version 0 for a fresh kind, got %d", version)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRevisionRepository_LatestSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRevisionRepository(db)

	shipmentID := uuid.New()

	quotation, err := json.Marshal(canonical.Fields{
		Terms: canonical.Terms{Incoterms: "FOB"},
	})
	if err != nil {
		t.Fatalf("failed to marshal fields: %v", err)
	}
	contract, err := json.Marshal(canonical.Fields{
		Terms: canonical.Terms{Incoterms: "CIF"},
	})
	if err != nil {
		t.Fatalf("failed to marshal fields: %v", err)
	}

	rows := sqlmock.NewRows([]string{"kind", "version", "payload"}).
		AddRow("quotation", 2, quotation).
		AddRow("contract", 1, contract)

	mock.ExpectQuery("SELECT DISTINCT ON \\(kind\\)").
		WithArgs(shipmentID).
		WillReturnRows(rows)

	set, err := repo.LatestSet(context.Background(), shipmentID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(set) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(set))
	}

	q := set.Get(canonical.KindQuotation)
	if q == nil || q.Version != 2 || q.Fields.Terms.Incoterms != "FOB" {
		t.Errorf("unexpected quotation: %+v", q)
	}

	c := set.Get(canonical.KindContract)
	if c == nil || c.Version != 1 || c.Fields.Terms.Incoterms != "CIF" {
		t.Errorf("unexpected contract: %+v", c)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresRevisionRepository_SaveSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRevisionRepository(db)

	shipmentID := uuid.New()
	set := canonical.DocumentSet{
		canonical.KindQuotation: {
			Kind:    canonical.KindQuotation,
			Version: 2,
			Fields:  canonical.Fields{Terms: canonical.Terms{Incoterms: "CIF"}},
		},
		canonical.KindContract: {
			Kind:    canonical.KindContract,
			Version: 1,
			Fields:  canonical.Fields{Terms: canonical.Terms{Incoterms: "CIF"}},
		},
	}

	// Only the updated kind gets a new revision row.
	mock.ExpectExec("INSERT INTO document_revisions").
		WithArgs(sqlmock.AnyArg(), shipmentID, "quotation", 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.SaveSet(context.Background(), shipmentID, set, []canonical.DocumentKind{canonical.KindQuotation})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
