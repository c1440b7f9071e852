package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tradedesk/tradecheck/internal/canonical"
)

// DocumentRevision is one immutable version of one trade document.
// Documents are never edited in place: every change inserts a new revision
// with an incremented version.
type DocumentRevision struct {
	ID         uuid.UUID
	ShipmentID uuid.UUID
	Kind       canonical.DocumentKind
	Version    int
	Fields     canonical.Fields
	CreatedAt  time.Time
}

// RevisionRepository defines document revision persistence.
type RevisionRepository interface {
	Save(ctx context.Context, rev *DocumentRevision) error
	LatestVersion(ctx context.Context, shipmentID uuid.UUID, kind canonical.DocumentKind) (int, error)
	LatestSet(ctx context.Context, shipmentID uuid.UUID) (canonical.DocumentSet, error)
	SaveSet(ctx context.Context, shipmentID uuid.UUID, set canonical.DocumentSet, kinds []canonical.DocumentKind) error
}

// PostgresRevisionRepository implements RevisionRepository using PostgreSQL
// with the canonical fields serialized as jsonb.
type PostgresRevisionRepository struct {
	db *sql.DB
}

// NewPostgresRevisionRepository creates a new PostgresRevisionRepository.
func NewPostgresRevisionRepository(db *sql.DB) *PostgresRevisionRepository {
	return &PostgresRevisionRepository{db: db}
}

// Save inserts a new revision row.
func (r *PostgresRevisionRepository) Save(ctx context.Context, rev *DocumentRevision) error {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(rev.Fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO document_revisions (id, shipment_id, kind, version, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query,
		rev.ID,
		rev.ShipmentID,
		string(rev.Kind),
		rev.Version,
		payload,
		rev.CreatedAt,
	)
	return err
}

// LatestVersion returns the highest stored version for a document kind, or
// zero when none exists yet.
func (r *PostgresRevisionRepository) LatestVersion(ctx context.Context, shipmentID uuid.UUID, kind canonical.DocumentKind) (int, error) {
	query := `
		SELECT COALESCE(MAX(version), 0)
		FROM document_revisions
		WHERE shipment_id = $1 AND kind = $2
	`

	var version int
	if err := r.db.QueryRowContext(ctx, query, shipmentID, string(kind)).Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

// LatestSet loads the newest revision of every document kind into a
// document set.
func (r *PostgresRevisionRepository) LatestSet(ctx context.Context, shipmentID uuid.UUID) (canonical.DocumentSet, error) {
	query := `
		SELECT DISTINCT ON (kind) kind, version, payload
		FROM document_revisions
		WHERE shipment_id = $1
		ORDER BY kind, version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(canonical.DocumentSet)
	for rows.Next() {
		var (
			kind    string
			version int
			payload []byte
		)
		if err := rows.Scan(&kind, &version, &payload); err != nil {
			return nil, err
		}
		var fields canonical.Fields
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, err
		}
		set[canonical.DocumentKind(kind)] = &canonical.Document{
			Kind:    canonical.DocumentKind(kind),
			Version: version,
			Fields:  fields,
		}
	}
	return set, rows.Err()
}

// SaveSet persists the given kinds of a post-fix document set as new
// revisions. Untouched kinds are not rewritten.
func (r *PostgresRevisionRepository) SaveSet(ctx context.Context, shipmentID uuid.UUID, set canonical.DocumentSet, kinds []canonical.DocumentKind) error {
	for _, kind := range kinds {
		doc := set.Get(kind)
		if doc == nil {
			continue
		}
		rev := &DocumentRevision{
			ShipmentID: shipmentID,
			Kind:       kind,
			Version:    doc.Version,
			Fields:     doc.Fields,
		}
		if err := r.Save(ctx, rev); err != nil {
			return err
		}
	}
	return nil
}
