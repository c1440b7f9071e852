package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Shipment groups the four trade documents of one deal.
type Shipment struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
	Buyer     string
	Seller    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShipmentRepository defines shipment persistence.
type ShipmentRepository interface {
	Create(ctx context.Context, shipment *Shipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Shipment, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Shipment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresShipmentRepository implements ShipmentRepository using PostgreSQL.
type PostgresShipmentRepository struct {
	db *sql.DB
}

// NewPostgresShipmentRepository creates a new PostgresShipmentRepository.
func NewPostgresShipmentRepository(db *sql.DB) *PostgresShipmentRepository {
	return &PostgresShipmentRepository{db: db}
}

// Create inserts a new shipment.
func (r *PostgresShipmentRepository) Create(ctx context.Context, shipment *Shipment) error {
	if shipment.ID == uuid.Nil {
		shipment.ID = uuid.New()
	}
	now := time.Now()
	if shipment.CreatedAt.IsZero() {
		shipment.CreatedAt = now
	}
	if shipment.UpdatedAt.IsZero() {
		shipment.UpdatedAt = now
	}

	query := `
		INSERT INTO shipments (id, account_id, name, buyer, seller, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		shipment.ID,
		shipment.AccountID,
		shipment.Name,
		shipment.Buyer,
		shipment.Seller,
		shipment.CreatedAt,
		shipment.UpdatedAt,
	)
	return err
}

// GetByID retrieves a shipment by its id.
func (r *PostgresShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Shipment, error) {
	query := `
		SELECT id, account_id, name, buyer, seller, created_at, updated_at
		FROM shipments
		WHERE id = $1
	`

	var s Shipment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.AccountID, &s.Name, &s.Buyer, &s.Seller, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByAccount retrieves all shipments owned by an account, newest first.
func (r *PostgresShipmentRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Shipment, error) {
	query := `
		SELECT id, account_id, name, buyer, seller, created_at, updated_at
		FROM shipments
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shipments []*Shipment
	for rows.Next() {
		var s Shipment
		if err := rows.Scan(&s.ID, &s.AccountID, &s.Name, &s.Buyer, &s.Seller, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		shipments = append(shipments, &s)
	}
	return shipments, rows.Err()
}

// Delete removes a shipment and, via FK cascade, its document revisions.
func (r *PostgresShipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	return err
}
