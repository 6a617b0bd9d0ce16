package tokens

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrDuplicate indicates an issuance id already exists
	ErrDuplicate = errors.New("token with this issuance id already exists")
	// ErrNotFound indicates the issuance id does not exist
	ErrNotFound = errors.New("token not found")
)

type Repository interface {
	Create(ctx context.Context, record *TokenRecord) error
	GetByIssuanceID(ctx context.Context, issuanceID string) (*TokenRecord, error)
	ListAvailable(ctx context.Context) ([]TokenRecord, error)
	ListAll(ctx context.Context) ([]TokenRecord, error)
	MarkUnavailable(ctx context.Context, issuanceID string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, record *TokenRecord) error {
	query := `
		INSERT INTO marketplace_tokens (
			issuance_id, issuer_address, project_name, credit_type, vintage,
			certification, location, description, price_per_credit, amount,
			tx_hash, explorer_url, ipfs_hash, is_available, created_at
		) VALUES (
			:issuance_id, :issuer_address, :project_name, :credit_type, :vintage,
			:certification, :location, :description, :price_per_credit, :amount,
			:tx_hash, :explorer_url, :ipfs_hash, :is_available, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, record)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicate
	}
	return err
}

func (r *postgresRepository) GetByIssuanceID(ctx context.Context, issuanceID string) (*TokenRecord, error) {
	var record TokenRecord
	err := r.db.GetContext(ctx, &record, "SELECT * FROM marketplace_tokens WHERE issuance_id = $1", issuanceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &record, err
}

func (r *postgresRepository) ListAvailable(ctx context.Context) ([]TokenRecord, error) {
	records := []TokenRecord{}
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM marketplace_tokens WHERE is_available = true ORDER BY created_at DESC")
	return records, err
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]TokenRecord, error) {
	records := []TokenRecord{}
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM marketplace_tokens ORDER BY created_at DESC")
	return records, err
}

func (r *postgresRepository) MarkUnavailable(ctx context.Context, issuanceID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE marketplace_tokens SET is_available = false WHERE issuance_id = $1", issuanceID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
