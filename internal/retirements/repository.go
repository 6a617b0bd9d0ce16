package retirements

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrDuplicate indicates a certificate id already exists
	ErrDuplicate = errors.New("certificate with this id already exists")
	// ErrNotFound indicates the certificate does not exist
	ErrNotFound = errors.New("certificate not found")
)

// Filter narrows certificate listings
type Filter struct {
	OwnerAddress  string
	MPTIssuanceID string
}

type Repository interface {
	Create(ctx context.Context, record *CertificateRecord) error
	GetByCertificateID(ctx context.Context, certificateID string) (*CertificateRecord, error)
	List(ctx context.Context, filter Filter) ([]CertificateRecord, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, record *CertificateRecord) error {
	query := `
		INSERT INTO retirement_certificates (
			certificate_id, mpt_issuance_id, currency, issuer_address,
			owner_address, amount, retired_at, tx_hash, reason
		) VALUES (
			:certificate_id, :mpt_issuance_id, :currency, :issuer_address,
			:owner_address, :amount, :retired_at, :tx_hash, :reason
		)`
	_, err := r.db.NamedExecContext(ctx, query, record)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicate
	}
	return err
}

func (r *postgresRepository) GetByCertificateID(ctx context.Context, certificateID string) (*CertificateRecord, error) {
	var record CertificateRecord
	err := r.db.GetContext(ctx, &record,
		"SELECT * FROM retirement_certificates WHERE certificate_id = $1", certificateID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &record, err
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]CertificateRecord, error) {
	records := []CertificateRecord{}
	query := "SELECT * FROM retirement_certificates WHERE 1=1"
	var args []interface{}
	argCount := 1

	if filter.OwnerAddress != "" {
		query += fmt.Sprintf(" AND owner_address = $%d", argCount)
		args = append(args, filter.OwnerAddress)
		argCount++
	}
	if filter.MPTIssuanceID != "" {
		query += fmt.Sprintf(" AND mpt_issuance_id = $%d", argCount)
		args = append(args, filter.MPTIssuanceID)
		argCount++
	}
	query += " ORDER BY retired_at DESC"

	err := r.db.SelectContext(ctx, &records, query, args...)
	return records, err
}
