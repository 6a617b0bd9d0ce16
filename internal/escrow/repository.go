package escrow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound indicates the purchase request does not exist
	ErrNotFound = errors.New("purchase request not found")
	// ErrVersionConflict indicates a concurrent writer already advanced the row
	ErrVersionConflict = errors.New("purchase request was modified concurrently")
)

type Repository interface {
	Create(ctx context.Context, req *PurchaseRequest) error
	Get(ctx context.Context, id string) (*PurchaseRequest, error)
	// Update persists req iff the stored version still matches req.Version,
	// then bumps it. ErrVersionConflict on a stale version.
	Update(ctx context.Context, req *PurchaseRequest) error
	ListForIssuer(ctx context.Context, issuerAddress string, statuses []Status) ([]PurchaseRequest, error)
	ListForBuyer(ctx context.Context, buyerAddress string) ([]PurchaseRequest, error)
	// ListExpired returns open requests whose escrow window lapsed before
	// the given Ripple-epoch time.
	ListExpired(ctx context.Context, rippleNow int64) ([]PurchaseRequest, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, req *PurchaseRequest) error {
	query := `
		INSERT INTO purchase_requests (
			id, buyer_address, token_issuance_id, token_amount, price_xrp,
			issuer_address, status, escrow_sequence, escrow_condition,
			escrow_fulfillment, cancel_after, tx_hash, version, created_at, updated_at
		) VALUES (
			:id, :buyer_address, :token_issuance_id, :token_amount, :price_xrp,
			:issuer_address, :status, :escrow_sequence, :escrow_condition,
			:escrow_fulfillment, :cancel_after, :tx_hash, :version, :created_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, req)
	return err
}

func (r *postgresRepository) Get(ctx context.Context, id string) (*PurchaseRequest, error) {
	var req PurchaseRequest
	err := r.db.GetContext(ctx, &req, "SELECT * FROM purchase_requests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &req, err
}

func (r *postgresRepository) Update(ctx context.Context, req *PurchaseRequest) error {
	query := `
		UPDATE purchase_requests SET
			status = :status,
			escrow_sequence = :escrow_sequence,
			escrow_condition = :escrow_condition,
			escrow_fulfillment = :escrow_fulfillment,
			cancel_after = :cancel_after,
			tx_hash = :tx_hash,
			version = version + 1,
			updated_at = now()
		WHERE id = :id AND version = :version`
	res, err := r.db.NamedExecContext(ctx, query, req)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version.
		if _, err := r.Get(ctx, req.ID); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	req.Version++
	return nil
}

func (r *postgresRepository) ListForIssuer(ctx context.Context, issuerAddress string, statuses []Status) ([]PurchaseRequest, error) {
	requests := []PurchaseRequest{}
	query := "SELECT * FROM purchase_requests WHERE issuer_address = $1"
	args := []interface{}{issuerAddress}

	if len(statuses) > 0 {
		placeholders := make([]string, 0, len(statuses))
		for i, status := range statuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
			args = append(args, status)
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ", "))
	}
	query += " ORDER BY created_at DESC"

	err := r.db.SelectContext(ctx, &requests, query, args...)
	return requests, err
}

func (r *postgresRepository) ListForBuyer(ctx context.Context, buyerAddress string) ([]PurchaseRequest, error) {
	requests := []PurchaseRequest{}
	err := r.db.SelectContext(ctx, &requests,
		"SELECT * FROM purchase_requests WHERE buyer_address = $1 ORDER BY created_at DESC", buyerAddress)
	return requests, err
}

func (r *postgresRepository) ListExpired(ctx context.Context, rippleNow int64) ([]PurchaseRequest, error) {
	requests := []PurchaseRequest{}
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM purchase_requests
		WHERE cancel_after IS NOT NULL
		  AND cancel_after < $1
		  AND status NOT IN ($2, $3)`,
		rippleNow, StatusCompleted, StatusCancelled)
	return requests, err
}
