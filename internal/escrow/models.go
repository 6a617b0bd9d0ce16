package escrow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"carbon-exchange/marketplace-backend/pkg/workflows"
)

// Status is the purchase-request lifecycle state
type Status string

const (
	StatusPending       Status = "pending"
	StatusApproved      Status = "approved"
	StatusEscrowCreated Status = "escrow_created"
	StatusPaid          Status = "paid"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

// openStatuses are the states an issuer still has to act on
var openStatuses = []Status{StatusPending, StatusApproved, StatusEscrowCreated}

// stateMachine owns every legal transition. Regression is impossible by
// construction; completed and cancelled are terminal.
var stateMachine = workflows.NewStateMachine(map[string][]string{
	string(StatusPending):       {string(StatusApproved), string(StatusCancelled)},
	string(StatusApproved):      {string(StatusEscrowCreated), string(StatusCancelled)},
	string(StatusEscrowCreated): {string(StatusPaid), string(StatusCompleted), string(StatusCancelled)},
	string(StatusPaid):          {string(StatusCompleted), string(StatusCancelled)},
	string(StatusCompleted):     {},
	string(StatusCancelled):     {},
})

// CanTransition reports whether moving between the two statuses is legal
func CanTransition(from, to Status) bool {
	return stateMachine.CanTransition(string(from), string(to))
}

// IsTerminal reports whether the status admits no further transitions
func IsTerminal(status Status) bool {
	return stateMachine.IsTerminal(string(status))
}

// PurchaseRequest is a buyer's intent to acquire part of an issuance. The
// server owns every status change; version guards concurrent writers.
// The fulfillment never serializes into API responses.
type PurchaseRequest struct {
	ID                string    `json:"id" db:"id"`
	BuyerAddress      string    `json:"buyerAddress" db:"buyer_address"`
	TokenIssuanceID   string    `json:"tokenIssuanceId" db:"token_issuance_id"`
	TokenAmount       int64     `json:"tokenAmount" db:"token_amount"`
	PriceXRP          float64   `json:"priceXRP" db:"price_xrp"`
	IssuerAddress     string    `json:"issuerAddress" db:"issuer_address"`
	Status            Status    `json:"status" db:"status"`
	EscrowSequence    *uint32   `json:"escrowSequence,omitempty" db:"escrow_sequence"`
	EscrowCondition   *string   `json:"escrowCondition,omitempty" db:"escrow_condition"`
	EscrowFulfillment *string   `json:"-" db:"escrow_fulfillment"`
	CancelAfter       *int64    `json:"cancelAfter,omitempty" db:"cancel_after"`
	TxHash            *string   `json:"txHash,omitempty" db:"tx_hash"`
	Version           int64     `json:"version" db:"version"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

// NewRequestID allocates a collision-resistant request identifier
func NewRequestID() string {
	return fmt.Sprintf("PR-%s", uuid.NewString())
}
