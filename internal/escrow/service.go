package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/internal/ledger"
)

var (
	// ErrInvalidTransition indicates the requested status change is illegal
	ErrInvalidTransition = errors.New("invalid purchase request transition")
	// ErrMissingFields indicates a create request without required fields
	ErrMissingFields = errors.New("buyerAddress, issuerAddress, tokenIssuanceId, tokenAmount and priceXRP are required")
)

// Event is pushed to subscribed wallets when a request changes state
type Event struct {
	Type      string      `json:"type"`
	RequestID string      `json:"requestId"`
	Request   interface{} `json:"request,omitempty"`
}

// Publisher delivers events to a wallet address's live subscribers
type Publisher interface {
	Publish(address string, event Event)
}

// TokenRemover takes a sold issuance off the marketplace
type TokenRemover interface {
	RemoveFromMarketplace(ctx context.Context, issuanceID string) error
}

// CreateParams are the buyer-supplied fields of a new request
type CreateParams struct {
	BuyerAddress    string  `json:"buyerAddress"`
	TokenIssuanceID string  `json:"tokenIssuanceId"`
	TokenAmount     int64   `json:"tokenAmount"`
	PriceXRP        float64 `json:"priceXRP"`
	IssuerAddress   string  `json:"issuerAddress"`
}

// Service arbitrates the two-party purchase handshake. Buyers and issuers
// act through it instead of racing over shared storage.
type Service struct {
	repo         Repository
	tokens       TokenRemover
	publisher    Publisher
	cancelWindow time.Duration
	logger       *zap.Logger
}

func NewService(repo Repository, tokens TokenRemover, publisher Publisher, cancelWindow time.Duration, logger *zap.Logger) *Service {
	if cancelWindow <= 0 {
		cancelWindow = time.Hour
	}
	return &Service{
		repo:         repo,
		tokens:       tokens,
		publisher:    publisher,
		cancelWindow: cancelWindow,
		logger:       logger,
	}
}

// CreateRequest registers a buyer's intent; the issuer is notified
func (s *Service) CreateRequest(ctx context.Context, params CreateParams) (*PurchaseRequest, error) {
	if params.BuyerAddress == "" || params.IssuerAddress == "" || params.TokenIssuanceID == "" ||
		params.TokenAmount <= 0 || params.PriceXRP <= 0 {
		return nil, ErrMissingFields
	}

	now := time.Now().UTC()
	req := &PurchaseRequest{
		ID:              NewRequestID(),
		BuyerAddress:    params.BuyerAddress,
		TokenIssuanceID: params.TokenIssuanceID,
		TokenAmount:     params.TokenAmount,
		PriceXRP:        params.PriceXRP,
		IssuerAddress:   params.IssuerAddress,
		Status:          StatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create purchase request: %w", err)
	}

	s.logger.Info("purchase request created",
		zap.String("request_id", req.ID),
		zap.String("buyer", req.BuyerAddress),
		zap.String("issuer", req.IssuerAddress))
	s.notify(req.IssuerAddress, "purchase_request.created", req)

	return req, nil
}

// Approve moves a pending request to approved and commits a fresh
// condition/fulfillment pair. The fulfillment is returned once, to the
// issuer only; it is never exposed through reads.
func (s *Service) Approve(ctx context.Context, id string, version int64) (*PurchaseRequest, string, error) {
	pair, err := GenerateCondition()
	if err != nil {
		return nil, "", err
	}

	req, err := s.transition(ctx, id, version, StatusApproved, func(r *PurchaseRequest) error {
		r.EscrowCondition = &pair.Condition
		r.EscrowFulfillment = &pair.Fulfillment
		cancelAfter := ledger.CancelAfter(s.cancelWindow)
		r.CancelAfter = &cancelAfter
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.notify(req.BuyerAddress, "purchase_request.approved", req)
	return req, pair.Fulfillment, nil
}

// MarkEscrowCreated records the buyer's funded escrow
func (s *Service) MarkEscrowCreated(ctx context.Context, id string, version int64, sequence uint32, txHash string) (*PurchaseRequest, error) {
	req, err := s.transition(ctx, id, version, StatusEscrowCreated, func(r *PurchaseRequest) error {
		if r.EscrowCondition == nil {
			return fmt.Errorf("%w: escrow requires an approved condition", ErrInvalidTransition)
		}
		r.EscrowSequence = &sequence
		r.TxHash = &txHash
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(req.IssuerAddress, "purchase_request.escrow_created", req)
	return req, nil
}

// MarkPaid records the buyer's settlement payment
func (s *Service) MarkPaid(ctx context.Context, id string, version int64, txHash string) (*PurchaseRequest, error) {
	req, err := s.transition(ctx, id, version, StatusPaid, func(r *PurchaseRequest) error {
		r.TxHash = &txHash
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(req.IssuerAddress, "purchase_request.paid", req)
	return req, nil
}

// Complete finishes the handshake and takes the token off the marketplace
func (s *Service) Complete(ctx context.Context, id string, version int64, txHash string) (*PurchaseRequest, error) {
	req, err := s.transition(ctx, id, version, StatusCompleted, func(r *PurchaseRequest) error {
		if txHash != "" {
			r.TxHash = &txHash
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.tokens != nil {
		if err := s.tokens.RemoveFromMarketplace(ctx, req.TokenIssuanceID); err != nil {
			// The purchase is settled on-ledger; a stale listing is
			// recoverable, so log instead of failing the completion.
			s.logger.Warn("failed to delist sold token",
				zap.String("issuance_id", req.TokenIssuanceID), zap.Error(err))
		}
	}

	s.notify(req.BuyerAddress, "purchase_request.completed", req)
	return req, nil
}

// Cancel aborts an open request
func (s *Service) Cancel(ctx context.Context, id string, version int64) (*PurchaseRequest, error) {
	req, err := s.transition(ctx, id, version, StatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	s.notify(req.BuyerAddress, "purchase_request.cancelled", req)
	s.notify(req.IssuerAddress, "purchase_request.cancelled", req)
	return req, nil
}

// Get fetches one request
func (s *Service) Get(ctx context.Context, id string) (*PurchaseRequest, error) {
	return s.repo.Get(ctx, id)
}

// Fulfillment returns the stored condition and fulfillment for an issuer
// finishing an escrow. Both come from one read so they always pair up.
func (s *Service) Fulfillment(ctx context.Context, id string) (condition, fulfillment string, err error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	if req.EscrowCondition == nil || req.EscrowFulfillment == nil {
		return "", "", fmt.Errorf("%w: request has no fulfillment yet", ErrInvalidTransition)
	}
	return *req.EscrowCondition, *req.EscrowFulfillment, nil
}

// PendingForIssuer lists requests the issuer still has to act on
func (s *Service) PendingForIssuer(ctx context.Context, issuerAddress string) ([]PurchaseRequest, error) {
	return s.repo.ListForIssuer(ctx, issuerAddress, openStatuses)
}

// ForIssuer lists issuer requests filtered to the given statuses
func (s *Service) ForIssuer(ctx context.Context, issuerAddress string, statuses []Status) ([]PurchaseRequest, error) {
	return s.repo.ListForIssuer(ctx, issuerAddress, statuses)
}

// ForBuyer lists all of a buyer's requests
func (s *Service) ForBuyer(ctx context.Context, buyerAddress string) ([]PurchaseRequest, error) {
	return s.repo.ListForBuyer(ctx, buyerAddress)
}

// CancelExpired sweeps open requests whose escrow window has lapsed
func (s *Service) CancelExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpired(ctx, ledger.RippleTime(time.Now()))
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range expired {
		req := expired[i]
		if _, err := s.Cancel(ctx, req.ID, req.Version); err != nil {
			// Raced with a concurrent completion; the next sweep settles it.
			s.logger.Warn("failed to cancel expired request",
				zap.String("request_id", req.ID), zap.Error(err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// transition applies one guarded status change under optimistic concurrency
func (s *Service) transition(ctx context.Context, id string, version int64, to Status, mutate func(*PurchaseRequest) error) (*PurchaseRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != version {
		return nil, ErrVersionConflict
	}
	if !CanTransition(req.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.Status, to)
	}
	if mutate != nil {
		if err := mutate(req); err != nil {
			return nil, err
		}
	}

	from := req.Status
	req.Status = to
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("purchase request transitioned",
		zap.String("request_id", req.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return req, nil
}

func (s *Service) notify(address, eventType string, req *PurchaseRequest) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(address, Event{
		Type:      eventType,
		RequestID: req.ID,
		Request:   req,
	})
}
