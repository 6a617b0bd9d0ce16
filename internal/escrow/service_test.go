package escrow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/internal/ledger"
)

// memRepository mirrors the Postgres repository semantics in memory
type memRepository struct {
	mu   sync.Mutex
	data map[string]PurchaseRequest
}

func newMemRepository() *memRepository {
	return &memRepository{data: map[string]PurchaseRequest{}}
}

func (r *memRepository) Create(ctx context.Context, req *PurchaseRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[req.ID] = *req
	return nil
}

func (r *memRepository) Get(ctx context.Context, id string) (*PurchaseRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := stored
	return &copied, nil
}

func (r *memRepository) Update(ctx context.Context, req *PurchaseRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[req.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != req.Version {
		return ErrVersionConflict
	}
	req.Version++
	req.UpdatedAt = time.Now().UTC()
	r.data[req.ID] = *req
	return nil
}

func (r *memRepository) ListForIssuer(ctx context.Context, issuerAddress string, statuses []Status) ([]PurchaseRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []PurchaseRequest{}
	for _, req := range r.data {
		if req.IssuerAddress != issuerAddress {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, req.Status) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *memRepository) ListForBuyer(ctx context.Context, buyerAddress string) ([]PurchaseRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []PurchaseRequest{}
	for _, req := range r.data {
		if req.BuyerAddress == buyerAddress {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *memRepository) ListExpired(ctx context.Context, rippleNow int64) ([]PurchaseRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []PurchaseRequest{}
	for _, req := range r.data {
		if req.CancelAfter == nil || *req.CancelAfter >= rippleNow {
			continue
		}
		if req.Status == StatusCompleted || req.Status == StatusCancelled {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func containsStatus(statuses []Status, status Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// MockTokenRemover is a mock implementation of the TokenRemover interface
type MockTokenRemover struct {
	mock.Mock
}

func (m *MockTokenRemover) RemoveFromMarketplace(ctx context.Context, issuanceID string) error {
	args := m.Called(ctx, issuanceID)
	return args.Error(0)
}

// recordingPublisher captures published events per address
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: map[string][]Event{}}
}

func (p *recordingPublisher) Publish(address string, event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[address] = append(p.events[address], event)
}

func newTestService(repo Repository, tokens TokenRemover, publisher Publisher) *Service {
	return NewService(repo, tokens, publisher, time.Hour, zap.NewNop())
}

func TestCreateRequestValidation(t *testing.T) {
	service := newTestService(newMemRepository(), nil, nil)

	_, err := service.CreateRequest(context.Background(), CreateParams{
		BuyerAddress: "rBuyer", IssuerAddress: "rIssuer",
	})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = service.CreateRequest(context.Background(), CreateParams{
		BuyerAddress:    "rBuyer",
		IssuerAddress:   "rIssuer",
		TokenIssuanceID: "MPT-1",
		TokenAmount:     -5,
		PriceXRP:        10,
	})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestPurchaseFlow(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepository()
	remover := new(MockTokenRemover)
	publisher := newRecordingPublisher()
	service := newTestService(repo, remover, publisher)

	created, err := service.CreateRequest(ctx, CreateParams{
		BuyerAddress:    "rBuyer",
		TokenIssuanceID: "MPT-1",
		TokenAmount:     100,
		PriceXRP:        500,
		IssuerAddress:   "rIssuerX",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, int64(1), created.Version)

	// The issuer sees exactly this one open request
	open, err := service.PendingForIssuer(ctx, "rIssuerX")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, int64(100), open[0].TokenAmount)
	assert.Equal(t, float64(500), open[0].PriceXRP)
	assert.Equal(t, StatusPending, open[0].Status)

	// A different issuer sees nothing
	other, err := service.PendingForIssuer(ctx, "rIssuerY")
	require.NoError(t, err)
	assert.Empty(t, other)

	// Approval commits a verifiable condition pair and stays visible
	approved, fulfillment, err := service.Approve(ctx, created.ID, created.Version)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.EscrowCondition)
	require.NotNil(t, approved.CancelAfter)
	assert.NoError(t, VerifyPair(ConditionPair{
		Condition:   *approved.EscrowCondition,
		Fulfillment: fulfillment,
	}))

	open, err = service.PendingForIssuer(ctx, "rIssuerX")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, StatusApproved, open[0].Status)

	// Nothing is completed yet
	completed, err := service.ForIssuer(ctx, "rIssuerX", []Status{StatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, completed)

	escrowed, err := service.MarkEscrowCreated(ctx, created.ID, approved.Version, 42, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, StatusEscrowCreated, escrowed.Status)
	require.NotNil(t, escrowed.EscrowSequence)
	assert.Equal(t, uint32(42), *escrowed.EscrowSequence)

	remover.On("RemoveFromMarketplace", ctx, "MPT-1").Return(nil)
	done, err := service.Complete(ctx, created.ID, escrowed.Version, "FEED5678")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	remover.AssertExpectations(t)

	// Completed requests leave the issuer's open queue
	open, err = service.PendingForIssuer(ctx, "rIssuerX")
	require.NoError(t, err)
	assert.Empty(t, open)

	// The buyer still sees the full history
	mine, err := service.ForBuyer(ctx, "rBuyer")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, StatusCompleted, mine[0].Status)

	assert.NotEmpty(t, publisher.events["rIssuerX"])
	assert.NotEmpty(t, publisher.events["rBuyer"])
}

func TestFulfillmentPairsWithCondition(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newMemRepository(), nil, nil)

	created, err := service.CreateRequest(ctx, CreateParams{
		BuyerAddress: "rBuyer", TokenIssuanceID: "MPT-1",
		TokenAmount: 10, PriceXRP: 25, IssuerAddress: "rIssuer",
	})
	require.NoError(t, err)

	_, _, err = service.Fulfillment(ctx, created.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = service.Approve(ctx, created.ID, created.Version)
	require.NoError(t, err)

	condition, fulfillment, err := service.Fulfillment(ctx, created.ID)
	require.NoError(t, err)
	assert.NoError(t, VerifyPair(ConditionPair{Condition: condition, Fulfillment: fulfillment}))
}

func TestApproveStaleVersion(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newMemRepository(), nil, nil)

	created, err := service.CreateRequest(ctx, CreateParams{
		BuyerAddress: "rBuyer", TokenIssuanceID: "MPT-1",
		TokenAmount: 10, PriceXRP: 25, IssuerAddress: "rIssuer",
	})
	require.NoError(t, err)

	_, _, err = service.Approve(ctx, created.ID, created.Version+7)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestEscrowRequiresApproval(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newMemRepository(), nil, nil)

	created, err := service.CreateRequest(ctx, CreateParams{
		BuyerAddress: "rBuyer", TokenIssuanceID: "MPT-1",
		TokenAmount: 10, PriceXRP: 25, IssuerAddress: "rIssuer",
	})
	require.NoError(t, err)

	_, err = service.MarkEscrowCreated(ctx, created.ID, created.Version, 7, "HASH")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionUnknownID(t *testing.T) {
	service := newTestService(newMemRepository(), nil, nil)

	_, _, err := service.Approve(context.Background(), "PR-missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.Cancel(context.Background(), "PR-missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTerminalRequestsStayPut(t *testing.T) {
	ctx := context.Background()
	service := newTestService(newMemRepository(), nil, nil)

	created, err := service.CreateRequest(ctx, CreateParams{
		BuyerAddress: "rBuyer", TokenIssuanceID: "MPT-1",
		TokenAmount: 10, PriceXRP: 25, IssuerAddress: "rIssuer",
	})
	require.NoError(t, err)

	cancelled, err := service.Cancel(ctx, created.ID, created.Version)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, _, err = service.Approve(ctx, created.ID, cancelled.Version)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelExpired(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepository()
	service := newTestService(repo, nil, nil)

	created, err := service.CreateRequest(ctx, CreateParams{
		BuyerAddress: "rBuyer", TokenIssuanceID: "MPT-1",
		TokenAmount: 10, PriceXRP: 25, IssuerAddress: "rIssuer",
	})
	require.NoError(t, err)

	approved, _, err := service.Approve(ctx, created.ID, created.Version)
	require.NoError(t, err)

	// Force the escrow window into the past
	expired := ledger.RippleTime(time.Now().Add(-2 * time.Hour))
	approved.CancelAfter = &expired
	require.NoError(t, repo.Update(ctx, approved))

	count, err := service.CancelExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	swept, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, swept.Status)
}
