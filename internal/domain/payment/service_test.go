package payment

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/paygate-challenge/internal/domain/order"
	"github.com/xenking/paygate-challenge/internal/instrument"
	"github.com/xenking/paygate-challenge/internal/settlement"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID   map[string]*order.Order
	getErr error
}

func (m *mockOrderRepo) Create(_ context.Context, _ *order.Order) error { return nil }

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) GetForMerchant(_ context.Context, id, _ string) (*order.Order, error) {
	return m.GetByID(context.Background(), id)
}

type mockPaymentRepo struct {
	created     *Payment
	createErr   error
	terminalID  string
	terminal    string
	terminalErr error
}

func (m *mockPaymentRepo) Create(_ context.Context, p *Payment) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *p
	m.created = &cp
	return nil
}

func (m *mockPaymentRepo) UpdateTerminal(_ context.Context, id, status, _, _ string) error {
	m.terminalID = id
	m.terminal = status
	return m.terminalErr
}

func (m *mockPaymentRepo) GetByID(_ context.Context, _ string) (*Payment, error) {
	if m.created == nil {
		return nil, ErrNotFound
	}
	return m.created, nil
}

// --- Helpers ---

func ptr[T any](v T) *T { return &v }

func testOrder() *order.Order {
	return &order.Order{
		ID:         "order_0123456789abcdef",
		MerchantID: "merch_1",
		Amount:     500,
		Currency:   "INR",
		Status:     order.StatusCreated,
	}
}

func forcedSimulator(success bool) *settlement.Simulator {
	return settlement.New(settlement.Config{
		TestMode:      true,
		ForcedDelay:   ptr(time.Duration(0)),
		ForcedOutcome: ptr(success),
	}, nil)
}

func newTestService(orders *mockOrderRepo, payments *mockPaymentRepo, success bool) *Service {
	svc := NewService(orders, payments, forcedSimulator(success))
	svc.now = func() time.Time {
		return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

// --- Tests ---

func TestSubmit_OrderNotFound(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newTestService(&mockOrderRepo{}, repo, true)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_missing",
		Method:  MethodUPI,
		VPA:     "pay@bank",
	})

	require.ErrorIs(t, err, ErrOrderNotFound)
	assert.Nil(t, repo.created, "no payment should be persisted")
}

func TestSubmit_UnsupportedMethod(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, true)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  "netbanking",
	})

	require.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.Nil(t, repo.created)
}

func TestSubmit_InvalidVPA(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, true)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodUPI,
		VPA:     "not a vpa",
	})

	require.ErrorIs(t, err, ErrInvalidVPA)
	assert.Nil(t, repo.created)
}

func TestSubmit_InvalidCardNumber(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, true)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodCard,
		Card:    &CardInput{Number: "4111111111111112", ExpiryMonth: 12, ExpiryYear: 30},
	})

	require.ErrorIs(t, err, ErrInvalidCard)
	assert.Nil(t, repo.created)
}

func TestSubmit_MissingCardDetails(t *testing.T) {
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, &mockPaymentRepo{}, true)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodCard,
	})

	require.ErrorIs(t, err, ErrInvalidCard)
}

func TestSubmit_ExpiredCard(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, true)

	// Service clock is fixed at 2024-06; 05/24 is one month past.
	_, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodCard,
		Card:    &CardInput{Number: "4111111111111111", ExpiryMonth: 5, ExpiryYear: 24},
	})

	require.ErrorIs(t, err, ErrExpiredCard)
	assert.Nil(t, repo.created)
}

func TestSubmit_UPISuccess(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, true)

	p, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodUPI,
		VPA:     "pay@bank",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, p.Status)
	assert.Equal(t, "pay@bank", p.VPA)
	assert.Empty(t, p.ErrorCode)

	// Amount and currency are inherited from the order.
	assert.Equal(t, int64(500), p.Amount)
	assert.Equal(t, "INR", p.Currency)
	assert.Equal(t, "merch_1", p.MerchantID)

	// The record was persisted as processing before settlement.
	require.NotNil(t, repo.created)
	assert.Equal(t, StatusProcessing, repo.created.Status)
	assert.Equal(t, p.ID, repo.terminalID)
	assert.Equal(t, StatusSuccess, repo.terminal)
}

func TestSubmit_CardSuccessKeepsOnlySummary(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, true)

	p, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodCard,
		Card:    &CardInput{Number: "4111 1111 1111 1111", ExpiryMonth: 12, ExpiryYear: 30},
	})

	require.NoError(t, err)
	assert.Equal(t, instrument.NetworkVisa, p.CardNetwork)
	assert.Equal(t, "1111", p.CardLast4)
	assert.Empty(t, p.VPA)

	require.NotNil(t, repo.created)
	assert.Equal(t, "1111", repo.created.CardLast4)
}

func TestSubmit_ForcedFailure(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, false)

	p, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodUPI,
		VPA:     "pay@bank",
	})

	// A declined instrument is a normal terminal outcome, not an error.
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, FailureCode, p.ErrorCode)
	assert.Equal(t, FailureDescription, p.ErrorDesc)
	assert.Equal(t, StatusFailed, repo.terminal)
}

func TestSubmit_CreateError(t *testing.T) {
	repo := &mockPaymentRepo{createErr: errors.New("db write failed")}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, true)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodUPI,
		VPA:     "pay@bank",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create payment")
	assert.Empty(t, repo.terminalID, "settlement must not run after a create failure")
}

func TestSubmit_TerminalUpdateErrorStillReturnsOutcome(t *testing.T) {
	repo := &mockPaymentRepo{terminalErr: errors.New("db write failed")}
	svc := newTestService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, true)

	p, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodUPI,
		VPA:     "pay@bank",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, p.Status)
}

func TestSubmit_WaitsForSettlementDelay(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := NewService(&mockOrderRepo{byID: map[string]*order.Order{
		"order_0123456789abcdef": testOrder(),
	}}, repo, settlement.New(settlement.Config{
		TestMode:      true,
		ForcedDelay:   ptr(1500 * time.Millisecond),
		ForcedOutcome: ptr(true),
	}, nil))

	var slept time.Duration
	svc.sleep = func(d time.Duration) { slept = d }

	_, err := svc.Submit(context.Background(), SubmitRequest{
		OrderID: "order_0123456789abcdef",
		Method:  MethodUPI,
		VPA:     "pay@bank",
	})

	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, slept)
}
