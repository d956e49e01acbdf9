package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/paygate-challenge/internal/domain/order"
	"github.com/xenking/paygate-challenge/internal/instrument"
	"github.com/xenking/paygate-challenge/internal/settlement"
)

// CardInput carries raw card details from the payer. The number is used for
// validation and classification only and is dropped before persistence.
type CardInput struct {
	Number      string
	ExpiryMonth int
	ExpiryYear  int
}

// SubmitRequest holds the input for submitting a payment against an order.
type SubmitRequest struct {
	OrderID string
	Method  string
	VPA     string
	Card    *CardInput
}

// Service runs the payment pipeline: order lookup, instrument validation,
// persisting the processing record, settlement, and the terminal update.
type Service struct {
	orders    order.Repository
	payments  Repository
	simulator *settlement.Simulator
	now       func() time.Time
	sleep     func(time.Duration)
}

// NewService creates a payment Service with the required collaborators.
func NewService(orders order.Repository, payments Repository, sim *settlement.Simulator) *Service {
	return &Service{
		orders:    orders,
		payments:  payments,
		simulator: sim,
		now:       time.Now,
		sleep:     settlementWait,
	}
}

// settlementWait parks the calling goroutine on a timer for d. A parked
// goroutine holds no OS thread, so many in-flight payments can wait out
// their settlement delay concurrently.
func settlementWait(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	<-t.C
}

// Submit processes a payment request to its terminal state and returns the
// final record. The caller stays blocked for the full settlement delay; this
// synchronous contract is intentional. Once settlement begins the request
// cannot be aborted.
//
// Validation failures return before anything is persisted. A failed terminal
// update is logged and the already-determined outcome is still returned, so
// the stored record may briefly lag the response.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Payment, error) {
	o, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}

	p := &Payment{
		ID:         order.NewID("pay_"),
		OrderID:    o.ID,
		MerchantID: o.MerchantID,
		Amount:     o.Amount,
		Currency:   o.Currency,
		Method:     req.Method,
		Status:     StatusProcessing,
		CreatedAt:  s.now().UTC(),
	}
	p.UpdatedAt = p.CreatedAt

	switch req.Method {
	case MethodUPI:
		if !instrument.ValidVPA(req.VPA) {
			return nil, ErrInvalidVPA
		}
		p.VPA = req.VPA
	case MethodCard:
		if req.Card == nil || !instrument.ValidLuhn(req.Card.Number) {
			return nil, ErrInvalidCard
		}
		if !instrument.ValidExpiry(req.Card.ExpiryMonth, req.Card.ExpiryYear, s.now()) {
			return nil, ErrExpiredCard
		}
		p.CardNetwork = instrument.CardNetwork(req.Card.Number)
		p.CardLast4 = instrument.Last4(req.Card.Number)
	default:
		return nil, ErrUnsupportedMethod
	}

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}

	out := s.simulator.Settle(req.Method)
	s.sleep(out.Delay)

	p.Status = StatusSuccess
	if !out.Success {
		p.Status = StatusFailed
		p.ErrorCode = FailureCode
		p.ErrorDesc = FailureDescription
	}
	p.UpdatedAt = s.now().UTC()

	// The outcome is already decided; a write failure here must not flip it.
	if err := s.payments.UpdateTerminal(ctx, p.ID, p.Status, p.ErrorCode, p.ErrorDesc); err != nil {
		zctx.From(ctx).Error("terminal payment update failed",
			zap.String("payment_id", p.ID),
			zap.String("status", p.Status),
			zap.Error(err),
		)
	}

	return p, nil
}

// Get returns the payment identified by id.
func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	return s.payments.GetByID(ctx, id)
}
