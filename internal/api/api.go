// Package api contains the HTTP handlers for the gateway: order management,
// payment submission, the merchant dashboard, and credential authentication.
// Request and response bodies are encoded with go-faster/jx.
package api

import (
	"net/http"

	"github.com/xenking/paygate-challenge/internal/domain/merchant"
	"github.com/xenking/paygate-challenge/internal/domain/order"
	"github.com/xenking/paygate-challenge/internal/domain/payment"
)

// Handler serves the /api/v1 surface, delegating business logic to the
// injected domain services.
type Handler struct {
	orders     *order.Service
	payments   *payment.Service
	dashboards payment.DashboardRepository
	merchants  merchant.Repository
	pepper     []byte
}

// NewHandler constructs a Handler with the required domain dependencies.
// pepper is the HMAC key used to hash merchant API secrets.
func NewHandler(
	orders *order.Service,
	payments *payment.Service,
	dashboards payment.DashboardRepository,
	merchants merchant.Repository,
	pepper []byte,
) *Handler {
	return &Handler{
		orders:     orders,
		payments:   payments,
		dashboards: dashboards,
		merchants:  merchants,
		pepper:     pepper,
	}
}

// Register mounts all API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/orders", h.createOrder)
	mux.HandleFunc("GET /api/v1/orders/{orderID}", h.getOrder)
	mux.HandleFunc("GET /api/v1/orders/{orderID}/public", h.getOrderPublic)
	mux.HandleFunc("POST /api/v1/payments", h.createPayment)
	mux.HandleFunc("GET /api/v1/payments/{paymentID}", h.getPayment)
	mux.HandleFunc("GET /api/v1/merchant/stats", h.merchantStats)
	mux.HandleFunc("GET /api/v1/test/merchant", h.testMerchant)
}
