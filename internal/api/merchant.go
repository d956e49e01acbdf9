package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/paygate-challenge/internal/domain/merchant"
)

const recentPaymentsLimit = 10

// testMerchantEmail identifies the merchant seeded for local development.
const testMerchantEmail = "test@example.com"

// merchantStats serves the dashboard: rollup totals plus recent payments.
func (h *Handler) merchantStats(w http.ResponseWriter, r *http.Request) {
	m := h.requireMerchant(w, r)
	if m == nil {
		return
	}

	stats, err := h.dashboards.Stats(r.Context(), m.ID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	recent, err := h.dashboards.ListRecent(r.Context(), m.ID, recentPaymentsLimit)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("stats")
	e.ObjStart()
	e.FieldStart("total_transactions")
	e.Int64(stats.TotalTransactions)
	e.FieldStart("total_amount")
	e.Int64(stats.TotalAmount)
	e.FieldStart("success_rate")
	e.Int64(stats.SuccessRate)
	e.ObjEnd()
	e.FieldStart("transactions")
	e.ArrStart()
	for _, p := range recent {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(p.ID)
		e.FieldStart("order_id")
		e.Str(p.OrderID)
		e.FieldStart("amount")
		e.Int64(p.Amount)
		e.FieldStart("method")
		e.Str(p.Method)
		e.FieldStart("status")
		e.Str(p.Status)
		e.FieldStart("created_at")
		e.Str(p.CreatedAt.Format(timeFormat))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}

// testMerchant exposes the seeded development merchant so local checkout
// flows can bootstrap credentials. Never returns the secret.
func (h *Handler) testMerchant(w http.ResponseWriter, r *http.Request) {
	m, err := h.merchants.FindByEmail(r.Context(), testMerchantEmail)
	if err != nil {
		if errors.Is(err, merchant.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Test merchant not seeded")
			return
		}
		writeInternal(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("id")
	e.Str(m.ID)
	e.FieldStart("email")
	e.Str(m.Email)
	e.FieldStart("api_key")
	e.Str(m.APIKey)
	e.FieldStart("seeded")
	e.Bool(true)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}
