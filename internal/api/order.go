package api

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/paygate-challenge/internal/domain/order"
)

// createOrderRequest mirrors the POST /orders body.
type createOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    string
}

func decodeCreateOrder(r io.Reader) (createOrderRequest, error) {
	var req createOrderRequest
	d := jx.Decode(r, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "amount":
			req.Amount, err = d.Int64()
		case "currency":
			req.Currency, err = d.Str()
		case "receipt":
			req.Receipt, err = d.Str()
		case "notes":
			req.Notes, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("merchant_id")
	e.Str(o.MerchantID)
	e.FieldStart("amount")
	e.Int64(o.Amount)
	e.FieldStart("currency")
	e.Str(o.Currency)
	if o.Receipt != "" {
		e.FieldStart("receipt")
		e.Str(o.Receipt)
	}
	if o.Notes != "" {
		e.FieldStart("notes")
		e.Str(o.Notes)
	}
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.Format(timeFormat))
	e.ObjEnd()
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	m := h.requireMerchant(w, r)
	if m == nil {
		return
	}

	req, err := decodeCreateOrder(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.Create(r.Context(), order.CreateOrderRequest{
		MerchantID: m.ID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Receipt:    req.Receipt,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, order.ErrAmountTooSmall) {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		writeInternal(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrder(e, o)
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	m := h.requireMerchant(w, r)
	if m == nil {
		return
	}

	o, err := h.orders.Get(r.Context(), r.PathValue("orderID"), m.ID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Order not found")
			return
		}
		writeInternal(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrder(e, o)
	writeJSON(w, http.StatusOK, e)
}

// getOrderPublic serves the checkout page a trimmed, unauthenticated view.
func (h *Handler) getOrderPublic(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetPublic(r.Context(), r.PathValue("orderID"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Order not found")
			return
		}
		writeInternal(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("amount")
	e.Int64(o.Amount)
	e.FieldStart("currency")
	e.Str(o.Currency)
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("merchant_id")
	e.Str(o.MerchantID)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}
