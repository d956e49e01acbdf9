package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/paygate-challenge/internal/domain/payment"
)

func decodeSubmitPayment(r io.Reader) (payment.SubmitRequest, error) {
	var req payment.SubmitRequest
	d := jx.Decode(r, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "order_id":
			req.OrderID, err = d.Str()
		case "method":
			req.Method, err = d.Str()
		case "vpa":
			req.VPA, err = d.Str()
		case "card":
			card := &payment.CardInput{}
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "number":
					card.Number, err = d.Str()
				case "expiry_month":
					card.ExpiryMonth, err = decodeIntish(d)
				case "expiry_year":
					card.ExpiryYear, err = decodeIntish(d)
				default:
					err = d.Skip()
				}
				return err
			})
			req.Card = card
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

// decodeIntish accepts both 12 and "12"; checkout forms are loose about
// numeric types.
func decodeIntish(d *jx.Decoder) (int, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(s)
	}
	return d.Int()
}

func encodePayment(e *jx.Encoder, p *payment.Payment) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("order_id")
	e.Str(p.OrderID)
	e.FieldStart("merchant_id")
	e.Str(p.MerchantID)
	e.FieldStart("amount")
	e.Int64(p.Amount)
	e.FieldStart("currency")
	e.Str(p.Currency)
	e.FieldStart("method")
	e.Str(p.Method)
	e.FieldStart("status")
	e.Str(p.Status)
	if p.VPA != "" {
		e.FieldStart("vpa")
		e.Str(p.VPA)
	}
	if p.CardLast4 != "" {
		e.FieldStart("card_network")
		e.Str(string(p.CardNetwork))
		e.FieldStart("card_last4")
		e.Str(p.CardLast4)
	}
	if p.ErrorCode != "" {
		e.FieldStart("error_code")
		e.Str(p.ErrorCode)
		e.FieldStart("error_description")
		e.Str(p.ErrorDesc)
	}
	e.FieldStart("created_at")
	e.Str(p.CreatedAt.Format(timeFormat))
	e.FieldStart("updated_at")
	e.Str(p.UpdatedAt.Format(timeFormat))
	e.ObjEnd()
}

// createPayment is the orchestrator boundary. Public by design: the checkout
// page submits payments with only an order reference. The response is not
// written until settlement concludes.
func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmitPayment(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	p, err := h.payments.Submit(r.Context(), req)
	if err != nil {
		h.writePaymentError(w, r, err)
		return
	}

	// A declined payment is still a completed request: 201 with status failed.
	e := &jx.Encoder{}
	encodePayment(e, p)
	writeJSON(w, http.StatusCreated, e)
}

// writePaymentError maps pipeline errors onto the wire contract. An unknown
// order is deliberately a 400 BAD_REQUEST_ERROR rather than a 404; merchants
// integrate against this mapping.
func (h *Handler) writePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payment.ErrOrderNotFound):
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid Order ID")
	case errors.Is(err, payment.ErrUnsupportedMethod):
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid method")
	case errors.Is(err, payment.ErrInvalidVPA):
		writeError(w, http.StatusBadRequest, codeInvalidVPA, "Invalid VPA format")
	case errors.Is(err, payment.ErrInvalidCard):
		writeError(w, http.StatusBadRequest, codeInvalidCard, "Invalid Card Number")
	case errors.Is(err, payment.ErrExpiredCard):
		writeError(w, http.StatusBadRequest, codeExpiredCard, "Card Expired")
	default:
		writeInternal(w, r, err)
	}
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.Get(r.Context(), r.PathValue("paymentID"))
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Payment not found")
			return
		}
		writeInternal(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodePayment(e, p)
	writeJSON(w, http.StatusOK, e)
}
