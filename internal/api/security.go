package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/paygate-challenge/internal/domain/merchant"
)

var errUnauthorized = errors.New("unauthorized")

// SecretHash computes the hex HMAC-SHA256 of an API secret under pepper.
// Stored merchant credentials hold this hash, never the secret itself.
func SecretHash(pepper []byte, secret string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// authenticate resolves the X-Api-Key / X-Api-Secret headers to a merchant.
// The secret is compared in constant time against the stored HMAC hash.
func (h *Handler) authenticate(r *http.Request) (*merchant.Merchant, error) {
	apiKey := r.Header.Get("X-Api-Key")
	apiSecret := r.Header.Get("X-Api-Secret")
	if apiKey == "" || apiSecret == "" {
		return nil, errUnauthorized
	}

	m, err := h.merchants.FindByAPIKey(r.Context(), apiKey)
	if err != nil {
		return nil, errUnauthorized
	}

	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(apiSecret))
	computed := mac.Sum(nil)

	stored, err := hex.DecodeString(m.SecretHash)
	if err != nil {
		return nil, errUnauthorized
	}

	if subtle.ConstantTimeCompare(computed, stored) != 1 {
		return nil, errUnauthorized
	}

	return m, nil
}

// requireMerchant authenticates the request or writes a 401 and returns nil.
func (h *Handler) requireMerchant(w http.ResponseWriter, r *http.Request) *merchant.Merchant {
	m, err := h.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeAuthentication, "Invalid API credentials")
		return nil
	}
	return m
}
