package api

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// timeFormat is the wire format for all timestamps.
const timeFormat = time.RFC3339

// Error codes exposed on the wire.
const (
	codeBadRequest     = "BAD_REQUEST_ERROR"
	codeNotFound       = "NOT_FOUND_ERROR"
	codeAuthentication = "AUTHENTICATION_ERROR"
	codeInternal       = "INTERNAL_ERROR"
	codeInvalidVPA     = "INVALID_VPA"
	codeInvalidCard    = "INVALID_CARD"
	codeExpiredCard    = "EXPIRED_CARD"
)

// writeJSON sends a jx-encoded body with the given status.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError sends the canonical {"error":{"code","description"}} body.
func writeError(w http.ResponseWriter, status int, code, description string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("error")
	e.ObjStart()
	e.FieldStart("code")
	e.Str(code)
	e.FieldStart("description")
	e.Str(description)
	e.ObjEnd()
	e.ObjEnd()
	writeJSON(w, status, e)
}

// writeInternal logs err and sends a generic 500. Infrastructure errors are
// never detailed to the caller.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "Internal Server Error")
}
