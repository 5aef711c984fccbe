package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/kbukum/audioscribe/errors"
)

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}

func payloadTooLarge(limit int64) *errors.AppError {
	return errors.New(errors.ErrCodeInvalidInput, "Request body is too large", http.StatusRequestEntityTooLarge).
		WithDetail("limit_bytes", limit)
}
