package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError maps the failure taxonomy to HTTP statuses. Store and cache
// I/O failures fall through to the retryable default instead of being
// swallowed.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusServiceUnavailable
	body := &model.APIError{
		Code:    "UNAVAILABLE",
		Message: "Temporary failure, please retry",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid username or password"
	case errors.Is(err, model.ErrEmailUnconfirmed):
		status = http.StatusUnauthorized
		body.Code = "EMAIL_UNCONFIRMED"
		body.Message = "Email address is not confirmed"
	case errors.Is(err, model.ErrUnauthenticated):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHENTICATED"
		body.Message = "Authentication required"
		w.Header().Set("WWW-Authenticate", "Bearer")
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	case errors.Is(err, model.ErrInvalidToken):
		status = http.StatusUnauthorized
		body.Code = "INVALID_TOKEN"
		body.Message = "Invalid or expired token"
	case errors.Is(err, model.ErrEmailTaken):
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "A user with this email already exists"
	case errors.Is(err, model.ErrUsernameTaken):
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "A user with this username already exists"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
