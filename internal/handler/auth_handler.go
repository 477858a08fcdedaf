package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-contacts-api/internal/model"
	"go-contacts-api/internal/service"
	"go-contacts-api/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if payload.RefreshToken == "" {
		writeError(w, apierror.New("BAD_REQUEST", "refresh_token is required", "refresh_token", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}

// ConfirmEmail handles the link from the confirmation email. Token failures
// map to 400 here rather than 401: the caller is not authenticating.
func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	already, err := h.service.ConfirmEmail(r.Context(), token)
	if errors.Is(err, model.ErrInvalidToken) {
		writeError(w, apierror.New("BAD_REQUEST", "invalid or expired confirmation token", "", http.StatusBadRequest))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Email confirmed"
	if already {
		message = "Email is already confirmed"
	}
	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: message})
}

func (h *AuthHandler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RequestEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	already, err := h.service.RequestConfirmation(r.Context(), payload.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Check your email for a confirmation link"
	if already {
		message = "Email is already confirmed"
	}
	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: message})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if err := h.service.ForgotPassword(r.Context(), payload.Email); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Password reset email sent, check your inbox"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.PasswordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if strings.TrimSpace(payload.NewPassword) == "" {
		writeError(w, apierror.New("BAD_REQUEST", "new_password is required", "new_password", http.StatusBadRequest))
		return
	}

	err := h.service.ResetPassword(r.Context(), payload.Token, payload.NewPassword)
	if errors.Is(err, model.ErrInvalidToken) {
		writeError(w, apierror.New("BAD_REQUEST", "invalid or expired reset token", "", http.StatusBadRequest))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Password successfully reset"})
}
