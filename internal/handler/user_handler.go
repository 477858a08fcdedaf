package handler

import (
	"net/http"

	"go-contacts-api/internal/middleware"
	"go-contacts-api/internal/service"
	"go-contacts-api/pkg/apierror"
)

const maxAvatarSize = 10 << 20 // 10 MiB

type UserHandler struct {
	avatars *service.AvatarService
}

func NewUserHandler(avatars *service.AvatarService) *UserHandler {
	return &UserHandler{avatars: avatars}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHENTICATED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	writeSuccess(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHENTICATED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid multipart form", err.Error(), http.StatusBadRequest))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "file field is required", "", http.StatusBadRequest))
		return
	}
	defer file.Close()

	updated, err := h.avatars.UpdateAvatar(r.Context(), user, http.MaxBytesReader(w, file, maxAvatarSize))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated)
}
