package users

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/uploads"
	"github.com/2beens/blogsvc/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=users_test

type imageStore interface {
	Save(ctx context.Context, folder string, file io.Reader) (string, error)
}

type Handler struct {
	service       *Service
	images        imageStore
	publicBaseURL string
}

type ProfileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user"`
}

func NewHandler(service *Service, images imageStore, publicBaseURL string) *Handler {
	return &Handler{
		service:       service,
		images:        images,
		publicBaseURL: publicBaseURL,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router, protect func(http.Handler) http.Handler) {
	r.Handle("/api/user/profile", protect(http.HandlerFunc(h.HandleProfile))).Methods("GET", "OPTIONS").Name("user-profile")
	r.Handle("/api/user/update", protect(http.HandlerFunc(h.HandleUpdate))).Methods("PUT", "OPTIONS").Name("user-update")
	r.Handle("/api/user/upload-profile", protect(http.HandlerFunc(h.HandleUploadProfileImage))).Methods("POST", "OPTIONS").Name("user-upload-profile")
}

func (h *Handler) present(r *http.Request, user *User) *User {
	presented := user.Sanitized()
	presented.ProfileImage = uploads.PublicURL(r, h.publicBaseURL, user.ProfileImage)
	return presented
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	user, err := h.service.Profile(r.Context(), caller.ID)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	pkg.WriteJSON(w, ProfileResponse{
		Success: true,
		User:    h.present(r, user),
	}, http.StatusOK)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("update profile, decode request: %s", err)
		apperr.WriteError(w, r, apperr.WithMessage(apperr.ErrValidation, "Invalid request body"))
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), caller.ID, req)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	pkg.WriteJSON(w, ProfileResponse{
		Success: true,
		Message: "Profile updated successfully",
		User:    h.present(r, user),
	}, http.StatusOK)
}

func (h *Handler) HandleUploadProfileImage(w http.ResponseWriter, r *http.Request) {
	caller, ok := FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	file, err := uploads.FormFile(r, "profileImage")
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("close uploaded profile image: %s", err)
		}
	}()

	imagePath, err := h.images.Save(r.Context(), uploads.FolderProfiles, file)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	user, err := h.service.SetProfileImage(r.Context(), caller.ID, imagePath)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	log.Debugf("user %s profile image set: %s", caller.ID, imagePath)

	pkg.WriteJSON(w, ProfileResponse{
		Success: true,
		Message: "Profile image updated successfully",
		User:    h.present(r, user),
	}, http.StatusOK)
}
