package blog

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/users"
	"github.com/2beens/blogsvc/pkg"
)

type InlineCommentRequest struct {
	Comment string `json:"comment"`
}

type AddCommentRequest struct {
	BlogID string `json:"blogId"`
	Text   string `json:"text"`
}

func (h *Handler) HandleInlineComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := users.FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	var req InlineCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("inline comment, decode request: %s", err)
		apperr.WriteError(w, r, apperr.WithMessage(apperr.ErrValidation, "Invalid request body"))
		return
	}

	_, count, err := h.service.AddComment(r.Context(), caller, mux.Vars(r)["blogId"], req.Comment)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	h.metricsManager.CounterCommentsAdded.Inc()

	pkg.WriteJSON(w, CommentResponse{
		Success:       true,
		Message:       "Comment added successfully",
		CommentsCount: count,
	}, http.StatusOK)
}

func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := users.FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("add comment, decode request: %s", err)
		apperr.WriteError(w, r, apperr.WithMessage(apperr.ErrValidation, "Invalid request body"))
		return
	}
	if strings.TrimSpace(req.BlogID) == "" || req.Text == "" {
		apperr.WriteError(w, r, apperr.WithMessage(apperr.ErrValidation, "All fields required"))
		return
	}

	comment, _, err := h.service.AddComment(r.Context(), caller, req.BlogID, req.Text)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	h.metricsManager.CounterCommentsAdded.Inc()

	pkg.WriteJSON(w, comment, http.StatusCreated)
}

func (h *Handler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), mux.Vars(r)["blogId"])
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	pkg.WriteJSON(w, comments, http.StatusOK)
}

func (h *Handler) HandleMissingBlogID(w http.ResponseWriter, r *http.Request) {
	apperr.WriteError(w, r, apperr.WithMessage(apperr.ErrValidation, "Blog ID required"))
}
