package blog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/telemetry/metrics"
	"github.com/2beens/blogsvc/internal/uploads"
	"github.com/2beens/blogsvc/internal/users"
	"github.com/2beens/blogsvc/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=blog_test

type imageStore interface {
	Save(ctx context.Context, folder string, file io.Reader) (string, error)
}

type Handler struct {
	service        *Service
	images         imageStore
	metricsManager *metrics.Manager
	publicBaseURL  string
}

type PostsResponse struct {
	Success bool    `json:"success"`
	Count   int     `json:"count"`
	Blogs   []*Post `json:"blogs"`
}

type PublishResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Blog    *Post  `json:"blog"`
}

type LikeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	LikeResult
}

type CommentResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	CommentsCount int    `json:"commentsCount"`
}

func NewHandler(
	service *Service,
	images imageStore,
	metricsManager *metrics.Manager,
	publicBaseURL string,
) *Handler {
	return &Handler{
		service:        service,
		images:         images,
		metricsManager: metricsManager,
		publicBaseURL:  publicBaseURL,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router, protect func(http.Handler) http.Handler) {
	guarded := func(f http.HandlerFunc) http.Handler {
		return protect(f)
	}

	// static segments go before /api/blogs/{id}
	r.Handle("/api/blogs/publish", guarded(h.HandlePublish)).Methods("POST", "OPTIONS").Name("publish-blog")
	r.HandleFunc("/api/blogs", h.HandleList).Methods("GET", "OPTIONS").Name("list-blogs")
	r.Handle("/api/blogs/user", guarded(h.HandleCallerPosts)).Methods("GET", "OPTIONS").Name("caller-blogs")
	r.Handle("/api/blogs/user/{userId}", guarded(h.HandleOwnerPosts)).Methods("GET", "OPTIONS").Name("user-blogs")
	r.Handle("/api/blogs/like/{blogId}", guarded(h.HandleToggleLike)).Methods("PUT", "OPTIONS").Name("like-blog")
	r.Handle("/api/blogs/comment/{blogId}", guarded(h.HandleInlineComment)).Methods("POST", "OPTIONS").Name("comment-blog")
	r.HandleFunc("/api/blogs/{id}", h.HandleGet).Methods("GET", "OPTIONS").Name("get-blog")

	r.Handle("/api/comments", guarded(h.HandleAddComment)).Methods("POST", "OPTIONS").Name("add-comment")
	r.Handle("/api/comments", guarded(h.HandleMissingBlogID)).Methods("GET").Name("comments-no-blog")
	r.Handle("/api/comments/blog/{blogId}", guarded(h.HandleListComments)).Methods("GET", "OPTIONS").Name("list-comments")

	r.Handle("/api/user/user-blogs", guarded(h.HandleSummaries)).Methods("GET", "OPTIONS").Name("user-dashboard-blogs")
	r.Handle("/api/user/dashboard", guarded(h.HandleDashboard)).Methods("GET", "OPTIONS").Name("dashboard")
}

// presentPost returns a copy of the post with the stored featured image path
// turned into an absolute URL.
func (h *Handler) presentPost(r *http.Request, post *Post) *Post {
	if post == nil {
		return nil
	}
	presented := *post
	presented.FeaturedImage = uploads.PublicURL(r, h.publicBaseURL, post.FeaturedImage)
	return &presented
}

func (h *Handler) presentPosts(r *http.Request, posts []*Post) []*Post {
	presented := make([]*Post, 0, len(posts))
	for _, p := range posts {
		presented = append(presented, h.presentPost(r, p))
	}
	return presented
}

func (h *Handler) writePosts(w http.ResponseWriter, r *http.Request, posts []*Post) {
	pkg.WriteJSON(w, PostsResponse{
		Success: true,
		Count:   len(posts),
		Blogs:   h.presentPosts(r, posts),
	}, http.StatusOK)
}

func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	caller, ok := users.FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	var req PublishRequest
	if uploads.IsMultipart(r) {
		var err error
		req, err = h.publishRequestFromForm(r)
		if err != nil {
			apperr.WriteError(w, r, err)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("publish blog, decode request: %s", err)
		apperr.WriteError(w, r, apperr.WithMessage(apperr.ErrValidation, "Invalid request body"))
		return
	}

	post, err := h.service.Publish(r.Context(), caller, req)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	h.metricsManager.CounterPostsPublished.Inc()

	pkg.WriteJSON(w, PublishResponse{
		Success: true,
		Message: "Blog published successfully",
		Blog:    h.presentPost(r, post),
	}, http.StatusCreated)
}

// publishRequestFromForm reads the post fields of a multipart form and stores the
// optional featured image. Fields are validated before anything is written to disk.
func (h *Handler) publishRequestFromForm(r *http.Request) (PublishRequest, error) {
	file, err := uploads.FormFile(r, "featuredImage")
	if err != nil && !errors.Is(err, uploads.ErrNoFile) {
		return PublishRequest{}, err
	}

	req := PublishRequest{
		Title:    r.FormValue("title"),
		Category: r.FormValue("category"),
		Content:  r.FormValue("content"),
	}
	if file == nil {
		return req, req.Validate()
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("close uploaded featured image: %s", err)
		}
	}()

	if err := req.Validate(); err != nil {
		return req, err
	}

	imagePath, err := h.images.Save(r.Context(), uploads.FolderBlogs, file)
	if err != nil {
		return req, err
	}
	// stored relative, made absolute when presented
	req.FeaturedImage = imagePath

	return req, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context())
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	h.writePosts(w, r, posts)
}

func (h *Handler) HandleCallerPosts(w http.ResponseWriter, r *http.Request) {
	caller, ok := users.FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	posts, err := h.service.ListByOwner(r.Context(), caller.ID.String())
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	h.writePosts(w, r, posts)
}

func (h *Handler) HandleOwnerPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListByOwner(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	h.writePosts(w, r, posts)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	single, err := h.service.GetSingle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	pkg.WriteJSON(w, &SinglePost{
		Article:         h.presentPost(r, single.Article),
		RelatedArticles: h.presentPosts(r, single.RelatedArticles),
		Comments:        single.Comments,
	}, http.StatusOK)
}

func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	caller, ok := users.FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	res, err := h.service.ToggleLike(r.Context(), caller.ID, mux.Vars(r)["blogId"])
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	h.metricsManager.CounterLikeToggles.WithLabelValues(strconv.FormatBool(res.Liked)).Inc()

	pkg.WriteJSON(w, LikeResponse{
		Success:    true,
		Message:    "Blog like updated",
		LikeResult: *res,
	}, http.StatusOK)
}
