package blog

import (
	"net/http"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/users"
	"github.com/2beens/blogsvc/pkg"
)

type SummariesResponse struct {
	Success bool       `json:"success"`
	Blogs   []*Summary `json:"blogs"`
}

type DashboardResponse struct {
	Success bool `json:"success"`
	*Dashboard
}

func (h *Handler) HandleSummaries(w http.ResponseWriter, r *http.Request) {
	caller, ok := users.FromContext(r.Context())
	if !ok {
		apperr.WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	summaries, err := h.service.Summaries(r.Context(), caller.ID)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	pkg.WriteJSON(w, SummariesResponse{
		Success: true,
		Blogs:   summaries,
	}, http.StatusOK)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	pkg.WriteJSON(w, DashboardResponse{
		Success: true,
		Dashboard: &Dashboard{
			TotalUsers:  dashboard.TotalUsers,
			TotalBlogs:  dashboard.TotalBlogs,
			RecentBlogs: h.presentPosts(r, dashboard.RecentBlogs),
		},
	}, http.StatusOK)
}
