package apperr

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogsvc/pkg"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteError answers with the status and public message err maps to.
// Unexpected errors are logged, their details never reach the caller.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
	} else {
		log.Tracef("%s %s: %d: %s", r.Method, r.URL.Path, status, err)
	}

	pkg.WriteJSON(w, ErrorResponse{
		Success: false,
		Message: PublicMessage(err),
	}, status)
}
