package uploads

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
)

// FormFile returns the file sent in the multipart field, ErrNoFile when missing.
// The caller closes the returned file.
func FormFile(r *http.Request, field string) (multipart.File, error) {
	// allow a bit of room for the other form fields
	r.Body = http.MaxBytesReader(nil, r.Body, MaxFileSize+1024*1024)
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, ErrFileTooBig
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrNoFile
		}
		return nil, err
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrNoFile
		}
		return nil, err
	}
	return file, nil
}

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// PublicURL turns a stored file path into an absolute URL. Absolute values are kept,
// when baseURL is empty the request scheme and host are used.
func PublicURL(r *http.Request, baseURL, filePath string) string {
	if filePath == "" || strings.HasPrefix(filePath, "http") {
		return filePath
	}

	if baseURL == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
			scheme = forwarded
		}
		baseURL = scheme + "://" + r.Host
	}

	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(filePath, "/")
}
