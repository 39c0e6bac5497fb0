package uploads

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/telemetry/tracing"
)

const (
	MaxFileSize = 5 * 1024 * 1024 // 5MB
	URLPrefix   = "/uploads/"

	FolderProfiles = "profiles"
	FolderBlogs    = "blogs"
)

var (
	ErrNoFile          = apperr.WithMessage(apperr.ErrValidation, "No file uploaded")
	ErrFileTooBig      = apperr.WithMessage(apperr.ErrValidation, "File too large, max size is 5MB")
	ErrUnsupportedType = apperr.WithMessage(apperr.ErrValidation, "Only JPEG, PNG, and WEBP files are allowed")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// DiskStore keeps uploaded images on the local disk, under rootPath/<folder>.
type DiskStore struct {
	rootPath string
}

func NewDiskStore(rootPath string) (*DiskStore, error) {
	if rootPath == "" {
		return nil, errors.New("root path cannot be empty")
	}
	for _, folder := range []string{FolderProfiles, FolderBlogs} {
		if err := os.MkdirAll(filepath.Join(rootPath, folder), 0o755); err != nil {
			return nil, fmt.Errorf("create uploads folder %s: %w", folder, err)
		}
	}
	return &DiskStore{
		rootPath: rootPath,
	}, nil
}

// Save writes the image into folder and returns its URL path, e.g. /uploads/blogs/<id>.png.
// The type is sniffed from the content, the client supplied one is ignored.
func (ds *DiskStore) Save(ctx context.Context, folder string, file io.Reader) (_ string, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "uploads.diskStore.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if folder != FolderProfiles && folder != FolderBlogs {
		return "", fmt.Errorf("unknown uploads folder: %s", folder)
	}

	br := bufio.NewReaderSize(file, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read file head: %w", err)
	}
	if len(head) == 0 {
		return "", ErrNoFile
	}

	contentType := http.DetectContentType(head)
	ext, ok := allowedTypes[contentType]
	if !ok {
		log.Debugf("uploads: rejected file of type %s", contentType)
		return "", ErrUnsupportedType
	}

	fileName := uuid.NewString() + ext
	filePath := filepath.Join(ds.rootPath, folder, fileName)
	span.SetAttributes(
		attribute.String("file.name", fileName),
		attribute.String("file.type", contentType),
	)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(br, MaxFileSize+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > MaxFileSize {
		err = ErrFileTooBig
	}
	if err != nil {
		if removeErr := os.Remove(filePath); removeErr != nil {
			log.Errorf("uploads: remove partial file %s: %s", filePath, removeErr)
		}
		return "", err
	}

	span.SetAttributes(attribute.Int64("file.size", written))
	log.Debugf("uploads: saved %s (%d bytes)", filePath, written)

	return path.Join(URLPrefix, folder, fileName), nil
}

// Handler serves the stored files, directory listings are not exposed.
func (ds *DiskStore) Handler() http.Handler {
	fileServer := http.StripPrefix(strings.TrimSuffix(URLPrefix, "/"), http.FileServer(http.Dir(ds.rootPath)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
