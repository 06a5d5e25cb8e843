package storefront

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/marketplace/handler"
	"github.com/dmitrymomot/marketplace/pkg/media"
	"github.com/dmitrymomot/marketplace/pkg/schema"
)

// multipartOverhead is allowed on top of the file size for form boundaries and headers.
const multipartOverhead = 1 << 20

// MediaService lists and stores files in the active tenant's media directory.
type MediaService struct {
	store   media.Storage
	maxSize int64
}

// NewMediaService limits uploads to maxSize bytes; maxSize <= 0 means 10 MiB.
func NewMediaService(store media.Storage, maxSize int64) *MediaService {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &MediaService{store: store, maxSize: maxSize}
}

func (s *MediaService) Register(r chi.Router, eh handler.ErrorHandler[handler.Context]) {
	r.Get("/media", route(s.list, eh))
	r.Post("/media", route(s.upload, eh))
}

type mediaListResponse struct {
	Directory string         `json:"directory"`
	Files     []media.Object `json:"files"`
}

func (s *MediaService) list(ctx handler.Context, _ struct{}) handler.Response {
	scoped := media.ForSchema(s.store, schema.FromContext(ctx))
	files, err := scoped.List(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if files == nil {
		files = []media.Object{}
	}
	return handler.JSON(mediaListResponse{Directory: scoped.Dir(), Files: files})
}

func (s *MediaService) upload(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	r.Body = http.MaxBytesReader(ctx.ResponseWriter(), r.Body, s.maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return handler.Fail(ErrFileTooLarge)
		}
		return handler.Fail(errors.Join(ErrInvalidUpload, err))
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return handler.Fail(errors.Join(ErrInvalidUpload, err))
	}
	defer file.Close()

	if header.Size > s.maxSize {
		return handler.Fail(ErrFileTooLarge)
	}

	obj, err := media.ForSchema(s.store, schema.FromContext(ctx)).
		Put(ctx, media.SanitizeFilename(header.Filename), file, header.Size, contentType(header))
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(obj, handler.WithJSONStatus(http.StatusCreated))
}

func contentType(h *multipart.FileHeader) string {
	if ct := h.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
