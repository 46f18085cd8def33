package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/truetone/api/internal/middleware"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/service"
)

// multipartOverhead covers the form boundaries and the data part
const multipartOverhead = 1 << 20

// CatalogService is the catalog API used by the handler
type CatalogService interface {
	CreateSaxophoneWithFirstReview(ctx context.Context, reviewerID string, req *model.CreateSaxophoneWithReviewRequest, photo *model.PhotoUpload) (*model.SaxophoneDetail, error)
	AddReview(ctx context.Context, reviewerID, saxophoneID string, req *model.CreateReviewRequest) (*model.Review, error)
	ListSaxophones(ctx context.Context, filter model.CatalogFilter) (*service.CatalogListing, error)
	GetSaxophone(ctx context.Context, id string) (*model.SaxophoneDetail, error)
	GetRatingSchema() model.RatingSchemaCatalog
}

// CatalogHandler handles saxophone and review endpoints
type CatalogHandler struct {
	catalog       CatalogService
	maxPhotoBytes int64
}

// MaxBodyBytes is the largest create request the handler accepts. The
// idempotency store must hold bodies at least this large.
func (h *CatalogHandler) MaxBodyBytes() int64 {
	return h.maxPhotoBytes + multipartOverhead
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog CatalogService, maxPhotoBytes int64) *CatalogHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = service.DefaultMaxPhotoBytes
	}
	return &CatalogHandler{catalog: catalog, maxPhotoBytes: maxPhotoBytes}
}

// List handles GET /v1/saxophones
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.CatalogFilter{
		Brand: q.Get("brand"),
		Type:  q.Get("type"),
		Price: model.PriceBucket(q.Get("price")),
	}

	listing, err := h.catalog.ListSaxophones(r.Context(), filter)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list saxophones"))
		return
	}

	WriteCollection(w, http.StatusOK, listing.Saxophones, listing.Facets, map[string]string{
		"self": "/v1/saxophones",
	})
}

// Get handles GET /v1/saxophones/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID("saxophone", chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, model.NewNotFoundError("saxophone"))
		return
	}

	detail, err := h.catalog.GetSaxophone(r.Context(), id)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, detail, saxophoneLinks(detail.ID))
}

// Create handles POST /v1/saxophones. The body is either the JSON request
// or a multipart form with a "data" JSON part and an optional "photo" file.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	reviewerID := middleware.GetUserID(r.Context())

	var (
		req   model.CreateSaxophoneWithReviewRequest
		photo *model.PhotoUpload
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var problem *model.ProblemDetails
		photo, problem = h.decodeMultipart(w, r, &req)
		if problem != nil {
			WriteError(w, problem)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, model.NewBadRequestError("invalid request body"))
			return
		}
	}

	detail, err := h.catalog.CreateSaxophoneWithFirstReview(r.Context(), reviewerID, &req, photo)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create saxophone"))
		return
	}

	WriteData(w, http.StatusCreated, detail, saxophoneLinks(detail.ID))
}

// AddReview handles POST /v1/saxophones/{id}/reviews
func (h *CatalogHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID("saxophone", chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, model.NewNotFoundError("saxophone"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req model.CreateReviewRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	review, err := h.catalog.AddReview(r.Context(), middleware.GetUserID(r.Context()), id, &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "add review"))
		return
	}

	WriteData(w, http.StatusCreated, review, saxophoneLinks(id))
}

// RatingSchema handles GET /v1/rating-schema
func (h *CatalogHandler) RatingSchema(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, h.catalog.GetRatingSchema(), nil)
}

func (h *CatalogHandler) decodeMultipart(w http.ResponseWriter, r *http.Request, req *model.CreateSaxophoneWithReviewRequest) (*model.PhotoUpload, *model.ProblemDetails) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes())
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, MapServiceError(service.ErrPhotoTooLarge)
		}
		return nil, model.NewBadRequestError("invalid multipart body")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	data := r.FormValue("data")
	if strings.TrimSpace(data) == "" {
		return nil, model.NewValidationError([]model.FieldError{{Field: "data", Message: "data is required"}})
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, model.NewBadRequestError("invalid data part")
	}

	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewBadRequestError("invalid photo part")
	}
	defer file.Close()

	if header.Size > h.maxPhotoBytes {
		return nil, MapServiceError(service.ErrPhotoTooLarge)
	}
	content, err := io.ReadAll(io.LimitReader(file, h.maxPhotoBytes+1))
	if err != nil {
		return nil, model.NewBadRequestError("invalid photo part")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}

	return &model.PhotoUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(content)),
		Data:        content,
	}, nil
}

func saxophoneLinks(id string) map[string]string {
	return map[string]string{
		"self":    "/v1/saxophones/" + id,
		"reviews": "/v1/saxophones/" + id + "/reviews",
	}
}
