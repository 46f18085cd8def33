package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/truetone/api/internal/metrics"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/storage"
	"github.com/truetone/api/internal/validate"
)

// DefaultMaxPhotoBytes caps saxophone photo uploads
const DefaultMaxPhotoBytes = 10 << 20

// SaxophoneRepository defines the interface for catalog record storage
type SaxophoneRepository interface {
	Create(ctx context.Context, sax *model.Saxophone) error
	GetByID(ctx context.Context, id string) (*model.Saxophone, error)
	List(ctx context.Context) ([]*model.Saxophone, error)
}

// ReviewRepository defines the interface for review storage
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ListBySaxophone(ctx context.Context, saxophoneID string) ([]*model.Review, error)
	ListAll(ctx context.Context) (map[string][]*model.Review, error)
}

// ReviewerDirectory resolves reviewer profiles for review authorship and display
type ReviewerDirectory interface {
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error)
}

// CatalogService handles saxophone records and their reviews
type CatalogService struct {
	saxRepo       SaxophoneRepository
	reviewRepo    ReviewRepository
	profiles      ReviewerDirectory
	storage       storage.Storage
	maxPhotoBytes int64
	now           func() time.Time
	logger        *slog.Logger
	metrics       *metrics.Recorder
}

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	SaxophoneRepo SaxophoneRepository
	ReviewRepo    ReviewRepository
	Profiles      ReviewerDirectory
	Storage       storage.Storage // Optional: photos are rejected without it
	MaxPhotoBytes int64           // Default: 10 MiB
	Clock         func() time.Time
	Logger        *slog.Logger
	Metrics       *metrics.Recorder
}

// NewCatalogService creates a new catalog service
func NewCatalogService(cfg CatalogServiceConfig) *CatalogService {
	if cfg.MaxPhotoBytes == 0 {
		cfg.MaxPhotoBytes = DefaultMaxPhotoBytes
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &CatalogService{
		saxRepo:       cfg.SaxophoneRepo,
		reviewRepo:    cfg.ReviewRepo,
		profiles:      cfg.Profiles,
		storage:       cfg.Storage,
		maxPhotoBytes: cfg.MaxPhotoBytes,
		now:           cfg.Clock,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}
}

// CatalogListing is a filtered catalog with facets over the full catalog
type CatalogListing struct {
	Saxophones []*model.SaxophoneSummary `json:"saxophones"`
	Facets     model.CatalogFacets       `json:"facets"`
}

// CreateSaxophoneWithFirstReview creates a catalog record and its first
// review. Everything is validated before any write. The record and the
// review are sequential writes; a failed review leaves an orphan record,
// which is logged for manual reconciliation.
func (s *CatalogService) CreateSaxophoneWithFirstReview(ctx context.Context, reviewerID string, req *model.CreateSaxophoneWithReviewRequest, photo *model.PhotoUpload) (*model.SaxophoneDetail, error) {
	trimSaxophone(&req.Saxophone)
	trimReview(&req.Review)

	if errs := validate.Struct(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if err := s.checkPhoto(photo); err != nil {
		return nil, err
	}

	reviewer, err := s.reviewer(ctx, reviewerID)
	if err != nil {
		return nil, err
	}

	sax := &model.Saxophone{
		Brand:          req.Saxophone.Brand,
		Model:          req.Saxophone.Model,
		Type:           req.Saxophone.Type,
		ProductionYear: req.Saxophone.ProductionYear,
		PriceRange:     req.Saxophone.PriceRange,
		Description:    req.Saxophone.Description,
		CreatedBy:      reviewerID,
	}

	if photo != nil {
		url, err := s.uploadPhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		sax.PhotoURL = &url
	}

	if err := s.saxRepo.Create(ctx, sax); err != nil {
		return nil, err
	}
	s.metrics.SaxophoneCreated()

	review := newReview(sax.ID, reviewer, &req.Review)
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		s.logger.Error("saxophone created without its first review",
			"saxophone_id", sax.ID,
			"reviewer_id", reviewerID,
			"error", err,
		)
		return nil, err
	}
	s.metrics.ReviewCreated(string(sax.Type))

	reviews := []*model.Review{review}
	return &model.SaxophoneDetail{
		Saxophone:   *sax,
		ReviewCount: 1,
		Ratings:     Aggregate(reviews),
		Reviews:     []*model.ReviewView{{Review: review, Reviewer: reviewer.Snapshot()}},
	}, nil
}

// AddReview appends a review to an existing record
func (s *CatalogService) AddReview(ctx context.Context, reviewerID, saxophoneID string, req *model.CreateReviewRequest) (*model.Review, error) {
	trimReview(req)

	if errs := validate.Struct(req); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	sax, err := s.saxRepo.GetByID(ctx, saxophoneID)
	if err != nil {
		return nil, err
	}
	if sax == nil {
		return nil, ErrSaxophoneNotFound
	}

	reviewer, err := s.reviewer(ctx, reviewerID)
	if err != nil {
		return nil, err
	}

	review := newReview(sax.ID, reviewer, req)
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	s.metrics.ReviewCreated(string(sax.Type))

	return review, nil
}

// ListSaxophones returns the records matching filter, each annotated with
// its review count and aggregate
func (s *CatalogService) ListSaxophones(ctx context.Context, filter model.CatalogFilter) (*CatalogListing, error) {
	saxophones, err := s.saxRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	listing := &CatalogListing{
		Saxophones: make([]*model.SaxophoneSummary, 0, len(saxophones)),
		Facets:     facets(saxophones),
	}

	for _, sax := range saxophones {
		if !filter.Matches(sax) {
			continue
		}
		set := reviews[sax.ID]
		listing.Saxophones = append(listing.Saxophones, &model.SaxophoneSummary{
			Saxophone:   *sax,
			ReviewCount: len(set),
			Ratings:     Aggregate(set),
		})
	}

	return listing, nil
}

// GetSaxophone returns a record with its reviews, newest first, each joined
// with its author's current profile
func (s *CatalogService) GetSaxophone(ctx context.Context, id string) (*model.SaxophoneDetail, error) {
	sax, err := s.saxRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sax == nil {
		return nil, ErrSaxophoneNotFound
	}

	reviews, err := s.reviewRepo.ListBySaxophone(ctx, sax.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(reviews))
	seen := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		if !seen[r.ReviewerID] {
			seen[r.ReviewerID] = true
			ids = append(ids, r.ReviewerID)
		}
	}

	profiles, err := s.profiles.GetByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*model.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		view := &model.ReviewView{Review: r}
		if p := profiles[r.ReviewerID]; p != nil {
			view.Reviewer = p.Snapshot()
		}
		views = append(views, view)
	}

	return &model.SaxophoneDetail{
		Saxophone:   *sax,
		ReviewCount: len(reviews),
		Ratings:     Aggregate(reviews),
		Reviews:     views,
	}, nil
}

// GetRatingSchema returns every rating schema version
func (s *CatalogService) GetRatingSchema() model.RatingSchemaCatalog {
	return model.GetRatingSchemaCatalog()
}

func (s *CatalogService) reviewer(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *CatalogService) checkPhoto(photo *model.PhotoUpload) error {
	if photo == nil {
		return nil
	}
	if s.storage == nil {
		return model.NewValidationError([]model.FieldError{{Field: "photo", Message: "photo uploads are not available"}})
	}
	if photo.Size > s.maxPhotoBytes || int64(len(photo.Data)) > s.maxPhotoBytes {
		return ErrPhotoTooLarge
	}

	var errs []model.FieldError
	if !strings.HasPrefix(photo.ContentType, "image/") {
		errs = append(errs, model.FieldError{Field: "photo", Message: "must be an image"})
	}
	if photoFilename(photo.Filename) == "" {
		errs = append(errs, model.FieldError{Field: "photo", Message: "filename is required"})
	}
	if len(errs) > 0 {
		return model.NewValidationError(errs)
	}
	return nil
}

// uploadPhoto stores the photo under saxophones/<unixMillis>_<filename>
func (s *CatalogService) uploadPhoto(ctx context.Context, photo *model.PhotoUpload) (string, error) {
	key := fmt.Sprintf("saxophones/%d_%s", s.now().UnixMilli(), photoFilename(photo.Filename))

	result, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: photo.ContentType,
		Size:        int64(len(photo.Data)),
		Data:        bytes.NewReader(photo.Data),
	})
	if err != nil {
		s.logger.Error("photo upload failed", "key", key, "error", err)
		return "", fmt.Errorf("%w: %v", ErrPhotoUpload, err)
	}
	return result.URL, nil
}

func newReview(saxophoneID string, reviewer *model.Profile, req *model.CreateReviewRequest) *model.Review {
	values := req.Ratings.Values
	if values == nil {
		values = map[string]int{}
	}
	return &model.Review{
		SaxophoneID:        saxophoneID,
		ReviewerID:         reviewer.UserID,
		ReviewerEmail:      reviewer.Email,
		Ratings:            model.RatingVector{Version: req.Ratings.EffectiveVersion(), Values: values},
		WrittenReview:      req.WrittenReview,
		Credentials:        req.Credentials,
		HasConflict:        req.HasConflict,
		ConflictDisclosure: req.DisclosureValue(),
	}
}

func facets(saxophones []*model.Saxophone) model.CatalogFacets {
	seen := make(map[string]bool)
	brands := []string{}
	for _, sax := range saxophones {
		if !seen[sax.Brand] {
			seen[sax.Brand] = true
			brands = append(brands, sax.Brand)
		}
	}
	sort.Strings(brands)

	return model.CatalogFacets{
		Brands:       brands,
		Types:        model.SaxophoneTypes,
		PriceBuckets: model.PriceBuckets,
	}
}

// photoFilename keeps only the base name so a client cannot choose the key prefix
func photoFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(strings.TrimSpace(name))
	if base == "." || base == "/" {
		return ""
	}
	if len(base) > model.MaxPhotoFilename {
		base = base[len(base)-model.MaxPhotoFilename:]
	}
	return base
}

func trimSaxophone(r *model.CreateSaxophoneRequest) {
	r.Brand = strings.TrimSpace(r.Brand)
	r.Model = strings.TrimSpace(r.Model)
	r.ProductionYear = strings.TrimSpace(r.ProductionYear)
	r.PriceRange = strings.TrimSpace(r.PriceRange)
	r.Description = strings.TrimSpace(r.Description)
}

func trimReview(r *model.CreateReviewRequest) {
	r.WrittenReview = strings.TrimSpace(r.WrittenReview)
	r.Credentials = strings.TrimSpace(r.Credentials)
}
