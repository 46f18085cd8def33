package repository

import (
	"context"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
)

// ReviewRepository handles review data access
type ReviewRepository struct {
	db database.Database
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db database.Database) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create stores a review. The rating vector is stored with its schema version.
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		CREATE review CONTENT {
			saxophone: type::record($saxophone),
			reviewer: type::record($reviewer),
			reviewer_email: $reviewer_email,
			ratings: {
				version: $ratings_version,
				values: $ratings_values
			},
			written_review: $written_review,
			credentials: $credentials,
			has_conflict: $has_conflict,
			conflict_disclosure: IF $conflict_disclosure IS NOT NULL THEN $conflict_disclosure ELSE NONE END,
			created_on: time::now()
		}
	`

	values := make(map[string]interface{}, len(review.Ratings.Values))
	for k, v := range review.Ratings.Values {
		values[k] = v
	}

	vars := map[string]interface{}{
		"saxophone":           review.SaxophoneID,
		"reviewer":            review.ReviewerID,
		"reviewer_email":      review.ReviewerEmail,
		"ratings_version":     review.Ratings.EffectiveVersion(),
		"ratings_values":      values,
		"written_review":      review.WrittenReview,
		"credentials":         review.Credentials,
		"has_conflict":        review.HasConflict,
		"conflict_disclosure": ptrToNone(review.ConflictDisclosure),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	review.ID = created.ID
	review.CreatedOn = created.CreatedOn
	return nil
}

// ListBySaxophone returns a saxophone's reviews, newest first
func (r *ReviewRepository) ListBySaxophone(ctx context.Context, saxophoneID string) ([]*model.Review, error) {
	query := `
		SELECT * FROM review
		WHERE saxophone = type::record($saxophone)
		ORDER BY created_on DESC
	`
	vars := map[string]interface{}{"saxophone": saxophoneID}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseReviewRows(unwrapRecords(results))
}

// ListAll returns every review, grouped by saxophone ID
func (r *ReviewRepository) ListAll(ctx context.Context) (map[string][]*model.Review, error) {
	query := `SELECT * FROM review ORDER BY created_on DESC`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	reviews, err := parseReviewRows(unwrapRecords(results))
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*model.Review)
	for _, rev := range reviews {
		grouped[rev.SaxophoneID] = append(grouped[rev.SaxophoneID], rev)
	}
	return grouped, nil
}

func parseReviewRows(rows []map[string]interface{}) ([]*model.Review, error) {
	reviews := make([]*model.Review, 0, len(rows))
	for _, row := range rows {
		rev, err := parseReviewResult(row)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, nil
}

func parseReviewResult(result interface{}) (*model.Review, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	return &model.Review{
		ID:                 convertSurrealID(data["id"]),
		SaxophoneID:        getRecordID(data, "saxophone"),
		ReviewerID:         getRecordID(data, "reviewer"),
		ReviewerEmail:      getString(data, "reviewer_email"),
		Ratings:            parseRatingVector(getMap(data, "ratings")),
		WrittenReview:      getString(data, "written_review"),
		Credentials:        getString(data, "credentials"),
		HasConflict:        getBool(data, "has_conflict"),
		ConflictDisclosure: getStringPtr(data, "conflict_disclosure"),
		CreatedOn:          getTimeValue(data, "created_on"),
	}, nil
}

// parseRatingVector reads {version, values}. Records without a version
// predate versioning and use schema 1.
func parseRatingVector(m map[string]interface{}) model.RatingVector {
	vec := model.RatingVector{Version: model.RatingSchemaV1, Values: map[string]int{}}
	if m == nil {
		return vec
	}
	if v := getInt(m, "version"); v != 0 {
		vec.Version = v
	}
	for k, raw := range getMap(m, "values") {
		vec.Values[k] = toInt(raw)
	}
	return vec
}
