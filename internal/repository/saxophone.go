package repository

import (
	"context"
	"errors"

	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
)

// SaxophoneRepository handles catalog master record data access
type SaxophoneRepository struct {
	db database.Database
}

// NewSaxophoneRepository creates a new saxophone repository
func NewSaxophoneRepository(db database.Database) *SaxophoneRepository {
	return &SaxophoneRepository{db: db}
}

// Create creates a saxophone record
func (r *SaxophoneRepository) Create(ctx context.Context, sax *model.Saxophone) error {
	query := `
		CREATE saxophone CONTENT {
			brand: $brand,
			model: $model,
			type: $type,
			production_year: $production_year,
			price_range: $price_range,
			photo_url: IF $photo_url IS NOT NULL THEN $photo_url ELSE NONE END,
			description: $description,
			created_by: type::record($created_by),
			created_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"brand":           sax.Brand,
		"model":           sax.Model,
		"type":            string(sax.Type),
		"production_year": sax.ProductionYear,
		"price_range":     sax.PriceRange,
		"photo_url":       ptrToNone(sax.PhotoURL),
		"description":     sax.Description,
		"created_by":      sax.CreatedBy,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	sax.ID = created.ID
	sax.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a saxophone by ID
func (r *SaxophoneRepository) GetByID(ctx context.Context, id string) (*model.Saxophone, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	sax, err := parseSaxophoneResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sax, nil
}

// List returns the full catalog, newest first
func (r *SaxophoneRepository) List(ctx context.Context) ([]*model.Saxophone, error) {
	query := `SELECT * FROM saxophone ORDER BY created_on DESC`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	rows := unwrapRecords(results)
	saxophones := make([]*model.Saxophone, 0, len(rows))
	for _, row := range rows {
		sax, err := parseSaxophoneResult(row)
		if err != nil {
			return nil, err
		}
		saxophones = append(saxophones, sax)
	}
	return saxophones, nil
}

func parseSaxophoneResult(result interface{}) (*model.Saxophone, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	return &model.Saxophone{
		ID:             convertSurrealID(data["id"]),
		Brand:          getString(data, "brand"),
		Model:          getString(data, "model"),
		Type:           model.SaxophoneType(getString(data, "type")),
		ProductionYear: getString(data, "production_year"),
		PriceRange:     getString(data, "price_range"),
		PhotoURL:       getStringPtr(data, "photo_url"),
		Description:    getString(data, "description"),
		CreatedBy:      getRecordID(data, "created_by"),
		CreatedOn:      getTimeValue(data, "created_on"),
	}, nil
}
