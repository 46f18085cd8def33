package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SaxophoneType is the voice of the instrument
type SaxophoneType string

const (
	SaxophoneSoprano  SaxophoneType = "Soprano"
	SaxophoneAlto     SaxophoneType = "Alto"
	SaxophoneTenor    SaxophoneType = "Tenor"
	SaxophoneBaritone SaxophoneType = "Baritone"
)

// SaxophoneTypes lists the voices in display order
var SaxophoneTypes = []SaxophoneType{SaxophoneSoprano, SaxophoneAlto, SaxophoneTenor, SaxophoneBaritone}

// IsValid reports whether t is a known voice
func (t SaxophoneType) IsValid() bool {
	for _, known := range SaxophoneTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Field constraints
const (
	MaxBrandLength       = 100
	MaxModelLength       = 100
	MaxDescriptionLength = 5000
	MaxPhotoFilename     = 200
)

// Saxophone is a catalog master record. It is created once, together with
// its first review, and never edited.
type Saxophone struct {
	ID             string        `json:"id"`
	Brand          string        `json:"brand"`
	Model          string        `json:"model"`
	Type           SaxophoneType `json:"type"`
	ProductionYear string        `json:"production_year"`
	PriceRange     string        `json:"price_range"`
	PhotoURL       *string       `json:"photo_url,omitempty"`
	Description    string        `json:"description"`
	CreatedBy      string        `json:"created_by"`
	CreatedOn      time.Time     `json:"created_on"`
}

// SaxophoneSummary is a catalog row with its read-time aggregates
type SaxophoneSummary struct {
	Saxophone
	ReviewCount int                `json:"review_count"`
	Ratings     *AggregatedRatings `json:"ratings"`
}

// SaxophoneDetail is a single record with all of its reviews
type SaxophoneDetail struct {
	Saxophone
	ReviewCount int                `json:"review_count"`
	Ratings     *AggregatedRatings `json:"ratings"`
	Reviews     []*ReviewView      `json:"reviews"`
}

// CatalogFacets carries the filter options for the full catalog
type CatalogFacets struct {
	Brands       []string        `json:"brands"`
	Types        []SaxophoneType `json:"types"`
	PriceBuckets []PriceBucket   `json:"price_buckets"`
}

// CreateSaxophoneRequest holds the master record fields of a new-saxophone submission
type CreateSaxophoneRequest struct {
	Brand          string        `json:"brand" validate:"required,max=100"`
	Model          string        `json:"model" validate:"required,max=100"`
	Type           SaxophoneType `json:"type" validate:"required,oneof=Soprano Alto Tenor Baritone"`
	ProductionYear string        `json:"production_year" validate:"required,max=50"`
	PriceRange     string        `json:"price_range" validate:"required,max=100"`
	Description    string        `json:"description" validate:"required,max=5000"`
}

// CreateSaxophoneWithReviewRequest is the "review a new saxophone" submission
type CreateSaxophoneWithReviewRequest struct {
	Saxophone CreateSaxophoneRequest `json:"saxophone"`
	Review    CreateReviewRequest    `json:"review"`
}

// Validate runs the checks that struct tags cannot express
func (r *CreateSaxophoneWithReviewRequest) Validate() []FieldError {
	var errors []FieldError
	for _, fe := range r.Review.Validate() {
		fe.Field = "review." + fe.Field
		errors = append(errors, fe)
	}
	return errors
}

// PhotoUpload is an optional image attached to a new saxophone
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// ============================================================================
// Catalog filtering
// ============================================================================

// PriceBucket identifies a price filter range
type PriceBucket string

const (
	PriceAll     PriceBucket = "all"
	PriceUnder2k PriceBucket = "under2k"
	Price2kTo4k  PriceBucket = "2k-4k"
	Price4kTo6k  PriceBucket = "4k-6k"
	Price6kPlus  PriceBucket = "6k+"
)

// PriceBuckets lists the buckets in display order
var PriceBuckets = []PriceBucket{PriceAll, PriceUnder2k, Price2kTo4k, Price4kTo6k, Price6kPlus}

// FilterAll matches every brand or type
const FilterAll = "All"

// CatalogFilter narrows a catalog listing. Empty fields match everything.
type CatalogFilter struct {
	Brand string
	Type  string
	Price PriceBucket
}

var priceNumber = regexp.MustCompile(`\d[\d,]*`)

// ParsePrice extracts the first number from a free-text price range,
// ignoring thousands separators. It returns 0 when none is found.
func ParsePrice(priceRange string) int {
	match := priceNumber.FindString(priceRange)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// Contains reports whether a price falls inside the bucket. Unknown buckets
// match everything.
func (b PriceBucket) Contains(price int) bool {
	switch b {
	case PriceUnder2k:
		return price < 2000
	case Price2kTo4k:
		return price >= 2000 && price < 4000
	case Price4kTo6k:
		return price >= 4000 && price < 6000
	case Price6kPlus:
		return price >= 6000
	default:
		return true
	}
}

// Matches applies the filter to a record
func (f CatalogFilter) Matches(s *Saxophone) bool {
	if f.Type != "" && f.Type != FilterAll && string(s.Type) != f.Type {
		return false
	}
	if f.Brand != "" && f.Brand != FilterAll && s.Brand != f.Brand {
		return false
	}
	if f.Price != "" && f.Price != PriceAll && !f.Price.Contains(ParsePrice(s.PriceRange)) {
		return false
	}
	return true
}
