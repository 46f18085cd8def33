package model

import (
	"fmt"
	"sort"
)

// Rating domain
const (
	MinRating     = 1
	MaxRating     = 10
	DefaultRating = 5
)

// Rating schema versions. Stored reviews keep the version they were written
// under; new submissions use CurrentRatingSchema.
const (
	RatingSchemaV1      = 1
	RatingSchemaV2      = 2
	CurrentRatingSchema = RatingSchemaV2
)

// RatingCategory groups dimensions for display
type RatingCategory string

const (
	CategoryTonalCharacter     RatingCategory = "Tonal Character"
	CategoryResponseProjection RatingCategory = "Response & Projection"
	CategoryTechnicalResponse  RatingCategory = "Technical Response"
	CategoryBuildQuality       RatingCategory = "Build Quality"
)

// RatingDimension describes one axis of a rating vector. A value of
// MinRating leans toward LowLabel, MaxRating toward HighLabel.
type RatingDimension struct {
	Key       string         `json:"key"`
	LowLabel  string         `json:"low_label"`
	HighLabel string         `json:"high_label"`
	Category  RatingCategory `json:"category"`
}

var ratingSchemas = map[int][]RatingDimension{
	RatingSchemaV1: {
		{Key: "darkBright", LowLabel: "Dark/Warm", HighLabel: "Bright", Category: CategoryTonalCharacter},
		{Key: "centeredBroad", LowLabel: "Centered", HighLabel: "Broad", Category: CategoryTonalCharacter},
		{Key: "focusedDiffuse", LowLabel: "Focused", HighLabel: "Diffuse", Category: CategoryTonalCharacter},
		{Key: "intimateProjecting", LowLabel: "Intimate", HighLabel: "Projecting", Category: CategoryResponseProjection},
		{Key: "resistantFreeblowing", LowLabel: "Resistant", HighLabel: "Free-blowing", Category: CategoryResponseProjection},
		{Key: "altissimo", LowLabel: "Sluggish altissimo", HighLabel: "Easy altissimo", Category: CategoryTechnicalResponse},
		{Key: "keywork", LowLabel: "Heavy keywork", HighLabel: "Light keywork", Category: CategoryTechnicalResponse},
		{Key: "ergonomics", LowLabel: "Uncomfortable", HighLabel: "Ergonomic", Category: CategoryTechnicalResponse},
		{Key: "intonation", LowLabel: "Intonation issues", HighLabel: "Perfect intonation", Category: CategoryBuildQuality},
		{Key: "qualityControl", LowLabel: "Inconsistent QC", HighLabel: "Reliable QC", Category: CategoryBuildQuality},
	},
	RatingSchemaV2: {
		{Key: "darkBright", LowLabel: "Dark/Warm", HighLabel: "Bright", Category: CategoryTonalCharacter},
		{Key: "centeredBroad", LowLabel: "Centered", HighLabel: "Broad", Category: CategoryTonalCharacter},
		{Key: "intimateProjecting", LowLabel: "Intimate", HighLabel: "Projecting", Category: CategoryResponseProjection},
		{Key: "resistantFreeblowing", LowLabel: "Resistant", HighLabel: "Free-blowing", Category: CategoryResponseProjection},
		{Key: "keyAction", LowLabel: "Light action", HighLabel: "Heavy action", Category: CategoryTechnicalResponse},
		{Key: "buildQuality", LowLabel: "Low", HighLabel: "High", Category: CategoryBuildQuality},
	},
}

// RatingSchema returns the ordered dimensions of a schema version
func RatingSchema(version int) ([]RatingDimension, bool) {
	dims, ok := ratingSchemas[version]
	if !ok {
		return nil, false
	}
	out := make([]RatingDimension, len(dims))
	copy(out, dims)
	return out, true
}

// RatingSchemaVersions returns all known schema versions, ascending
func RatingSchemaVersions() []int {
	versions := make([]int, 0, len(ratingSchemas))
	for v := range ratingSchemas {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}

// LookupDimension finds a dimension by key, preferring the current schema
func LookupDimension(key string) (RatingDimension, bool) {
	for _, d := range ratingSchemas[CurrentRatingSchema] {
		if d.Key == key {
			return d, true
		}
	}
	for _, v := range RatingSchemaVersions() {
		for _, d := range ratingSchemas[v] {
			if d.Key == key {
				return d, true
			}
		}
	}
	return RatingDimension{}, false
}

// RatingVector is a versioned set of integer scores keyed by dimension
type RatingVector struct {
	Version int            `json:"version"`
	Values  map[string]int `json:"values"`
}

// EffectiveVersion treats an unset version as the current schema
func (v RatingVector) EffectiveVersion() int {
	if v.Version == 0 {
		return CurrentRatingSchema
	}
	return v.Version
}

// Validate checks the vector against its schema. Missing keys are allowed
// and take DefaultRating on Normalize; unknown keys and out-of-range values
// are rejected.
func (v RatingVector) Validate() []FieldError {
	var errors []FieldError

	dims, ok := ratingSchemas[v.EffectiveVersion()]
	if !ok {
		return []FieldError{{Field: "ratings.version", Message: fmt.Sprintf("unknown rating schema version %d", v.Version)}}
	}

	known := make(map[string]bool, len(dims))
	for _, d := range dims {
		known[d.Key] = true
	}

	keys := make([]string, 0, len(v.Values))
	for k := range v.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		val := v.Values[k]
		if !known[k] {
			errors = append(errors, FieldError{Field: "ratings." + k, Message: "unknown rating dimension"})
			continue
		}
		if val < MinRating || val > MaxRating {
			errors = append(errors, FieldError{
				Field:   "ratings." + k,
				Message: fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating),
			})
		}
	}

	return errors
}

// Normalize returns a copy with the version resolved and every schema key
// present, filling gaps with DefaultRating.
func (v RatingVector) Normalize() RatingVector {
	version := v.EffectiveVersion()
	out := RatingVector{Version: version, Values: make(map[string]int, len(v.Values))}
	for k, val := range v.Values {
		out.Values[k] = val
	}
	for _, d := range ratingSchemas[version] {
		if _, ok := out.Values[d.Key]; !ok {
			out.Values[d.Key] = DefaultRating
		}
	}
	return out
}

// Get returns the score for key, or DefaultRating when absent
func (v RatingVector) Get(key string) int {
	if val, ok := v.Values[key]; ok {
		return val
	}
	return DefaultRating
}

// RatingSchemaInfo describes one schema version for clients
type RatingSchemaInfo struct {
	Version    int               `json:"version"`
	Dimensions []RatingDimension `json:"dimensions"`
}

// RatingSchemaCatalog lists every schema version and marks the current one
type RatingSchemaCatalog struct {
	Current  int                `json:"current"`
	Min      int                `json:"min"`
	Max      int                `json:"max"`
	Default  int                `json:"default"`
	Versions []RatingSchemaInfo `json:"versions"`
}

// GetRatingSchemaCatalog builds the catalog of rating schemas
func GetRatingSchemaCatalog() RatingSchemaCatalog {
	catalog := RatingSchemaCatalog{
		Current: CurrentRatingSchema,
		Min:     MinRating,
		Max:     MaxRating,
		Default: DefaultRating,
	}
	for _, version := range RatingSchemaVersions() {
		dims, _ := RatingSchema(version)
		catalog.Versions = append(catalog.Versions, RatingSchemaInfo{Version: version, Dimensions: dims})
	}
	return catalog
}

// AggregatedRatings is the per-dimension mean over a set of reviews.
// It is computed at read time and never stored.
type AggregatedRatings struct {
	Count      int                `json:"count"`
	Values     map[string]float64 `json:"values"`
	Dimensions []RatingDimension  `json:"dimensions"`
}
