package service

import (
	"sort"

	"github.com/truetone/api/internal/model"
)

// Aggregate computes the per-dimension mean over a set of reviews.
//
// The key set is the union of the schema keys of every version present and
// any extra keys found in stored values. A review missing a key contributes
// model.DefaultRating for it. Returns nil for an empty set.
func Aggregate(reviews []*model.Review) *model.AggregatedRatings {
	if len(reviews) == 0 {
		return nil
	}

	versions := make(map[int]bool)
	keys := make(map[string]bool)
	for _, r := range reviews {
		v := r.Ratings.EffectiveVersion()
		versions[v] = true
		if dims, ok := model.RatingSchema(v); ok {
			for _, d := range dims {
				keys[d.Key] = true
			}
		}
		for k := range r.Ratings.Values {
			keys[k] = true
		}
	}

	values := make(map[string]float64, len(keys))
	for k := range keys {
		sum := 0
		for _, r := range reviews {
			sum += r.Ratings.Get(k)
		}
		values[k] = float64(sum) / float64(len(reviews))
	}

	return &model.AggregatedRatings{
		Count:      len(reviews),
		Values:     values,
		Dimensions: orderDimensions(keys, versions),
	}
}

// orderDimensions lists the current schema first, then older schemas
// present in the input, then unknown keys sorted.
func orderDimensions(keys map[string]bool, versions map[int]bool) []model.RatingDimension {
	order := []int{model.CurrentRatingSchema}
	for _, v := range model.RatingSchemaVersions() {
		if v != model.CurrentRatingSchema && versions[v] {
			order = append(order, v)
		}
	}

	seen := make(map[string]bool, len(keys))
	dims := make([]model.RatingDimension, 0, len(keys))
	for _, v := range order {
		schema, _ := model.RatingSchema(v)
		for _, d := range schema {
			if keys[d.Key] && !seen[d.Key] {
				seen[d.Key] = true
				dims = append(dims, d)
			}
		}
	}

	var rest []string
	for k := range keys {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		// Keys from a schema the input did not declare keep their labels
		if d, ok := model.LookupDimension(k); ok {
			dims = append(dims, d)
			continue
		}
		dims = append(dims, model.RatingDimension{Key: k, LowLabel: "Low", HighLabel: "High"})
	}
	return dims
}
