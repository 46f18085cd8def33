package repository

import (
	"testing"

	"github.com/truetone/api/internal/model"
)

func TestParseRatingVector(t *testing.T) {
	t.Run("versioned", func(t *testing.T) {
		vec := parseRatingVector(map[string]interface{}{
			"version": float64(2),
			"values":  map[string]interface{}{"darkBright": float64(8), "keyAction": uint64(3)},
		})
		if vec.Version != model.RatingSchemaV2 {
			t.Errorf("expected version 2, got %d", vec.Version)
		}
		if vec.Values["darkBright"] != 8 || vec.Values["keyAction"] != 3 {
			t.Errorf("unexpected values %v", vec.Values)
		}
	})

	t.Run("unversioned reads as schema 1", func(t *testing.T) {
		vec := parseRatingVector(map[string]interface{}{
			"values": map[string]interface{}{"altissimo": float64(6)},
		})
		if vec.Version != model.RatingSchemaV1 {
			t.Errorf("expected version 1, got %d", vec.Version)
		}
		if vec.Values["altissimo"] != 6 {
			t.Errorf("unexpected values %v", vec.Values)
		}
	})

	t.Run("missing", func(t *testing.T) {
		vec := parseRatingVector(nil)
		if vec.Values == nil {
			t.Error("values must never be nil")
		}
	})
}
