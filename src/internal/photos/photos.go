package photos

import (
	"fmt"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

// TotalRequired is the number of photos in a complete set
const TotalRequired = 14

// categoryCaps is the required count per category in a complete set
var categoryCaps = map[models.PhotoCategory]int{
	models.PhotoMuzzle:        3,
	models.PhotoFace:          3,
	models.PhotoLeft:          3,
	models.PhotoRight:         3,
	models.PhotoFullBodyLeft:  1,
	models.PhotoFullBodyRight: 1,
}

// FileMeta is validated file metadata received from the upload layer.
// Pixel content is never inspected here.
type FileMeta struct {
	Filename string `json:"filename" validate:"required"`
	Path     string `json:"path" validate:"required"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Set groups uploaded files by photo category
type Set map[models.PhotoCategory][]FileMeta

// CategoryCap returns the required count for a category
func CategoryCap(category models.PhotoCategory) (int, bool) {
	limit, ok := categoryCaps[category]
	return limit, ok
}

// Categories returns every known category
func Categories() []models.PhotoCategory {
	return []models.PhotoCategory{
		models.PhotoMuzzle,
		models.PhotoFace,
		models.PhotoLeft,
		models.PhotoRight,
		models.PhotoFullBodyLeft,
		models.PhotoFullBodyRight,
	}
}

// ValidateUpload checks an incoming photo set. Partial sets are accepted at
// registration time, but unknown categories and over-cap counts never are.
func ValidateUpload(set Set) error {
	for category, files := range set {
		limit, ok := categoryCaps[category]
		if !ok {
			return apperrors.Validation(fmt.Sprintf("unknown photo category %q", category), "photos")
		}
		if len(files) > limit {
			return apperrors.Validation(
				fmt.Sprintf("category %q allows at most %d photos, got %d", category, limit, len(files)),
				"photos",
			).WithDetail("category", string(category))
		}
	}
	return nil
}

// ValidateComplete checks that counts form a full set, required before
// final approval.
func ValidateComplete(counts map[models.PhotoCategory]int) error {
	total := 0
	for category, required := range categoryCaps {
		got := counts[category]
		if got != required {
			return apperrors.Validation(
				fmt.Sprintf("category %q requires exactly %d photos, got %d", category, required, got),
				"photos",
			).WithDetail("category", string(category))
		}
		total += got
	}
	if total != TotalRequired {
		return apperrors.Validation(
			fmt.Sprintf("a complete set requires %d photos, got %d", TotalRequired, total),
			"photos",
		)
	}
	return nil
}

// CountByCategory tallies stored photos per category
func CountByCategory(stored []models.CattlePhoto) map[models.PhotoCategory]int {
	counts := make(map[models.PhotoCategory]int, len(categoryCaps))
	for _, photo := range stored {
		counts[photo.Category]++
	}
	return counts
}
