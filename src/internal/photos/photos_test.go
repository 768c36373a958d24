package photos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

func completeCounts() map[models.PhotoCategory]int {
	return map[models.PhotoCategory]int{
		models.PhotoMuzzle:        3,
		models.PhotoFace:          3,
		models.PhotoLeft:          3,
		models.PhotoRight:         3,
		models.PhotoFullBodyLeft:  1,
		models.PhotoFullBodyRight: 1,
	}
}

func TestValidateUpload(t *testing.T) {
	t.Run("EmptySetIsValid", func(t *testing.T) {
		assert.NoError(t, ValidateUpload(Set{}))
	})

	t.Run("PartialSetIsValid", func(t *testing.T) {
		set := Set{
			models.PhotoMuzzle: {{Filename: "a.jpg", Path: "/tmp/a.jpg"}},
			models.PhotoFace:   {{Filename: "b.jpg", Path: "/tmp/b.jpg"}},
		}
		assert.NoError(t, ValidateUpload(set))
	})

	t.Run("UnknownCategoryRejected", func(t *testing.T) {
		set := Set{
			models.PhotoCategory("tail"): {{Filename: "t.jpg", Path: "/tmp/t.jpg"}},
		}
		err := ValidateUpload(set)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("OverCapRejected", func(t *testing.T) {
		set := Set{
			models.PhotoFullBodyLeft: {
				{Filename: "a.jpg", Path: "/tmp/a.jpg"},
				{Filename: "b.jpg", Path: "/tmp/b.jpg"},
			},
		}
		err := ValidateUpload(set)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestValidateComplete(t *testing.T) {
	t.Run("FullSetPasses", func(t *testing.T) {
		assert.NoError(t, ValidateComplete(completeCounts()))
	})

	t.Run("MissingCategoryFails", func(t *testing.T) {
		counts := completeCounts()
		delete(counts, models.PhotoFullBodyRight)
		err := ValidateComplete(counts)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("ShortCategoryFails", func(t *testing.T) {
		counts := completeCounts()
		counts[models.PhotoMuzzle] = 2
		err := ValidateComplete(counts)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestCountByCategory(t *testing.T) {
	stored := []models.CattlePhoto{
		{Category: models.PhotoMuzzle},
		{Category: models.PhotoMuzzle},
		{Category: models.PhotoFace},
	}
	counts := CountByCategory(stored)
	assert.Equal(t, 2, counts[models.PhotoMuzzle])
	assert.Equal(t, 1, counts[models.PhotoFace])
	assert.Zero(t, counts[models.PhotoLeft])
}

func TestCategoryCap(t *testing.T) {
	limit, ok := CategoryCap(models.PhotoMuzzle)
	assert.True(t, ok)
	assert.Equal(t, 3, limit)

	_, ok = CategoryCap(models.PhotoCategory("tail"))
	assert.False(t, ok)

	total := 0
	for _, category := range Categories() {
		limit, ok := CategoryCap(category)
		require.True(t, ok)
		total += limit
	}
	assert.Equal(t, TotalRequired, total)
}
