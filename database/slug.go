package database

import (
	"context"
	"reflect"

	"studio-site-backend/utils"

	"gorm.io/gorm"
)

// SlugExists returns an existence check for the slug column of model's table.
// When excludeID is set, the row with that primary key is ignored so a record
// being edited can keep its own slug.
func SlugExists(db *gorm.DB, model interface{}, excludeID interface{}) utils.SlugExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		query := db.WithContext(ctx).Model(model).Where("slug = ?", candidate)
		if !isZeroID(excludeID) {
			query = query.Where("id <> ?", excludeID)
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}
}

func isZeroID(id interface{}) bool {
	if id == nil {
		return true
	}
	v := reflect.ValueOf(id)
	return v.IsZero()
}
