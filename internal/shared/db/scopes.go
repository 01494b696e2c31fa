package db

import (
	"gorm.io/gorm"
)

// WithStatus filters on the status column; an empty status leaves the query
// unfiltered.
func WithStatus(status string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("status = ?", status)
	}
}

// NewestFirst orders by creation time, breaking ties on the surrogate id.
func NewestFirst() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC").Order("id DESC")
	}
}

// Limit caps the result size; non-positive values leave it uncapped.
func Limit(n int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if n <= 0 {
			return db
		}
		return db.Limit(n)
	}
}
