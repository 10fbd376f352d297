package specification

import "gorm.io/gorm"

// Specification narrows a corpus query. Implementations add WHERE clauses
// and compose freely; repositories apply whatever set the caller passes.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Apply chains every specification onto the query in order.
func Apply(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}
