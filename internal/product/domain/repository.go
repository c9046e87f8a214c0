package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// List returns one page of the filtered set together with the exact
	// count of the filtered set.
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Product, int64, error)
	// ListAll returns the whole filtered set in sort order.
	ListAll(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Product, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string, locale string) (*Product, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	InsertTranslations(ctx context.Context, db *gorm.DB, translations []ProductTranslation) error
	Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error
	UpsertTranslation(ctx context.Context, db *gorm.DB, translation ProductTranslation, columns []string) error
	BulkUpdate(ctx context.Context, db *gorm.DB, ids []int64, fields map[string]any) error
}

// ListFilter is the persistence-side view of a listing request.
type ListFilter struct {
	Locale            string
	IncludeInactive   bool
	Category          string
	StockStatus       string
	LowStockThreshold int
	SortBy            string
	OrderBy           string
	Page              int
	Limit             int
}
