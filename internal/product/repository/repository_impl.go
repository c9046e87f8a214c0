package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/pkg/db"
	"github.com/ThienHoan/Web-TramHuong-sub001/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortable is the only set of columns a caller may order by.
var sortable = map[string]bool{
	"price":      true,
	"quantity":   true,
	"created_at": true,
	"slug":       true,
}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, tx *gorm.DB, filter domain.ListFilter) ([]domain.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, tx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var items []domain.Product
	stmt := r.filtered(ctx, tx, filter)
	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, sortable)).Apply(stmt)
	stmt = option.ApplyPagination(filter.Page, filter.Limit).Apply(stmt)
	if err := withLocaleTranslation(stmt, filter.Locale).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return items, total, nil
}

func (r *repo) ListAll(ctx context.Context, tx *gorm.DB, filter domain.ListFilter) ([]domain.Product, error) {
	var items []domain.Product
	stmt := r.filtered(ctx, tx, filter)
	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, sortable)).Apply(stmt)
	if err := withLocaleTranslation(stmt, filter.Locale).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

func (r *repo) FindBySlug(ctx context.Context, tx *gorm.DB, slug string, locale string) (*domain.Product, error) {
	var p domain.Product
	err := withLocaleTranslation(
		tx.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true),
		locale,
	).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by slug: %w", err)
	}
	return &p, nil
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := tx.WithContext(ctx).
		Preload("Translations", func(q *gorm.DB) *gorm.DB { return q.Order("locale") }).
		Where("id = ?", id).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return &p, nil
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, p *domain.Product) error {
	err := tx.WithContext(ctx).Exec(
		`INSERT INTO products (id, slug, price, quantity, category, images, style, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Slug,
		p.Price,
		p.Quantity,
		p.Category,
		p.Images,
		p.Style,
		p.IsActive,
		p.CreatedAt,
	).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrSlugConflict
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *repo) InsertTranslations(ctx context.Context, tx *gorm.DB, translations []domain.ProductTranslation) error {
	if len(translations) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Create(&translations).Error; err != nil {
		return fmt.Errorf("insert product translations: %w", err)
	}
	return nil
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := tx.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrSlugConflict
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *repo) UpsertTranslation(ctx context.Context, tx *gorm.DB, t domain.ProductTranslation, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "locale"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(&t).Error
	if err != nil {
		return fmt.Errorf("upsert product translation %s: %w", t.Locale, err)
	}
	return nil
}

func (r *repo) BulkUpdate(ctx context.Context, tx *gorm.DB, ids []int64, fields map[string]any) error {
	if len(ids) == 0 || len(fields) == 0 {
		return nil
	}
	err := tx.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id IN ?", ids).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("bulk update products: %w", err)
	}
	return nil
}

// filtered builds a fresh statement carrying every listing filter but no
// ordering or row range, so it can back both the count and the page query.
func (r *repo) filtered(ctx context.Context, tx *gorm.DB, filter domain.ListFilter) *gorm.DB {
	stmt := tx.WithContext(ctx).Model(&domain.Product{})

	if !filter.IncludeInactive {
		stmt = option.ApplyOperator(option.Condition{Field: "is_active", Operator: option.EQ, Value: true}).Apply(stmt)
	}
	if filter.Category != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "category", Operator: option.ILIKE, Value: filter.Category}).Apply(stmt)
	}
	for _, cond := range stockConditions(filter.StockStatus, filter.LowStockThreshold) {
		stmt = option.ApplyOperator(cond).Apply(stmt)
	}
	return stmt
}

// stockConditions projects the derived stock classification onto quantity.
// in_stock and low_stock overlap for 0 < quantity < threshold. Unknown
// statuses add no condition.
func stockConditions(status string, threshold int) []option.Condition {
	switch status {
	case domain.StockOutOfStock:
		return []option.Condition{{Field: "quantity", Operator: option.EQ, Value: 0}}
	case domain.StockLowStock:
		return []option.Condition{
			{Field: "quantity", Operator: option.GT, Value: 0},
			{Field: "quantity", Operator: option.LT, Value: threshold},
		}
	case domain.StockInStock:
		return []option.Condition{{Field: "quantity", Operator: option.GT, Value: 0}}
	default:
		return nil
	}
}

func withLocaleTranslation(stmt *gorm.DB, locale string) *gorm.DB {
	return stmt.Preload("Translations", func(q *gorm.DB) *gorm.DB {
		return q.Where("locale = ?", locale).Order("locale")
	})
}
