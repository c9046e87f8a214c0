package option

import (
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption mutates a gorm statement before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ   Operator = "="
	GT   Operator = ">"
	GTE  Operator = ">="
	LT   Operator = "<"
	LTE  Operator = "<="
	LIKE Operator = "LIKE"
	// ILIKE matches case-insensitively on every dialect by lowering both sides.
	ILIKE Operator = "ILIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a WHERE condition. Field must come from code, never from user input.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return db
		}
		switch cond.Operator {
		case ILIKE:
			return db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", field), "%"+strings.ToLower(fmt.Sprint(cond.Value))+"%")
		case LIKE:
			return db.Where(fmt.Sprintf("%s LIKE ?", field), cond.Value)
		case GT, GTE, LT, LTE:
			return db.Where(fmt.Sprintf("%s %s ?", field, cond.Operator), cond.Value)
		default:
			return db.Where(fmt.Sprintf("%s = ?", field), cond.Value)
		}
	})
}

// ApplyPagination restricts the statement to a 1-indexed page window.
func ApplyPagination(page, limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		offset, ok := PageOffset(page, limit)
		if !ok {
			return db.Where("1 = 0")
		}
		return db.Offset(offset).Limit(limit)
	})
}

// PageOffset returns the row offset of a 1-indexed page. ok is false when the
// offset does not fit in an int; such a page is past any table.
func PageOffset(page, limit int) (int, bool) {
	if limit <= 0 || page <= 1 {
		return 0, true
	}
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool

	// Fallback is used when SortBy is empty or not in Allow.
	Fallback     string
	FallbackDesc bool
}

func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{
		SortBy:       strings.TrimSpace(sortBy),
		OrderBy:      strings.TrimSpace(orderBy),
		Allow:        allow,
		Fallback:     "created_at",
		FallbackDesc: true,
	}
}

// Resolve returns the column and direction that will be applied.
func (q QuerySortBy) Resolve() (string, bool) {
	field := strings.ToLower(q.SortBy)
	if field == "" || !q.Allow[field] {
		return q.Fallback, q.FallbackDesc
	}
	return field, !strings.EqualFold(q.OrderBy, "asc")
}

// WithSortBy orders by the resolved column with id as a stable tie-breaker.
func WithSortBy(q QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field, desc := q.Resolve()
		if field == "" {
			return db
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: desc})
		if field != "id" {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
		}
		return db
	})
}
