package domain

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	List(ctx context.Context, locale string, req ListRequest) (*ListResponse, error)
	FindBySlug(ctx context.Context, slug string, locale string) (*Item, error)
	FindByID(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, caller Caller, req CreateRequest, image *ImageFile) (*Item, error)
	Update(ctx context.Context, caller Caller, id string, req UpdateRequest, image *ImageFile) (*UpdateResponse, error)
	SoftDelete(ctx context.Context, caller Caller, id string) (*UpdateResponse, error)
	BulkUpdate(ctx context.Context, caller Caller, req BulkUpdateRequest) (*BulkUpdateResponse, error)
	Export(ctx context.Context, locale string, req ListRequest) (string, error)
}

// Caller is the verified identity on whose behalf a mutation runs.
type Caller struct {
	UserID string
	Role   string
}

// CanManageCatalog reports whether the caller holds an elevated role.
func (c Caller) CanManageCatalog() bool {
	switch strings.ToUpper(strings.TrimSpace(c.Role)) {
	case "ADMIN", "STAFF":
		return true
	default:
		return false
	}
}

type ListRequest struct {
	IncludeInactive bool
	Category        string
	StockStatus     string
	// Sort is "<field>:<asc|desc>".
	Sort   string
	Search string
	Page   int
	Limit  int
}

type ListResponse struct {
	Data []Item     `json:"data"`
	Meta Pagination `json:"meta"`
}

type Pagination struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	Limit    int   `json:"limit"`
	LastPage int   `json:"last_page"`
}

type Item struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
	Style       string          `json:"style"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	Translation *Translation    `json:"translation"`
}

type Translation struct {
	Locale      string `json:"locale"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ImageFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type TranslationInput struct {
	Title       string
	Description string
}

type CreateRequest struct {
	Slug     string
	Price    decimal.Decimal
	Quantity int
	Category string
	Style    string
	EN       TranslationInput
	VI       TranslationInput
}

type TranslationPatch struct {
	Title       Optional[string]
	Description Optional[string]
}

type UpdateRequest struct {
	Slug     Optional[string]
	Price    Optional[decimal.Decimal]
	Quantity Optional[int]
	Category Optional[string]
	Style    Optional[string]
	IsActive Optional[bool]
	EN       TranslationPatch
	VI       TranslationPatch
}

type UpdateResponse struct {
	Success bool `json:"success"`
}

const (
	BulkActionDelete         = "delete"
	BulkActionArchive        = "archive"
	BulkActionRestore        = "restore"
	BulkActionUpdateCategory = "update_category"
)

type BulkUpdateRequest struct {
	IDs     []string     `json:"ids"`
	Action  string       `json:"action"`
	Payload *BulkPayload `json:"payload,omitempty"`
}

type BulkPayload struct {
	Category string `json:"category"`
}

type BulkUpdateResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidSlug       = errors.New("invalid_slug")
	ErrInvalidPrice      = errors.New("invalid_price")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidActive     = errors.New("invalid_is_active")
	ErrImageRequired     = errors.New("image_required")
	ErrInvalidBulkAction = errors.New("invalid_bulk_action")
	ErrCategoryRequired  = errors.New("category_required")
	ErrSlugConflict      = errors.New("slug_conflict")
	ErrNotFound          = errors.New("not_found")
	ErrForbidden         = errors.New("forbidden")
)
