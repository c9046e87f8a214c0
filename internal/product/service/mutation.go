package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/storage"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const emptyBulkMessage = "No products selected"

// Create uploads the image, then writes the product row, then exactly one
// translation row per supported locale. The steps are not transactional: an
// image uploaded before a failed insert stays in the bucket.
func (s *Service) Create(ctx context.Context, caller domain.Caller, req domain.CreateRequest, image *domain.ImageFile) (*domain.Item, error) {
	if !caller.CanManageCatalog() {
		return nil, domain.ErrForbidden
	}
	if image == nil || image.Body == nil {
		return nil, domain.ErrImageRequired
	}

	productSlug, err := resolveSlug(req.Slug, req.EN.Title)
	if err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	if req.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	style := strings.TrimSpace(req.Style)
	if style == "" {
		style = domain.DefaultStyle
	}

	key, url, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, err
	}

	p := &domain.Product{
		ID:        s.genID.Generate().Int64(),
		Slug:      productSlug,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Category:  strings.TrimSpace(req.Category),
		Images:    datatypes.JSONSlice[string]{url},
		Style:     style,
		IsActive:  true,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, p); err != nil {
		s.log.Warn("product insert failed, uploaded image orphaned",
			zap.String("object_key", key),
			zap.String("slug", productSlug),
			zap.Error(err),
		)
		return nil, err
	}

	translations := []domain.ProductTranslation{
		{ProductID: p.ID, Locale: domain.LocaleEN, Title: req.EN.Title, Description: req.EN.Description},
		{ProductID: p.ID, Locale: domain.LocaleVI, Title: req.VI.Title, Description: req.VI.Description},
	}
	if err := s.repo.InsertTranslations(ctx, s.db, translations); err != nil {
		s.log.Warn("product created without translations",
			zap.String("product_id", snowflake.ID(p.ID).String()),
			zap.Error(err),
		)
		return nil, err
	}
	p.Translations = translations

	s.metrics.RecordMutation(ctx, "create", 1)
	s.log.Info("product created",
		zap.String("product_id", snowflake.ID(p.ID).String()),
		zap.String("slug", p.Slug),
		zap.String("actor_id", caller.UserID),
	)

	item := toItem(p)
	return &item, nil
}

// Update applies only the supplied fields. A new image replaces the whole
// images array. Translation upserts run per locale after the product update
// and are not rolled back together with it.
func (s *Service) Update(ctx context.Context, caller domain.Caller, id string, req domain.UpdateRequest, image *domain.ImageFile) (*domain.UpdateResponse, error) {
	if !caller.CanManageCatalog() {
		return nil, domain.ErrForbidden
	}
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	fields, err := updateFields(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	var key string
	if image != nil && image.Body != nil {
		var url string
		key, url, err = s.uploadImage(ctx, image)
		if err != nil {
			return nil, err
		}
		fields["images"] = datatypes.JSONSlice[string]{url}
	}

	if err := s.repo.Update(ctx, s.db, productID, fields); err != nil {
		if key != "" {
			s.log.Warn("product update failed, uploaded image orphaned",
				zap.String("object_key", key),
				zap.Error(err),
			)
		}
		return nil, err
	}

	for _, locale := range []string{domain.LocaleEN, domain.LocaleVI} {
		patch := req.EN
		if locale == domain.LocaleVI {
			patch = req.VI
		}
		translation, columns := translationUpsert(productID, locale, patch)
		if len(columns) == 0 {
			continue
		}
		if err := s.repo.UpsertTranslation(ctx, s.db, translation, columns); err != nil {
			s.log.Warn("translation upsert failed after product update",
				zap.String("product_id", strings.TrimSpace(id)),
				zap.String("locale", locale),
				zap.Error(err),
			)
			return nil, err
		}
	}

	s.metrics.RecordMutation(ctx, "update", 1)
	s.log.Info("product updated",
		zap.String("product_id", strings.TrimSpace(id)),
		zap.Int("fields", len(fields)),
		zap.String("actor_id", caller.UserID),
	)
	return &domain.UpdateResponse{Success: true}, nil
}

// SoftDelete archives the product. Repeating it is a no-op.
func (s *Service) SoftDelete(ctx context.Context, caller domain.Caller, id string) (*domain.UpdateResponse, error) {
	if !caller.CanManageCatalog() {
		return nil, domain.ErrForbidden
	}
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.repo.Update(ctx, s.db, productID, map[string]any{"is_active": false}); err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(ctx, "delete", 1)
	s.log.Info("product archived",
		zap.String("product_id", strings.TrimSpace(id)),
		zap.String("actor_id", caller.UserID),
	)
	return &domain.UpdateResponse{Success: true}, nil
}

// BulkUpdate applies one derived update to every id in a single statement.
// An empty id list is a soft failure, not an error.
func (s *Service) BulkUpdate(ctx context.Context, caller domain.Caller, req domain.BulkUpdateRequest) (*domain.BulkUpdateResponse, error) {
	if !caller.CanManageCatalog() {
		return nil, domain.ErrForbidden
	}
	if len(req.IDs) == 0 {
		return &domain.BulkUpdateResponse{Success: false, Message: emptyBulkMessage}, nil
	}

	fields, err := bulkFields(req.Action, req.Payload)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := s.repo.BulkUpdate(ctx, s.db, ids, fields); err != nil {
		return nil, err
	}

	s.metrics.RecordMutation(ctx, "bulk_update", len(ids))
	s.log.Info("products bulk updated",
		zap.String("action", req.Action),
		zap.Int("count", len(ids)),
		zap.String("actor_id", caller.UserID),
	)
	return &domain.BulkUpdateResponse{Success: true, Count: len(ids)}, nil
}

func (s *Service) uploadImage(ctx context.Context, image *domain.ImageFile) (string, string, error) {
	key := fmt.Sprintf("%d-%s", s.clock.Now().UnixMilli(), filepath.Base(image.Filename))
	size := image.Size
	if size <= 0 {
		size = -1
	}

	url, err := s.store.Upload(ctx, storage.Object{
		Key:         key,
		ContentType: image.ContentType,
		Body:        image.Body,
		Size:        size,
	})
	if err != nil {
		s.metrics.RecordUpload(ctx, "error")
		return "", "", err
	}
	s.metrics.RecordUpload(ctx, "ok")
	return key, url, nil
}

// resolveSlug keeps an explicit slug and otherwise derives one from the
// English title.
func resolveSlug(explicit string, title string) (string, error) {
	if value := strings.TrimSpace(explicit); value != "" {
		return value, nil
	}
	derived := slug.Make(title)
	if derived == "" {
		return "", domain.ErrInvalidSlug
	}
	return derived, nil
}

func updateFields(req domain.UpdateRequest) (map[string]any, error) {
	fields := make(map[string]any)

	if value, ok := req.Slug.Get(); ok {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, domain.ErrInvalidSlug
		}
		fields["slug"] = value
	}
	if value, ok := req.Price.Get(); ok {
		if value.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		fields["price"] = value
	}
	if value, ok := req.Quantity.Get(); ok {
		if value < 0 {
			return nil, domain.ErrInvalidQuantity
		}
		fields["quantity"] = value
	}
	if value, ok := req.Category.Get(); ok {
		fields["category"] = strings.TrimSpace(value)
	}
	if value, ok := req.Style.Get(); ok {
		if value = strings.TrimSpace(value); value != "" {
			fields["style"] = value
		}
	}
	if value, ok := req.IsActive.Get(); ok {
		fields["is_active"] = value
	}
	return fields, nil
}

// translationUpsert returns the row and the columns to overwrite on conflict.
// A locale is touched only when at least one supplied text is non-empty.
func translationUpsert(productID int64, locale string, patch domain.TranslationPatch) (domain.ProductTranslation, []string) {
	t := domain.ProductTranslation{ProductID: productID, Locale: locale}
	var columns []string
	nonEmpty := false

	if title, ok := patch.Title.Get(); ok {
		t.Title = title
		columns = append(columns, "title")
		nonEmpty = nonEmpty || strings.TrimSpace(title) != ""
	}
	if description, ok := patch.Description.Get(); ok {
		t.Description = description
		columns = append(columns, "description")
		nonEmpty = nonEmpty || strings.TrimSpace(description) != ""
	}
	if !nonEmpty {
		return t, nil
	}
	return t, columns
}

func bulkFields(action string, payload *domain.BulkPayload) (map[string]any, error) {
	switch strings.TrimSpace(action) {
	case domain.BulkActionDelete, domain.BulkActionArchive:
		return map[string]any{"is_active": false}, nil
	case domain.BulkActionRestore:
		return map[string]any{"is_active": true}, nil
	case domain.BulkActionUpdateCategory:
		if payload == nil || strings.TrimSpace(payload.Category) == "" {
			return nil, domain.ErrCategoryRequired
		}
		return map[string]any{"category": strings.TrimSpace(payload.Category)}, nil
	default:
		return nil, domain.ErrInvalidBulkAction
	}
}
