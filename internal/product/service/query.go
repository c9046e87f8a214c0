package service

import (
	"context"
	"strings"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/pkg/db/option"
	"go.uber.org/zap"
)

const (
	modePaged  = "paged"
	modeSearch = "search"
)

// List runs in one of two modes. Without a search term filtering, sorting,
// the row range and the count all happen in the database. With a search term
// the whole filtered set is loaded and matched and paginated in memory, and
// the total reflects the matched set.
func (s *Service) List(ctx context.Context, locale string, req domain.ListRequest) (*domain.ListResponse, error) {
	locale = domain.NormalizeLocale(locale)
	cfg := s.catalog.Get()

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = cfg.DefaultLimit
	}

	sortBy, orderBy := splitSort(req.Sort)
	filter := domain.ListFilter{
		Locale:            locale,
		IncludeInactive:   req.IncludeInactive,
		Category:          strings.TrimSpace(req.Category),
		StockStatus:       strings.TrimSpace(req.StockStatus),
		LowStockThreshold: cfg.LowStockThreshold,
		SortBy:            sortBy,
		OrderBy:           orderBy,
		Page:              page,
		Limit:             limit,
	}

	search := strings.TrimSpace(req.Search)
	if search == "" {
		s.metrics.RecordList(ctx, modePaged)
		rows, total, err := s.repo.List(ctx, s.db, filter)
		if err != nil {
			return nil, err
		}
		data := make([]domain.Item, 0, len(rows))
		for i := range rows {
			data = append(data, toItem(&rows[i]))
		}
		return &domain.ListResponse{Data: data, Meta: paginate(total, page, limit)}, nil
	}

	s.metrics.RecordList(ctx, modeSearch)
	rows, err := s.repo.ListAll(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(search)
	matched := make([]domain.Item, 0, len(rows))
	for i := range rows {
		item := toItem(&rows[i])
		if matchesSearch(item, needle) {
			matched = append(matched, item)
		}
	}

	s.log.Debug("search listing",
		zap.String("locale", locale),
		zap.Int("candidates", len(rows)),
		zap.Int("matched", len(matched)),
	)

	return &domain.ListResponse{Data: pageWindow(matched, page, limit), Meta: paginate(int64(len(matched)), page, limit)}, nil
}

func (s *Service) FindBySlug(ctx context.Context, slug string, locale string) (*domain.Item, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.ErrNotFound
	}

	p, err := s.repo.FindBySlug(ctx, s.db, slug, domain.NormalizeLocale(locale))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	item := toItem(p)
	return &item, nil
}

// FindByID ignores the archive flag and the locale; the translation is the
// first stored row of any locale.
func (s *Service) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	item := toItem(p)
	return &item, nil
}

// splitSort parses "<field>:<direction>". Validation of the field happens
// against the repository allow-list.
func splitSort(sort string) (string, string) {
	field, dir, _ := strings.Cut(strings.TrimSpace(sort), ":")
	return strings.TrimSpace(field), strings.TrimSpace(dir)
}

func matchesSearch(item domain.Item, needle string) bool {
	if strings.Contains(strings.ToLower(item.Slug), needle) {
		return true
	}
	return item.Translation != nil && strings.Contains(strings.ToLower(item.Translation.Title), needle)
}

// pageWindow slices one page out of the matched rows. Pages past the end,
// including ones whose offset overflows, are empty.
func pageWindow(items []domain.Item, page, limit int) []domain.Item {
	offset, ok := option.PageOffset(page, limit)
	if !ok || offset >= len(items) {
		return []domain.Item{}
	}
	if limit >= len(items)-offset {
		return items[offset:]
	}
	return items[offset : offset+limit]
}

func paginate(total int64, page, limit int) domain.Pagination {
	lastPage := int(total / int64(limit))
	if total%int64(limit) != 0 {
		lastPage++
	}
	if lastPage < 1 {
		lastPage = 1
	}
	return domain.Pagination{
		Total:    total,
		Page:     page,
		Limit:    limit,
		LastPage: lastPage,
	}
}
