package service

import (
	"strings"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/clock"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/config"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/observability/metrics"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/storage"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Store   storage.ObjectStore
	Catalog *config.CatalogConfigHolder `optional:"true"`
	Metrics *metrics.Metrics            `optional:"true"`
	Clock   clock.Clock                 `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	genID   *snowflake.Node
	store   storage.ObjectStore
	catalog *config.CatalogConfigHolder
	metrics *metrics.Metrics
	clock   clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("product.service"),
		repo:    p.Repo,
		genID:   p.GenID,
		store:   p.Store,
		catalog: p.Catalog,
		metrics: p.Metrics,
		clock:   clk,
	}
}

func parseID(raw string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

// toItem collapses the loaded translations to the first row, or nil.
func toItem(p *domain.Product) domain.Item {
	item := domain.Item{
		ID:        snowflake.ID(p.ID).String(),
		Slug:      p.Slug,
		Price:     p.Price,
		Quantity:  p.Quantity,
		Category:  p.Category,
		Images:    []string(p.Images),
		Style:     p.Style,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
	if item.Images == nil {
		item.Images = []string{}
	}
	if len(p.Translations) > 0 {
		t := p.Translations[0]
		item.Translation = &domain.Translation{
			Locale:      t.Locale,
			Title:       t.Title,
			Description: t.Description,
		}
	}
	return item
}
