package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/clock"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/config"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/repository"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/storage"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var baseTime = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

var (
	admin    = domain.Caller{UserID: "admin-1", Role: "ADMIN"}
	staff    = domain.Caller{UserID: "staff-1", Role: "staff"}
	customer = domain.Caller{UserID: "cust-1", Role: "CUSTOMER"}
)

type catalogFixture struct {
	svc   *Service
	db    *gorm.DB
	store *storage.MemoryStore
	node  *snowflake.Node
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func setupCatalog(t *testing.T) *catalogFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	prepareCatalogSchema(t, db)

	node := mustNode(t)
	store := storage.NewMemoryStore("https://cdn.tramhuong.test/product-images")
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repository.Provide(),
		Store:   store,
		Catalog: config.NewStaticCatalogConfigHolder(config.DefaultCatalogConfig()),
		Clock:   clock.NewFakeClock(baseTime),
	}).(*Service)

	return &catalogFixture{svc: svc, db: db, store: store, node: node}
}

func prepareCatalogSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	stmts := []string{
		`DROP TABLE IF EXISTS product_translations`,
		`DROP TABLE IF EXISTS products`,
		`CREATE TABLE products (
			id INTEGER PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			price NUMERIC NOT NULL DEFAULT 0,
			quantity INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			images JSON,
			style TEXT NOT NULL DEFAULT 'default',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE product_translations (
			product_id INTEGER NOT NULL,
			locale TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (product_id, locale)
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema: %v", err)
		}
	}
}

type seed struct {
	slug     string
	price    int64
	quantity int
	category string
	inactive bool
	en       string
	vi       string
	// minutes after baseTime
	age int
}

func (f *catalogFixture) seed(t *testing.T, s seed) int64 {
	t.Helper()
	id := f.node.Generate().Int64()
	p := domain.Product{
		ID:        id,
		Slug:      s.slug,
		Price:     decimal.NewFromInt(s.price),
		Quantity:  s.quantity,
		Category:  s.category,
		Images:    datatypes.JSONSlice[string]{"https://cdn.tramhuong.test/product-images/" + s.slug + ".png"},
		Style:     domain.DefaultStyle,
		IsActive:  !s.inactive,
		CreatedAt: baseTime.Add(time.Duration(s.age) * time.Minute),
	}
	if err := f.db.Omit("Translations").Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	var rows []domain.ProductTranslation
	if s.en != "" {
		rows = append(rows, domain.ProductTranslation{ProductID: id, Locale: domain.LocaleEN, Title: s.en})
	}
	if s.vi != "" {
		rows = append(rows, domain.ProductTranslation{ProductID: id, Locale: domain.LocaleVI, Title: s.vi})
	}
	if len(rows) > 0 {
		if err := f.db.Create(&rows).Error; err != nil {
			t.Fatalf("seed translations: %v", err)
		}
	}
	return id
}

func (f *catalogFixture) isActive(t *testing.T, id int64) bool {
	t.Helper()
	var p domain.Product
	if err := f.db.Where("id = ?", id).Take(&p).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.IsActive
}

func (f *catalogFixture) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	if err := f.db.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func idString(id int64) string {
	return snowflake.ID(id).String()
}

func slugs(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Slug)
	}
	return out
}
