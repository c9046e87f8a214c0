package server

import (
	"context"
	"net/http"
	"time"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/auth"
	authdomain "github.com/ThienHoan/Web-TramHuong-sub001/internal/auth/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/authorization"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/config"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/observability"
	obsmiddleware "github.com/ThienHoan/Web-TramHuong-sub001/internal/observability/logger"
	obstracing "github.com/ThienHoan/Web-TramHuong-sub001/internal/observability/tracing"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product"
	productdomain "github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	storage.Module,
	product.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	authsvc    authdomain.Service
	authzSvc   authorization.Service
	productSvc productdomain.Service
	store      storage.ObjectStore
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Authsvc    authdomain.Service
	AuthzSvc   authorization.Service
	ProductSvc productdomain.Service
	Store      storage.ObjectStore `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		authsvc:    p.Authsvc,
		authzSvc:   p.AuthzSvc,
		productSvc: p.ProductSvc,
		store:      p.Store,
	}

	svc.registerProductRoutes()
	svc.registerObjectRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerProductRoutes() {
	products := s.engine.Group("/products")

	products.GET("", s.ListProducts)
	products.GET("/data/export", s.AuthRequired(), s.authorizeAction(authorization.ActionProductExport), s.ExportProducts)
	products.GET("/admin/:id", s.AuthRequired(), s.authorizeAction(authorization.ActionProductViewAdmin), s.GetProductByID)
	products.GET("/:slug", s.GetProductBySlug)

	products.POST("", s.AuthRequired(), s.authorizeAction(authorization.ActionProductCreate), s.CreateProduct)
	products.PATCH("/bulk/update", s.AuthRequired(), s.authorizeAction(authorization.ActionProductBulkUpdate), s.BulkUpdateProducts)
	products.PATCH("/:id", s.AuthRequired(), s.authorizeAction(authorization.ActionProductUpdate), s.UpdateProduct)
	products.DELETE("/:id", s.AuthRequired(), s.authorizeAction(authorization.ActionProductDelete), s.DeleteProduct)
}
