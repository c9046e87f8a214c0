package product

import (
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/repository"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
