package auth

import (
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(service.New),
)
