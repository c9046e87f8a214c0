package storage

import (
	"net"
	"strings"

	"github.com/ThienHoan/Web-TramHuong-sub001/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(newObjectStore),
)

// newObjectStore falls back to the in-process store outside production when
// no bucket endpoint or credentials are configured.
func newObjectStore(cfg config.Config, log *zap.Logger) (ObjectStore, error) {
	sc := cfg.Storage
	if !cfg.IsProduction() && sc.Endpoint == "" && sc.AccessKeyID == "" {
		log.Warn("object storage not configured, using in-memory store")
		return NewMemoryStore(localObjectBaseURL(cfg.HTTPAddr, sc.Bucket)), nil
	}
	return NewS3Store(cfg, log)
}

// localObjectBaseURL points at the server's own /storage route.
func localObjectBaseURL(httpAddr, bucket string) string {
	port := "8080"
	if _, p, err := net.SplitHostPort(strings.TrimSpace(httpAddr)); err == nil && p != "" {
		port = p
	}
	return "http://localhost:" + port + "/storage/" + bucket
}
