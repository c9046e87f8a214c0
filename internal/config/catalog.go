package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CatalogConfig holds catalog tunables that operators may change without a restart.
type CatalogConfig struct {
	DefaultLimit      int `mapstructure:"defaultLimit"`
	ExportLimit       int `mapstructure:"exportLimit"`
	LowStockThreshold int `mapstructure:"lowStockThreshold"`
}

func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		DefaultLimit:      20,
		ExportLimit:       10000,
		LowStockThreshold: 10,
	}
}

type CatalogConfigHolder struct {
	current atomic.Value // holds CatalogConfig
}

// NewStaticCatalogConfigHolder returns a holder that never reloads.
func NewStaticCatalogConfigHolder(cfg CatalogConfig) *CatalogConfigHolder {
	holder := &CatalogConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCatalogConfigHolder(appCfg Config, log *zap.Logger) (*CatalogConfigHolder, error) {
	v := viper.New()

	v.SetConfigType("yml")
	if appCfg.CatalogConfigPath != "" {
		v.SetConfigFile(appCfg.CatalogConfigPath)
	} else {
		v.SetConfigName("catalog")
		v.AddConfigPath("/etc/tramhuong")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TRAMHUONG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCatalogConfig()
	v.SetDefault("catalog.defaultLimit", defaults.DefaultLimit)
	v.SetDefault("catalog.exportLimit", defaults.ExportLimit)
	v.SetDefault("catalog.lowStockThreshold", defaults.LowStockThreshold)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg CatalogConfig
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return nil, err
	}
	if err := validateCatalogConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticCatalogConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CatalogConfig
		if err := v.UnmarshalKey("catalog", &updated); err != nil {
			log.Warn("catalog config reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := validateCatalogConfig(updated); err != nil {
			log.Warn("invalid catalog config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("catalog config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

// Get returns the active tunables. A nil holder yields the defaults.
func (h *CatalogConfigHolder) Get() CatalogConfig {
	if h == nil {
		return DefaultCatalogConfig()
	}
	cfg, ok := h.current.Load().(CatalogConfig)
	if !ok {
		return DefaultCatalogConfig()
	}
	return cfg
}

func validateCatalogConfig(cfg CatalogConfig) error {
	if cfg.DefaultLimit <= 0 {
		return errors.New("catalog.defaultLimit must be positive")
	}
	if cfg.ExportLimit <= 0 {
		return errors.New("catalog.exportLimit must be positive")
	}
	if cfg.LowStockThreshold <= 0 {
		return errors.New("catalog.lowStockThreshold must be positive")
	}
	return nil
}
