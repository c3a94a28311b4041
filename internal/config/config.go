package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - корневая конфигурация сервера
type Config struct {
	// Port HTTP-порт сервера
	Port string `mapstructure:"port"`

	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// StorageConfig - настройки персистентного хранилища
type StorageConfig struct {
	// Backend: "file" (файл на ключ, исторический формат server_db)
	// или "pebble" (LSM-база).
	Backend string `mapstructure:"backend"`

	// DataDir корневая директория данных
	DataDir string `mapstructure:"dataDir"`
}

// CacheConfig - настройки кэша досок
type CacheConfig struct {
	// FlushInterval период фонового сброса грязных досок в хранилище
	FlushInterval time.Duration `mapstructure:"flushInterval"`
}

// Load читает конфигурацию из файла (опционально) и окружения.
// Переменные окружения имеют префикс DND, например DND_PORT,
// DND_STORAGE_BACKEND, DND_CACHE_FLUSHINTERVAL.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dataDir", "data/server_db")
	v.SetDefault("cache.flushInterval", 60*time.Second)

	v.SetEnvPrefix("DND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Storage.Backend != "file" && cfg.Storage.Backend != "pebble" {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return &cfg, nil
}
