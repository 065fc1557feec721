package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment        string        `mapstructure:"ENV"`
	DBDSN              string        `mapstructure:"DB_DSN"`
	TelegramToken      string        `mapstructure:"TELEGRAM_TOKEN"`
	AdminIDsRaw        string        `mapstructure:"ADMIN_TELEGRAM_IDS"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	ReferenceCacheTTL  time.Duration `mapstructure:"REFERENCE_CACHE_TTL"`
	MigrationsPath     string        `mapstructure:"MIGRATIONS_PATH"`
	CompletionInterval time.Duration `mapstructure:"COMPLETION_INTERVAL"`
	Timezone           string        `mapstructure:"APP_TIMEZONE"`

	// Заполняются после разбора
	AdminTelegramIDs []int64        `mapstructure:"-"`
	Location         *time.Location `mapstructure:"-"`
}

var defaults = map[string]any{
	"ENV":                 "development",
	"DB_DSN":              "",
	"TELEGRAM_TOKEN":      "",
	"ADMIN_TELEGRAM_IDS":  "",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"REFERENCE_CACHE_TTL": 5 * time.Minute,
	"MIGRATIONS_PATH":     "migrations",
	"COMPLETION_INTERVAL": time.Hour,
	"APP_TIMEZONE":        "UTC",
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	v := viper.New()
	v.AutomaticEnv()
	// Unmarshal видит только известные viper ключи, поэтому дефолт есть у каждого
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded (env=%s)\n", cfg.Environment)

	return &cfg, nil
}

func (c *Config) finish() error {
	// Проверяем обязательные поля
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}

	if c.ReferenceCacheTTL <= 0 {
		return fmt.Errorf("REFERENCE_CACHE_TTL must be positive, got %s", c.ReferenceCacheTTL)
	}
	if c.CompletionInterval <= 0 {
		return fmt.Errorf("COMPLETION_INTERVAL must be positive, got %s", c.CompletionInterval)
	}

	ids, err := parseIDs(c.AdminIDsRaw)
	if err != nil {
		return fmt.Errorf("ADMIN_TELEGRAM_IDS: %w", err)
	}
	c.AdminTelegramIDs = ids

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	c.Location = loc

	return nil
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// BotEnabled бот запускается только при заданном токене
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// CacheEnabled кэш справочников используется только при заданном адресе Redis
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
