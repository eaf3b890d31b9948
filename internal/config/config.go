package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/PratikDhanave/presence-service/internal/presence"
)

// Store backends accepted in PRESENCE_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config contains runtime configuration required by the service.
type Config struct {
	Addr            string        `env:"PRESENCE_ADDR" envDefault:":8080"`
	Store           string        `env:"PRESENCE_STORE" envDefault:"memory"`
	DBURL           string        `env:"DB_URL"`
	RedisURL        string        `env:"REDIS_URL"`
	APIKeysRaw      string        `env:"API_KEYS"`
	DistanceFormula string        `env:"PRESENCE_DISTANCE_FORMULA" envDefault:"legacy"`
	StrictEvents    bool          `env:"PRESENCE_STRICT_EVENTS" envDefault:"false"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// APIKeys maps apiKey -> caller identity. Filled from APIKeysRaw.
	APIKeys map[string]string
	// Distance is the geofence formula named by DistanceFormula.
	Distance presence.DistanceFunc
}

// Load reads configuration from environment variables and validates it.
// API_KEYS format: "identity1:key1,identity2:key2"
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(cfg.DBURL) == "" {
			return Config{}, errors.New("DB_URL required when PRESENCE_STORE=postgres")
		}
	case StoreRedis:
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return Config{}, errors.New("REDIS_URL required when PRESENCE_STORE=redis")
		}
	default:
		return Config{}, fmt.Errorf("PRESENCE_STORE must be memory, postgres or redis, got %q", cfg.Store)
	}

	distance, err := presence.ParseFormula(cfg.DistanceFormula)
	if err != nil {
		return Config{}, fmt.Errorf("PRESENCE_DISTANCE_FORMULA: %w", err)
	}
	cfg.Distance = distance

	keys, err := parseAPIKeys(cfg.APIKeysRaw)
	if err != nil {
		return Config{}, err
	}
	cfg.APIKeys = keys

	return cfg, nil
}

func parseAPIKeys(raw string) (map[string]string, error) {
	apiKeys := map[string]string{}

	raw = strings.TrimSpace(raw)
	if raw != "" {
		pairs := strings.Split(raw, ",")
		for _, p := range pairs {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			parts := strings.SplitN(p, ":", 2)
			if len(parts) != 2 {
				return nil, errors.New(`API_KEYS must be "identity:key,identity:key"`)
			}
			identity := strings.TrimSpace(parts[0])
			key := strings.TrimSpace(parts[1])
			if identity == "" || key == "" {
				return nil, errors.New(`API_KEYS must be "identity:key,identity:key"`)
			}
			apiKeys[key] = identity
		}
	}

	// Local dev fallback so the service runs out-of-the-box.
	if len(apiKeys) == 0 {
		apiKeys["organizer-key-123"] = "organizer"
		apiKeys["attendee-key-456"] = "attendee"
	}

	return apiKeys, nil
}
