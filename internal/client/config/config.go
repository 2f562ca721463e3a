package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/workgroup/workgroup-client/internal/common"
)

// Store backends accepted in Config.StoreBackend.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds runtime settings for the Work Group client.
//
// Units: RequestTimeout and EmailCheckDebounce are time.Duration values.
type Config struct {
	APIURL         string        `env:"API_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	StoreBackend string `env:"STORE"`
	DatabasePath string `env:"DB_PATH"`
	RedisAddr    string `env:"REDIS_ADDR"`
	RedisKey     string `env:"REDIS_KEY"`

	EmailCheckDebounce time.Duration `env:"EMAIL_CHECK_DEBOUNCE"`
	LogLevel           string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://127.0.0.1:3000"
	c.RequestTimeout = 10 * time.Second
	c.StoreBackend = StoreSQLite
	c.DatabasePath = defaultDatabasePath()
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisKey = "workgroup:" + common.SessionRecordKey
	c.EmailCheckDebounce = 600 * time.Millisecond
	c.LogLevel = "warn"
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "workgroup.db"
	}
	return filepath.Join(dir, "workgroup", "client.db")
}

// Validate reports settings no component can work with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("store %q needs a database path", c.StoreBackend)
		}
	case StoreRedis:
		if c.RedisAddr == "" || c.RedisKey == "" {
			return fmt.Errorf("store %q needs a redis address and key", c.StoreBackend)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.APIURL == "" {
		return fmt.Errorf("api url is empty")
	}
	if c.RequestTimeout < 0 || c.EmailCheckDebounce < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a .env file, the environment, a JSON file and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
