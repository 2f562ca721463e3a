package config

import (
	"encoding/json"
	"os"

	"github.com/workgroup/workgroup-client/internal/flagx"
	"github.com/workgroup/workgroup-client/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they can be strings like "600ms" or integer nanoseconds.
type JsonConfig struct {
	APIURL             string         `json:"api_url"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	StoreBackend       string         `json:"store"`
	DatabasePath       string         `json:"db_path"`
	RedisAddr          string         `json:"redis_addr"`
	RedisKey           string         `json:"redis_key"`
	EmailCheckDebounce timex.Duration `json:"email_check_debounce"`
	LogLevel           string         `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. Fields
// absent from the file keep their value. Read or decode errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIURL, jc.APIURL)
	setString(&cfg.StoreBackend, jc.StoreBackend)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisKey, jc.RedisKey)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.EmailCheckDebounce.Duration != 0 {
		cfg.EmailCheckDebounce = jc.EmailCheckDebounce.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
