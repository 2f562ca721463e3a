package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "WG_"

// dotEnvFile is loaded into the process environment when present. Variables
// already set in the environment are not overridden.
var dotEnvFile = ".env"

// parseEnv overlays cfg with WG_* environment variables. Unset variables keep
// the current value. Malformed values panic.
func parseEnv(cfg *Config) {
	_ = godotenv.Load(dotEnvFile)

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
