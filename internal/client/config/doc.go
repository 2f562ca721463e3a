// Package config loads runtime configuration for the Work Group client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, if present.
//  3. WG_* environment variables (WG_API_URL, WG_STORE, WG_DB_PATH, ...).
//  4. Optional JSON file selected via -c or -config.
//  5. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string     identity service base URL
//	-t duration   per-request timeout
//	-s string     session store backend: sqlite, redis or memory
//	-d string     SQLite database path
//	-r string     redis address
//	-k string     redis key
//	-w duration   email check debounce
//	-l string     log level
//
// # JSON schema
//
//	{
//	  "api_url": "https://api.example.com",
//	  "request_timeout": "10s",
//	  "store": "sqlite",
//	  "db_path": "/home/me/.config/workgroup/client.db",
//	  "redis_addr": "127.0.0.1:6379",
//	  "redis_key": "workgroup:auth_user",
//	  "email_check_debounce": "600ms",
//	  "log_level": "info"
//	}
//
// Malformed values in any source panic; LoadConfig is meant to run once at
// startup.
package config
