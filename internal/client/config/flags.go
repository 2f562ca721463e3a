package config

import (
	"flag"
	"io"
	"os"

	"github.com/workgroup/workgroup-client/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string     identity service base URL
//	-t duration   per-request timeout
//	-s string     session store backend: sqlite, redis or memory
//	-d string     SQLite database path
//	-r string     redis address
//	-k string     redis key holding the session record
//	-w duration   email check debounce
//	-l string     log level
//
// os.Args is filtered with flagx.FilterArgs so flags owned by other stages
// (-c/-config) do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-s", "-d", "-r", "-k", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "identity service base URL")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "per-request timeout")
	fs.StringVar(&cfg.StoreBackend, "s", cfg.StoreBackend, "session store backend (sqlite, redis, memory)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "SQLite database path")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.RedisKey, "k", cfg.RedisKey, "redis key for the session record")
	fs.DurationVar(&cfg.EmailCheckDebounce, "w", cfg.EmailCheckDebounce, "email check debounce")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
