package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "https://api.example.com", "-t", "2s", "-s", "redis", "-d", "x.db",
				"-r", "cache:6379", "-k", "wg:user", "-w", "1s", "-l", "debug"},
			expected: &Config{
				APIURL: "https://api.example.com", RequestTimeout: 2 * time.Second, StoreBackend: StoreRedis,
				DatabasePath: "x.db", RedisAddr: "cache:6379", RedisKey: "wg:user",
				EmailCheckDebounce: time.Second, LogLevel: "debug",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"cmd", "-config", "cfg.json", "-s=memory", "-v"},
			expected: &Config{StoreBackend: StoreMemory},
		},
		{name: "bad duration", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
