package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"SESSION_SECRET": "s",
		"JWT_SECRET":     "j",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, 2, cfg.Redis.WorkerConcurrency)
	assert.Equal(t, 24*time.Hour, cfg.Enrollment.PendingTTL)
	assert.Equal(t, "sandbox", cfg.Cashfree.Environment)
	assert.Equal(t, 10, cfg.RateLimit.Checkout)
	assert.True(t, cfg.Session.Secure)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"SESSION_SECRET":         "s",
		"JWT_SECRET":             "j",
		"STORAGE_BACKEND":        "MySQL",
		"PENDING_ENROLLMENT_TTL": "2h",
		"CASHFREE_ENVIRONMENT":   "production",
		"SESSION_SECURE":         "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorageMySQL, cfg.Storage.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Enrollment.PendingTTL)
	assert.Equal(t, "production", cfg.Cashfree.Environment)
	assert.False(t, cfg.Session.Secure)
}

func TestFromEnv_Invalid(t *testing.T) {
	base := map[string]string{"SESSION_SECRET": "s", "JWT_SECRET": "j"}

	cases := map[string]map[string]string{
		"backend":     {"STORAGE_BACKEND": "dynamo"},
		"ttl":         {"PENDING_ENROLLMENT_TTL": "tomorrow"},
		"ttl zero":    {"PENDING_ENROLLMENT_TTL": "0s"},
		"concurrency": {"WORKER_CONCURRENCY": "many"},
		"no secret":   {"SESSION_SECRET": " "},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			for k, v := range overrides {
				env[k] = v
			}
			_, err := FromEnv(envMap(env))
			assert.Error(t, err)
		})
	}
}
