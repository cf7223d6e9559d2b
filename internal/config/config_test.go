package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_SIGNING_SECRET", "secret")
	t.Setenv("MYSQL_DSN", "u:p@tcp(localhost:3306)/timebot?parseTime=true")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Store.Driver)
	assert.Equal(t, "u:p@tcp(localhost:3306)/timebot?parseTime=true", cfg.DSN())
	assert.Equal(t, "https://slack.com/api/", cfg.Slack.APIURL)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 5*time.Second, cfg.Lock.Wait)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.Tracker.VerifyProjectOwner)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost/timebot")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("LOCK_TTL", "30s")
	t.Setenv("VERIFY_PROJECT_OWNER", "true")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/timebot", cfg.DSN())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.True(t, cfg.Tracker.VerifyProjectOwner)
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing token":   {"SLACK_BOT_TOKEN": ""},
		"missing secret":  {"SLACK_SIGNING_SECRET": ""},
		"bad driver":      {"STORE_DRIVER": "sqlite"},
		"missing pg dsn":  {"STORE_DRIVER": "postgres"},
		"bad redis db":    {"REDIS_DB": "one"},
		"bad lock wait":   {"LOCK_WAIT": "-1s"},
		"bad verify flag": {"VERIFY_PROJECT_OWNER": "maybe"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("POSTGRES_DSN", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}
