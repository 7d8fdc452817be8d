package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
app:
  name: dispatcher-test
  environment: test
database:
  postgres:
    host: localhost
    port: 5432
    database: notifications
    user: app
    password: secret
mail:
  provider: smtp
  from_email: noreply@example.com
  from_name: Notifications
  smtp:
    host: mail.example.com
    port: 2525
scheduler:
  poll_interval: 60000
  send_timeout: 5000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "dispatcher-test", cfg.App.Name)
	assert.Equal(t, "smtp", cfg.Mail.Provider)
	assert.Equal(t, "mail.example.com", cfg.Mail.SMTP.Host)
	assert.Equal(t, 2525, cfg.Mail.SMTP.Port)
	assert.Equal(t, 60000, cfg.Scheduler.PollInterval)
	assert.Equal(t, 5000, cfg.Scheduler.SendTimeout)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "host=localhost")
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "dbname=notifications")
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
database:
  postgres:
    host: localhost
    database: notifications
    user: app
mail:
  from_email: noreply@example.com
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "notification-dispatcher", cfg.App.Name)
	assert.Equal(t, "ses", cfg.Mail.Provider)
	assert.Equal(t, "us-east-1", cfg.Mail.AWS.Region)
	assert.Equal(t, 300000, cfg.Scheduler.PollInterval)
	assert.Equal(t, 30000, cfg.Scheduler.SendTimeout)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing postgres host",
			content: `
database:
  postgres:
    database: notifications
    user: app
mail:
  from_email: noreply@example.com
`,
		},
		{
			name: "missing from email",
			content: `
database:
  postgres:
    host: localhost
    database: notifications
    user: app
`,
		},
		{
			name: "unknown provider",
			content: `
database:
  postgres:
    host: localhost
    database: notifications
    user: app
mail:
  provider: carrier-pigeon
  from_email: noreply@example.com
`,
		},
		{
			name: "smtp provider without host",
			content: `
database:
  postgres:
    host: localhost
    database: notifications
    user: app
mail:
  provider: smtp
  from_email: noreply@example.com
`,
		},
		{
			name: "cache enabled without redis address",
			content: `
database:
  postgres:
    host: localhost
    database: notifications
    user: app
mail:
  from_email: noreply@example.com
cache:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := LoadFromFile(path)
			assert.Error(t, err)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, GetDuration(30000))
	assert.Equal(t, 5*time.Minute, GetDuration(300000))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
