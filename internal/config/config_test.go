package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Target: TargetConfig{
			URL:        "https://example.com/notices",
			Format:     "text",
			Recipients: []string{"ops@example.com"},
		},
		Schedule: ScheduleConfig{At: "12:30", Timezone: "Local"},
		State:    StateConfig{Driver: "file", Path: "/tmp/last_site_state.txt"},
		Fetch:    FetchConfig{Timeout: 30 * time.Second},
		Notify: NotifyConfig{
			Driver:      "smtp",
			Timeout:     30 * time.Second,
			OnUnchanged: true,
			Subject:     "Site monitoring report",
		},
		SMTP: SMTPConfig{Host: "smtp.example.com", Port: 587, From: "watcher@example.com", Password: "secret"},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutDownTimeout: 5 * time.Second,
			RequestTimeout:  time.Second,
		},
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().validate())
}

func TestConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"missing url", func(c *Config) { c.Target.URL = "" }},
		{"non http url", func(c *Config) { c.Target.URL = "file:///etc/passwd" }},
		{"no recipients", func(c *Config) { c.Target.Recipients = nil }},
		{"blank recipient", func(c *Config) { c.Target.Recipients = []string{""} }},
		{"unknown format", func(c *Config) { c.Target.Format = "pdf" }},
		{"bad trigger time", func(c *Config) { c.Schedule.At = "25:00" }},
		{"empty trigger time", func(c *Config) { c.Schedule.At = "" }},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
		{"unknown state driver", func(c *Config) { c.State.Driver = "redis" }},
		{"missing state path", func(c *Config) { c.State.Path = " " }},
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"zero notify timeout", func(c *Config) { c.Notify.Timeout = 0 }},
		{"unknown notify driver", func(c *Config) { c.Notify.Driver = "pigeon" }},
		{"empty subject", func(c *Config) { c.Notify.Subject = "" }},
		{"smtp without password", func(c *Config) { c.SMTP.Password = "" }},
		{"smtp without host", func(c *Config) { c.SMTP.Host = "" }},
		{"telegram without token", func(c *Config) { c.Notify.Driver = "telegram" }},
		{"telegram with email recipients", func(c *Config) { c.Notify.Driver = "telegram"; c.Telegram.Token = "123:abc" }},
		{"server enabled with bad port", func(c *Config) { c.Server.Enabled = true; c.Server.Port = 0 }},
		{"server enabled with port too high", func(c *Config) { c.Server.Enabled = true; c.Server.Port = 65536 }},
		{"server enabled with zero timeout", func(c *Config) { c.Server.Enabled = true; c.Server.ReadTimeout = 0 }},
		{"server enabled with zero request timeout", func(c *Config) { c.Server.Enabled = true; c.Server.RequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.edit(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestConfig_Validate_TelegramChatIDs(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.Driver = "telegram"
	cfg.Telegram.Token = "123:abc"
	cfg.Target.Recipients = []string{"1001", "-1002003004005"}
	assert.NoError(t, cfg.validate())

	cfg.Target.Recipients = append(cfg.Target.Recipients, "ops@example.com")
	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ops@example.com")
}

func TestConfig_Validate_MemoryStateNeedsNoPath(t *testing.T) {
	cfg := validConfig()
	cfg.State = StateConfig{Driver: "memory"}
	assert.NoError(t, cfg.validate())
}

func TestConfig_Validate_LogDriverNeedsNoCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.Driver = "log"
	cfg.SMTP = SMTPConfig{}
	assert.NoError(t, cfg.validate())
}

func TestConfig_Location(t *testing.T) {
	cfg := validConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Schedule.Timezone = ""
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Schedule.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("PAGEWATCH_TEST_VAR", "custom_value")
	assert.Equal(t, "custom_value", getEnvOrDefault("PAGEWATCH_TEST_VAR", "default"))
	assert.Equal(t, "default", getEnvOrDefault("PAGEWATCH_TEST_UNSET_VAR", "default"))

	t.Setenv("PAGEWATCH_TEST_EMPTY", "")
	assert.Equal(t, "default", getEnvOrDefault("PAGEWATCH_TEST_EMPTY", "default"))
}

func TestStringList(t *testing.T) {
	assert.Nil(t, stringList(nil))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, stringList(" a@example.com, ,b@example.com "))
	assert.Equal(t, []string{"x", "y"}, stringList([]any{"x", " y ", ""}))
	assert.Equal(t, []string{"42"}, stringList([]any{42}))
	assert.Equal(t, []string{"p", "q"}, stringList([]string{"p", "q"}))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "PAGEWATCH_TARGET_URL", envName("target.url"))
	assert.Equal(t, "PAGEWATCH_NOTIFY_FIRST_RUN", envName("notify.first_run"))
}

// setLegacyEnv mirrors a legacy .env file.
func setLegacyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SCRAPE_URL", "https://example.com/notices")
	t.Setenv("SCRAPE_SELECTOR", "#news")
	t.Setenv("EMAIL_RECIPIENTS", "a@example.com,b@example.com")
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SENDER_EMAIL", "watcher@example.com")
	t.Setenv("SENDER_PASSWORD", "secret")
}

func TestLoadConfig_LegacyEnvAndDefaults(t *testing.T) {
	t.Setenv("PAGEWATCH_CONFIG_PATH", t.TempDir())
	setLegacyEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/notices", cfg.Target.URL)
	assert.Equal(t, "#news", cfg.Target.Selector)
	assert.Equal(t, "text", cfg.Target.Format)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Target.Recipients)
	assert.Equal(t, "12:30", cfg.Schedule.At)
	assert.Equal(t, "file", cfg.State.Driver)
	assert.Equal(t, "./last_site_state.txt", cfg.State.Path)
	assert.Equal(t, "smtp", cfg.Notify.Driver)
	assert.False(t, cfg.Notify.FirstRun)
	assert.True(t, cfg.Notify.OnUnchanged)
	assert.Equal(t, "Site monitoring report", cfg.Notify.Subject)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "watcher@example.com", cfg.SMTP.From)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_FromYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
target:
  url: https://example.com/board
  selector: "main .notice"
  format: markdown
  recipients:
    - "1001"
    - "1002"
schedule:
  at: "07:45"
  timezone: UTC
state:
  driver: sqlite
  path: /var/lib/pagewatch/state.db
fetch:
  timeout: 5s
notify:
  driver: telegram
  first_run: true
  on_unchanged: false
telegram:
  token: "123:abc"
server:
  enabled: true
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("PAGEWATCH_CONFIG_PATH", dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/board", cfg.Target.URL)
	assert.Equal(t, "main .notice", cfg.Target.Selector)
	assert.Equal(t, "markdown", cfg.Target.Format)
	assert.Equal(t, []string{"1001", "1002"}, cfg.Target.Recipients)
	assert.Equal(t, "07:45", cfg.Schedule.At)
	assert.Equal(t, "UTC", cfg.Schedule.Timezone)
	assert.Equal(t, "sqlite", cfg.State.Driver)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "telegram", cfg.Notify.Driver)
	assert.True(t, cfg.Notify.FirstRun)
	assert.False(t, cfg.Notify.OnUnchanged)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
target:
  url: https://example.com/board
  recipients: ["ops@example.com"]
schedule:
  at: "07:45"
notify:
  driver: log
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("PAGEWATCH_CONFIG_PATH", dir)
	t.Setenv("PAGEWATCH_SCHEDULE_AT", "21:00")
	t.Setenv("PAGEWATCH_TARGET_URL", "https://example.org/other")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "21:00", cfg.Schedule.At)
	assert.Equal(t, "https://example.org/other", cfg.Target.URL)
	assert.Equal(t, "log", cfg.Notify.Driver)
}

func TestLoadConfig_WithCustomPorts(t *testing.T) {
	t.Setenv("PAGEWATCH_CONFIG_PATH", t.TempDir())
	setLegacyEnv(t)
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadConfig_WithInvalidSMTPPort(t *testing.T) {
	t.Setenv("PAGEWATCH_CONFIG_PATH", t.TempDir())
	setLegacyEnv(t)
	t.Setenv("SMTP_PORT", "not_a_port")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MissingTarget(t *testing.T) {
	t.Setenv("PAGEWATCH_CONFIG_PATH", t.TempDir())
	t.Setenv("SCRAPE_URL", "")
	t.Setenv("PAGEWATCH_TARGET_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("target: [unclosed"), 0o644))
	t.Setenv("PAGEWATCH_CONFIG_PATH", dir)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigFrom_ExplicitDirectory(t *testing.T) {
	dir := t.TempDir()
	yaml := `
target:
  url: https://example.com/board
  recipients: ops@example.com, dev@example.com
notify:
  driver: log
state:
  driver: memory
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("PAGEWATCH_CONFIG_PATH", t.TempDir())

	cfg, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/board", cfg.Target.URL)
	assert.Equal(t, []string{"ops@example.com", "dev@example.com"}, cfg.Target.Recipients)
	assert.Equal(t, "memory", cfg.State.Driver)
}
