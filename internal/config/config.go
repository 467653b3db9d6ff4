package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bassista/go_pagewatch/internal/logger"
	"github.com/bassista/go_pagewatch/internal/scheduler"
)

const envPrefix = "PAGEWATCH"

type Config struct {
	Target   TargetConfig
	Schedule ScheduleConfig
	State    StateConfig
	Fetch    FetchConfig
	Notify   NotifyConfig
	SMTP     SMTPConfig
	Telegram TelegramConfig
	Server   ServerConfig
	Misc     MiscConfig
}

type TargetConfig struct {
	URL        string   `validate:"required,http_url"`
	Selector   string
	Format     string   `validate:"oneof=text markdown"`
	Recipients []string `validate:"required,min=1,dive,required"`
}

type ScheduleConfig struct {
	// At is the daily trigger time, HH:MM or HH:MM:SS.
	At       string `validate:"required"`
	Timezone string
}

type StateConfig struct {
	Driver string `validate:"oneof=file sqlite memory"`
	Path   string
}

type FetchConfig struct {
	Timeout   time.Duration `validate:"gt=0"`
	UserAgent string
}

type NotifyConfig struct {
	Driver      string        `validate:"oneof=smtp telegram log"`
	Timeout     time.Duration `validate:"gt=0"`
	FirstRun    bool
	OnUnchanged bool
	Subject     string `validate:"required"`
}

type SMTPConfig struct {
	Host     string
	Port     int `validate:"gte=0,lte=65535"`
	Username string
	Password string
	From     string
}

type TelegramConfig struct {
	Token  string
	APIURL string
}

type ServerConfig struct {
	Enabled         bool
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutDownTimeout time.Duration
	RequestTimeout  time.Duration
}

type MiscConfig struct {
	LogLevel string
	GinMode  string
}

// LoadConfig reads config.yaml from the directory named by PAGEWATCH_CONFIG_PATH
// (default ./config).
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(getEnvOrDefault(envPrefix+"_CONFIG_PATH", "./config"))
}

// LoadConfigFrom reads config.yaml from dir, after loading a .env file if
// present. Environment variables override file values; the legacy names
// (SCRAPE_URL, EMAIL_RECIPIENTS, SMTP_SERVER, ...) are accepted too.
func LoadConfigFrom(dir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Info("No config file found, using defaults and env vars")
	}

	smtpPort, err := getEnvOrViperInt(v, "SMTP_PORT", "smtp.port")
	if err != nil {
		return nil, err
	}
	serverPort, err := getEnvOrViperInt(v, "PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Target: TargetConfig{
			URL:        strings.TrimSpace(v.GetString("target.url")),
			Selector:   strings.TrimSpace(v.GetString("target.selector")),
			Format:     strings.ToLower(strings.TrimSpace(v.GetString("target.format"))),
			Recipients: stringList(v.Get("target.recipients")),
		},
		Schedule: ScheduleConfig{
			At:       strings.TrimSpace(v.GetString("schedule.at")),
			Timezone: strings.TrimSpace(v.GetString("schedule.timezone")),
		},
		State: StateConfig{
			Driver: strings.ToLower(v.GetString("state.driver")),
			Path:   v.GetString("state.path"),
		},
		Fetch: FetchConfig{
			Timeout:   v.GetDuration("fetch.timeout"),
			UserAgent: v.GetString("fetch.user_agent"),
		},
		Notify: NotifyConfig{
			Driver:      strings.ToLower(v.GetString("notify.driver")),
			Timeout:     v.GetDuration("notify.timeout"),
			FirstRun:    v.GetBool("notify.first_run"),
			OnUnchanged: v.GetBool("notify.on_unchanged"),
			Subject:     v.GetString("notify.subject"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     smtpPort,
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
		},
		Telegram: TelegramConfig{
			Token:  v.GetString("telegram.token"),
			APIURL: v.GetString("telegram.api_url"),
		},
		Server: ServerConfig{
			Enabled:         v.GetBool("server.enabled"),
			Port:            serverPort,
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutDownTimeout: v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
		},
		Misc: MiscConfig{
			LogLevel: v.GetString("misc.log_level"),
			GinMode:  v.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target.format", "text")
	v.SetDefault("schedule.at", "12:30")
	v.SetDefault("schedule.timezone", "Local")
	v.SetDefault("state.driver", "file")
	v.SetDefault("state.path", "./last_site_state.txt")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.user_agent", "go_pagewatch/1.0")
	v.SetDefault("notify.driver", "smtp")
	v.SetDefault("notify.timeout", 30*time.Second)
	v.SetDefault("notify.first_run", false)
	v.SetDefault("notify.on_unchanged", true)
	v.SetDefault("notify.subject", "Site monitoring report")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", time.Second)
	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.gin_mode", "release")
}

// legacyEnv maps config keys to the variable names used by earlier deployments.
var legacyEnv = map[string]string{
	"target.url":        "SCRAPE_URL",
	"target.selector":   "SCRAPE_SELECTOR",
	"target.recipients": "EMAIL_RECIPIENTS",
	"smtp.host":         "SMTP_SERVER",
	"smtp.from":         "SENDER_EMAIL",
	"smtp.password":     "SENDER_PASSWORD",
	"misc.log_level":    "LOG_LEVEL",
}

// bindEnv binds every key to PAGEWATCH_<SECTION>_<NAME>, plus its legacy alias.
func bindEnv(v *viper.Viper) error {
	keys := []string{
		"target.url", "target.selector", "target.format", "target.recipients",
		"schedule.at", "schedule.timezone",
		"state.driver", "state.path",
		"fetch.timeout", "fetch.user_agent",
		"notify.driver", "notify.timeout", "notify.first_run", "notify.on_unchanged", "notify.subject",
		"smtp.host", "smtp.port", "smtp.username", "smtp.password", "smtp.from",
		"telegram.token", "telegram.api_url",
		"server.enabled", "server.port", "server.read_timeout", "server.write_timeout",
		"server.idle_timeout", "server.shutdown_timeout", "server.request_timeout",
		"misc.log_level", "misc.gin_mode",
	}
	for _, key := range keys {
		names := []string{key, envName(key)}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := scheduler.ParseTriggerTime(c.Schedule.At); err != nil {
		return fmt.Errorf("invalid schedule.at: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid schedule.timezone: %w", err)
	}

	if c.State.Driver != "memory" && strings.TrimSpace(c.State.Path) == "" {
		return errors.New("state.path is required")
	}

	switch c.Notify.Driver {
	case "smtp":
		if c.SMTP.Host == "" || c.SMTP.From == "" || c.SMTP.Password == "" {
			return errors.New("incomplete smtp configuration: smtp.host, smtp.from and smtp.password are required")
		}
	case "telegram":
		if c.Telegram.Token == "" {
			return errors.New("telegram.token is required")
		}
		for _, r := range c.Target.Recipients {
			if _, err := strconv.ParseInt(r, 10, 64); err != nil {
				return fmt.Errorf("telegram recipients must be numeric chat ids, got %q", r)
			}
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return fmt.Errorf("invalid server port: %d", c.Server.Port)
		}
		if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 || c.Server.ShutDownTimeout <= 0 {
			return errors.New("server timeouts must be positive")
		}
		if c.Server.RequestTimeout <= 0 {
			return errors.New("server request timeout must be positive")
		}
	}
	return nil
}

// Location resolves schedule.timezone; empty and "Local" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Schedule.Timezone
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvOrViperInt reads a bare env var first (e.g. PORT) and falls back to viper.
func getEnvOrViperInt(v *viper.Viper, envKey, viperKey string) (int, error) {
	if raw := os.Getenv(envKey); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", envKey, err)
		}
		return n, nil
	}
	raw := strings.TrimSpace(v.GetString(viperKey))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", viperKey, err)
	}
	return n, nil
}

// stringList accepts a YAML list or a comma separated string.
func stringList(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case nil:
		return nil
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []any:
		for _, it := range val {
			items = append(items, fmt.Sprint(it))
		}
	default:
		items = []string{fmt.Sprint(val)}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}
