package app

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"xeromcp/internal/domain"
)

// Config is the resolved process configuration.
type Config struct {
	Transport       domain.TransportKind
	AuthMode        domain.AuthMode
	Host            string
	Port            int
	LogLevel        string
	AccessToken     string
	TenantID        string
	CredentialsFile string
	APIBaseURL      string
	MetricsAddr     string
	ShutdownTimeout time.Duration
	ConfigFile      string
}

// Credentials returns the direct-mode pair from configuration.
func (c Config) Credentials() domain.Credentials {
	return domain.Credentials{AccessToken: c.AccessToken, TenantID: c.TenantID}.Normalize()
}

const (
	keyTransport       = "transport"
	keyAuthMode        = "authMode"
	keyHost            = "host"
	keyPort            = "port"
	keyLogLevel        = "logLevel"
	keyAccessToken     = "accessToken"
	keyTenantID        = "tenantId"
	keyCredentialsFile = "credentialsFile"
	keyAPIBaseURL      = "apiBaseUrl"
	keyMetricsAddr     = "metricsAddr"
	keyShutdownSeconds = "shutdownTimeoutSeconds"

	flagConfig  = "config"
	flagEnvFile = "env-file"
)

// envBindings lists the environment variables read for each key, first match wins.
var envBindings = map[string][]string{
	keyTransport:       {"XERO_MCP_TRANSPORT", "MCP_TRANSPORT"},
	keyAuthMode:        {"XERO_MCP_AUTH_MODE", "XERO_AUTH_MODE"},
	keyHost:            {"XERO_MCP_HOST", "HOST"},
	keyPort:            {"XERO_MCP_PORT", "PORT"},
	keyLogLevel:        {"XERO_MCP_LOG_LEVEL"},
	keyAccessToken:     {"XERO_ACCESS_TOKEN"},
	keyTenantID:        {"XERO_TENANT_ID"},
	keyCredentialsFile: {"XERO_CREDENTIALS_FILE"},
	keyAPIBaseURL:      {"XERO_API_BASE_URL"},
	keyMetricsAddr:     {"XERO_MCP_METRICS_ADDR"},
	keyShutdownSeconds: {"XERO_MCP_SHUTDOWN_TIMEOUT_SECONDS"},
}

// flagBindings maps config keys to command-line flags.
var flagBindings = map[string]string{
	keyTransport:       "transport",
	keyAuthMode:        "auth-mode",
	keyHost:            "host",
	keyPort:            "port",
	keyLogLevel:        "log-level",
	keyCredentialsFile: "credentials-file",
	keyAPIBaseURL:      "api-base-url",
	keyMetricsAddr:     "metrics-addr",
	keyShutdownSeconds: "shutdown-timeout",
}

// RegisterFlags declares every configuration flag on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(flagConfig, "", "optional config file (YAML, TOML or JSON by extension)")
	flags.String(flagEnvFile, ".env", "dotenv file loaded before reading the environment")
	flags.String("transport", string(domain.TransportStdio), "transport: stdio or http")
	flags.String("auth-mode", string(domain.AuthModeDirect), "credential mode: direct or delegated")
	flags.String("host", domain.DefaultHTTPHost, "http listen host")
	flags.Int("port", domain.DefaultHTTPPort, "http listen port")
	flags.String("log-level", domain.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("credentials-file", "", "YAML file holding accessToken and tenantId, watched for changes")
	flags.String("api-base-url", domain.DefaultAPIBaseURL, "accounting API base URL")
	flags.String("metrics-addr", "", "observability listen address for /metrics and /healthz (disabled when empty)")
	flags.Int("shutdown-timeout", domain.DefaultShutdownSecs, "graceful shutdown timeout in seconds")
}

// LoadConfig layers defaults, an optional config file, the environment (after an
// optional dotenv file) and explicitly set flags, in increasing precedence.
func LoadConfig(flags *pflag.FlagSet) (Config, error) {
	envFile, _ := flags.GetString(flagEnvFile)
	if err := loadDotenv(envFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	for key, name := range flagBindings {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	configFile, _ := flags.GetString(flagConfig)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if filepath.Ext(configFile) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	transport, err := domain.ParseTransport(v.GetString(keyTransport))
	if err != nil {
		return Config{}, err
	}
	authMode, err := domain.ParseAuthMode(v.GetString(keyAuthMode))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Transport:       transport,
		AuthMode:        authMode,
		Host:            strings.TrimSpace(v.GetString(keyHost)),
		Port:            v.GetInt(keyPort),
		LogLevel:        strings.TrimSpace(v.GetString(keyLogLevel)),
		AccessToken:     strings.TrimSpace(v.GetString(keyAccessToken)),
		TenantID:        strings.TrimSpace(v.GetString(keyTenantID)),
		CredentialsFile: strings.TrimSpace(v.GetString(keyCredentialsFile)),
		APIBaseURL:      strings.TrimSpace(v.GetString(keyAPIBaseURL)),
		MetricsAddr:     strings.TrimSpace(v.GetString(keyMetricsAddr)),
		ShutdownTimeout: time.Duration(v.GetInt(keyShutdownSeconds)) * time.Second,
		ConfigFile:      configFile,
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyTransport, string(domain.TransportStdio))
	v.SetDefault(keyAuthMode, string(domain.AuthModeDirect))
	v.SetDefault(keyHost, domain.DefaultHTTPHost)
	v.SetDefault(keyPort, domain.DefaultHTTPPort)
	v.SetDefault(keyLogLevel, domain.DefaultLogLevel)
	v.SetDefault(keyAPIBaseURL, domain.DefaultAPIBaseURL)
	v.SetDefault(keyShutdownSeconds, domain.DefaultShutdownSecs)
}

// loadDotenv never overrides variables already present in the environment.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Validate rejects combinations the host cannot serve.
func (c Config) Validate() error {
	const op = "config.validate"
	if c.Transport == domain.TransportStdio && c.AuthMode == domain.AuthModeDelegated {
		return domain.E(domain.CodeInvalidArgument, op,
			"delegated auth mode requires the http transport", nil)
	}
	if c.Transport == domain.TransportHTTP && (c.Port <= 0 || c.Port > 65535) {
		return domain.E(domain.CodeInvalidArgument, op, fmt.Sprintf("port %d out of range", c.Port), nil)
	}
	if c.AuthMode == domain.AuthModeDelegated && c.CredentialsFile != "" {
		return domain.E(domain.CodeInvalidArgument, op,
			"a credentials file only applies to direct auth mode", nil)
	}
	if c.ShutdownTimeout < 0 {
		return domain.E(domain.CodeInvalidArgument, op, "shutdown timeout must not be negative", nil)
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return domain.E(domain.CodeInvalidArgument, op, "invalid log level "+c.LogLevel, err)
		}
	}
	return nil
}
