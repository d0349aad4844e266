// Package config loads oasbot settings with viper.
//
// Sources, highest precedence first:
//  1. Command-line flags bound with BindFlag
//  2. Environment variables (OASBOT_ prefix, dots become underscores)
//  3. A .env file in the working directory
//  4. The YAML config file (--config, or oasbot.yaml in . or $HOME/.oasbot)
//  5. Defaults
//
// Example oasbot.yaml:
//
//	server:
//	  port: 8080
//	  api_token: s3cret
//	registry:
//	  driver: bolt
//	  path: /var/lib/oasbot/registry.db
//	logging:
//	  level: debug
//	  format: json
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erraggy/oasbot/fetch"
	"github.com/erraggy/oasbot/internal/logging"
	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/registry"
	"github.com/erraggy/oasbot/server"
)

// EnvPrefix prefixes every environment variable, e.g. OASBOT_SERVER_PORT.
const EnvPrefix = "OASBOT"

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// BodyLimit caps request bodies, e.g. "1M"
	BodyLimit string `mapstructure:"body_limit"`

	// RateLimit is requests per second per client; 0 disables limiting
	RateLimit float64 `mapstructure:"rate_limit"`

	// APIToken guards REST registry writes when set
	APIToken string `mapstructure:"api_token"`
}

// RegistryConfig selects the registry backend.
type RegistryConfig struct {
	// Driver is memory, bolt, redis or postgres
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
	DSN       string `mapstructure:"dsn"`
}

// FetchConfig controls document downloads.
type FetchConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxSize            int64         `mapstructure:"max_size"`
	UserAgent          string        `mapstructure:"user_agent"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`

	// AllowPrivate lets the MCP server fetch from private and loopback
	// addresses
	AllowPrivate bool `mapstructure:"allow_private"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `mapstructure:"level"`
	// Format is json or text
	Format string `mapstructure:"format"`
}

// MCPConfig controls the MCP server.
type MCPConfig struct {
	// ListLimit is the default page size of list tools
	ListLimit int `mapstructure:"list_limit"`
}

// Config is the complete oasbot configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Registry RegistryConfig `mapstructure:"registry"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	MCP      MCPConfig      `mapstructure:"mcp"`
}

// Loader provides configuration loading functionality.
type Loader struct {
	v       *viper.Viper
	prefix  string
	envFile string
	flags   map[string]*pflag.Flag
}

// NewLoader creates a loader with the oasbot defaults.
func NewLoader() *Loader {
	l := &Loader{v: viper.New(), prefix: EnvPrefix, envFile: ".env", flags: map[string]*pflag.Flag{}}
	l.setDefaults()
	return l
}

// SetEnvFile changes the dotenv file merged by Load. An empty path disables it.
func (l *Loader) SetEnvFile(path string) {
	l.envFile = path
}

// BindFlag makes a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return &oaserrors.ConfigError{Option: key, Message: "flag not defined"}
	}
	l.flags[key] = flag
	return l.v.BindPFlag(key, flag)
}

// setDefaults registers every key, which also makes each one visible to
// AutomaticEnv during Unmarshal.
func (l *Loader) setDefaults() {
	srv := server.DefaultConfig()
	l.v.SetDefault("server.host", srv.Host)
	l.v.SetDefault("server.port", srv.Port)
	l.v.SetDefault("server.read_timeout", srv.ReadTimeout)
	l.v.SetDefault("server.write_timeout", srv.WriteTimeout)
	l.v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)
	l.v.SetDefault("server.body_limit", srv.BodyLimit)
	l.v.SetDefault("server.rate_limit", 0)
	l.v.SetDefault("server.api_token", "")

	l.v.SetDefault("registry.driver", registry.DriverMemory)
	l.v.SetDefault("registry.path", "oasbot.db")
	l.v.SetDefault("registry.url", "")
	l.v.SetDefault("registry.key_prefix", "oasbot")
	l.v.SetDefault("registry.dsn", "")

	l.v.SetDefault("fetch.timeout", fetch.DefaultTimeout)
	l.v.SetDefault("fetch.max_size", fetch.DefaultMaxSize)
	l.v.SetDefault("fetch.user_agent", "")
	l.v.SetDefault("fetch.insecure_skip_verify", false)
	l.v.SetDefault("fetch.allow_private", false)

	l.v.SetDefault("logging.level", "info")
	l.v.SetDefault("logging.format", "text")

	l.v.SetDefault("mcp.list_limit", 100)
}

// Load reads configuration from all sources and validates it. If cfgFile is
// empty, oasbot.yaml is searched for and may be absent; an explicit file
// must exist.
func (l *Loader) Load(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		l.v.SetConfigName("oasbot")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("$HOME/.oasbot")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, &oaserrors.ConfigError{Option: "config", Value: cfgFile, Message: "cannot read config file", Cause: err}
		}
	}

	if err := l.mergeEnvFile(); err != nil {
		return nil, err
	}

	l.v.SetEnvPrefix(l.prefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, &oaserrors.ConfigError{Message: "unable to decode config", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// mergeEnvFile applies the dotenv file beneath real environment variables.
// Dotenv keys use the same names as the environment, e.g.
// OASBOT_REGISTRY_DRIVER=bolt.
func (l *Loader) mergeEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if _, err := os.Stat(l.envFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	dot := viper.New()
	dot.SetConfigFile(l.envFile)
	dot.SetConfigType("env")
	if err := dot.ReadInConfig(); err != nil {
		return &oaserrors.ConfigError{Option: "env_file", Value: l.envFile, Message: "cannot read dotenv file", Cause: err}
	}

	for _, key := range l.v.AllKeys() {
		if f, ok := l.flags[key]; ok && f.Changed {
			continue
		}
		name := l.envName(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if dot.IsSet(name) {
			l.v.Set(key, dot.Get(name))
		}
	}
	return nil
}

func (l *Loader) envName(key string) string {
	return strings.ToUpper(l.prefix + "_" + strings.ReplaceAll(key, ".", "_"))
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text", "slog"}
	drivers    = []string{registry.DriverMemory, registry.DriverBolt, registry.DriverRedis, registry.DriverPostgres}
)

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	invalid := func(option string, value any, msg string) error {
		return &oaserrors.ConfigError{Option: option, Value: value, Message: msg}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", c.Server.Port, "must be between 1 and 65535")
	}
	if c.Server.RateLimit < 0 {
		return invalid("server.rate_limit", c.Server.RateLimit, "must not be negative")
	}
	if c.Server.BodyLimit == "" {
		return invalid("server.body_limit", nil, "is required")
	}

	driver := strings.ToLower(c.Registry.Driver)
	if driver == "" {
		driver = registry.DriverMemory
	}
	if !slices.Contains(drivers, driver) {
		return invalid("registry.driver", c.Registry.Driver, "must be one of "+strings.Join(drivers, ", "))
	}
	switch {
	case driver == registry.DriverBolt && c.Registry.Path == "":
		return invalid("registry.path", nil, "is required for the bolt driver")
	case driver == registry.DriverRedis && c.Registry.URL == "":
		return invalid("registry.url", nil, "is required for the redis driver")
	case driver == registry.DriverPostgres && c.Registry.DSN == "":
		return invalid("registry.dsn", nil, "is required for the postgres driver")
	}

	if c.Fetch.Timeout <= 0 {
		return invalid("fetch.timeout", c.Fetch.Timeout, "must be positive")
	}
	if c.Fetch.MaxSize <= 0 {
		return invalid("fetch.max_size", c.Fetch.MaxSize, "must be positive")
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		return invalid("logging.level", c.Logging.Level, "must be one of "+strings.Join(logLevels, ", "))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Logging.Format)) {
		return invalid("logging.format", c.Logging.Format, "must be json, text or slog")
	}
	if c.MCP.ListLimit < 0 {
		return invalid("mcp.list_limit", c.MCP.ListLimit, "must not be negative")
	}
	return nil
}

// ServerOptions converts the server section.
func (c *Config) ServerOptions() server.Config {
	return server.Config{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		BodyLimit:       c.Server.BodyLimit,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		RateLimit:       c.Server.RateLimit,
		APIToken:        c.Server.APIToken,
	}
}

// RegistryOptions converts the registry section.
func (c *Config) RegistryOptions(logger logging.Logger) registry.Config {
	return registry.Config{
		Driver:    c.Registry.Driver,
		Path:      c.Registry.Path,
		URL:       c.Registry.URL,
		KeyPrefix: c.Registry.KeyPrefix,
		DSN:       c.Registry.DSN,
		Logger:    logger,
	}
}

// FetchOptions converts the fetch section into client options.
func (c *Config) FetchOptions(logger logging.Logger) []fetch.Option {
	opts := []fetch.Option{
		fetch.WithTimeout(c.Fetch.Timeout),
		fetch.WithMaxSize(c.Fetch.MaxSize),
		fetch.WithInsecureSkipVerify(c.Fetch.InsecureSkipVerify),
		fetch.WithLogger(logger),
	}
	if c.Fetch.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(c.Fetch.UserAgent))
	}
	return opts
}

// LoggingOptions converts the logging section.
func (c *Config) LoggingOptions() logging.Config {
	return logging.Config{
		Level:   strings.ToLower(c.Logging.Level),
		Format:  strings.ToLower(c.Logging.Format),
		Output:  os.Stderr,
		Service: "oasbot",
	}
}

// String summarizes the configuration without secrets.
func (c *Config) String() string {
	token := "unset"
	if c.Server.APIToken != "" {
		token = "set"
	}
	return fmt.Sprintf("server=%s registry=%s api_token=%s log=%s/%s",
		c.ServerOptions().Addr(), c.Registry.Driver, token, c.Logging.Level, c.Logging.Format)
}
