package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	ProviderViaCEP    = "viacep"
	ProviderBrasilAPI = "brasilapi"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	Environment     string `mapstructure:"environment"`
	RequestIDHeader string `mapstructure:"request_id_header"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ProviderConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
	Weight  int    `mapstructure:"weight"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
}

type CacheConfig struct {
	Enabled    bool        `mapstructure:"enabled"`
	Backend    string      `mapstructure:"backend"`
	TTL        string      `mapstructure:"ttl"`
	DefaultTTL string      `mapstructure:"default_ttl"`
	MaxEntries int         `mapstructure:"max_entries"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type HealthCheckConfig struct {
	Interval string `mapstructure:"interval"`
}

type CircuitBreakerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Threshold    int    `mapstructure:"threshold"`
	ResetTimeout string `mapstructure:"reset_timeout"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Providers      []ProviderConfig     `mapstructure:"providers"`
	Cache          CacheConfig          `mapstructure:"cache"`
	HealthCheck    HealthCheckConfig    `mapstructure:"health_check"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
}

// Load reads config.yaml from ./config or the working directory.
func Load() (*Config, error) {
	return LoadFrom("./config", ".")
}

// LoadFrom reads config.yaml from the first path that has one. A missing
// file is not an error: defaults and environment variables apply.
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.request_id_header", "X-Request-ID")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("providers", []map[string]any{
		{"name": ProviderViaCEP, "base_url": "https://viacep.com.br/ws", "timeout": "5s", "weight": 70},
		{"name": ProviderBrasilAPI, "base_url": "https://brasilapi.com.br/api/cep/v1", "timeout": "5s", "weight": 30},
	})
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.default_ttl", "15m")
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.redis.url", "redis://localhost:6379/0")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("health_check.interval", "30s")
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.threshold", 5)
	v.SetDefault("circuit_breaker.reset_timeout", "30s")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.RequestIDHeader,
						validation.Required,
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Providers,
			validation.Required,
			validation.Length(1, 0),
			validation.By(validateUniqueProviders),
		),
		validation.Field(&c.Cache),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.CircuitBreaker),
		validation.Field(&c.RateLimit),
	)
}

func (p ProviderConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required,
			validation.In(ProviderViaCEP, ProviderBrasilAPI),
		),
		validation.Field(&p.BaseURL, validation.By(validateServerURL)),
		validation.Field(&p.Timeout,
			validation.Required,
			validation.By(validateDuration),
		),
		validation.Field(&p.Weight, validation.Min(0)),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend,
			validation.When(c.Enabled, validation.Required, validation.In(CacheMemory, CacheRedis)),
		),
		validation.Field(&c.TTL, validation.Required, validation.By(validateDuration)),
		validation.Field(&c.DefaultTTL, validation.Required, validation.By(validateDuration)),
		validation.Field(&c.MaxEntries, validation.Min(1)),
		validation.Field(&c.Redis,
			validation.When(c.Enabled && c.Backend == CacheRedis, validation.By(func(value interface{}) error {
				rc, ok := value.(RedisConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RedisConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.URL, validation.Required, validation.By(validateRedisURL)),
				)
			})),
		),
	)
}

func (c CircuitBreakerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Threshold, validation.When(c.Enabled, validation.Required, validation.Min(1))),
		validation.Field(&c.ResetTimeout, validation.When(c.Enabled, validation.Required, validation.By(validateDuration))),
	)
}

func (c RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RPS, validation.When(c.Enabled, validation.Required, validation.Min(0.001))),
		validation.Field(&c.Burst, validation.When(c.Enabled, validation.Required, validation.Min(1))),
	)
}

// TimeoutDuration returns the per-request budget. Call after Validate.
func (p ProviderConfig) TimeoutDuration() time.Duration {
	return mustDuration(p.Timeout)
}

func (c CacheConfig) TTLDuration() time.Duration        { return mustDuration(c.TTL) }
func (c CacheConfig) DefaultTTLDuration() time.Duration { return mustDuration(c.DefaultTTL) }

func (c HealthCheckConfig) IntervalDuration() time.Duration {
	return mustDuration(c.Interval)
}

func (c CircuitBreakerConfig) ResetTimeoutDuration() time.Duration {
	return mustDuration(c.ResetTimeout)
}

// mustDuration returns zero for unparseable input; Validate rejects it first.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}
	if d <= 0 {
		return validation.NewError("validation_nonpositive_duration", "must be greater than zero")
	}

	return nil
}

// validateServerURL accepts an empty value: the provider's public endpoint
// is used instead.
func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return nil
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

func validateRedisURL(value interface{}) error {
	redisURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(redisURL)
	if err != nil || (parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss") {
		return validation.NewError("validation_invalid_redis_url", "must be a redis:// or rediss:// URL")
	}

	return nil
}

func validateUniqueProviders(value interface{}) error {
	providers, ok := value.([]ProviderConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a provider list")
	}

	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		if seen[p.Name] {
			return validation.NewError("validation_duplicate_provider", fmt.Sprintf("provider %q is configured more than once", p.Name))
		}
		seen[p.Name] = true
	}

	return nil
}
