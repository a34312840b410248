package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=settlement_hub_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	InterBank InterBankConfig `mapstructure:"interbank"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Fraud     FraudConfig     `mapstructure:"fraud"`
	Currency  CurrencyConfig  `mapstructure:"currency"`
	Recovery  RecoveryConfig  `mapstructure:"recovery"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	ChannelID  string `mapstructure:"channel_id"`
	ChannelKey string `mapstructure:"channel_key"`
	// BankSecretHash is the bcrypt hash of the master secret banks present
	// on /auth/bank-token.
	BankSecretHash string `mapstructure:"bank_secret_hash"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Development bool   `mapstructure:"development"`
}

type InterBankConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Breaker  BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

type RateLimitConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SkipInternal bool   `mapstructure:"skip_internal"`
	Backend      string `mapstructure:"backend"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisPrefix  string `mapstructure:"redis_prefix"`

	GlobalPerMinute      int `mapstructure:"global_per_minute"`
	GlobalPerHour        int `mapstructure:"global_per_hour"`
	TransactionPerMinute int `mapstructure:"transaction_per_minute"`
	TransactionPerHour   int `mapstructure:"transaction_per_hour"`
	FraudReviewPerMinute int `mapstructure:"fraud_review_per_minute"`
	FraudQueryPerMinute  int `mapstructure:"fraud_query_per_minute"`
	AdminPerMinute       int `mapstructure:"admin_per_minute"`
	BankTokenPerMinute   int `mapstructure:"bank_token_per_minute"`
}

type FraudConfig struct {
	HighAmountThreshold    decimal.Decimal `mapstructure:"-"`
	UnusualAmountThreshold decimal.Decimal `mapstructure:"-"`
	DailyAmountLimit       decimal.Decimal `mapstructure:"-"`
	UnusualMultiplier      int64           `mapstructure:"unusual_multiplier"`
	AverageLookbackDays    int             `mapstructure:"average_lookback_days"`
	MaxPerHour             int             `mapstructure:"max_per_hour"`
	MaxPerDay              int             `mapstructure:"max_per_day"`
	SelfTransferPerHour    int             `mapstructure:"self_transfer_per_hour"`
	OffHoursStart          int             `mapstructure:"off_hours_start"`
	OffHoursEnd            int             `mapstructure:"off_hours_end"`
	Timezone               string          `mapstructure:"timezone"`
}

type CurrencyConfig struct {
	BaseCurrency string `mapstructure:"base_currency"`
	RefreshHour  int    `mapstructure:"refresh_hour"`
	Timezone     string `mapstructure:"timezone"`
}

type RecoveryConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Lookback time.Duration `mapstructure:"lookback"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment. DATABASE_DSN style variables map onto nested keys.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	var err error
	if cfg.Fraud.HighAmountThreshold, err = decimalKey(v, "fraud.high_amount_threshold"); err != nil {
		return Config{}, err
	}
	if cfg.Fraud.UnusualAmountThreshold, err = decimalKey(v, "fraud.unusual_amount_threshold"); err != nil {
		return Config{}, err
	}
	if cfg.Fraud.DailyAmountLimit, err = decimalKey(v, "fraud.daily_amount_limit"); err != nil {
		return Config{}, err
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Database.DSN = normalizeConnectionString(strings.TrimSpace(cfg.Database.DSN))
	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))
	cfg.Currency.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.Currency.BaseCurrency))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", defaultConnectionString)

	v.SetDefault("auth.channel_id", "SettlementOps")
	v.SetDefault("auth.channel_key", "SettlementOpsKey001")
	v.SetDefault("auth.bank_secret_hash", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.development", false)

	v.SetDefault("interbank.secret", "change-me-interbank-signing-secret")
	v.SetDefault("interbank.issuer", "settlement-hub")
	v.SetDefault("interbank.token_ttl", 5*time.Minute)
	v.SetDefault("interbank.timeout", 5*time.Second)
	v.SetDefault("interbank.breaker.max_requests", 1)
	v.SetDefault("interbank.breaker.interval", 60*time.Second)
	v.SetDefault("interbank.breaker.open_timeout", 30*time.Second)
	v.SetDefault("interbank.breaker.consecutive_failures", 5)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.skip_internal", true)
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.redis_addr", "localhost:6379")
	v.SetDefault("ratelimit.redis_prefix", "ratelimit:")
	v.SetDefault("ratelimit.global_per_minute", 100)
	v.SetDefault("ratelimit.global_per_hour", 1000)
	v.SetDefault("ratelimit.transaction_per_minute", 10)
	v.SetDefault("ratelimit.transaction_per_hour", 100)
	v.SetDefault("ratelimit.fraud_review_per_minute", 30)
	v.SetDefault("ratelimit.fraud_query_per_minute", 50)
	v.SetDefault("ratelimit.admin_per_minute", 50)
	v.SetDefault("ratelimit.bank_token_per_minute", 10)

	v.SetDefault("fraud.high_amount_threshold", "10000")
	v.SetDefault("fraud.unusual_amount_threshold", "5000")
	v.SetDefault("fraud.daily_amount_limit", "50000")
	v.SetDefault("fraud.unusual_multiplier", 5)
	v.SetDefault("fraud.average_lookback_days", 30)
	v.SetDefault("fraud.max_per_hour", 10)
	v.SetDefault("fraud.max_per_day", 50)
	v.SetDefault("fraud.self_transfer_per_hour", 3)
	v.SetDefault("fraud.off_hours_start", 23)
	v.SetDefault("fraud.off_hours_end", 6)
	v.SetDefault("fraud.timezone", "UTC")

	v.SetDefault("currency.base_currency", "EUR")
	v.SetDefault("currency.refresh_hour", 9)
	v.SetDefault("currency.timezone", "UTC")

	v.SetDefault("recovery.interval", 30*time.Second)
	v.SetDefault("recovery.lookback", 5*time.Minute)
}

// Validate reports the first configuration value the service cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("ratelimit.backend %q is not supported", c.RateLimit.Backend)
	}
	if strings.TrimSpace(c.InterBank.Secret) == "" {
		return errors.New("interbank.secret is required")
	}
	if c.InterBank.TokenTTL <= 0 || c.InterBank.Timeout <= 0 {
		return errors.New("interbank.token_ttl and interbank.timeout must be positive")
	}
	if c.Recovery.Interval <= 0 || c.Recovery.Lookback <= 0 {
		return errors.New("recovery.interval and recovery.lookback must be positive")
	}
	limits := []int{
		c.RateLimit.GlobalPerMinute,
		c.RateLimit.GlobalPerHour,
		c.RateLimit.TransactionPerMinute,
		c.RateLimit.TransactionPerHour,
		c.RateLimit.FraudReviewPerMinute,
		c.RateLimit.FraudQueryPerMinute,
		c.RateLimit.AdminPerMinute,
		c.RateLimit.BankTokenPerMinute,
	}
	for _, limit := range limits {
		if limit <= 0 {
			return errors.New("ratelimit limits must be positive")
		}
	}
	if c.Currency.RefreshHour < 0 || c.Currency.RefreshHour > 23 {
		return errors.New("currency.refresh_hour must be between 0 and 23")
	}
	if len(c.Currency.BaseCurrency) != 3 {
		return errors.New("currency.base_currency must be 3 characters")
	}
	if _, err := c.Fraud.Location(); err != nil {
		return err
	}
	if _, err := c.Currency.Location(); err != nil {
		return err
	}
	return nil
}

func (c FraudConfig) Location() (*time.Location, error) {
	return loadLocation("fraud.timezone", c.Timezone)
}

func (c CurrencyConfig) Location() (*time.Location, error) {
	return loadLocation("currency.timezone", c.Timezone)
}

func loadLocation(key, name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return loc, nil
}

func decimalKey(v *viper.Viper, key string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func normalizeConnectionString(raw string) string {
	if !strings.Contains(raw, ";") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host", "server":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username", "user id":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
