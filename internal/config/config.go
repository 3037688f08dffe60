package config

import "time"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Session  SessionConfig  `mapstructure:"session"`
	TwoFA    TwoFAConfig    `mapstructure:"two_fa"`
	Otp      OtpConfig      `mapstructure:"otp"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ClientOrigins   []string      `mapstructure:"client_origins"`
	Environment     string        `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	AuditTopic   string   `mapstructure:"audit_topic"`
	CommandTopic string   `mapstructure:"command_topic"`
}

type JWTConfig struct {
	// Secret signs the HS256 session credential.
	Secret string `mapstructure:"secret"`
	// TokenTTL is the credential's own lifetime. The session is the
	// authority; the credential is a capability pointer to it, so this
	// normally outlives the inactivity window.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	Issuer   string        `mapstructure:"issuer"`
	// CookieName and CookieTTL shape the browser transport.
	CookieName string        `mapstructure:"cookie_name"`
	CookieTTL  time.Duration `mapstructure:"cookie_ttl"`
}

type SessionConfig struct {
	// InactivityWindow is the sliding expiry: each validated request
	// pushes the session's expiry this far into the future.
	InactivityWindow time.Duration `mapstructure:"inactivity_window"`
}

type TwoFAConfig struct {
	Issuer          string `mapstructure:"issuer"`
	BackupCodeCount int    `mapstructure:"backup_code_count"`
	// SecretEncryptionKey is the hex-encoded 32-byte AES key the TOTP
	// secret column is encrypted with.
	SecretEncryptionKey string `mapstructure:"secret_encryption_key"`
}

type OtpConfig struct {
	DefaultExpiry time.Duration `mapstructure:"default_expiry"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type RateLimitRule struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	LoginPerIP      RateLimitRule `mapstructure:"login_per_ip"`
	TwoFAPerSession RateLimitRule `mapstructure:"two_fa_per_session"`
}

type SecurityConfig struct {
	RateLimiting RateLimitConfig `mapstructure:"rate_limiting"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// IsProduction reports whether the service runs with production
// hardening (secure cookies, JSON logs).
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
