package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads config.<env>.yaml plus SMARTLOCK_-prefixed
// environment overrides into a Config.
func LoadConfig() (*Config, error) {
	setDefaults()

	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/smartlock")
	}

	viper.SetEnvPrefix("SMARTLOCK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing file is fine, environment variables still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Environment == "" {
		cfg.Server.Environment = env
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "15s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.auto_migrate", true)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)

	viper.SetDefault("jwt.token_ttl", "24h")
	viper.SetDefault("jwt.issuer", "smartlock")
	viper.SetDefault("jwt.cookie_name", "token")
	viper.SetDefault("jwt.cookie_ttl", "24h")

	viper.SetDefault("session.inactivity_window", "600s")

	viper.SetDefault("two_fa.issuer", "SmartLock")
	viper.SetDefault("two_fa.backup_code_count", 8)

	viper.SetDefault("otp.default_expiry", "300s")
	viper.SetDefault("otp.sweep_interval", "1m")

	viper.SetDefault("security.rate_limiting.enabled", false)
	viper.SetDefault("security.rate_limiting.login_per_ip.limit", 10)
	viper.SetDefault("security.rate_limiting.login_per_ip.window", "1m")
	viper.SetDefault("security.rate_limiting.two_fa_per_session.limit", 5)
	viper.SetDefault("security.rate_limiting.two_fa_per_session.window", "10m")

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.audit_topic", "smartlock.audit")
	viper.SetDefault("kafka.command_topic", "smartlock.lock.commands")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("metrics.enabled", true)
}

func validate(cfg *Config) error {
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if cfg.Session.InactivityWindow <= 0 {
		return fmt.Errorf("session.inactivity_window must be positive")
	}
	return nil
}
