package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// minSecretLength is the smallest accepted HS512 signing secret, in bytes.
const minSecretLength = 32

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
		Seed bool
	}
	Log struct {
		Level  string
		Format string
	}
	Auth      AuthConfig
	RateLimit struct {
		AuthRequests int           `mapstructure:"auth_requests"`
		AuthWindow   time.Duration `mapstructure:"auth_window"`
		AuthBurst    int           `mapstructure:"auth_burst"`
	}
	Storage struct {
		Bucket     string
		KeyPrefix  string `mapstructure:"key_prefix"`
		Region     string
		Endpoint   string
		PresignTTL time.Duration `mapstructure:"presign_ttl"`
	}
	AWS struct {
		Profile string
	}
}

// AuthConfig carries token signing and lifetime settings.
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	AdminUsername   string        `mapstructure:"admin_username"`
	AdminPassword   string        `mapstructure:"admin_password"`
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/tracker.db")
	v.SetDefault("database.seed", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// AutomaticEnv only resolves keys viper already knows about, so every
	// auth key gets a default, even the empty ones.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "job-tracker")
	v.SetDefault("auth.audience", "job-tracker-api")
	v.SetDefault("auth.access_token_ttl", 2*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 0)
	v.SetDefault("auth.admin_username", "")
	v.SetDefault("auth.admin_password", "")

	v.SetDefault("ratelimit.auth_requests", 10)
	v.SetDefault("ratelimit.auth_window", time.Minute)
	v.SetDefault("ratelimit.auth_burst", 10)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.key_prefix", "job-tracker")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.presign_ttl", 15*time.Minute)
	v.SetDefault("aws.profile", "")
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	secret := strings.TrimSpace(c.Auth.JWTSecret)
	if secret == "" {
		return errors.New("auth jwt secret is required")
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("auth jwt secret must be at least %d bytes", minSecretLength)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return errors.New("auth access token ttl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return fmt.Errorf("auth refresh token ttl (%s) must exceed access token ttl (%s)",
			c.Auth.RefreshTokenTTL, c.Auth.AccessTokenTTL)
	}
	if (c.Auth.AdminUsername == "") != (c.Auth.AdminPassword == "") {
		return errors.New("auth admin username and password must be set together")
	}
	return nil
}

// loadDotEnv exports variables from path that are not already set.
// A missing file is ignored.
func loadDotEnv(path string) {
	_ = gotenv.Load(path)
}
