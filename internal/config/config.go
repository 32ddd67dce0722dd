// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"errors"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

// MinJWTSecretLength is the minimum accepted length of the token signing secret.
const MinJWTSecretLength = 32

const (
	// DefaultOTPTTL is the verification code lifetime promised to users.
	DefaultOTPTTL = 15 * time.Minute
	// DefaultOTPMaxAttempts is the number of wrong guesses a code survives.
	DefaultOTPMaxAttempts = 5
	// DefaultPreverifiedTTL bounds how long a verified email waits for registration.
	DefaultPreverifiedTTL = 24 * time.Hour
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Redis    RedisConfig
	Storage  StorageConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host         string
	Port         int
	MaxBodySize  int // in MB
	AllowOrigins []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN     string
	Timeout time.Duration // upper bound for a single store operation
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical
	JWTSecret      string
	TokenTTL       time.Duration
	OTPTTL         time.Duration
	ResetGrantTTL  time.Duration
	// PreverifiedTTL is how long an email verified before registration stays verified.
	PreverifiedTTL time.Duration
	OTPMaxAttempts int
	OTPRateLimit   int // requests per minute per client and email, 0 disables
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
	Timeout  time.Duration
}

type RedisConfig struct {
	URL string // empty selects the in-process store
}

type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string // empty disables the video endpoints
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether object storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

func NewFromCLI(cmd *cli.Command) *Config {
	return &Config{
		Server: ServerConfig{
			Host:         cmd.String("host"),
			Port:         int(cmd.Int("port")),
			MaxBodySize:  int(cmd.Int("max-body-size")),
			AllowOrigins: cmd.StringSlice("allow-origin"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN:     cmd.String("database-dsn"),
			Timeout: cmd.Duration("store-timeout"),
		},
		Auth: AuthConfig{
			JWTSecret:      cmd.String("jwt-secret"),
			TokenTTL:       cmd.Duration("token-ttl"),
			OTPTTL:         cmd.Duration("otp-ttl"),
			ResetGrantTTL:  cmd.Duration("reset-grant-ttl"),
			PreverifiedTTL: cmd.Duration("preverified-ttl"),
			OTPMaxAttempts: int(cmd.Int("otp-max-attempts")),
			OTPRateLimit:   int(cmd.Int("otp-rate-limit")),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
			Timeout:  cmd.Duration("mail-timeout"),
		},
		Redis: RedisConfig{
			URL: cmd.String("redis-url"),
		},
		Storage: StorageConfig{
			Endpoint:  cmd.String("s3-endpoint"),
			Region:    cmd.String("s3-region"),
			Bucket:    cmd.String("s3-bucket"),
			AccessKey: cmd.String("s3-access-key"),
			SecretKey: cmd.String("s3-secret-key"),
			PublicURL: cmd.String("s3-public-url"),
		},
	}
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("jwt-secret is required"))
	} else if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, errors.New("jwt-secret must be at least 32 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token-ttl must be positive"))
	}
	if c.Auth.OTPTTL <= 0 {
		errs = append(errs, errors.New("otp-ttl must be positive"))
	}
	if c.Auth.ResetGrantTTL <= 0 {
		errs = append(errs, errors.New("reset-grant-ttl must be positive"))
	}
	if c.Auth.PreverifiedTTL <= 0 {
		errs = append(errs, errors.New("preverified-ttl must be positive"))
	}
	if c.Auth.OTPMaxAttempts <= 0 {
		errs = append(errs, errors.New("otp-max-attempts must be positive"))
	}
	if c.Database.Timeout <= 0 {
		errs = append(errs, errors.New("store-timeout must be positive"))
	}
	if c.SMTP.Timeout <= 0 {
		errs = append(errs, errors.New("mail-timeout must be positive"))
	}
	if c.Storage.Enabled() && c.Storage.Region == "" {
		errs = append(errs, errors.New("s3-region is required when s3-bucket is set"))
	}

	return errors.Join(errs...)
}

func sources(envKey, tomlKey string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(envKey), toml.TOML(tomlKey, configFile))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: sources("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   4000,
			Usage:   "Port to listen on",
			Sources: sources("PORT", "server.port"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   10,
			Usage:   "Maximum request body size in MB",
			Sources: sources("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringSliceFlag{
			Name:    "allow-origin",
			Usage:   "CORS allowed origin (repeatable)",
			Sources: sources("ALLOW_ORIGINS", "server.allow_origins"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: sources("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: sources("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/app.db",
			Usage:   "Database DSN",
			Sources: sources("DATABASE_DSN", "database.dsn"),
		},
		&cli.DurationFlag{
			Name:    "store-timeout",
			Value:   5 * time.Second,
			Usage:   "Timeout for a single database operation",
			Sources: sources("STORE_TIMEOUT", "database.timeout"),
		},
		// Auth flags
		&cli.StringFlag{
			Name:    "jwt-secret",
			Usage:   "Secret used to sign credential tokens (at least 32 characters)",
			Sources: sources("JWT_SECRET", "auth.jwt_secret"),
		},
		&cli.DurationFlag{
			Name:    "token-ttl",
			Value:   7 * 24 * time.Hour,
			Usage:   "Lifetime of credential tokens",
			Sources: sources("TOKEN_TTL", "auth.token_ttl"),
		},
		&cli.DurationFlag{
			Name:    "otp-ttl",
			Value:   DefaultOTPTTL,
			Usage:   "Lifetime of verification codes; operator override of the 15 minute default, mail text follows it",
			Sources: sources("OTP_TTL", "auth.otp_ttl"),
		},
		&cli.DurationFlag{
			Name:    "reset-grant-ttl",
			Value:   15 * time.Minute,
			Usage:   "Lifetime of password reset proof tokens",
			Sources: sources("RESET_GRANT_TTL", "auth.reset_grant_ttl"),
		},
		&cli.DurationFlag{
			Name:    "preverified-ttl",
			Value:   DefaultPreverifiedTTL,
			Usage:   "How long an email verified before registration stays verified",
			Sources: sources("PREVERIFIED_TTL", "auth.preverified_ttl"),
		},
		&cli.IntFlag{
			Name:    "otp-max-attempts",
			Value:   DefaultOTPMaxAttempts,
			Usage:   "Wrong guesses after which a verification code is cleared",
			Sources: sources("OTP_MAX_ATTEMPTS", "auth.otp_max_attempts"),
		},
		&cli.IntFlag{
			Name:    "otp-rate-limit",
			Value:   5,
			Usage:   "Verification code requests per minute per client and email (0 disables)",
			Sources: sources("OTP_RATE_LIMIT", "auth.otp_rate_limit"),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: sources("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: sources("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: sources("SMTP_USERNAME", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: sources("SMTP_PASSWORD", "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for outgoing mail",
			Sources: sources("SMTP_FROM", "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Treenza",
			Usage:   "Sender display name",
			Sources: sources("SMTP_FROM_NAME", "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: sources("SMTP_TLS", "smtp.tls"),
		},
		&cli.DurationFlag{
			Name:    "mail-timeout",
			Value:   10 * time.Second,
			Usage:   "Timeout for delivering a single email",
			Sources: sources("MAIL_TIMEOUT", "smtp.timeout"),
		},
		// Redis
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for rate limiting (in-process store if empty)",
			Sources: sources("REDIS_URL", "redis.url"),
		},
		// Object storage
		&cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "S3-compatible endpoint (empty for AWS)",
			Sources: sources("S3_ENDPOINT", "storage.endpoint"),
		},
		&cli.StringFlag{
			Name:    "s3-region",
			Value:   "us-east-1",
			Usage:   "S3 region",
			Sources: sources("S3_REGION", "storage.region"),
		},
		&cli.StringFlag{
			Name:    "s3-bucket",
			Usage:   "Bucket for video assets (video endpoints disabled if empty)",
			Sources: sources("S3_BUCKET", "storage.bucket"),
		},
		&cli.StringFlag{
			Name:    "s3-access-key",
			Usage:   "S3 access key",
			Sources: sources("S3_ACCESS_KEY", "storage.access_key"),
		},
		&cli.StringFlag{
			Name:    "s3-secret-key",
			Usage:   "S3 secret key",
			Sources: sources("S3_SECRET_KEY", "storage.secret_key"),
		},
		&cli.StringFlag{
			Name:    "s3-public-url",
			Usage:   "Public base URL for stored videos",
			Sources: sources("S3_PUBLIC_URL", "storage.public_url"),
		},
	}
}
