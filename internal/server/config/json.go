package config

import (
	"encoding/json"
	"os"

	"github.com/machrent/machrent/internal/flagx"
	"github.com/machrent/machrent/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. Interval fields use
// timex.Duration so files can say "15m" instead of integer nanoseconds.
// Zero values are skipped during overlay so partial files work.
type JsonConfig struct {
	DatabaseDSN string `json:"database_dsn"`
	RedisAddr   string `json:"redis_addr"`

	JWTSecret        string `json:"jwt_secret"`
	JWTRefreshSecret string `json:"jwt_refresh_secret"`
	JWTResetSecret   string `json:"jwt_reset_secret"`

	AccessTokenTTL     timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL    timex.Duration `json:"refresh_token_ttl"`
	ResetTokenTTL      timex.Duration `json:"reset_token_ttl"`
	CompletionTokenTTL timex.Duration `json:"completion_token_ttl"`
	OtpTTL             timex.Duration `json:"otp_ttl"`
	RegistrationTTL    timex.Duration `json:"registration_ttl"`

	MaxSessions            int    `json:"max_sessions"`
	BcryptCost             int    `json:"bcrypt_cost"`
	FrontendURL            string `json:"frontend_url"`
	RefreshTokenCookieName string `json:"refresh_token_cookie_name"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file named by -c/-config, if any.
// Unreadable files or invalid JSON panic: a requested config file that cannot
// be applied must not silently fall back to defaults.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.JWTRefreshSecret, c.JWTRefreshSecret)
	setString(&config.JWTResetSecret, c.JWTResetSecret)
	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.RefreshTokenCookieName, c.RefreshTokenCookieName)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.AccessTokenTTL.Duration > 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL.Duration > 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.ResetTokenTTL.Duration > 0 {
		config.ResetTokenTTL = c.ResetTokenTTL.Duration
	}
	if c.CompletionTokenTTL.Duration > 0 {
		config.CompletionTokenTTL = c.CompletionTokenTTL.Duration
	}
	if c.OtpTTL.Duration > 0 {
		config.OtpTTL = c.OtpTTL.Duration
	}
	if c.RegistrationTTL.Duration > 0 {
		config.RegistrationTTL = c.RegistrationTTL.Duration
	}
	if c.MaxSessions > 0 {
		config.MaxSessions = c.MaxSessions
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
}
