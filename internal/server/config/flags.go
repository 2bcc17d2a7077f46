package config

import (
	"flag"
	"os"
	"time"

	"github.com/machrent/machrent/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-r string   Redis address
//	-s string   JWT access secret
//	-j string   JWT refresh secret
//	-z string   JWT reset secret
//	-t int      access token TTL, minutes
//	-x int      refresh token TTL, hours
//	-m int      max refresh sessions per user
//	-f string   frontend base URL (reset links)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// Args are first filtered with flagx.FilterArgs so the set does not collide
// with flags owned by other components (notably -c/-config).
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-d", "-r", "-s", "-j", "-z", "-t", "-x", "-m", "-f", "-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "jwt access secret")
	fs.StringVar(&config.JWTRefreshSecret, "j", config.JWTRefreshSecret, "jwt refresh secret")
	fs.StringVar(&config.JWTResetSecret, "z", config.JWTResetSecret, "jwt reset secret")

	accessTTL := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token TTL (in minutes)")
	refreshTTL := fs.Int("x", int(config.RefreshTokenTTL.Hours()), "refresh token TTL (in hours)")

	fs.IntVar(&config.MaxSessions, "m", config.MaxSessions, "max refresh sessions per user")
	fs.StringVar(&config.FrontendURL, "f", config.FrontendURL, "frontend base URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenTTL = time.Duration(*accessTTL) * time.Minute
	config.RefreshTokenTTL = time.Duration(*refreshTTL) * time.Hour
}
