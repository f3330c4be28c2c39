package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultRoomCapacity  = 4
	defaultSigningKey    = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="
	defaultClientOrigin  = "http://localhost:3000"
	defaultAuditQueue    = 256
	defaultAuditWorkers  = 4
	defaultAuditTimeout  = 5 * time.Second
	defaultMongoDatabase = "interviews"
)

type Config struct {
	DatabaseDSN    string
	ServerAddr     string
	SigningKey     []byte
	AllowedOrigins []string

	RoomCapacity               int
	RejectReassignAfterArchive bool
	AuditQueueSize             int
	AuditWorkers               int
	AuditWriteTimeout          time.Duration
	Migrate                    bool
	MongoDatabase              string
	LogLevel                   string
	LogPretty                  bool
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, errors.New("empty secret")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	// Decode the base64 encoded signing secret
	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		DatabaseDSN:                databaseDSN,
		ServerAddr:                 serverAddr,
		SigningKey:                 signingKey,
		AllowedOrigins:             allowedOrigins,
		RoomCapacity:               DefaultRoomCapacity,
		RejectReassignAfterArchive: true,
		AuditQueueSize:             defaultAuditQueue,
		AuditWorkers:               defaultAuditWorkers,
		AuditWriteTimeout:          defaultAuditTimeout,
		MongoDatabase:              defaultMongoDatabase,
		LogLevel:                   "info",
	}, nil
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("interview-server", pflag.ContinueOnError)
	fs.String("addr", "localhost:8000", "server address")
	fs.String("dsn", "memory", "database connection string (postgres://, mongodb:// or memory)")
	fs.String("signing-key", defaultSigningKey, "base64 encoded signing key")
	fs.StringSlice("allowed-origins", []string{defaultClientOrigin}, "comma-separated list of allowed origins for CORS and websocket upgrades")
	fs.Int("room-capacity", DefaultRoomCapacity, "maximum members of a video room")
	fs.Bool("reject-reassign-after-archive", true, "refuse participant assignment on archived interviews")
	fs.Int("audit-queue-size", defaultAuditQueue, "buffered audit entries per worker")
	fs.Int("audit-workers", defaultAuditWorkers, "audit writer goroutines")
	fs.Duration("audit-write-timeout", defaultAuditTimeout, "timeout for a single audit write")
	fs.Bool("migrate", false, "apply database migrations on start (postgres only)")
	fs.String("mongo-database", defaultMongoDatabase, "MongoDB database name")
	fs.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.Bool("log-pretty", false, "human readable console logs")
	fs.String("env-file", ".env", "optional dotenv file")
	return fs
}

// Load resolves configuration from flags, the environment and an optional
// dotenv file. Flags set explicitly win over the environment.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	envFile, _ := fs.GetString("env-file")
	if err := godotenv.Load(envFile); err != nil && fs.Changed("env-file") {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("addr", "ADDR")
	_ = v.BindEnv("dsn", "DATABASE_URL", "DSN")
	_ = v.BindEnv("signing-key", "JWT_SECRET", "SIGNING_KEY")
	_ = v.BindEnv("log-level", "LOG_LEVEL")
	_ = v.BindEnv("mongo-database", "MONGO_DATABASE")

	origins := v.GetStringSlice("allowed-origins")
	if !fs.Changed("allowed-origins") {
		origins = originsFromEnv(origins)
	}

	cfg, err := NewConfig(v.GetString("addr"), v.GetString("dsn"), v.GetString("signing-key"), origins)
	if err != nil {
		return nil, err
	}

	cfg.RoomCapacity = v.GetInt("room-capacity")
	cfg.RejectReassignAfterArchive = v.GetBool("reject-reassign-after-archive")
	cfg.AuditQueueSize = v.GetInt("audit-queue-size")
	cfg.AuditWorkers = v.GetInt("audit-workers")
	cfg.AuditWriteTimeout = v.GetDuration("audit-write-timeout")
	cfg.Migrate = v.GetBool("migrate")
	cfg.MongoDatabase = v.GetString("mongo-database")
	cfg.LogLevel = v.GetString("log-level")
	cfg.LogPretty = v.GetBool("log-pretty")

	if cfg.RoomCapacity < 1 {
		return nil, fmt.Errorf("room capacity must be positive, got %d", cfg.RoomCapacity)
	}

	return cfg, nil
}

// originsFromEnv prefers CLIENT_ORIGIN, then FRONTEND_URL, over the flag
// default.
func originsFromEnv(fallback []string) []string {
	v := viper.New()
	_ = v.BindEnv("client_origin", "CLIENT_ORIGIN")
	_ = v.BindEnv("frontend_url", "FRONTEND_URL")

	for _, key := range []string{"client_origin", "frontend_url"} {
		if raw := v.GetString(key); raw != "" {
			var origins []string
			for _, o := range strings.Split(raw, ",") {
				if o = strings.TrimSpace(o); o != "" {
					origins = append(origins, o)
				}
			}
			if len(origins) > 0 {
				return origins
			}
		}
	}

	return fallback
}
