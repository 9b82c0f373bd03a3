package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Public base URL used to build the absolute callback / balanceCheck
	// URLs handed to external LNURL services. No trailing slash.
	BaseURL string

	// SiteTitle prefixes the defaultDescription of withdraw sessions.
	SiteTitle string

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Per-listener outbound queue capacity. A full queue drops messages
	// for that listener rather than blocking the dispatcher.
	ListenerQueueSize int

	// Minimum withdrawable amount advertised when the wallet has any
	// withdrawable balance at all.
	MinWithdrawableMsat int64

	// How long to wait before redeeming the funding voucher of a wallet
	// created through /lnurlwallet.
	FundingRedeemDelay time.Duration

	// Lightning node gateway (payment execution / invoice creation)
	NodeGatewayURL string
	GatewayTimeout time.Duration

	// Outbound LNURL client
	LNURLTimeout   time.Duration
	LNURLRateLimit int // requests per second against external services
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		BaseURL:   strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		SiteTitle: getEnv("SITE_TITLE", "LNbits"),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		ListenerQueueSize:   getInt("LISTENER_QUEUE_SIZE", 5),
		MinWithdrawableMsat: int64(getInt("MIN_WITHDRAWABLE_MSAT", 1000)),
		FundingRedeemDelay:  getDuration("FUNDING_REDEEM_DELAY", 5*time.Second),

		NodeGatewayURL: strings.TrimRight(getEnv("NODE_GATEWAY_URL", "http://localhost:9090"), "/"),
		GatewayTimeout: getDuration("GATEWAY_TIMEOUT", 10*time.Second),

		LNURLTimeout:   getDuration("LNURL_TIMEOUT", 10*time.Second),
		LNURLRateLimit: getInt("LNURL_RATE_LIMIT", 10),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
