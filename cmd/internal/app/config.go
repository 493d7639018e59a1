package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Token signing. Secret is mandatory; the codec rejects short keys.
	TokenSecret string
	TokenIssuer string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	// BootstrapSecret guards API key generation after the first key exists.
	// Empty locks generation once bootstrapped.
	BootstrapSecret string

	// BotHandle is the GitHub mention name that addresses this service.
	BotHandle string

	// Integration secrets seeded into the settings store on boot.
	SlackSigningSecret  string
	GitHubWebhookSecret string
	GitHubAPIToken      string

	// WebSocket gateway.
	WSAuthTimeout    time.Duration
	WSSendQueueSize  int
	WSOriginPatterns []string
	WSDevInsecure    bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("HUB_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("HUB_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("HUB_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("HUB_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("HUB_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("HUB_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("HUB_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("HUB_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("HUB_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("HUB_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("HUB_READINESS_REQUIRE_DB", false),

		TokenSecret: EnvString("HUB_TOKEN_SECRET", ""),
		TokenIssuer: EnvString("HUB_TOKEN_ISSUER", "hub"),
		AccessTTL:   EnvDuration("HUB_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:  EnvDuration("HUB_REFRESH_TOKEN_TTL", 30*24*time.Hour),

		BootstrapSecret: EnvString("HUB_BOOTSTRAP_SECRET", ""),

		BotHandle: EnvString("HUB_BOT_HANDLE", "hubbot"),

		SlackSigningSecret:  EnvString("HUB_SLACK_SIGNING_SECRET", ""),
		GitHubWebhookSecret: EnvString("HUB_GITHUB_WEBHOOK_SECRET", ""),
		GitHubAPIToken:      EnvString("HUB_GITHUB_API_TOKEN", ""),

		WSAuthTimeout:    EnvDuration("HUB_WS_AUTH_TIMEOUT", 5*time.Second),
		WSSendQueueSize:  EnvInt("HUB_WS_SEND_QUEUE", 256),
		WSOriginPatterns: EnvCSV("HUB_WS_ALLOWED_ORIGINS", ""),
		WSDevInsecure:    EnvBool("HUB_WS_DEV_INSECURE", false),
	}
}
