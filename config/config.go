package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                               string `envconfig:"PORT" default:"8080"`
		RateLimitPerSecond                 int    `envconfig:"RATE_LIMIT_PER_SECOND" default:"2"`
		RateLimitBurstLimit                int    `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"5"`
		CachedRateLimitPerSecond           int    `envconfig:"CACHED_RATE_LIMIT_PER_SECOND" default:"10"`
		CachedRateLimitBurstLimit          int    `envconfig:"CACHED_RATE_LIMIT_BURST_LIMIT" default:"20"`
		CacheInvalidationIntervalInSeconds int    `envconfig:"CACHE_INVALIDATION_INTERVAL_IN_SECONDS" default:"3600"`
		LyricsCacheTTLInSeconds            int    `envconfig:"LYRICS_CACHE_TTL_IN_SECONDS" default:"86400"`
		NegativeCacheTTLInDays             int    `envconfig:"NEGATIVE_CACHE_TTL_DAYS" default:"7"` // TTL for "no lyrics found" entries
		CacheDBPath                        string `envconfig:"CACHE_DB_PATH" default:"cache.db"`
		StatsDBPath                        string `envconfig:"STATS_DB_PATH" default:"stats.db"`
		StatsSaveIntervalSecs              int    `envconfig:"STATS_SAVE_INTERVAL_SECS" default:"300"`
		CacheAccessToken                   string `envconfig:"CACHE_ACCESS_TOKEN" default:""`
		APIKey                             string `envconfig:"API_KEY" default:""`
		APIKeyRequired                     bool   `envconfig:"API_KEY_REQUIRED" default:"false"`

		// Redis replaces the bbolt cache when set
		RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
		RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
		RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

		// Providers
		DefaultProvider      string  `envconfig:"DEFAULT_PROVIDER" default:"lrclib"`
		LrclibBaseURL        string  `envconfig:"LRCLIB_BASE_URL" default:"https://lrclib.net/api"`
		LrclibUserAgent      string  `envconfig:"LRCLIB_USER_AGENT" default:"lrckit-api (https://github.com/lrckit/lrckit-api)"`
		LocalLyricsDir       string  `envconfig:"LOCAL_LYRICS_DIR" default:""`
		DurationMatchDeltaMs int     `envconfig:"DURATION_MATCH_DELTA_MS" default:"2000"` // reject tracks outside this delta
		ProviderTimeoutSecs  int     `envconfig:"PROVIDER_TIMEOUT_SECS" default:"6"`
		MinSimilarityScore   float64 `envconfig:"MIN_SIMILARITY_SCORE" default:"0.5"` // kugou song match threshold

		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`       // consecutive failures before the circuit opens
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"` // seconds before a retry is allowed

		// Upper bound on POST /parse bodies
		MaxParseBodyBytes int64 `envconfig:"MAX_PARSE_BODY_BYTES" default:"1048576"`
	}

	// Each notifier is enabled when its first key is set
	Notifier struct {
		NtfyTopic            string `envconfig:"NOTIFIER_NTFY_TOPIC" default:""`
		NtfyServer           string `envconfig:"NOTIFIER_NTFY_SERVER" default:"https://ntfy.sh"`
		TelegramBotToken     string `envconfig:"NOTIFIER_TELEGRAM_BOT_TOKEN" default:""`
		TelegramChatID       int64  `envconfig:"NOTIFIER_TELEGRAM_CHAT_ID" default:"0"`
		SMTPHost             string `envconfig:"NOTIFIER_SMTP_HOST" default:""`
		SMTPPort             string `envconfig:"NOTIFIER_SMTP_PORT" default:"587"`
		SMTPUsername         string `envconfig:"NOTIFIER_SMTP_USERNAME" default:""`
		SMTPPassword         string `envconfig:"NOTIFIER_SMTP_PASSWORD" default:""`
		FromEmail            string `envconfig:"NOTIFIER_FROM_EMAIL" default:""`
		ToEmail              string `envconfig:"NOTIFIER_TO_EMAIL" default:""`
		AlertCooldownMinutes int    `envconfig:"NOTIFIER_ALERT_COOLDOWN_MINUTES" default:"15"`
	}

	FeatureFlags struct {
		CacheCompression  bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
		CacheOnlyMode     bool `envconfig:"FF_CACHE_ONLY_MODE" default:"false"`
		SimplifiedChinese bool `envconfig:"FF_SIMPLIFIED_CHINESE" default:"false"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
