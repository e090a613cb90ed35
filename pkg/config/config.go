package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	Mail          MailConfig
	Transfer      TransferConfig
	YouTube       YouTubeConfig
	Render        RenderConfig
	Worker        WorkerConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ARTICLE39_APP_ENV" required:"true"`
	Port         string `envconfig:"ARTICLE39_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ARTICLE39_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ARTICLE39_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"ARTICLE39_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ARTICLE39_DB_DSN"`
	Driver string `envconfig:"ARTICLE39_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ARTICLE39_DB_HOST"`
	Port     int    `envconfig:"ARTICLE39_DB_PORT" default:"5432"`
	User     string `envconfig:"ARTICLE39_DB_USER"`
	Password string `envconfig:"ARTICLE39_DB_PASSWORD"`
	Name     string `envconfig:"ARTICLE39_DB_NAME"`
	SSLMode  string `envconfig:"ARTICLE39_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ARTICLE39_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ARTICLE39_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ARTICLE39_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARTICLE39_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery logs statements slower than this at warn level. Zero disables it.
	SlowQuery time.Duration `envconfig:"ARTICLE39_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ARTICLE39_REDIS_URL"`
	Address      string        `envconfig:"ARTICLE39_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"ARTICLE39_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARTICLE39_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARTICLE39_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARTICLE39_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARTICLE39_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARTICLE39_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARTICLE39_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ARTICLE39_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ARTICLE39_JWT_ISSUER" default:"article39"`
	ExpirationMinutes      int    `envconfig:"ARTICLE39_JWT_EXPIRATION_MINUTES" default:"1440"`
	RefreshTokenTTLMinutes int    `envconfig:"ARTICLE39_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ARTICLE39_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ARTICLE39_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ARTICLE39_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ARTICLE39_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ARTICLE39_ARGON_KEY_LEN" default:"32"`
	// TempPasswordLength is the length of the one-time password sent to newly verified artists.
	TempPasswordLength int `envconfig:"ARTICLE39_TEMP_PASSWORD_LENGTH" default:"6"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ARTICLE39_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"ARTICLE39_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ARTICLE39_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	IntakeWindow       time.Duration `envconfig:"ARTICLE39_AUTH_RATE_LIMIT_INTAKE_WINDOW" default:"10m"`
	IntakeIPLimit      int           `envconfig:"ARTICLE39_AUTH_RATE_LIMIT_INTAKE_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ARTICLE39_AUTO_MIGRATE" default:"false"`
	// PublishToYouTube disables the render/publish chain when false; approved
	// songs then stay NOT_UPLOADED and only the status email is sent.
	PublishToYouTube bool `envconfig:"ARTICLE39_FEATURE_PUBLISH_YOUTUBE" default:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ARTICLE39_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	// MaxAge is how long browsers may cache a preflight answer.
	MaxAge time.Duration `envconfig:"ARTICLE39_CORS_MAX_AGE" default:"5m"`
}

type MailConfig struct {
	Host     string `envconfig:"ARTICLE39_MAIL_HOST" default:"smtp.gmail.com"`
	Port     int    `envconfig:"ARTICLE39_MAIL_PORT" default:"587"`
	Username string `envconfig:"ARTICLE39_MAIL_USERNAME"`
	Password string `envconfig:"ARTICLE39_MAIL_PASSWORD"`
	From     string `envconfig:"ARTICLE39_MAIL_FROM" default:"noreply@article39.art"`
	// SiteName is used in subjects, e.g. "Your login credentials - 1972 Art. 39".
	SiteName string `envconfig:"ARTICLE39_MAIL_SITE_NAME" default:"1972 Art. 39"`
	LoginURL string `envconfig:"ARTICLE39_MAIL_LOGIN_URL" default:"https://article39.art/login"`
}

type TransferConfig struct {
	URL            string        `envconfig:"ARTICLE39_TRANSFER_URL" default:"https://transfer.ongshak.com/upload/"`
	APIKey         string        `envconfig:"ARTICLE39_TRANSFER_API_KEY"`
	Path           string        `envconfig:"ARTICLE39_TRANSFER_PATH" default:"article39"`
	MaxUploadMB    int           `envconfig:"ARTICLE39_TRANSFER_MAX_UPLOAD_MB" default:"20"`
	CompressOverMB int           `envconfig:"ARTICLE39_TRANSFER_COMPRESS_OVER_MB" default:"2"`
	Timeout        time.Duration `envconfig:"ARTICLE39_TRANSFER_TIMEOUT" default:"2m"`
}

func (t TransferConfig) MaxUploadBytes() int64 {
	return int64(t.MaxUploadMB) << 20
}

func (t TransferConfig) CompressThresholdBytes() int64 {
	return int64(t.CompressOverMB) << 20
}

type YouTubeConfig struct {
	APIKey string `envconfig:"ARTICLE39_YOUTUBE_API_KEY"`
	// OAuth client used for uploads; the refresh token is issued once out of band.
	ClientID     string `envconfig:"ARTICLE39_YOUTUBE_CLIENT_ID"`
	ClientSecret string `envconfig:"ARTICLE39_YOUTUBE_CLIENT_SECRET"`
	RefreshToken string `envconfig:"ARTICLE39_YOUTUBE_REFRESH_TOKEN"`
	CategoryID   string `envconfig:"ARTICLE39_YOUTUBE_CATEGORY_ID" default:"10"`
	Privacy      string `envconfig:"ARTICLE39_YOUTUBE_PRIVACY" default:"public"`
	MaxRetries   int    `envconfig:"ARTICLE39_YOUTUBE_MAX_RETRIES" default:"10"`
	// MaxRetryWait caps the total backoff of one upload; keep it under the task timeout.
	MaxRetryWait time.Duration `envconfig:"ARTICLE39_YOUTUBE_MAX_RETRY_WAIT" default:"20m"`
	// StatsRequestsPerSecond paces videos.list calls made by the stats refresher.
	StatsRequestsPerSecond float64       `envconfig:"ARTICLE39_YOUTUBE_STATS_RPS" default:"5"`
	StatsFreshness         time.Duration `envconfig:"ARTICLE39_YOUTUBE_STATS_FRESHNESS" default:"10s"`
}

type RenderConfig struct {
	FFmpegPath string        `envconfig:"ARTICLE39_FFMPEG_PATH" default:"ffmpeg"`
	Preset     string        `envconfig:"ARTICLE39_RENDER_PRESET" default:"ultrafast"`
	WorkDir    string        `envconfig:"ARTICLE39_RENDER_WORK_DIR"`
	Timeout    time.Duration `envconfig:"ARTICLE39_RENDER_TIMEOUT" default:"15m"`
	// MaxFrameWidth bounds the still frame; larger thumbnails are downscaled.
	MaxFrameWidth int `envconfig:"ARTICLE39_RENDER_MAX_FRAME_WIDTH" default:"1920"`
}

type WorkerConfig struct {
	BatchSize      int           `envconfig:"ARTICLE39_WORKER_BATCH_SIZE" default:"10"`
	PollInterval   time.Duration `envconfig:"ARTICLE39_WORKER_POLL_INTERVAL" default:"1s"`
	MaxAttempts    int           `envconfig:"ARTICLE39_WORKER_MAX_ATTEMPTS" default:"5"`
	BaseBackoff    time.Duration `envconfig:"ARTICLE39_WORKER_BASE_BACKOFF" default:"10s"`
	MaxBackoff     time.Duration `envconfig:"ARTICLE39_WORKER_MAX_BACKOFF" default:"30m"`
	TaskTimeout    time.Duration `envconfig:"ARTICLE39_WORKER_TASK_TIMEOUT" default:"30m"`
	MetricsAddress string        `envconfig:"ARTICLE39_WORKER_METRICS_ADDR" default:":9102"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"ARTICLE39_CRON_INTERVAL" default:"15m"`
	LockTTL         time.Duration `envconfig:"ARTICLE39_CRON_LOCK_TTL" default:"10m"`
	StatsStaleAfter time.Duration `envconfig:"ARTICLE39_CRON_STATS_STALE_AFTER" default:"6h"`
	StatsBatchSize  int           `envconfig:"ARTICLE39_CRON_STATS_BATCH_SIZE" default:"50"`
	TaskRetention   time.Duration `envconfig:"ARTICLE39_CRON_TASK_RETENTION" default:"720h"`
	MetricsAddress  string        `envconfig:"ARTICLE39_CRON_METRICS_ADDR" default:":9103"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
