package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	Outbox        OutboxConfig
	Sendgrid      SendgridConfig
	Slack         SlackConfig
	Zapier        ZapierConfig
	Notifications NotificationsConfig
	Realtime      RealtimeConfig
	Stripe        StripeConfig
	Invoice       InvoiceConfig
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
	if err := cfg.Invoice.validate(); err != nil {
		return nil, err
	}
	// Frame-claimed roles are a local development convenience only.
	if cfg.App.IsProd() {
		cfg.Realtime.RequireToken = true
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AG_APP_ENV" required:"true"`
	Port         string `envconfig:"AG_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AG_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"AG_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	return splitList(a.CORSOrigins)
}

type ServiceConfig struct {
	Kind string `envconfig:"AG_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AG_DB_DSN"`
	Driver string `envconfig:"AG_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"AG_DB_HOST"`
	Port     int    `envconfig:"AG_DB_PORT" default:"5432"`
	User     string `envconfig:"AG_DB_USER"`
	Password string `envconfig:"AG_DB_PASSWORD"`
	Name     string `envconfig:"AG_DB_NAME"`
	SSLMode  string `envconfig:"AG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery logs statements slower than this at warn level. Zero disables it.
	SlowQuery time.Duration `envconfig:"AG_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AG_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AG_REDIS_ADDR"`
	Password     string        `envconfig:"AG_REDIS_PASSWORD"`
	DB           int           `envconfig:"AG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AG_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AG_JWT_ISSUER" default:"aerogourmet"`
	ExpirationMinutes int    `envconfig:"AG_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"AG_SESSION_TTL_MINUTES" default:"10080"`
}

// SessionTTL returns how long a login session stays valid in redis.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AG_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AG_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AG_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AG_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AG_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig holds the fixed-window limits for public write endpoints.
type RateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AG_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AG_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AG_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AG_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AG_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AG_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	GuestOrderWindow   time.Duration `envconfig:"AG_RATE_LIMIT_GUEST_ORDER_WINDOW" default:"10m"`
	GuestOrderIPLimit  int           `envconfig:"AG_RATE_LIMIT_GUEST_ORDER_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate      bool `envconfig:"AG_AUTO_MIGRATE" default:"false"`
	AllowGuestOrders bool `envconfig:"AG_ALLOW_GUEST_ORDERS" default:"true"`
}

type OrdersConfig struct {
	NumberFormat string `envconfig:"AG_ORDER_NUMBER_FORMAT" default:"dated"`
	NumberPrefix string `envconfig:"AG_ORDER_NUMBER_PREFIX" default:"ORD"`
	GuestUserID  uint   `envconfig:"AG_GUEST_USER_ID" default:"1"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AG_OUTBOX_DISPATCH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AG_OUTBOX_DISPATCH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AG_OUTBOX_MAX_ATTEMPTS" default:"5"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"AG_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"AG_SENDGRID_FROM_EMAIL" default:"orders@aerogourmet.gr"`
	FromName    string `envconfig:"AG_SENDGRID_FROM_NAME" default:"AeroGourmet"`
}

type SlackConfig struct {
	WebhookURL string `envconfig:"AG_SLACK_WEBHOOK_URL"`
	Channel    string `envconfig:"AG_SLACK_CHANNEL"`
}

type ZapierConfig struct {
	WebhookURL string        `envconfig:"AG_ZAPIER_WEBHOOK_URL"`
	Timeout    time.Duration `envconfig:"AG_ZAPIER_TIMEOUT" default:"10s"`
}

type NotificationsConfig struct {
	OperationsEmail   string `envconfig:"AG_NOTIFY_OPERATIONS_EMAIL" default:"operations@aerogourmet.gr"`
	KitchenThessEmail string `envconfig:"AG_NOTIFY_KITCHEN_THESSALONIKI_EMAIL" default:"kitchen.skg@aerogourmet.gr"`
	KitchenMykEmail   string `envconfig:"AG_NOTIFY_KITCHEN_MYKONOS_EMAIL" default:"kitchen.jmk@aerogourmet.gr"`
	DeliveryEmails    string `envconfig:"AG_NOTIFY_DELIVERY_EMAILS" default:"delivery@aerogourmet.gr"`
	PublicBaseURL     string `envconfig:"AG_PUBLIC_BASE_URL" default:"https://aerogourmet.gr"`
}

// KitchenEmail returns the kitchen inbox for the given location.
func (n NotificationsConfig) KitchenEmail(location string) string {
	switch strings.ToLower(strings.TrimSpace(location)) {
	case LocationMykonos:
		return n.KitchenMykEmail
	default:
		return n.KitchenThessEmail
	}
}

// DeliveryTeam returns the delivery team addresses.
func (n NotificationsConfig) DeliveryTeam() []string {
	return splitList(n.DeliveryEmails)
}

type RealtimeConfig struct {
	PingInterval time.Duration `envconfig:"AG_WS_PING_INTERVAL" default:"30s"`
	PongWait     time.Duration `envconfig:"AG_WS_PONG_WAIT" default:"60s"`
	AuthTimeout  time.Duration `envconfig:"AG_WS_AUTH_TIMEOUT" default:"10s"`
	Channel      string        `envconfig:"AG_WS_REDIS_CHANNEL" default:"ag:realtime:orders"`
	RequireToken bool          `envconfig:"AG_WS_REQUIRE_TOKEN" default:"true"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"AG_STRIPE_API_KEY"`
	Secret   string `envconfig:"AG_STRIPE_SECRET"`
	Env      string `envconfig:"AG_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"AG_STRIPE_CURRENCY" default:"eur"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type InvoiceConfig struct {
	VATThessaloniki string `envconfig:"AG_VAT_RATE_THESSALONIKI" default:"0.24"`
	VATMykonos      string `envconfig:"AG_VAT_RATE_MYKONOS" default:"0.13"`
}

// VATRate returns the VAT rate applied to invoices issued from the location.
func (i InvoiceConfig) VATRate(location string) decimal.Decimal {
	raw := i.VATThessaloniki
	if strings.EqualFold(strings.TrimSpace(location), LocationMykonos) {
		raw = i.VATMykonos
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (i InvoiceConfig) validate() error {
	for env, raw := range map[string]string{
		EnvVATThessaloniki: i.VATThessaloniki,
		EnvVATMykonos:      i.VATMykonos,
	} {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be within [0, 1)", env)
		}
	}
	return nil
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"AG_CRON_INTERVAL" default:"1h"`
	LockTTL              time.Duration `envconfig:"AG_CRON_LOCK_TTL" default:"10m"`
	OutboxRetention      time.Duration `envconfig:"AG_CRON_OUTBOX_RETENTION" default:"720h"`
	DeadLetterRetention  time.Duration `envconfig:"AG_CRON_DLQ_RETENTION" default:"2160h"`
	LowStockDigestEnable bool          `envconfig:"AG_CRON_LOW_STOCK_DIGEST" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
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

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
