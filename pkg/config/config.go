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
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Pricing      PricingConfig
	Paystack     PaystackConfig
	MoMo         MoMoConfig
	Loyalty      LoyaltyConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"FRESHFOLD_APP_ENV" required:"true"`
	Port         string `envconfig:"FRESHFOLD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FRESHFOLD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FRESHFOLD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FRESHFOLD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FRESHFOLD_DB_DSN"`
	Driver string `envconfig:"FRESHFOLD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FRESHFOLD_DB_HOST"`
	LegacyPort     int    `envconfig:"FRESHFOLD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FRESHFOLD_DB_USER"`
	LegacyPassword string `envconfig:"FRESHFOLD_DB_PASSWORD"`
	LegacyName     string `envconfig:"FRESHFOLD_DB_NAME"`
	LegacySSLMode  string `envconfig:"FRESHFOLD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRESHFOLD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRESHFOLD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRESHFOLD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRESHFOLD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FRESHFOLD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FRESHFOLD_REDIS_ADDR"`
	Password     string        `envconfig:"FRESHFOLD_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRESHFOLD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRESHFOLD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRESHFOLD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRESHFOLD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRESHFOLD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRESHFOLD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig carries the defaults applied when an order request omits
// tax or delivery fee amounts. Values are decimal strings so money never
// round-trips through floats.
type PricingConfig struct {
	TaxRate           string `envconfig:"FRESHFOLD_PRICING_TAX_RATE" default:"0.10"`
	DeliveryFeeBase   string `envconfig:"FRESHFOLD_PRICING_DELIVERY_FEE_BASE" default:"5.00"`
	DeliveryFeeUrgent string `envconfig:"FRESHFOLD_PRICING_DELIVERY_FEE_URGENT" default:"10.00"`
}

// TaxRateDecimal parses the configured tax rate, falling back to 10%
// when the value is missing or malformed.
func (p PricingConfig) TaxRateDecimal() decimal.Decimal {
	if rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate)); err == nil && !rate.IsNegative() {
		return rate
	}
	return decimal.New(10, -2)
}

// DeliveryFee returns the flat delivery fee for the given urgency.
func (p PricingConfig) DeliveryFee(urgent bool) decimal.Decimal {
	raw, fallback := p.DeliveryFeeBase, decimal.NewFromInt(5)
	if urgent {
		raw, fallback = p.DeliveryFeeUrgent, decimal.NewFromInt(10)
	}
	if fee, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil && !fee.IsNegative() {
		return fee
	}
	return fallback
}

type PaystackConfig struct {
	SecretKey string        `envconfig:"FRESHFOLD_PAYSTACK_SECRET_KEY"`
	BaseURL   string        `envconfig:"FRESHFOLD_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout   time.Duration `envconfig:"FRESHFOLD_PAYSTACK_TIMEOUT" default:"15s"`
}

type MoMoConfig struct {
	SubscriptionKey string        `envconfig:"FRESHFOLD_MOMO_SUBSCRIPTION_KEY"`
	APIUser         string        `envconfig:"FRESHFOLD_MOMO_API_USER"`
	APIKey          string        `envconfig:"FRESHFOLD_MOMO_API_KEY"`
	CallbackToken   string        `envconfig:"FRESHFOLD_MOMO_CALLBACK_TOKEN"`
	BaseURL         string        `envconfig:"FRESHFOLD_MOMO_BASE_URL" default:"https://sandbox.momodeveloper.mtn.com"`
	TargetEnv       string        `envconfig:"FRESHFOLD_MOMO_TARGET_ENV" default:"sandbox"`
	Timeout         time.Duration `envconfig:"FRESHFOLD_MOMO_TIMEOUT" default:"15s"`
}

type LoyaltyConfig struct {
	// PointsRate is the number of points awarded per whole currency
	// unit of a completed order's total.
	PointsRate int `envconfig:"FRESHFOLD_LOYALTY_POINTS_RATE" default:"1"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FRESHFOLD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FRESHFOLD_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"FRESHFOLD_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookIdempotencyTTL time.Duration `envconfig:"FRESHFOLD_EVENTING_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FRESHFOLD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FRESHFOLD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FRESHFOLD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"FRESHFOLD_PUBSUB_ORDERS_TOPIC" required:"true"`
	PaymentsTopic            string `envconfig:"FRESHFOLD_PUBSUB_PAYMENTS_TOPIC" required:"true"`
	NotificationTopic        string `envconfig:"FRESHFOLD_PUBSUB_NOTIFICATION_TOPIC" default:"ff-notification-events"`
	NotificationSubscription string `envconfig:"FRESHFOLD_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FRESHFOLD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FRESHFOLD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FRESHFOLD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
