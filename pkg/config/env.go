package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "FRESHFOLD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "FRESHFOLD_APP_ENV"
	EnvPort     = "FRESHFOLD_APP_PORT"
	EnvLogLevel = "FRESHFOLD_LOG_LEVEL"

	EnvDBDSN  = "FRESHFOLD_DB_DSN"
	EnvDBHost = "FRESHFOLD_DB_HOST"
	EnvDBPort = "FRESHFOLD_DB_PORT"
	EnvDBUser = "FRESHFOLD_DB_USER"
	EnvDBName = "FRESHFOLD_DB_NAME"

	EnvRedisURL = "FRESHFOLD_REDIS_URL"

	EnvGCPProjectID = "FRESHFOLD_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic     = "FRESHFOLD_PUBSUB_ORDERS_TOPIC"
	EnvPubSubPaymentsTopic   = "FRESHFOLD_PUBSUB_PAYMENTS_TOPIC"
	EnvPubSubNotificationSub = "FRESHFOLD_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

// legacyDBEnvVars are the discrete connection variables accepted when
// FRESHFOLD_DB_DSN is unset.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
