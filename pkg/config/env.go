package config

const (
	EnvPrefix = "AG"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	LocationThessaloniki = "thessaloniki"
	LocationMykonos      = "mykonos"

	EnvAppEnv          = "AG_APP_ENV"
	EnvPort            = "AG_APP_PORT"
	EnvDBDSN           = "AG_DB_DSN"
	EnvDBHost          = "AG_DB_HOST"
	EnvDBUser          = "AG_DB_USER"
	EnvDBName          = "AG_DB_NAME"
	EnvRedisURL        = "AG_REDIS_URL"
	EnvJWTSecret       = "AG_JWT_SECRET"
	EnvJWTIssuer       = "AG_JWT_ISSUER"
	EnvJWTExpMins      = "AG_JWT_EXPIRATION_MINUTES"
	EnvVATThessaloniki = "AG_VAT_RATE_THESSALONIKI"
	EnvVATMykonos      = "AG_VAT_RATE_MYKONOS"
	EnvOrderNumFormat  = "AG_ORDER_NUMBER_FORMAT"
	EnvDeliveryEmails  = "AG_NOTIFY_DELIVERY_EMAILS"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
