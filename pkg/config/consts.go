package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// this is effectively documentation.
const EnvPrefix = "KAROBAR"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "KAROBAR_APP_ENV"
	EnvDBDSN  = "KAROBAR_DB_DSN"
	EnvDBHost = "KAROBAR_DB_HOST"
	EnvDBUser = "KAROBAR_DB_USER"
	EnvDBName = "KAROBAR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
