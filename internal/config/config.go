package config

type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetBaseURL() string
	GetAppName() string
	GetDataFolder() string
	GetHTTPTimeoutSeconds() int
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
