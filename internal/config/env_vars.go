package config

import (
	"os"
	"strconv"
)

const (
	baseURLVar = "AUTH_BASE_URL"
	appNameVar = "APP_NAME"
	folderVar  = "FOLDER"
	timeoutVar = "HTTP_TIMEOUT_SECONDS"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetBaseURL returns the auth backend's base URL (e.g. "https://api.example.com")
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Session Client")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderVar, "./data")
}

func (EnvVars) GetHTTPTimeoutSeconds() int {
	value := GetEnv(timeoutVar, "30")
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 30
	}
	return seconds
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
