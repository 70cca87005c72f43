package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port               int
	BufferSeconds      int // Accumulation window per camera before a triage cycle runs
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	TokenCompanyAPIKey string
	CompressionURL     string
	AITimeoutSeconds   int
	RawContextLimit    int // Max runes of compressed text carried on an alert
	MQTTHost           string
	MQTTPort           int
	MQTTUsername       string
	MQTTPassword       string
	MQTTClientID       string
	MQTTAlertTopic     string
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	MinioPublicBaseURL string
	LogDirectory       string
}

func Load() *Config {
	return &Config{
		Port:               getEnvAsInt("PORT", 8080),
		BufferSeconds:      getEnvAsInt("BUFFER_DURATION_SECONDS", 10),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		TokenCompanyAPIKey: getEnv("TOKEN_COMPANY_API_KEY", os.Getenv("TOKENC_API_KEY")),
		CompressionURL:     getEnv("COMPRESSION_URL", "https://api.thetokencompany.com/v1/compress"),
		AITimeoutSeconds:   getEnvAsInt("AI_TIMEOUT_SECONDS", 30),
		RawContextLimit:    getEnvAsInt("RAW_CONTEXT_LIMIT", 500),
		MQTTHost:           getEnv("MQTT_HOST", ""),
		MQTTPort:           getEnvAsInt("MQTT_PORT", 1883),
		MQTTUsername:       getEnv("MQTT_USERNAME", ""),
		MQTTPassword:       getEnv("MQTT_PASSWORD", ""),
		MQTTClientID:       getEnv("MQTT_CLIENT_ID", "dispatch-ai"),
		MQTTAlertTopic:     getEnv("MQTT_ALERT_TOPIC", "dispatch/alerts"),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:        getEnv("MINIO_BUCKET", "dispatch-snapshots"),
		MinioUseSSL:        getEnv("MINIO_USE_SSL", "false") == "true",
		MinioPublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
