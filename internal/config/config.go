package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	R2        R2Config
	Ollama    OllamaConfig
	Google    GoogleConfig
	Renderer  RendererConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	TranslatePerHour int
	ExportPerHour    int
	UploadPerHour    int
}

// StorageConfig holds local fallback paths used when R2 is not configured
type StorageConfig struct {
	UploadsDir string
	ExportsDir string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout int // seconds
}

type GoogleConfig struct {
	Endpoint string
	Timeout  int // seconds
}

// RendererConfig points at the PDF layout/render microservice
type RendererConfig struct {
	ServiceURL string
	Timeout    int // seconds
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("storage.uploads_dir", "UPLOADS_DIR")
	_ = viper.BindEnv("storage.exports_dir", "EXPORTS_DIR")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("ollama.base_url", "OLLAMA_BASE_URL")
	_ = viper.BindEnv("ollama.model", "OLLAMA_MODEL")
	_ = viper.BindEnv("ollama.timeout", "OLLAMA_TIMEOUT")
	_ = viper.BindEnv("google.endpoint", "GOOGLE_TRANSLATE_ENDPOINT")
	_ = viper.BindEnv("google.timeout", "GOOGLE_TRANSLATE_TIMEOUT")
	_ = viper.BindEnv("renderer.service_url", "RENDERER_SERVICE_URL")
	_ = viper.BindEnv("renderer.timeout", "RENDERER_TIMEOUT")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.translate_per_hour", 20)
	viper.SetDefault("ratelimit.export_per_hour", 30)
	viper.SetDefault("ratelimit.upload_per_hour", 50)

	// Local storage defaults
	viper.SetDefault("storage.uploads_dir", "data/uploads")
	viper.SetDefault("storage.exports_dir", "data/exports")

	// Ollama defaults
	viper.SetDefault("ollama.base_url", "http://localhost:11434")
	viper.SetDefault("ollama.model", "qwen2.5:7b")
	viper.SetDefault("ollama.timeout", 120)

	// Google web translate defaults (no API key required)
	viper.SetDefault("google.endpoint", "https://translate.google.com/m")
	viper.SetDefault("google.timeout", 10)

	// Renderer service defaults
	viper.SetDefault("renderer.service_url", "http://localhost:8084")
	viper.SetDefault("renderer.timeout", 120)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			TranslatePerHour: viper.GetInt("ratelimit.translate_per_hour"),
			ExportPerHour:    viper.GetInt("ratelimit.export_per_hour"),
			UploadPerHour:    viper.GetInt("ratelimit.upload_per_hour"),
		},
		Storage: StorageConfig{
			UploadsDir: viper.GetString("storage.uploads_dir"),
			ExportsDir: viper.GetString("storage.exports_dir"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Ollama: OllamaConfig{
			BaseURL: viper.GetString("ollama.base_url"),
			Model:   viper.GetString("ollama.model"),
			Timeout: viper.GetInt("ollama.timeout"),
		},
		Google: GoogleConfig{
			Endpoint: viper.GetString("google.endpoint"),
			Timeout:  viper.GetInt("google.timeout"),
		},
		Renderer: RendererConfig{
			ServiceURL: viper.GetString("renderer.service_url"),
			Timeout:    viper.GetInt("renderer.timeout"),
		},
	}

	return cfg, nil
}
