package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	AI      AIConfig
	Latency LatencyConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	latency, err := loadLatencyConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Storage: storage,
		Auth:    auth,
		AI:      loadAIConfig(),
		Latency: latency,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Backend       string // memory | file | redis
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func loadStorageConfig() (StorageConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", "file"))
	switch backend {
	case "memory", "file", "redis":
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_BACKEND value: %q", backend)
	}

	db, err := parseOptionalIntEnv("REDIS_DB")
	if err != nil {
		return StorageConfig{}, err
	}
	redisDB := 0
	if db != nil {
		redisDB = *db
	}

	return StorageConfig{
		Backend:       backend,
		DataDir:       getEnvOrDefault("DATA_DIR", "./data"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		RedisDB:       redisDB,
	}, nil
}

// AuthConfig holds token-signing settings.
type AuthConfig struct {
	Secret       string
	AccessExpire time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	expire := 24 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("JWT_ACCESS_EXPIRE")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("invalid JWT_ACCESS_EXPIRE value %q: %w", raw, err)
		}
		expire = parsed
	}

	return AuthConfig{
		Secret:       getEnvOrDefault("JWT_SECRET", "querypilot-dev-secret-change-me"),
		AccessExpire: expire,
	}, nil
}

// LatencyConfig sets the simulated translation/execution delays.
type LatencyConfig struct {
	Generation time.Duration
	Execution  time.Duration
}

func loadLatencyConfig() (LatencyConfig, error) {
	generation, err := parseOptionalIntEnv("GENERATION_DELAY_MS")
	if err != nil {
		return LatencyConfig{}, err
	}
	execution, err := parseOptionalIntEnv("EXECUTION_DELAY_MS")
	if err != nil {
		return LatencyConfig{}, err
	}

	cfg := LatencyConfig{Generation: 1500 * time.Millisecond, Execution: time.Second}
	if generation != nil {
		cfg.Generation = time.Duration(*generation) * time.Millisecond
	}
	if execution != nil {
		cfg.Execution = time.Duration(*execution) * time.Millisecond
	}
	return cfg, nil
}

// AIConfig describes the optional LLM-backed translator.
type AIConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled reports whether the required credentials were supplied.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing; set ARK_API_KEY + ARK_MODEL or the AK/SK pair")
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	})
}

func loadAIConfig() AIConfig {
	return AIConfig{
		APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
