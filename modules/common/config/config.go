package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port string

	// Gemini API
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBackend string

	// Vertex AI (GEMINI_BACKEND=vertex 일 때만 사용)
	VertexProject         string
	VertexLocation        string
	VertexCredentialsJSON string
	VertexCredentialsPath string

	// Automation
	AutomationDelay time.Duration
	RequestTimeout  time.Duration

	// Redis (트리거 큐)
	TriggerQueueEnabled bool
	TriggerMinInterval  time.Duration
	RedisHost           string
	RedisPort           string
	RedisUsername       string
	RedisPassword       string
	RedisUseTLS         bool

	// Supabase (결과 아카이브)
	ArchiveEnabled        bool
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string
}

var globalConfig *Config

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	globalConfig = cfg

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Gemini: %s (backend: %s)", cfg.GeminiModel, cfg.GeminiBackend)
	log.Printf("   Automation delay: %v, request timeout: %v", cfg.AutomationDelay, cfg.RequestTimeout)
	if cfg.TriggerQueueEnabled {
		log.Printf("   Redis: %s (TLS: %v)", cfg.GetRedisAddr(), cfg.RedisUseTLS)
	}
	if cfg.ArchiveEnabled {
		log.Printf("   Supabase: %s (bucket: %s)", cfg.SupabaseURL, cfg.SupabaseStorageBucket)
	}

	return cfg, nil
}

// FromEnv - 현재 프로세스 환경변수로 Config 생성 (.env 로드 없음)
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-3-pro-image-preview"),
		GeminiBackend: getEnv("GEMINI_BACKEND", BackendGemini),

		VertexProject:         getEnv("VERTEXAI_PROJECT", ""),
		VertexLocation:        getEnv("VERTEXAI_LOCATION", "global"),
		VertexCredentialsJSON: getEnv("VERTEXAI_CREDENTIALS_JSON", ""),
		VertexCredentialsPath: getEnv("VERTEXAI_CREDENTIALS_PATH", ""),

		AutomationDelay: time.Duration(getEnvInt("AUTOMATION_DELAY_MS", 3000)) * time.Millisecond,
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,

		TriggerQueueEnabled: getEnvBool("TRIGGER_QUEUE_ENABLED", false),
		TriggerMinInterval:  time.Duration(getEnvInt("TRIGGER_MIN_INTERVAL_MS", 1000)) * time.Millisecond,
		RedisHost:           getEnv("REDIS_HOST", "localhost"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		RedisUsername:       getEnv("REDIS_USERNAME", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:         getEnvBool("REDIS_USE_TLS", false),

		ArchiveEnabled:        getEnvBool("ARCHIVE_ENABLED", false),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "cinecompose-renders"),
	}

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfig - 로드된 설정 가져오기
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	switch c.GeminiBackend {
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case BackendVertex:
		if c.VertexProject == "" {
			return fmt.Errorf("VERTEXAI_PROJECT is required when GEMINI_BACKEND=vertex")
		}
	default:
		return fmt.Errorf("GEMINI_BACKEND must be %q or %q, got %q", BackendGemini, BackendVertex, c.GeminiBackend)
	}
	if c.AutomationDelay <= 0 {
		return fmt.Errorf("AUTOMATION_DELAY_MS must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.TriggerQueueEnabled && c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required when TRIGGER_QUEUE_ENABLED=true")
	}
	if c.ArchiveEnabled {
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when ARCHIVE_ENABLED=true")
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required when ARCHIVE_ENABLED=true")
		}
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt - 정수 환경변수 (파싱 실패 시 기본값)
func getEnvInt(key string, defaultValue int) int {
	if str := os.Getenv(key); str != "" {
		if parsed, err := strconv.Atoi(str); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, str, defaultValue)
	}
	return defaultValue
}

// getEnvBool - bool 환경변수 (파싱 실패 시 기본값)
func getEnvBool(key string, defaultValue bool) bool {
	if str := os.Getenv(key); str != "" {
		if parsed, err := strconv.ParseBool(str); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, str, defaultValue)
	}
	return defaultValue
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
