package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost   string
	HTTPPort  string
	AppEnv    string
	LogLevel  string
	LogFormat string

	BcryptCost int

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// Redis кэширует bearer-токены. При пустом Addr кэш выключен.
	Redis struct {
		Addr     string
		Password string
		TokenTTL time.Duration
	}

	// При пустом KafkaBrokers события тикетов не отправляются.
	KafkaBrokers     []string
	KafkaTopicTicket string

	LLM struct {
		BaseURL string
		APIKey  string
		Model   string
		Timeout time.Duration
	}

	Crew struct {
		MediaDir     string
		ChunkSize    int
		ChunkOverlap int
		TopK         int
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:          getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:         firstEnv("APP_PORT", "HTTP_PORT", "8000"),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		KafkaBrokers:     ParseList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTicket: getEnv("KAFKA_TOPIC_TICKET", "helpdesk.tickets"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "helpdesk")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", "https://api.openai.com/v1")
	cfg.LLM.APIKey = firstEnv("LLM_API_KEY", "OPENAI_API_KEY", "")
	cfg.LLM.Model = getEnv("LLM_MODEL", "gpt-4o-mini")

	cfg.Crew.MediaDir = getEnv("CREW_MEDIA_DIR", "media")

	var err error
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 0); err != nil {
		return nil, err
	}
	if cfg.Redis.TokenTTL, err = getDuration("TOKEN_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LLM.Timeout, err = getDuration("LLM_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.Crew.ChunkSize, err = getInt("CREW_CHUNK_SIZE", 1200); err != nil {
		return nil, err
	}
	if cfg.Crew.ChunkOverlap, err = getInt("CREW_CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.Crew.TopK, err = getInt("CREW_TOP_K", 4); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.IsProduction() && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if c.IsProduction() && c.LLM.APIKey == "" {
		return errors.New("config: in production LLM_API_KEY (or OPENAI_API_KEY) is required")
	}
	if c.Crew.ChunkSize <= 0 {
		return errors.New("config: CREW_CHUNK_SIZE must be positive")
	}
	if c.Crew.ChunkOverlap < 0 || c.Crew.ChunkOverlap >= c.Crew.ChunkSize {
		return errors.New("config: CREW_CHUNK_OVERLAP must be in [0, CREW_CHUNK_SIZE)")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// ParseList разбивает "a,b , c" на ["a","b","c"], пустые элементы отбрасываются.
func ParseList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
