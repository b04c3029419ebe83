package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr       string
	BackendURL       string
	BackendTimeout   time.Duration
	PageSize         int
	FavoritesBackend string
	DBPath           string
	FavoritesDir     string
	RedisAddr        string
	VisitorCacheSize int
	VisitorTTL       time.Duration
	LogLevel         string
	LogFile          string
	LogFormat        string
	TestMode         bool
}

// Load reads configuration from the environment. A .env file in the working
// directory, if present, is loaded first; variables already set win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8081"),
		BackendURL:       getEnv("BACKEND_URL", "http://localhost:8080/api"),
		BackendTimeout:   getDuration("BACKEND_TIMEOUT", 10*time.Second),
		PageSize:         getInt("PAGE_SIZE", 12),
		FavoritesBackend: getEnv("FAVORITES_BACKEND", "sqlite"),
		DBPath:           getEnv("DB_PATH", "/data/induoweb.db"),
		FavoritesDir:     getEnv("FAVORITES_DIR", "/data/favorites"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		VisitorCacheSize: getInt("VISITOR_CACHE_SIZE", 10000),
		VisitorTTL:       getDuration("VISITOR_TTL", 24*time.Hour),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		TestMode:         os.Getenv("INDUO_TEST_MODE") == "1",
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
