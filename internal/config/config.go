package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Env      string
	HTTPAddr string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	RedisAddr string
	RedisPass string

	KafkaBrokers []string
	ProfileTopic string

	UploadDir         string
	MaxPhotoBytes     int64
	MaxPhotoDimension int

	JWTSecret string
	JWTTTL    time.Duration

	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
}

// Load reads the configuration from the environment, optionally seeded from
// a .env file in the working directory.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("profile-service: no .env file found, relying on system env vars")
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		log.Printf("invalid value for JWT_TTL: %v", err)
		ttl = 24 * time.Hour
	}

	return AppConfig{
		Env:               getEnv("ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":3000"),
		DBHost:            getEnv("DB_HOST", "127.0.0.1"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBUser:            getEnv("DB_USER", "root"),
		DBPass:            getEnv("DB_PASS", ""),
		DBName:            getEnv("DB_NAME", "profile-db"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         getEnv("REDIS_PASS", ""),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "")),
		ProfileTopic:      getEnv("KAFKA_PROFILE_TOPIC", "profile-topic"),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		MaxPhotoBytes:     int64(getInt("MAX_PHOTO_BYTES", 1<<20)),
		MaxPhotoDimension: getInt("MAX_PHOTO_DIMENSION", 512),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		JWTTTL:            ttl,
		RateLimit:         getFloat("RATE_LIMIT", 5),
		RateBurst:         getInt("RATE_BURST", 10),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

// DSN returns the go-sql-driver/mysql connection string.
func (c AppConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
