package config

import (
	"os"

	"campusnet/utils"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type AppConfig struct {
	HTTPAddr      string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPass     string
	JWTSecret     string

	// NotifyOnAccept makes accepting a follow request emit the same
	// notification as a direct follow.
	NotifyOnAccept bool

	EdgeRepairIntervalMinutes int
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	return AppConfig{
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8000"),
		MongoURI:                  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:             getEnv("MONGO_DATABASE", "campusnet"),
		RedisAddr:                 getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:                 getEnv("REDIS_PASS", ""),
		JWTSecret:                 getEnv("SECRET_KEY", ""),
		NotifyOnAccept:            getEnv("NOTIFY_ON_ACCEPT", "") == "true",
		EdgeRepairIntervalMinutes: utils.IntFromString(os.Getenv("EDGE_REPAIR_INTERVAL_MINUTES"), 60),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
