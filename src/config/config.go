package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	MongoURI    string
	DBName      string
	JWTSecret   string
	Environment string
	CORSOrigins string
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:        os.Getenv("PORT"),
		MongoURI:    os.Getenv("MONGO_URI"),
		DBName:      os.Getenv("DB_NAME"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Environment: os.Getenv("ENV"),
		CORSOrigins: os.Getenv("CORS_ORIGINS"),
	}

	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if cfg.DBName == "" {
		cfg.DBName = "studyhub"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.CORSOrigins == "" {
		cfg.CORSOrigins = "http://localhost:5173"
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required but not set")
	}

	return cfg, nil
}
