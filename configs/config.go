package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port             int    `envconfig:"port" default:"8080"`
	Env              string `envconfig:"env" default:"development"`
	DatabaseURL      string `envconfig:"database_url"`
	JWTSecret        string `envconfig:"jwt_secret" required:"true"`
	CORSAllowOrigins string `envconfig:"cors_allow_origins" default:"*"`
}

func Load() (*Config, error) {
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
