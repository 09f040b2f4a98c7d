package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string

	// HubSpot OAuth app credentials, used for the refresh-token grant.
	HubSpotClientID     string
	HubSpotClientSecret string
	HubSpotAPIBase      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           getEnv("JWT_SECRET", "secret"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:              getEnv("DB_NAME", "ticketflo-sync"),
		SkipAuth:            getEnv("SKIP_AUTH", "false") == "true",
		Environment:         getEnv("ENVIRONMENT", "development"),
		AppId:               getEnv("APP_ID", "ticketflo-sync"),
		HubSpotClientID:     getEnv("HUBSPOT_CLIENT_ID", ""),
		HubSpotClientSecret: getEnv("HUBSPOT_CLIENT_SECRET", ""),
		HubSpotAPIBase:      getEnv("HUBSPOT_API_BASE", "https://api.hubapi.com"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
