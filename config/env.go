package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Redis        RedisConfig
	DB           DBConfig
	Auth         AuthConfig
	RevenueSplit RevenueSplitConfig
}

type DBConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  int // hours
}

// RevenueSplitConfig controls beneficiary attribution of generated
// installments for contracts touching assets of AssetType. Installments due
// on or after CutoverMonth/CutoverDay of the due date's year are attributed
// to BeneficiaryAfter, earlier ones to BeneficiaryBefore.
type RevenueSplitConfig struct {
	Enabled           bool
	AssetType         string
	CutoverMonth      int
	CutoverDay        int
	BeneficiaryBefore string
	BeneficiaryAfter  string
	Default           string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, _ := strconv.Atoi(getEnv("AUTH_TOKEN_TTL_HOURS", "12"))
	splitEnabled, _ := strconv.ParseBool(getEnv("REVENUE_SPLIT_ENABLED", "true"))
	cutoverMonth, _ := strconv.Atoi(getEnv("REVENUE_SPLIT_CUTOVER_MONTH", "8"))
	cutoverDay, _ := strconv.Atoi(getEnv("REVENUE_SPLIT_CUTOVER_DAY", "1"))

	return Config{
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			DSN: getEnv("AMLAK_DSN", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  tokenTTL,
		},
		RevenueSplit: RevenueSplitConfig{
			Enabled:           splitEnabled,
			AssetType:         getEnv("REVENUE_SPLIT_ASSET_TYPE", "fuel_station"),
			CutoverMonth:      cutoverMonth,
			CutoverDay:        cutoverDay,
			BeneficiaryBefore: getEnv("REVENUE_SPLIT_BEFORE", "association"),
			BeneficiaryAfter:  getEnv("REVENUE_SPLIT_AFTER", "investor"),
			Default:           getEnv("REVENUE_SPLIT_DEFAULT", "association"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
