package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL       string
	Port        string
	BaseToken   string
	MinDeposit  decimal.Decimal
	VenueURL    string
	VenueKey    string
	SlippageBps int64
}

// Load reads configuration from the environment, with .env as a fallback.
// PG_URL may be empty, in which case the service runs on the in-memory store.
func Load() (*Config, error) {
	// Ignore the error: a missing .env file just means env-only config.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	baseToken := os.Getenv("BASE_TOKEN")
	if baseToken == "" {
		baseToken = "USDC"
	}

	minDeposit := decimal.NewFromInt(1)
	if v := os.Getenv("MIN_DEPOSIT"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("MIN_DEPOSIT must be a decimal number: %w", err)
		}
		minDeposit = d
	}

	var slippageBps int64 = 100
	if v := os.Getenv("SLIPPAGE_BPS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("SLIPPAGE_BPS must be an integer: %w", err)
		}
		slippageBps = n
	}

	venueURL := os.Getenv("VENUE_URL")
	venueKey := os.Getenv("VENUE_KEY")
	if venueURL != "" && venueKey == "" {
		return nil, fmt.Errorf("VENUE_KEY is required when VENUE_URL is set")
	}

	return &Config{
		PGURL:       os.Getenv("PG_URL"),
		Port:        port,
		BaseToken:   baseToken,
		MinDeposit:  minDeposit,
		VenueURL:    venueURL,
		VenueKey:    venueKey,
		SlippageBps: slippageBps,
	}, nil
}
