package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string

	// payment provider settings
	IyzicoAPIKey    string
	IyzicoSecretKey string
	IyzicoBaseURL   string

	// SiteURL is the externally reachable base URL used to build the
	// provider callback address.
	SiteURL string

	// CancelWindow limits refunds to orders younger than this,
	// measured from order creation.
	CancelWindow time.Duration

	// RefundRestock controls whether a successful refund credits the
	// debited stock back to the variants.
	RefundRestock bool
}

func Load() Config {
	cfg := Config{
		Addr:            getenv("APP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		IyzicoAPIKey:    os.Getenv("IYZICO_API_KEY"),
		IyzicoSecretKey: os.Getenv("IYZICO_SECRET_KEY"),
		IyzicoBaseURL:   getenv("IYZICO_BASE_URL", "https://sandbox-api.iyzipay.com"),
		SiteURL:         getenv("SITE_URL", "http://localhost:8080"),
		CancelWindow:    24 * time.Hour,
		RefundRestock:   true,
	}

	if v := os.Getenv("CANCEL_WINDOW_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			cfg.CancelWindow = time.Duration(hours) * time.Hour
		}
	}
	if v := os.Getenv("REFUND_RESTOCK"); v != "" {
		cfg.RefundRestock = v != "0" && v != "false"
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
