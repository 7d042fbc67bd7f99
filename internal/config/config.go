package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"galla/backend/internal/domain"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ShopTimezone          string
	TaxRatePercent        decimal.Decimal
	AuthSecret            string
	AccessTokenTTLMinutes int
	ManagerPIN            string
	PrinterAddr           string
	SummaryCacheTTL       time.Duration
	LockTTL               time.Duration
	LogLevel              string
	LogFormat             string
	RefundPolicy          domain.RefundPolicy
}

// Load reads the environment. A .env file is merged by the caller through
// godotenv before Load runs, so viper only needs AutomaticEnv here.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SHOP_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("TAX_RATE_PERCENT", "5")
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("SUMMARY_CACHE_TTL_SECONDS", 15)
	v.SetDefault("LOCK_TTL_SECONDS", 30)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("REFUND_TENDER", string(domain.RefundCash))
	v.SetDefault("REFUND_INCLUDES_TAX", false)

	taxRate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("TAX_RATE_PERCENT")))
	if err != nil || taxRate.IsNegative() {
		taxRate = decimal.NewFromInt(5)
	}
	tokenTTL := v.GetInt("ACCESS_TOKEN_TTL_MINUTES")
	if tokenTTL < 1 {
		tokenTTL = 480
	}
	summaryTTL := v.GetInt("SUMMARY_CACHE_TTL_SECONDS")
	if summaryTTL < 0 {
		summaryTTL = 15
	}
	lockTTL := v.GetInt("LOCK_TTL_SECONDS")
	if lockTTL < 1 {
		lockTTL = 30
	}

	tender := domain.RefundTender(strings.ToLower(strings.TrimSpace(v.GetString("REFUND_TENDER"))))
	if tender != domain.RefundOriginal {
		tender = domain.RefundCash
	}

	return Config{
		Port:                  v.GetString("PORT"),
		AllowedOrigin:         v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:           strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisAddr:             strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		ShopTimezone:          v.GetString("SHOP_TIMEZONE"),
		TaxRatePercent:        taxRate,
		AuthSecret:            strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		ManagerPIN:            strings.TrimSpace(v.GetString("MANAGER_PIN")),
		PrinterAddr:           strings.TrimSpace(v.GetString("PRINTER_ADDR")),
		SummaryCacheTTL:       time.Duration(summaryTTL) * time.Second,
		LockTTL:               time.Duration(lockTTL) * time.Second,
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             v.GetString("LOG_FORMAT"),
		RefundPolicy: domain.RefundPolicy{
			Tender:     tender,
			IncludeTax: v.GetBool("REFUND_INCLUDES_TAX"),
		},
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves the shop timezone used to bucket business days.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ShopTimezone)
}
