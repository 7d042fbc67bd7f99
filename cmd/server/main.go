package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"galla/backend/internal/cache"
	"galla/backend/internal/config"
	"galla/backend/internal/httpapi"
	"galla/backend/internal/lock"
	"galla/backend/internal/logging"
	"galla/backend/internal/receipt"
	"galla/backend/internal/service"
	"galla/backend/internal/store"
	"galla/backend/internal/store/memory"
	pgstore "galla/backend/internal/store/postgres"
)

func main() {
	// A missing .env is normal in production; the environment is authoritative.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatalf("invalid security configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("invalid SHOP_TIMEZONE %q: %v", cfg.ShopTimezone, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 4)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatalf("postgres migration failed: %v", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		logger.Info("repository: in-memory")
	}

	var locker lock.Locker = lock.NewLocal()
	summaryCache := cache.SummaryCache(cache.NoopSummaryCache{})
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		redisCache := cache.NewRedisSummaryCache(client)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warnf("redis unavailable (%v), using in-process locks and no summary cache", err)
			_ = client.Close()
		} else {
			summaryCache = redisCache
			locker = lock.NewRedis(client, cfg.LockTTL, logger)
			closers = append(closers, redisCache.Close)
			logger.Info("locks and summary cache: redis")
		}
	} else {
		logger.Info("locks: in-process, summary cache: noop")
	}

	var printer receipt.Printer = receipt.NoopPrinter{}
	if cfg.PrinterAddr != "" {
		printer = receipt.NetworkPrinter{Addr: cfg.PrinterAddr}
		logger.WithField("addr", cfg.PrinterAddr).Info("receipt printer: network")
	}
	dispatcher := receipt.NewDispatcher(printer, logger, 32)

	svc := service.New(repo, service.Options{
		Locker:         locker,
		Cache:          summaryCache,
		SummaryTTL:     cfg.SummaryCacheTTL,
		Receipts:       dispatcher,
		Logger:         logger,
		Location:       loc,
		TaxRatePercent: cfg.TaxRatePercent,
		RefundPolicy:   cfg.RefundPolicy,
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.ManagerPIN, repo, logger)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     cfg.Address(),
			"timezone": cfg.ShopTimezone,
			"tax_rate": cfg.TaxRatePercent.String(),
		}).Info("POS backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown error: %v", err)
	}
	if err := dispatcher.Close(); err != nil {
		logger.Errorf("receipt dispatcher close error: %v", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Errorf("close error: %v", err)
		}
	}

	logger.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.ManagerPIN) < 6 {
		return fmt.Errorf("MANAGER_PIN must be set and at least 6 digits")
	}
	if err := validatePINStrength(cfg.ManagerPIN); err != nil {
		return fmt.Errorf("MANAGER_PIN is too weak: %w", err)
	}
	return nil
}

// validatePINStrength rejects PINs that are all the same digit, sequential
// (ascending or descending), or on a known-weak list.
func validatePINStrength(pin string) error {
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("PIN must be digits only")
		}
	}

	known := map[string]bool{
		"123456": true, "654321": true, "000000": true, "111111": true,
		"121212": true, "112233": true, "123123": true, "786786": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}

	return nil
}
