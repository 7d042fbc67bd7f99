// Command issue-token mints a bearer token for a terminal or script without
// a password login. It reads AUTH_SECRET from the environment like the
// server does.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"galla/backend/internal/config"
	"galla/backend/internal/httpapi"
	"galla/backend/internal/logging"
)

func main() {
	username := flag.String("user", "", "username to put in the token subject")
	role := flag.String("role", "cashier", "role claim: cashier or admin")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to ACCESS_TOKEN_TTL_MINUTES")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, "text")
	logger.SetOutput(os.Stderr)

	if strings.TrimSpace(*username) == "" {
		logger.Fatal("-user is required")
	}
	if !httpapi.ValidRole(*role) {
		logger.Fatalf("unknown role %q", *role)
	}
	if len(cfg.AuthSecret) < 32 {
		logger.Fatal("AUTH_SECRET must be set and at least 32 characters")
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, lifetime, cfg.ManagerPIN, nil, logger)
	resp, err := auth.IssueToken(strings.TrimSpace(*username), *role)
	if err != nil {
		logging.LogError(logger, "issue-token", "main", "sign token", *username, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		logger.Fatal(err)
	}
}
