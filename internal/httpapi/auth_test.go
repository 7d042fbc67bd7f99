package httpapi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"galla/backend/internal/domain"
	"galla/backend/internal/logging"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
	err     error
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {Username: "admin", Password: "admin123", Role: "admin", Active: true, CreatedAt: time.Now().UTC()},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, "739154", store, logging.Discard())
	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "Admin ", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != "admin" || resp.AccessToken == "" {
		t.Fatalf("unexpected login response %+v", resp)
	}

	users, _ := store.ListUsers(context.Background())
	if len(users) != 1 || users[0].Password == "admin123" || !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected password to be upgraded to a bcrypt hash, got %+v", users)
	}
}

func TestLoginRejectsInactiveAndWrongPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"ravi": {Username: "ravi", Password: "cashier123", Role: "cashier", Active: false},
		},
	}
	manager := NewAuthManager("test-secret", time.Hour, "739154", store, logging.Discard())

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "ravi", Password: "nope"}); !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "ravi", Password: "cashier123"}); err == nil {
		t.Fatalf("expected inactive account to be rejected")
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "x"}); !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestLoginSurvivesUserStoreOutage(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {Username: "admin", Password: "admin123", Role: "admin", Active: true},
		},
	}
	manager := NewAuthManager("test-secret", time.Hour, "739154", store, logging.Discard())
	store.err = errors.New("connection refused")

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("cached credentials should still work: %v", err)
	}
}

func TestTokenRoundTripAndForeignSecret(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, "739154", nil, logging.Discard())
	resp, err := manager.IssueToken("asha", "cashier")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "asha" || actor.Role != "cashier" {
		t.Fatalf("unexpected actor %+v", actor)
	}

	other := NewAuthManager("another-secret", time.Hour, "739154", nil, logging.Discard())
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	expired := NewAuthManager("test-secret", time.Nanosecond, "739154", nil, logging.Discard())
	stale, _ := expired.IssueToken("asha", "cashier")
	time.Sleep(1100 * time.Millisecond)
	if _, err := manager.ParseToken(stale.AccessToken); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestManagerPINIsHashedAndStillValidates(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, "654321", &userStoreStub{users: map[string]domain.UserAccount{}}, logging.Discard())

	if manager.managerPIN == "654321" {
		t.Fatalf("expected manager pin to be stored as hash, got plain-text")
	}
	if !manager.ValidateManagerPIN("654321") {
		t.Fatalf("expected manager pin validation to succeed")
	}
	if manager.ValidateManagerPIN("111111") || manager.ValidateManagerPIN("") {
		t.Fatalf("expected wrong manager pin to fail")
	}
}

func TestIssueTokenRejectsUnknownRole(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, "739154", nil, logging.Discard())
	if _, err := manager.IssueToken("asha", "owner"); !errors.Is(err, errUnknownRole) {
		t.Fatalf("expected errUnknownRole, got %v", err)
	}
}
