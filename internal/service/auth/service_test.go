package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/querypilot/backend/internal/store"
)

func newTestService(st store.Store) *Service {
	return NewService(st, "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(store.NewMemoryStore())

	account, token, err := svc.Register("Ada@Example.com", "Ada", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", account.Email)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	logged, _, err := svc.Login("ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != account.ID {
		t.Fatalf("login returned id %q, want %q", logged.ID, account.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(store.NewMemoryStore())

	if _, _, err := svc.Register("ada@example.com", "Ada", "hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, _, err := svc.Register("ADA@example.com", "Other", "different")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(store.NewMemoryStore())
	if _, _, err := svc.Register("ada@example.com", "Ada", "hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, err := svc.Login("ada@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	_, _, err = svc.Login("nobody@example.com", "hunter2")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateToken(t *testing.T) {
	svc := newTestService(store.NewMemoryStore())
	account, token, err := svc.Register("ada@example.com", "Ada", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != account.ID || claims.Email != account.Email {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := svc.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRejectedAcrossSecrets(t *testing.T) {
	st := store.NewMemoryStore()
	_, token, err := newTestService(st).Register("ada@example.com", "Ada", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	other := NewService(store.NewMemoryStore(), "different-secret", time.Hour)
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestUsersSurviveRestart(t *testing.T) {
	st := store.NewMemoryStore()

	first := newTestService(st)
	account, _, err := first.Register("ada@example.com", "Ada", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	second := newTestService(st)
	found, err := second.FindByID(account.ID)
	if err != nil {
		t.Fatalf("FindByID after restart: %v", err)
	}
	if found.Email != "ada@example.com" {
		t.Fatalf("email = %q", found.Email)
	}
	if _, _, err := second.Login("ada@example.com", "hunter2"); err != nil {
		t.Fatalf("Login after restart: %v", err)
	}
}

func TestMalformedUsersBlobCleared(t *testing.T) {
	st := store.NewMemoryStore()
	if err := st.Set(usersKey, "{broken"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	svc := newTestService(st)
	if _, err := svc.FindByID("anything"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if _, found, _ := st.Get(usersKey); found {
		t.Fatal("malformed blob should have been cleared")
	}
}
