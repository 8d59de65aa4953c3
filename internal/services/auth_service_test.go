package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/config"
	"github.com/decisioniq/decisioniq-api/internal/database/dbtest"
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour}
	return NewAuthService(dbtest.Open(t), cfg)
}

func TestRegisterThenLogin(t *testing.T) {
	svc := newAuthService(t)

	reg, err := svc.Register(&dto.RegisterRequest{Name: "Ada", Email: " Ada@Example.com ", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Token == "" || reg.Email != "ada@example.com" || reg.ID == uuid.Nil {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	login, err := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.ID != reg.ID || login.Token == "" {
		t.Fatalf("login returned %+v", login)
	}

	token, err := jwt.Parse(login.Token, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	sub, err := session.SubjectFromToken(token)
	if err != nil || sub != reg.ID {
		t.Fatalf("token subject = %v, %v", sub, err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)
	req := &dto.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"}
	if _, err := svc.Register(req); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	req.Email = "ADA@example.com"
	if _, err := svc.Register(req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	tests := []struct {
		name string
		req  dto.RegisterRequest
	}{
		{"missing name", dto.RegisterRequest{Email: "a@b.co", Password: "longenough"}},
		{"missing email", dto.RegisterRequest{Name: "A", Password: "longenough"}},
		{"bad email", dto.RegisterRequest{Name: "A", Email: "nope", Password: "longenough"}},
		{"short password", dto.RegisterRequest{Name: "A", Email: "a@b.co", Password: "short"}},
		{"password over 72 bytes", dto.RegisterRequest{Name: "A", Email: "a@b.co", Password: strings.Repeat("p", 80)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			if _, err := svc.Register(&tt.req); !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)
	if _, err := svc.Register(&dto.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "battery-staple"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(&dto.LoginRequest{Email: "ghost@example.com", Password: "whatever1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := newAuthService(t)
	reg, err := svc.Register(&dto.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	err = svc.UpdatePassword(reg.ID, &dto.UpdatePasswordRequest{CurrentPassword: "wrong-one", NewPassword: "battery-staple"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("err = %v, want ErrWrongPassword", err)
	}

	var verr *ValidationError
	if err := svc.UpdatePassword(reg.ID, &dto.UpdatePasswordRequest{NewPassword: "battery-staple"}); !errors.As(err, &verr) {
		t.Fatalf("missing current password err = %v", err)
	}
	if err := svc.UpdatePassword(reg.ID, &dto.UpdatePasswordRequest{CurrentPassword: "correct-horse", NewPassword: strings.Repeat("n", 73)}); !errors.As(err, &verr) {
		t.Fatalf("long new password err = %v", err)
	}

	if err := svc.UpdatePassword(reg.ID, &dto.UpdatePasswordRequest{CurrentPassword: "correct-horse", NewPassword: "battery-staple"}); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "battery-staple"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestProfileAndUserExists(t *testing.T) {
	svc := newAuthService(t)
	reg, err := svc.Register(&dto.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	p, err := svc.Profile(reg.ID)
	if err != nil || p.Name != "Ada" {
		t.Fatalf("Profile = %+v, %v", p, err)
	}
	if _, err := svc.Profile(uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown profile err = %v", err)
	}

	if ok, err := svc.UserExists(reg.ID); err != nil || !ok {
		t.Fatalf("UserExists = %v, %v", ok, err)
	}
	if ok, _ := svc.UserExists(uuid.New()); ok {
		t.Fatal("random id reported as existing")
	}
}
