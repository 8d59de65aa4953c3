package session

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestSubjectFromToken(t *testing.T) {
	id := uuid.New()

	got, err := SubjectFromToken(jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": id.String()}))
	if err != nil || got != id {
		t.Fatalf("got %v, %v; want %v", got, err, id)
	}

	if _, err := SubjectFromToken(nil); !errors.Is(err, ErrNoUser) {
		t.Fatalf("nil token err = %v", err)
	}
	if _, err := SubjectFromToken(jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{})); err == nil {
		t.Fatal("token without sub accepted")
	}
	if _, err := SubjectFromToken(jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "nope"})); err == nil {
		t.Fatal("malformed sub accepted")
	}
}
