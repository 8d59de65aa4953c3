package services

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/database/dbtest"
	"github.com/decisioniq/decisioniq-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const sampleResponse = `{"isChartResponse":true,"introText":"Compared","priceData":[{"name":"A","value":1500.5}],"extra":{"nested":[1,"two",null]}}`

func TestSaveDefaultsCategory(t *testing.T) {
	svc := NewHistoryService(dbtest.Open(t))
	user := uuid.New()

	entry, err := svc.Save(user, "best laptop?", json.RawMessage(sampleResponse), "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if entry.Category != models.DefaultCategory {
		t.Fatalf("category = %q, want All", entry.Category)
	}
	if entry.ID == uuid.Nil || entry.CreatedAt.IsZero() {
		t.Fatalf("entry missing id or timestamp: %+v", entry)
	}
}

func TestSaveResponseRoundTrip(t *testing.T) {
	svc := NewHistoryService(dbtest.Open(t))
	user := uuid.New()

	if _, err := svc.Save(user, "q", json.RawMessage(sampleResponse), "Electronics"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := svc.List(user)
	if err != nil || len(entries) != 1 {
		t.Fatalf("List = %v, %v", entries, err)
	}

	var want, got any
	if err := json.Unmarshal([]byte(sampleResponse), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(entries[0].Response, &got); err != nil {
		t.Fatalf("stored response is not JSON: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("response changed:\nwant %v\ngot  %v", want, got)
	}
	if entries[0].Category != "Electronics" {
		t.Fatalf("category = %q", entries[0].Category)
	}
}

func TestSaveValidation(t *testing.T) {
	svc := NewHistoryService(dbtest.Open(t))
	user := uuid.New()

	tests := []struct {
		name     string
		query    string
		response string
		category string
	}{
		{"blank query", "  ", sampleResponse, ""},
		{"missing response", "q", "", ""},
		{"array response", "q", `[1,2]`, ""},
		{"broken response", "q", `{"a":`, ""},
		{"long category", "q", sampleResponse, strings.Repeat("x", 51)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			if _, err := svc.Save(user, tt.query, json.RawMessage(tt.response), tt.category); !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestListNewestFirstAndScoped(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewHistoryService(db)
	alice, bob := uuid.New(), uuid.New()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, q := range []string{"first", "second", "third"} {
		e := models.HistoryEntry{
			UserID:    alice,
			Query:     q,
			Response:  datatypes.JSON(`{"introText":"x"}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&e).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := svc.Save(bob, "bob's", json.RawMessage(`{"introText":"y"}`), ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := svc.List(alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Query)
	}
	if strings.Join(got, ",") != "third,second,first" {
		t.Fatalf("order = %v", got)
	}
}

func TestClearAllIsIdempotent(t *testing.T) {
	svc := NewHistoryService(dbtest.Open(t))
	alice, bob := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.Save(alice, "q", json.RawMessage(`{"introText":"x"}`), ""); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if _, err := svc.Save(bob, "q", json.RawMessage(`{"introText":"x"}`), ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	n, err := svc.ClearAll(alice)
	if err != nil || n != 3 {
		t.Fatalf("first ClearAll = %d, %v", n, err)
	}
	n, err = svc.ClearAll(alice)
	if err != nil || n != 0 {
		t.Fatalf("second ClearAll = %d, %v", n, err)
	}
	if entries, _ := svc.List(alice); len(entries) != 0 {
		t.Fatalf("alice still has %d entries", len(entries))
	}
	if entries, _ := svc.List(bob); len(entries) != 1 {
		t.Fatalf("bob's entries touched: %d", len(entries))
	}
}

func TestDeleteOne(t *testing.T) {
	svc := NewHistoryService(dbtest.Open(t))
	alice, bob := uuid.New(), uuid.New()

	entry, err := svc.Save(alice, "q", json.RawMessage(`{"introText":"x"}`), "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := svc.DeleteOne(alice, uuid.NewString()); !errors.Is(err, ErrHistoryNotFound) {
		t.Fatalf("missing id err = %v", err)
	}
	if err := svc.DeleteOne(alice, "not-a-uuid"); !errors.Is(err, ErrHistoryNotFound) {
		t.Fatalf("malformed id err = %v", err)
	}
	if err := svc.DeleteOne(bob, entry.ID.String()); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if entries, _ := svc.List(alice); len(entries) != 1 {
		t.Fatal("entry removed by a non-owner")
	}

	if err := svc.DeleteOne(alice, entry.ID.String()); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}
	if entries, _ := svc.List(alice); len(entries) != 0 {
		t.Fatal("entry still present after delete")
	}
}
