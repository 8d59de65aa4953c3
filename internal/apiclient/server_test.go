package apiclient_test

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/apiclient"
	"github.com/decisioniq/decisioniq-api/internal/assistant"
	"github.com/decisioniq/decisioniq-api/internal/config"
	"github.com/decisioniq/decisioniq-api/internal/database/dbtest"
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/handlers"
	"github.com/decisioniq/decisioniq-api/internal/routes"
	"github.com/decisioniq/decisioniq-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type cannedGenerator struct{ reply string }

func (g cannedGenerator) Generate(context.Context, string, string) (string, error) {
	return g.reply, nil
}

func (cannedGenerator) Close() error { return nil }

// startServer runs the real API on a loopback port.
func startServer(t *testing.T) (*apiclient.Client, *handlers.ChatHandler) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:      "client-test-secret",
		JWTExpiry:      time.Hour,
		ModelProvider:  "gemini",
		GeminiModel:    "gemini-2.5-flash",
		AITimeout:      5 * time.Second,
		UploadMaxBytes: 1 << 20,
	}
	db := dbtest.Open(t)

	gen := cannedGenerator{reply: "```json\n{\"isChartResponse\":true,\"introText\":\"Pick A\",\"priceData\":[{\"name\":\"A\",\"value\":10}]}\n```"}
	authService := services.NewAuthService(db, cfg)
	historyService := services.NewHistoryService(db)
	assistantService := assistant.NewService(gen, cfg)
	chat := handlers.NewChatHandler(assistantService, historyService, db)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler, DisableStartupMessage: true})
	routes.Setup(app, cfg, authService,
		handlers.NewAuthHandler(authService, db),
		handlers.NewHistoryHandler(historyService, db),
		chat,
		handlers.NewUploadHandler(assistantService, db, cfg.UploadMaxBytes),
		handlers.NewHealthHandler(db),
	)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		chat.Wait()
		_ = app.Shutdown()
	})

	return apiclient.New("http://"+ln.Addr().String(), nil), chat
}

func TestClientAgainstServer(t *testing.T) {
	client, chat := startServer(t)
	ctx := context.Background()

	health, err := client.Health(ctx)
	if err != nil || health.Status != "ok" {
		t.Fatalf("health = %+v, %v", health, err)
	}

	if _, err := client.History(ctx); !apiclient.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("anonymous history = %v", err)
	}

	auth, err := client.Register(ctx, dto.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	client.SetToken(auth.Token)

	if _, err := client.Register(ctx, dto.RegisterRequest{Name: "Ada", Email: "ADA@example.com", Password: "password123"}); !apiclient.IsStatus(err, http.StatusConflict) {
		t.Fatalf("duplicate register = %v", err)
	}

	resp, err := client.Ask(ctx, dto.ChatRequest{Query: "Which one?"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if resp.IntroText != "Pick A" || !resp.HasValues() {
		t.Fatalf("ask = %+v", resp)
	}
	chat.Wait()

	saved, err := client.SaveHistory(ctx, "Uploaded sales.xlsx", *resp, "")
	if err != nil || saved.Category != "All" {
		t.Fatalf("save = %+v, %v", saved, err)
	}

	entries, err := client.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected chat and manual save, got %d", len(entries))
	}
	if entries[0].Query != "Uploaded sales.xlsx" || entries[1].Query != "Which one?" {
		t.Fatalf("order = %q, %q", entries[0].Query, entries[1].Query)
	}
	if entries[1].Response.IntroText != "Pick A" {
		t.Fatalf("stored response = %+v", entries[1].Response)
	}

	if err := client.DeleteHistory(ctx, entries[0].ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := client.DeleteHistory(ctx, entries[0].ID.String()); !apiclient.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("second delete = %v", err)
	}
	if err := client.ClearHistory(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if err := client.UpdatePassword(ctx, "wrong-pass", "newpassword1"); !apiclient.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("wrong current password = %v", err)
	}
	if err := client.UpdatePassword(ctx, "password123", "newpassword1"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := client.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "newpassword1"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	models, err := client.Models(ctx)
	if err != nil || models.Default != "gemini-2.5-flash" {
		t.Fatalf("models = %+v, %v", models, err)
	}
}
