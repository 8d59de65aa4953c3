package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/decisioniq/decisioniq-api/internal/apiclient"
	"github.com/decisioniq/decisioniq-api/internal/view"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	defaultDir := ".decisioniq"
	if dir, err := os.UserConfigDir(); err == nil {
		defaultDir = filepath.Join(dir, "decisioniq")
	}

	apiURL := flag.String("api", getEnv("IQCHAT_API", "http://localhost:4000"), "API base URL")
	configDir := flag.String("config-dir", defaultDir, "directory for the saved token and preferences")
	sttCommand := flag.String("stt", os.Getenv("IQCHAT_STT_CMD"), "speech-to-text command for /mic")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	client := apiclient.New(*apiURL, nil)
	store := view.FileTokenStore{Path: filepath.Join(*configDir, "token")}

	session, err := view.Restore(context.Background(), store, client)
	if err != nil {
		slog.Warn("could not verify saved login", "error", err.Error())
	}
	client.SetToken(session.Token())

	prefsPath := filepath.Join(*configDir, "preferences.json")
	prefs, err := view.LoadPreferences(prefsPath)
	if err != nil {
		slog.Warn("preferences reset", "error", err.Error())
	}

	var rec view.Recognizer
	if r := newCommandRecognizer(*sttCommand); r != nil {
		rec = r
	}

	a := &app{
		client:     client,
		session:    session,
		transcript: view.NewTranscript(),
		prefs:      prefs,
		prefsPath:  prefsPath,
		speech:     view.NewSpeech(rec),
		in:         bufio.NewScanner(os.Stdin),
		out:        os.Stdout,
	}
	if err := a.run(context.Background()); err != nil && !errors.Is(err, errQuit) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
