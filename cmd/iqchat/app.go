package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/apiclient"
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/render"
	"github.com/decisioniq/decisioniq-api/internal/view"
)

var errQuit = errors.New("quit")

const helpText = `Type a question to ask the assistant, or one of:
  /login  /register  /logout  /password  /profile
  /history [n]          list saved queries or show entry n
  /delete <n|id>        remove a saved query
  /clear                remove all saved queries
  /upload <file.xlsx>   analyze a spreadsheet
  /save <n>             save answer #n to history
  /category [name]      set the topic filter (blank resets to All)
  /model [name]         pick a model; /models lists them
  /chart <n> <perf|value> <type>
  /tab <Dashboard|History|Profile|Settings>
  /dark  /mic  /health
  /export <n> <file.pdf>
  /quit`

type app struct {
	client     *apiclient.Client
	session    *view.Session
	transcript *view.Transcript
	prefs      view.Preferences
	prefsPath  string
	speech     *view.Speech
	in         *bufio.Scanner
	out        io.Writer

	history []apiclient.HistoryEntry
}

func (a *app) run(ctx context.Context) error {
	a.printf("Decision IQ. Type /help for commands.\n")
	if u := a.session.User(); u != nil {
		a.printf("Signed in as %s <%s>.\n", u.Name, u.Email)
	} else {
		a.printf("Not signed in. Use /login or /register.\n")
	}

	for {
		a.printf("[%s|%s] > ", a.prefs.Tab, a.prefs.Category)
		if !a.in.Scan() {
			if err := a.in.Err(); err != nil {
				return err
			}
			return nil
		}
		line := strings.TrimSpace(a.in.Text())

		if line == "" {
			if draft := a.speech.TakeDraft(); draft != "" {
				a.printf("(voice) %s\n", draft)
				line = draft
			} else {
				continue
			}
		}

		var err error
		if strings.HasPrefix(line, "/") {
			err = a.command(ctx, line)
		} else {
			err = a.ask(ctx, line)
		}
		if errors.Is(err, errQuit) {
			return err
		}
		if err != nil {
			a.printf("Error: %s\n", describe(err))
		}
	}
}

func (a *app) command(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/help":
		a.printf("%s\n", helpText)
	case "/quit", "/exit":
		return errQuit
	case "/login":
		return a.login(ctx)
	case "/register":
		return a.register(ctx)
	case "/logout":
		return a.logout()
	case "/password":
		return a.changePassword(ctx)
	case "/profile":
		return a.switchTab(ctx, view.TabProfile)
	case "/history":
		if len(args) == 0 {
			return a.switchTab(ctx, view.TabHistory)
		}
		return a.showHistory(args[0])
	case "/delete":
		if len(args) != 1 {
			return errors.New("usage: /delete <n|id>")
		}
		return a.deleteHistory(ctx, args[0])
	case "/clear":
		return a.clearHistory(ctx)
	case "/upload":
		if len(args) != 1 {
			return errors.New("usage: /upload <file.xlsx>")
		}
		return a.upload(ctx, args[0])
	case "/save":
		if len(args) != 1 {
			return errors.New("usage: /save <n>")
		}
		return a.save(ctx, args[0])
	case "/category":
		a.prefs.SetCategory(strings.Join(args, " "))
		a.printf("Category: %s\n", a.prefs.Category)
		a.savePrefs()
	case "/model":
		return a.setModel(ctx, args)
	case "/models":
		return a.listModels(ctx)
	case "/chart":
		if len(args) != 3 {
			return errors.New("usage: /chart <n> <perf|value> <type>")
		}
		return a.setChart(args[0], args[1], args[2])
	case "/tab":
		if len(args) != 1 {
			return errors.New("usage: /tab <Dashboard|History|Profile|Settings>")
		}
		tab, err := view.ParseTab(args[0])
		if err != nil {
			return err
		}
		return a.switchTab(ctx, tab)
	case "/dark":
		if a.prefs.ToggleDark() {
			a.printf("Dark mode on.\n")
		} else {
			a.printf("Dark mode off.\n")
		}
		a.savePrefs()
	case "/mic":
		return a.toggleMic()
	case "/export":
		if len(args) != 2 {
			return errors.New("usage: /export <n> <file.pdf>")
		}
		return a.export(args[0], args[1])
	case "/health":
		return a.health(ctx)
	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
	return nil
}

func (a *app) ask(ctx context.Context, query string) error {
	if !a.session.Authenticated() {
		return view.ErrLoginRequired
	}
	if err := a.transcript.BeginSend(); err != nil {
		return err
	}
	defer a.transcript.EndSend()

	a.transcript.AddUser(query)
	a.printf("Thinking...\n")

	reqCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	resp, err := a.client.Ask(reqCtx, dto.ChatRequest{
		Query:    query,
		Category: a.prefs.Category,
		Model:    a.prefs.Model,
	})
	if err != nil {
		return err
	}
	a.showAnswer(a.transcript.AddAssistant(*resp))
	return nil
}

func (a *app) upload(ctx context.Context, path string) error {
	if !a.session.Authenticated() {
		return view.ErrLoginRequired
	}
	if err := a.transcript.BeginSend(); err != nil {
		return err
	}
	defer a.transcript.EndSend()

	a.transcript.AddUser("Uploaded " + path)
	a.printf("Analyzing %s...\n", path)

	reqCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	resp, err := a.client.UploadDataset(reqCtx, path)
	if err != nil {
		return err
	}
	a.showAnswer(a.transcript.AddAssistant(*resp))
	return nil
}

func (a *app) showAnswer(idx int) {
	msg, ok := a.transcript.Message(idx)
	if !ok || msg.Response == nil {
		return
	}
	a.printf("\n#%d\n", idx+1)
	if err := render.Text(a.out, *msg.Response, render.Options{Charts: msg.Charts, Dark: a.prefs.DarkMode}); err != nil {
		slog.Warn("render failed", "error", err.Error())
	}
	a.printf("\n")
}

func (a *app) login(ctx context.Context) error {
	email := a.prompt("Email: ")
	password := a.prompt("Password: ")
	resp, err := a.client.Login(ctx, dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	return a.signIn(resp)
}

func (a *app) register(ctx context.Context) error {
	name := a.prompt("Name: ")
	email := a.prompt("Email: ")
	password := a.prompt("Password: ")
	resp, err := a.client.Register(ctx, dto.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	return a.signIn(resp)
}

func (a *app) signIn(resp *dto.AuthResponse) error {
	if err := a.session.Login(resp.Token, view.User{ID: resp.ID, Name: resp.Name, Email: resp.Email}); err != nil {
		return err
	}
	a.client.SetToken(resp.Token)
	a.printf("Welcome, %s.\n", resp.Name)
	return nil
}

func (a *app) logout() error {
	a.client.SetToken("")
	a.history = nil
	a.prefs.OnLogout()
	a.savePrefs()
	if err := a.session.Logout(); err != nil {
		return err
	}
	a.printf("Signed out.\n")
	return nil
}

func (a *app) changePassword(ctx context.Context) error {
	if !a.session.Authenticated() {
		return view.ErrLoginRequired
	}
	current := a.prompt("Current password: ")
	next := a.prompt("New password: ")
	if err := a.client.UpdatePassword(ctx, current, next); err != nil {
		return err
	}
	a.printf("Password updated.\n")
	return nil
}

func (a *app) switchTab(ctx context.Context, tab view.Tab) error {
	if err := a.prefs.SwitchTab(tab, a.session.Authenticated()); err != nil {
		return err
	}
	a.savePrefs()

	switch tab {
	case view.TabHistory:
		return a.listHistory(ctx)
	case view.TabProfile:
		p, err := a.client.Profile(ctx)
		if err != nil {
			return err
		}
		a.printf("Name:    %s\nEmail:   %s\nJoined:  %s\n", p.Name, p.Email, p.CreatedAt.Format("2006-01-02"))
	case view.TabSettings:
		model := a.prefs.Model
		if model == "" {
			model = "(server default)"
		}
		a.printf("Dark mode: %t\nCategory:  %s\nModel:     %s\nVoice:     %s\n", a.prefs.DarkMode, a.prefs.Category, model, a.speech.State())
	default:
		a.printf("%d messages in this conversation.\n", a.transcript.Len())
	}
	return nil
}

func (a *app) listHistory(ctx context.Context) error {
	if !a.session.Authenticated() {
		return view.ErrLoginRequired
	}
	entries, err := a.client.History(ctx)
	if err != nil {
		return err
	}
	a.history = entries
	if len(entries) == 0 {
		a.printf("No saved queries.\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tWHEN\tCATEGORY\tQUERY")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Category, e.Query)
	}
	return tw.Flush()
}

func (a *app) showHistory(arg string) error {
	e, err := a.historyEntry(arg)
	if err != nil {
		return err
	}
	a.printf("Q: %s\n\n", e.Query)
	return render.Text(a.out, e.Response, render.Options{Charts: view.DefaultChartPrefs(), Dark: a.prefs.DarkMode})
}

func (a *app) deleteHistory(ctx context.Context, arg string) error {
	if !a.session.Authenticated() {
		return view.ErrLoginRequired
	}
	id := arg
	if e, err := a.historyEntry(arg); err == nil {
		id = e.ID.String()
	}
	if err := a.client.DeleteHistory(ctx, id); err != nil {
		return err
	}
	a.printf("Removed.\n")
	return a.listHistory(ctx)
}

func (a *app) clearHistory(ctx context.Context) error {
	if !a.session.Authenticated() {
		return view.ErrLoginRequired
	}
	if !strings.EqualFold(a.prompt("Clear all history? [y/N] "), "y") {
		return nil
	}
	if err := a.client.ClearHistory(ctx); err != nil {
		return err
	}
	a.history = nil
	a.printf("History cleared.\n")
	return nil
}

// historyEntry resolves a 1-based position in the last listing.
func (a *app) historyEntry(arg string) (apiclient.HistoryEntry, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(a.history) {
		return apiclient.HistoryEntry{}, fmt.Errorf("no history entry %s (run /history first)", arg)
	}
	return a.history[n-1], nil
}

func (a *app) save(ctx context.Context, arg string) error {
	if !a.session.Authenticated() {
		return view.ErrLoginRequired
	}
	idx, msg, err := a.answer(arg)
	if err != nil {
		return err
	}
	entry, err := a.client.SaveHistory(ctx, a.queryFor(idx), *msg.Response, a.prefs.Category)
	if err != nil {
		return err
	}
	a.printf("Saved as %s.\n", entry.ID)
	return nil
}

func (a *app) setModel(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.prefs.Model = ""
		a.printf("Using the server default model.\n")
		a.savePrefs()
		return nil
	}
	if a.session.Authenticated() {
		models, err := a.client.Models(ctx)
		if err != nil {
			return err
		}
		if !slices.Contains(models.Models, args[0]) {
			return fmt.Errorf("model %s is not available (%s)", args[0], strings.Join(models.Models, ", "))
		}
	}
	a.prefs.Model = args[0]
	a.printf("Model: %s\n", a.prefs.Model)
	a.savePrefs()
	return nil
}

func (a *app) listModels(ctx context.Context) error {
	if !a.session.Authenticated() {
		return view.ErrLoginRequired
	}
	models, err := a.client.Models(ctx)
	if err != nil {
		return err
	}
	for _, m := range models.Models {
		mark := " "
		if m == models.Default {
			mark = "*"
		}
		a.printf("%s %s\n", mark, m)
	}
	a.printf("Categories: %s\n", strings.Join(models.Categories, ", "))
	return nil
}

func (a *app) setChart(n, kind, chart string) error {
	idx, _, err := a.answer(n)
	if err != nil {
		return err
	}
	switch strings.ToLower(kind) {
	case "perf", "performance":
		c, err := view.ParsePerformanceChart(chart)
		if err != nil {
			return err
		}
		err = a.transcript.SetPerformanceChart(idx, c)
		if err != nil {
			return err
		}
	case "value", "price":
		c, err := view.ParseValueChart(chart)
		if err != nil {
			return err
		}
		err = a.transcript.SetValueChart(idx, c)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown chart kind %q (perf, value)", kind)
	}
	a.showAnswer(idx)
	return nil
}

func (a *app) toggleMic() error {
	if err := a.speech.Toggle(); err != nil {
		return err
	}
	switch a.speech.State() {
	case view.SpeechListening:
		a.printf("Listening... press Enter when you have finished speaking, or /mic to cancel.\n")
	default:
		a.printf("Microphone off.\n")
	}
	return nil
}

func (a *app) export(n, path string) error {
	idx, msg, err := a.answer(n)
	if err != nil {
		return err
	}
	data, err := render.PDF(render.Report{
		Query:       a.queryFor(idx),
		Category:    a.prefs.Category,
		Response:    *msg.Response,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	a.printf("Wrote %s.\n", path)
	return nil
}

func (a *app) health(ctx context.Context) error {
	h, err := a.client.Health(ctx)
	if err != nil {
		return err
	}
	a.printf("Status: %s, database %s, up %.0fs\n", h.Status, h.Database.State, h.Uptime)
	return nil
}

// answer resolves a 1-based message number to an assistant message.
func (a *app) answer(arg string) (int, view.Message, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		return 0, view.Message{}, fmt.Errorf("%q is not a message number", arg)
	}
	msg, ok := a.transcript.Message(n - 1)
	if !ok || msg.Role != view.RoleAssistant || msg.Response == nil {
		return 0, view.Message{}, fmt.Errorf("#%d is not an answer", n)
	}
	return n - 1, msg, nil
}

// queryFor returns the user message that produced the answer at idx.
func (a *app) queryFor(idx int) string {
	if prev, ok := a.transcript.Message(idx - 1); ok && prev.Role == view.RoleUser {
		return prev.Text
	}
	return "Answer #" + strconv.Itoa(idx+1)
}

func (a *app) prompt(label string) string {
	a.printf("%s", label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *app) savePrefs() {
	if a.prefsPath == "" {
		return
	}
	if err := view.SavePreferences(a.prefsPath, a.prefs); err != nil {
		slog.Warn("could not save preferences", "error", err.Error())
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func describe(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return apiErr.Message + " (try /login)"
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return err.Error()
}
