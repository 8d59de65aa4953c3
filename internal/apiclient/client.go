// Package apiclient is a typed HTTP client for the Decision IQ API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/decisioniq/decisioniq-api/internal/assistant"
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/view"
	"github.com/google/uuid"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// HistoryEntry is a saved query as returned by the server.
type HistoryEntry struct {
	ID        uuid.UUID          `json:"id"`
	User      uuid.UUID          `json:"user"`
	Query     string             `json:"query"`
	Response  assistant.Response `json:"response"`
	Category  string             `json:"category"`
	CreatedAt time.Time          `json:"createdAt"`
}

var spreadsheetTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client for baseURL. Requests carry no timeout of their own;
// callers cancel through the context.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*dto.UserResponse, error) {
	return c.profile(ctx, c.Token())
}

// Validate checks a token against the profile endpoint without adopting it.
// A 401 is reported as view.ErrInvalidToken.
func (c *Client) Validate(ctx context.Context, token string) (*view.User, error) {
	p, err := c.profile(ctx, token)
	if IsStatus(err, http.StatusUnauthorized) {
		return nil, fmt.Errorf("%w: %v", view.ErrInvalidToken, err)
	}
	if err != nil {
		return nil, err
	}
	return &view.User{ID: p.ID, Name: p.Name, Email: p.Email}, nil
}

func (c *Client) profile(ctx context.Context, token string) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePassword(ctx context.Context, current, next string) error {
	req := dto.UpdatePasswordRequest{CurrentPassword: current, NewPassword: next}
	return c.doJSON(ctx, http.MethodPut, "/api/auth/profile/password", c.Token(), req, nil)
}

func (c *Client) Ask(ctx context.Context, req dto.ChatRequest) (*assistant.Response, error) {
	var out assistant.Response
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", c.Token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Models(ctx context.Context) (*dto.ModelsResponse, error) {
	var out dto.ModelsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat/models", c.Token(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveHistory(ctx context.Context, query string, resp assistant.Response, category string) (*HistoryEntry, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	req := dto.SaveHistoryRequest{Query: query, Response: raw, Category: category}
	var out HistoryEntry
	if err := c.doJSON(ctx, http.MethodPost, "/api/history", c.Token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the signed-in user's entries, newest first.
func (c *Client) History(ctx context.Context) ([]HistoryEntry, error) {
	var out []HistoryEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/history", c.Token(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ClearHistory(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/history", c.Token(), nil, nil)
}

func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/history/"+id, c.Token(), nil, nil)
}

func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var out dto.HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDataset sends a workbook for analysis. The part's content type is
// chosen from the file extension.
func (c *Client) UploadDataset(ctx context.Context, path string) (*assistant.Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.UploadDatasetReader(ctx, filepath.Base(path), f)
}

func (c *Client) UploadDatasetReader(ctx context.Context, name string, r io.Reader) (*assistant.Response, error) {
	contentType, ok := spreadsheetTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		contentType = "application/octet-stream"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload/dataset", c.Token(), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out assistant.Response
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body dto.ErrorResponse
		if json.Unmarshal(data, &body) == nil && body.Message != "" {
			apiErr.Message = body.Message
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}
