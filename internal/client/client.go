// Package client speaks the analysis backend's HTTP JSON contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"insight-cli/internal/model"
)

// errBodyLimit bounds how much of a non-JSON error page is kept as the
// error message.
const errBodyLimit = 150

// Credentials selects how a request is authorized. Exactly one of the two
// variants is ever in play; the request builder branches on the variant so
// call sites never inspect a mode flag.
type Credentials interface {
	isCredentials()
}

// Local mode: the client supplies its own AI key and session cookie in the
// request body instead of relying on a server-held account.
type Local struct {
	APIKey      string
	CookieValue string
}

// Hosted mode: a bearer token issued by /api/token.
type Hosted struct {
	Token string
}

func (Local) isCredentials()  {}
func (Hosted) isCredentials() {}

// APIError is a non-success response from the backend. Detail is either the
// decoded JSON `detail` field or a bounded prefix of a non-JSON error page.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Detail)
}

// Client talks to one backend instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client. A zero timeout falls back to 60s; analyze calls block
// on scraping plus AI inference server-side, so the default is generous.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AnalyzeData is the payload of a successful /api/analyze response.
type AnalyzeData struct {
	ID           json.Number      `json:"id"`
	Title        string           `json:"title"`
	Content      string           `json:"content"`
	OriginalURL  string           `json:"original_url"`
	CoverImage   string           `json:"cover_image"`
	Stats        *model.NoteStats `json:"stats_json,omitempty"`
	Author       *model.Author    `json:"author_json,omitempty"`
	ViralReasons []string         `json:"ai_viral_reasons"`
	Improvements []string         `json:"ai_improvements"`
	Psychology   string           `json:"ai_psychology"`
}

type analyzeRequest struct {
	URL          string `json:"url"`
	GroupID      string `json:"group_id,omitempty"`
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	CookieValue  string `json:"cookie_value,omitempty"`
}

type analyzeResponse struct {
	Data AnalyzeData `json:"data"`
}

// Analyze submits one URL for scraping and analysis. folderID may be empty
// for unfiled submissions.
func (c *Client) Analyze(ctx context.Context, postURL, folderID string, creds Credentials) (*AnalyzeData, error) {
	payload := analyzeRequest{URL: postURL, GroupID: folderID}
	if local, ok := creds.(Local); ok {
		payload.GeminiAPIKey = local.APIKey
		payload.CookieValue = local.CookieValue
	}

	req, err := c.newJSONRequest(ctx, "/api/analyze", payload, creds)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode analyze response: %w", err)
	}

	return &decoded.Data, nil
}

// AddCookie registers a session credential server-side. Best-effort in the
// caller: failures are logged, never surfaced to the user.
func (c *Client) AddCookie(ctx context.Context, token, value, note string) error {
	payload := map[string]string{"value": value, "note": note}

	req, err := c.newJSONRequest(ctx, "/api/cookies", payload, Hosted{Token: token})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cookie upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeError(resp)
	}
	return nil
}

// AuthResponse is returned by /api/token and /api/register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. The token endpoint is
// OAuth2-shaped and takes a form body, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.doAuth(req)
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, email, password, geminiAPIKey string) (*AuthResponse, error) {
	payload := map[string]string{
		"email":          email,
		"password":       password,
		"gemini_api_key": geminiAPIKey,
	}

	req, err := c.newJSONRequest(ctx, "/api/register", payload, nil)
	if err != nil {
		return nil, err
	}

	return c.doAuth(req)
}

// HealthStatus is the /api/health probe body.
type HealthStatus struct {
	Status        string `json:"status"`
	PythonVersion string `json:"python_version,omitempty"`
}

// Health probes the backend.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &status, nil
}

func (c *Client) doAuth(req *http.Request) (*AuthResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var auth AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	return &auth, nil
}

// newJSONRequest marshals payload and applies the credential variant. This
// is the single request builder both modes funnel through: Hosted sets the
// Authorization header, Local rides inside the payload the caller prepared.
func (c *Client) newJSONRequest(ctx context.Context, path string, payload interface{}, creds Credentials) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if hosted, ok := creds.(Hosted); ok {
		req.Header.Set("Authorization", "Bearer "+hosted.Token)
	}

	return req, nil
}

// decodeError turns a non-success response into an *APIError. JSON bodies
// contribute their `detail` field; anything else (an HTML error page from a
// proxy, say) degrades to a truncated text preview.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var body struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
			return &APIError{StatusCode: resp.StatusCode, Detail: body.Detail}
		}
		if len(raw) > 0 {
			return &APIError{StatusCode: resp.StatusCode, Detail: truncate(string(raw), errBodyLimit)}
		}
	}

	detail := truncate(strings.TrimSpace(string(raw)), errBodyLimit)
	if detail == "" {
		detail = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
