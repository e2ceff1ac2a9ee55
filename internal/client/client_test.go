package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAnalyzeLocalCredentials(t *testing.T) {
	var captured struct {
		body    map[string]interface{}
		auth    string
		path    string
		method  string
		content string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.method = r.Method
		captured.auth = r.Header.Get("Authorization")
		captured.content = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&captured.body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":42,"title":"A Note","content":"body","original_url":"https://x.com/1","ai_viral_reasons":["hook"],"ai_improvements":["shorter"],"ai_psychology":"fomo"}}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	data, err := c.Analyze(context.Background(), "https://x.com/1", "f_1",
		Local{APIKey: "gem-key", CookieValue: "session=abc"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if captured.path != "/api/analyze" || captured.method != http.MethodPost {
		t.Errorf("request = %s %s, want POST /api/analyze", captured.method, captured.path)
	}
	if captured.auth != "" {
		t.Errorf("local mode sent Authorization header %q", captured.auth)
	}
	if captured.content != "application/json" {
		t.Errorf("Content-Type = %q", captured.content)
	}
	if captured.body["gemini_api_key"] != "gem-key" {
		t.Errorf("gemini_api_key = %v, want gem-key", captured.body["gemini_api_key"])
	}
	if captured.body["cookie_value"] != "session=abc" {
		t.Errorf("cookie_value = %v, want session=abc", captured.body["cookie_value"])
	}
	if captured.body["group_id"] != "f_1" {
		t.Errorf("group_id = %v, want f_1", captured.body["group_id"])
	}

	if data.ID.String() != "42" {
		t.Errorf("ID = %s, want 42", data.ID.String())
	}
	if data.Title != "A Note" {
		t.Errorf("Title = %q", data.Title)
	}
	if len(data.ViralReasons) != 1 || data.ViralReasons[0] != "hook" {
		t.Errorf("ViralReasons = %v", data.ViralReasons)
	}
}

func TestAnalyzeHostedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want Bearer tok-123", got)
		}

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["gemini_api_key"]; ok {
			t.Error("hosted mode leaked gemini_api_key into the payload")
		}
		if _, ok := body["cookie_value"]; ok {
			t.Error("hosted mode leaked cookie_value into the payload")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"1","title":"t","content":"c","original_url":"u"}}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	if _, err := c.Analyze(context.Background(), "https://x.com/1", "", Hosted{Token: "tok-123"}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
}

func TestDecodeErrorJSONDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"invalid cookie"}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	_, err := c.Analyze(context.Background(), "https://x.com/1", "", Hosted{Token: "t"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", apiErr.StatusCode)
	}
	if apiErr.Detail != "invalid cookie" {
		t.Errorf("Detail = %q, want %q", apiErr.Detail, "invalid cookie")
	}
}

func TestDecodeErrorHTMLTruncated(t *testing.T) {
	page := "<html><body>" + strings.Repeat("gateway timeout ", 40) + "</body></html>"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(page))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	_, err := c.Analyze(context.Background(), "https://x.com/1", "", Hosted{Token: "t"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if len(apiErr.Detail) > errBodyLimit+3 {
		t.Errorf("Detail length = %d, want at most %d plus ellipsis", len(apiErr.Detail), errBodyLimit)
	}
	if !strings.HasPrefix(apiErr.Detail, "<html><body>gateway timeout") {
		t.Errorf("Detail = %q, want prefix of the error page", apiErr.Detail)
	}
	if !strings.HasSuffix(apiErr.Detail, "...") {
		t.Errorf("Detail = %q, want truncation ellipsis", apiErr.Detail)
	}
}

func TestLoginFormEncoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token" {
			t.Errorf("path = %s, want /api/token", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want form encoding", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		if r.PostForm.Get("username") != "me@example.com" {
			t.Errorf("username = %q", r.PostForm.Get("username"))
		}
		if r.PostForm.Get("password") != "hunter2" {
			t.Errorf("password = %q", r.PostForm.Get("password"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-xyz","token_type":"bearer"}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	auth, err := c.Login(context.Background(), "me@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if auth.AccessToken != "tok-xyz" {
		t.Errorf("AccessToken = %q, want tok-xyz", auth.AccessToken)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" || r.Method != http.MethodGet {
			t.Errorf("request = %s %s, want GET /api/health", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","python_version":"3.12.1"}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if status.Status != "ok" || status.PythonVersion != "3.12.1" {
		t.Errorf("Health() = %+v", status)
	}
}
