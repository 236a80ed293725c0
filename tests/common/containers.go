// Package common provides shared test infrastructure.
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/stockdeck/internal/app"
	"github.com/bobmcallan/stockdeck/internal/server"
)

// EnvOptions configures the API test environment.
type EnvOptions struct {
	// DevMode enables the auth dev-mode bypass in the generated config.
	DevMode bool
}

// Env is an isolated API test environment: the full application stack over
// a containerized SurrealDB, served in-process through httptest. Each Env
// gets its own database, so tests can run in parallel against the shared
// container.
type Env struct {
	t     *testing.T
	app   *app.App
	ts    *httptest.Server
	Token string

	cleanupOnce sync.Once
}

// NewEnv creates a test environment with production-style auth: dev mode
// off, so endpoints require a real bearer token.
func NewEnv(t *testing.T) *Env {
	return NewEnvWithOptions(t, EnvOptions{})
}

// NewEnvWithOptions creates a test environment with custom options.
func NewEnvWithOptions(t *testing.T, opts EnvOptions) *Env {
	t.Helper()

	db := StartSurrealDB(t)
	if db == nil {
		return nil
	}

	a, err := app.NewApp(writeTestConfig(t, db.Address(), opts))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	env := &Env{
		t:   t,
		app: a,
		ts:  httptest.NewServer(server.NewServer(a).Handler()),
	}
	t.Cleanup(env.Cleanup)
	return env
}

// writeTestConfig renders a config file pointing at the containerized
// database with a unique database name per test. The market data client is
// aimed at a closed port so provider fetches fail fast and every series
// takes the synthetic path, keeping API tests deterministic and offline.
func writeTestConfig(t *testing.T, address string, opts EnvOptions) string {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToLower(t.Name()))
	database := fmt.Sprintf("api_%s_%d", name, time.Now().UnixNano()%100000)

	content := fmt.Sprintf(`environment = "test"

[server]
host = "127.0.0.1"
port = 0

[storage]
address = %q
namespace = "stockdeck_test"
database = %q
username = "root"
password = "root"

[clients.yahoo]
base_url = "http://127.0.0.1:1"
timeout = "2s"

[auth]
jwt_secret = "integration-test-secret"
token_expiry = "1h"
dev_mode = %t

[logging]
level = "error"
`, address, database, opts.DevMode)

	path := filepath.Join(t.TempDir(), "stockdeck.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// Cleanup shuts the test server and application down. Registered with
// t.Cleanup automatically; calling it again is a no-op.
func (e *Env) Cleanup() {
	if e == nil {
		return
	}
	e.cleanupOnce.Do(func() {
		e.ts.Close()
		e.app.Close()
	})
}

// URL returns the base URL of the in-process server.
func (e *Env) URL() string {
	return e.ts.URL
}

// HTTPGet issues a GET request, attaching the bearer token when present.
func (e *Env) HTTPGet(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	if err != nil {
		return nil, err
	}
	e.authorize(req)
	return http.DefaultClient.Do(req)
}

// HTTPPost issues a POST request with a JSON body.
func (e *Env) HTTPPost(path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	e.authorize(req)
	return http.DefaultClient.Do(req)
}

// HTTPDelete issues a DELETE request.
func (e *Env) HTTPDelete(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodDelete, e.ts.URL+path, nil)
	if err != nil {
		return nil, err
	}
	e.authorize(req)
	return http.DefaultClient.Do(req)
}

func (e *Env) authorize(req *http.Request) {
	if e.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.Token)
	}
}

// RegisterAndLogin creates a user through the API and stores its bearer
// token on the Env, so later requests are authenticated.
func (e *Env) RegisterAndLogin(username, email, password string) {
	e.t.Helper()

	resp, err := e.HTTPPost("/api/users", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		e.t.Fatalf("user registration request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		e.t.Fatalf("user registration failed: %d %s", resp.StatusCode, body)
	}

	resp, err = e.HTTPPost("/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		e.t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		e.t.Fatalf("login failed: %d %s", resp.StatusCode, body)
	}

	var loginResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		e.t.Fatalf("failed to decode login response: %v", err)
	}
	if loginResp.Data.Token == "" {
		e.t.Fatal("login returned an empty token")
	}
	e.Token = loginResp.Data.Token
}
