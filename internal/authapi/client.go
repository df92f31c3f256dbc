// Package authapi talks to the back office Auth API: it exchanges admin
// credentials for a bearer token and revokes it on logout.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default endpoint paths on the back office API.
const (
	DefaultLoginPath  = "/robo/admin_login/"
	DefaultLogoutPath = "/auth/logout"
)

// maxResponseBytes caps how much of an auth response is read.
const maxResponseBytes = 1 << 20

// Credentials is what the login form submits.
type Credentials struct {
	Username string
	Password string

	// Secondary is an optional extra token some environments require. It is
	// sent only when the client has a SecondaryField configured.
	Secondary string
}

// Config configures a Client.
type Config struct {
	BaseURL        string
	LoginPath      string
	LogoutPath     string
	SecondaryField string
	Timeout        time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client performs auth exchanges. It is safe for concurrent use.
type Client struct {
	baseURL        string
	loginPath      string
	logoutPath     string
	secondaryField string
	http           *http.Client
}

// New creates a Client from cfg, filling in default paths and timeout.
func New(cfg Config) *Client {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = DefaultLogoutPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		loginPath:      cfg.LoginPath,
		logoutPath:     cfg.LogoutPath,
		secondaryField: cfg.SecondaryField,
		http:           hc,
	}
}

// Login exchanges credentials for a bearer token. Errors wrap either
// ErrAuthFailure or ErrNetworkFailure.
func (c *Client) Login(ctx context.Context, creds Credentials) (Result, error) {
	payload := map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	}
	if c.secondaryField != "" && creds.Secondary != "" {
		payload[c.secondaryField] = creds.Secondary
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.loginPath, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %w", ErrNetworkFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: %s", ErrAuthFailure, errorMessage(resp.StatusCode, respBody))
	}

	return ParseLoginResponse(respBody)
}

// Logout revokes token on the back office. Callers clear their local session
// whether or not this succeeds.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.logoutPath, strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("logout: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// errorMessage pulls a human readable message out of an error response,
// falling back to the HTTP status text.
func errorMessage(status int, body []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"message", "detail", "error"} {
			if s, ok := fields[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("status %d %s", status, http.StatusText(status))
}

// IsAuthFailure reports whether err is a rejected or malformed login.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthFailure)
}

// IsNetworkFailure reports whether the auth service could not be reached.
func IsNetworkFailure(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}
