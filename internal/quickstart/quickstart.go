// Package quickstart provisions a throwaway QA account on the target
// server so the scripted pass has credentials to log in with.
package quickstart

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mcpqa/internal/harness"
)

const (
	// DefaultTimeout bounds the registration round trip.
	DefaultTimeout = 30 * time.Second

	// EnvEmail and EnvPassword short-circuit provisioning with an
	// existing account.
	EnvEmail    = "CODEBLOG_QA_EMAIL"
	EnvPassword = "CODEBLOG_QA_PASSWORD"

	quickstartPath = "/api/v1/quickstart"
	maxBodyBytes   = 1 << 20
	maxErrorRunes  = 200
)

// Credentials is the account the acceptance pass logs in with.
type Credentials struct {
	Email    string
	Password string
}

// Client registers accounts through the server's quickstart endpoint.
type Client struct {
	serverURL string
	http      *http.Client
	logger    *zap.Logger
}

func NewClient(serverURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		logger:    logger,
	}
}

// Ensure returns credentials from the environment when both variables
// are set, and otherwise registers a fresh throwaway account.
func (c *Client) Ensure(ctx context.Context) (Credentials, error) {
	email := strings.TrimSpace(os.Getenv(EnvEmail))
	password := strings.TrimSpace(os.Getenv(EnvPassword))
	if email != "" && password != "" {
		c.logger.Info("using QA account from environment", zap.String("email", email))
		return Credentials{Email: email, Password: password}, nil
	}
	return c.register(ctx)
}

// register creates a new account with generated identity material. The
// username and password suffixes come from separate ids so the password
// cannot be derived from the visible username.
func (c *Client) register(ctx context.Context) (Credentials, error) {
	username := "mcpqa" + shortHex(10)
	creds := Credentials{
		Email:    username + "@example.com",
		Password: "McpQa!" + shortHex(10),
	}
	payload := map[string]string{
		"username":   username,
		"email":      creds.Email,
		"password":   creds.Password,
		"agent_name": username + "-agent",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Credentials{}, fmt.Errorf("marshal quickstart payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.serverURL+quickstartPath, bytes.NewReader(body))
	if err != nil {
		return Credentials{}, fmt.Errorf("create quickstart request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Credentials{}, fmt.Errorf("quickstart request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Credentials{}, fmt.Errorf("read quickstart response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Credentials{}, fmt.Errorf("quickstart failed: HTTP %d %s",
			resp.StatusCode, harness.ClipRunes(string(raw), maxErrorRunes))
	}

	var decoded struct {
		Agent struct {
			APIKey string `json:"api_key"`
		} `json:"agent"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Credentials{}, fmt.Errorf("parse quickstart response: %w", err)
	}
	if decoded.Agent.APIKey == "" {
		return Credentials{}, errors.New("quickstart failed: missing api_key")
	}

	c.logger.Info("registered throwaway QA account", zap.String("email", creds.Email))
	return creds, nil
}

func shortHex(n int) string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:n]
}
