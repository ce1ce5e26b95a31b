// Package recaptcha implements Google reCAPTCHA v3 verification for the
// signup and login endpoints. Verification is advisory bot filtering, not
// authentication; the score threshold comes from configuration.
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultVerifyURL is Google's siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier checks reCAPTCHA tokens.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Client implements Verifier against the siteverify API.
type Client struct {
	verifyURL string
	secret    string
	minScore  float64
	client    *http.Client
}

// NewClient creates a verifier. An empty verifyURL uses Google's endpoint.
func NewClient(verifyURL, secret string, minScore float64) *Client {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	return &Client{
		verifyURL: verifyURL,
		secret:    secret,
		minScore:  minScore,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type verifyResponse struct {
	Success bool     `json:"success"`
	Score   float64  `json:"score"`
	Action  string   `json:"action"`
	Errors  []string `json:"error-codes"`
}

// Verify returns true when the token is valid and the score meets the
// configured threshold. An empty token fails without calling the API.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if token == "" || c.secret == "" {
		return false, nil
	}

	form := url.Values{
		"secret":   {c.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("recaptcha verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("recaptcha verify: status %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decoding recaptcha response: %w", err)
	}

	return result.Success && result.Score >= c.minScore, nil
}

// Disabled is a Verifier that accepts everything. Used when the bot check is
// turned off in configuration (local development, tests).
type Disabled struct{}

func (Disabled) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	return true, nil
}

var (
	_ Verifier = (*Client)(nil)
	_ Verifier = Disabled{}
)
