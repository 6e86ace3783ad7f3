package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext carries one scenario's state against a running server.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string

	client       *http.Client
	token        string
	lastStatus   int
	lastBody     []byte
	lastResponse map[string]any
	saved        map[string]string
}

func NewTestContext(baseURL, signingKey, issuer string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		SigningKey: signingKey,
		Issuer:     issuer,
		client:     &http.Client{Timeout: 10 * time.Second},
		saved:      make(map[string]string),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastResponse = nil
	tc.saved = make(map[string]string)
}

// UseToken mints a token with the server's signing key. workerID is empty for
// operator tokens.
func (tc *TestContext) UseToken(role, workerID string) error {
	claims := jwt.MapClaims{
		"sub":  "e2e-" + role,
		"role": role,
		"iss":  tc.Issuer,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	if workerID != "" {
		claims["worker_id"] = workerID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.SigningKey))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	tc.token = signed
	return nil
}

func (tc *TestContext) ClearToken() { tc.token = "" }

func (tc *TestContext) POST(path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(raw))
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, tc.BaseURL+tc.Expand(path), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastResponse = nil
	if len(tc.lastBody) > 0 {
		_ = json.Unmarshal(tc.lastBody, &tc.lastResponse)
	}
	return nil
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastBody() string { return string(tc.lastBody) }

// GetResponseField reads a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("last response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := tc.lastResponse[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

// Save remembers a response field under name for later {name} expansion.
func (tc *TestContext) Save(name, field string) error {
	v, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	tc.saved[name] = fmt.Sprint(v)
	return nil
}

func (tc *TestContext) Saved(name string) string { return tc.saved[name] }

// Expand replaces {name} placeholders with saved values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.saved {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
