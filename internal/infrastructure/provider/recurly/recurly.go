package recurly

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loopware/billing-webhook/internal/config"
	"github.com/loopware/billing-webhook/internal/domain/provider"
	"go.uber.org/zap"
)

const (
	defaultBaseURL    = "https://v3.recurly.com"
	defaultAPIVersion = "application/vnd.recurly.v2021-02-25+json"
	defaultTimeout    = 15 * time.Second

	// logBodyLimit bounds how much of an upstream response body makes it
	// into the logs.
	logBodyLimit = 512
)

// authScheme selects how a request authenticates against the provider.
// Deployments differ: some accept the API key as a basic auth username
// with a blank password, others want it as a bearer token.
type authScheme int

const (
	authBasic authScheme = iota
	authBearer
)

func (a authScheme) String() string {
	if a == authBearer {
		return "bearer"
	}
	return "basic"
}

// Client is a read-only client for the Recurly resource API
type Client struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	apiVersion string
	logger     *zap.Logger
}

// NewClient creates a new Recurly API client
func NewClient(cfg config.RecurlyConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		apiVersion: apiVersion,
		logger:     logger,
	}
}

// doGet performs one authenticated GET against the provider API and
// decodes the JSON body. Non-200 responses come back as a ProviderError
// carrying the upstream status code.
func (c *Client) doGet(ctx context.Context, path string, scheme authScheme) (map[string]interface{}, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}

	httpReq.Header.Set("Accept", c.apiVersion)
	switch scheme {
	case authBearer:
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	default:
		auth := base64.StdEncoding.EncodeToString([]byte(c.apiKey + ":"))
		httpReq.Header.Set("Authorization", "Basic "+auth)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Recurly API request failed",
			zap.String("path", path),
			zap.String("auth_scheme", scheme.String()),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Recurly API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	c.logger.Info("Recurly API response",
		zap.String("path", path),
		zap.String("auth_scheme", scheme.String()),
		zap.Int("status_code", resp.StatusCode),
		zap.String("response_body", truncateBody(respBody)))

	if resp.StatusCode != http.StatusOK {
		// Error bodies may be non-JSON text
		var errResp struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)

		code := errResp.Error.Type
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		message := errResp.Error.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}

		return nil, &provider.ProviderError{
			Code:       code,
			Message:    message,
			Details:    truncateBody(respBody),
			StatusCode: resp.StatusCode,
		}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse response",
			Details: err.Error(),
		}
	}

	return result, nil
}

func truncateBody(body []byte) string {
	if len(body) > logBodyLimit {
		return string(body[:logBodyLimit]) + "...(truncated)"
	}
	return string(body)
}

func getStringFromMap(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
