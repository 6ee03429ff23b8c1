package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/promptconduit/dashctx/internal/config"
)

// PresenceTimeout bounds the availability check made before auto-include
// discovery, independently of the request timeout
const PresenceTimeout = 2 * time.Second

// APIResponse represents a response from the data-access service
type APIResponse struct {
	Success    bool
	StatusCode int
	Body       string
	Error      string
}

// Client is the HTTP client for the data-access service. It implements the
// discovery broker used by auto-includes.
type Client struct {
	settings        config.DataAccessSettings
	httpClient      *http.Client
	presenceTimeout time.Duration
	version         string
	logger          *zap.Logger
}

// NewClient creates a new data-access client
func NewClient(settings config.DataAccessSettings, version string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := settings.TimeoutSeconds
	if timeout <= 0 {
		timeout = config.DefaultTimeoutSecs
	}
	return &Client{
		settings: settings,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		presenceTimeout: PresenceTimeout,
		version:         version,
		logger:          logger,
	}
}

// PluginPresent reports whether the data-access service answers at its base
// URL within PresenceTimeout
func (c *Client) PluginPresent(ctx context.Context) bool {
	if !c.settings.IsConfigured() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.presenceTimeout)
	defer cancel()

	result := c.get(ctx, "", nil)
	if !result.Success {
		c.logger.Debug("data-access service unavailable",
			zap.String("url", c.settings.BaseURL),
			zap.String("error", result.Error))
	}
	return result.Success
}

// listQueriesReply is the XML export of a descriptor's query list. The
// first column of each row holds the query id.
type listQueriesReply struct {
	Rows []struct {
		Cols []string `xml:"Col"`
	} `xml:"ResultSet>Row"`
}

// QueriesFor lists the query ids declared by the descriptor at descriptorPath
func (c *Client) QueriesFor(ctx context.Context, descriptorPath string) ([]string, error) {
	result := c.get(ctx, "/listQueries", url.Values{
		"path":       {descriptorPath},
		"outputType": {"xml"},
	})
	if !result.Success {
		return nil, fmt.Errorf("listQueries %s: %s", descriptorPath, result.Error)
	}

	var reply listQueriesReply
	if err := xml.Unmarshal([]byte(result.Body), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse query list for %s: %w", descriptorPath, err)
	}

	ids := make([]string, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		if len(row.Cols) == 0 {
			continue
		}
		ids = append(ids, row.Cols[0])
	}
	return ids, nil
}

// TestConnection checks that the data-access service is reachable
func (c *Client) TestConnection(ctx context.Context) *APIResponse {
	if !c.settings.IsConfigured() {
		return &APIResponse{
			Success: false,
			Error:   "data-access base URL not configured",
		}
	}
	return c.get(ctx, "", nil)
}

// get performs a GET request against the service
func (c *Client) get(ctx context.Context, path string, query url.Values) *APIResponse {
	target := strings.TrimRight(c.settings.BaseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &APIResponse{
			Success: false,
			Error:   fmt.Sprintf("failed to create request: %v", err),
		}
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIResponse{
			Success: false,
			Error:   fmt.Sprintf("request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	result := &APIResponse{
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Body:       string(body),
	}

	if !result.Success {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return result
}

// setHeaders sets common HTTP headers
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/xml")
	if c.settings.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("dashctx/%s", c.version))
}
