package tester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/moamenhredeen/jptest/internal/models"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "jptest/1.0"

// RequestBuilder builds HTTP requests from cases
type RequestBuilder struct {
	userAgent string
}

// NewRequestBuilder creates a new request builder
func NewRequestBuilder(userAgent string) *RequestBuilder {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RequestBuilder{
		userAgent: userAgent,
	}
}

// BuildRequest builds the single request a case sends
func (rb *RequestBuilder) BuildRequest(ctx context.Context, c models.Case, baseURL string) (*http.Request, error) {
	fullURL, err := joinURL(baseURL, c.Path)
	if err != nil {
		return nil, err
	}

	var req *http.Request
	// Handle request body for POST, PUT, PATCH
	if c.Body != nil && hasBody(c.Method) {
		bodyBytes, err := json.Marshal(c.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		req, err = http.NewRequestWithContext(ctx, c.Method, fullURL, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		req, err = http.NewRequestWithContext(ctx, c.Method, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	// Set default headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", rb.userAgent)

	return req, nil
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func joinURL(baseURL, path string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/"), nil
}
