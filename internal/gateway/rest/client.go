// Package rest implements the store gateway against a PostgREST-style
// HTTP endpoint. It is a thin typed wrapper: one request per call,
// classified errors as values, and no retry of its own.
package rest

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
)

// defaultTimeout bounds a single request. Timeouts are a gateway-level
// concern; callers never retry on their own.
const defaultTimeout = 15 * time.Second

// client is the HTTP plumbing shared by all gateway operations. It
// handles key-based authentication, JSON (de)serialization, and the
// mapping from HTTP status codes to gateway error kinds.
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// newClient creates the HTTP client for a store endpoint rooted at
// baseURL (e.g. https://project.example.co/rest/v1).
func newClient(baseURL, apiKey string, timeout time.Duration) *client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// errorResponse is the JSON error body returned by the store.
type errorResponse struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Code    string `json:"code"`
}

// do performs a single request against table with the given query
// parameters, decoding the JSON response into result when non-nil.
// Write requests ask the store to return the affected rows so the
// caller can reconcile against the confirmed records.
func (c *client) do(
	ctx context.Context,
	method string,
	table string,
	params url.Values,
	body interface{},
	result interface{},
) error {
	endpoint := c.baseURL + "/" + table
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return connectionErr("executing request %s %s: %v", method, table, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return connectionErr("reading response body: %v", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusErr(resp.StatusCode, method, table, respBody)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, table, err)
	}

	return nil
}
