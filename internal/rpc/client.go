package rpc

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

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("rpc")

const (
	ErrorCodeResourceNotFound    = "resource_not_found"
	ErrorCodeAccountNotFound     = "account_not_found"
	ErrorCodeTransactionNotFound = "transaction_not_found"

	defaultHTTPTimeout = 30 * time.Second
)

// Client talks to an Aptos fullnode REST API and the indexer GraphQL endpoint.
// It handles authentication, request formatting, and error decoding.
type Client struct {
	nodeURL    string
	indexerURL string
	apiKey     string
	client     *http.Client
}

// APIError is a non-2xx response from the node or indexer.
type APIError struct {
	Status      int    `json:"-"`
	Message     string `json:"message"`
	ErrorCode   string `json:"error_code"`
	VMErrorCode int    `json:"vm_error_code,omitempty"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("aptos api error %d (%s): %s", e.Status, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("aptos api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the node.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsAPIError reports whether the node answered with an error response, as
// opposed to the request never completing.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsMissingState reports whether the node rejected a read because the
// on-chain state does not exist: a 404 for an account or resource, or a view
// that aborted in the VM (4xx with vm_error_code). Rate limits and server
// errors are not missing state.
func IsMissingState(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch {
	case apiErr.Status == http.StatusNotFound:
		return true
	case apiErr.Status == http.StatusTooManyRequests:
		return false
	case apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.VMErrorCode != 0
	}
	return false
}

// graphQLRequest is a GraphQL POST body.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// NewClient creates a client for the given fullnode base URL (ending in /v1)
// and indexer GraphQL URL. apiKey is sent as a bearer token when set.
func NewClient(nodeURL, indexerURL, apiKey string) *Client {
	log.Info("NewClient: initializing Aptos API client")

	if apiKey != "" {
		log.Infof("NewClient: connecting to %s (with api key)", nodeURL)
	} else {
		log.Warnf("NewClient: connecting to %s (no api key, public rate limits apply)", nodeURL)
	}

	return &Client{
		nodeURL:    strings.TrimRight(nodeURL, "/"),
		indexerURL: indexerURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Get issues GET {nodeURL}{path} and decodes the JSON response into result.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	log.Debugf("Get: %s", path)
	return c.do(ctx, http.MethodGet, c.nodeURL+path, nil, result)
}

// Post issues POST {nodeURL}{path} with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	log.Debugf("Post: %s", path)
	return c.do(ctx, http.MethodPost, c.nodeURL+path, body, result)
}

// Query runs a GraphQL query against the indexer and decodes its data field into result.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, result interface{}) error {
	log.Debugf("Query: running indexer query with %d variables", len(variables))

	var resp graphQLResponse
	if err := c.do(ctx, http.MethodPost, c.indexerURL, graphQLRequest{Query: query, Variables: variables}, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		log.Errorf("Query: indexer returned %d errors: %s", len(resp.Errors), resp.Errors[0].Message)
		return fmt.Errorf("indexer error: %s", resp.Errors[0].Message)
	}
	if result != nil {
		if err := json.Unmarshal(resp.Data, result); err != nil {
			log.Errorf("Query: failed to unmarshal data: %v", err)
			return fmt.Errorf("failed to unmarshal indexer data: %w", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			log.Errorf("do: failed to marshal request: %v", err)
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		log.Errorf("do: failed to create request: %v", err)
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("do: failed to send request to %s: %v", url, err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("do: failed to read response: %v", err)
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		if resp.StatusCode == http.StatusNotFound {
			log.Debugf("do: %s %s not found (%s)", method, url, apiErr.ErrorCode)
		} else {
			log.Errorf("do: HTTP error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			log.Errorf("do: failed to unmarshal response from %s: %v", url, err)
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
