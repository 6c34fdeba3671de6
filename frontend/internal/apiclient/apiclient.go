package apiclient

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

	"github.com/google/uuid"
	"github.com/itchan-dev/forllm/shared/api"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/metrics"
	"github.com/itchan-dev/forllm/shared/utils"
)

// ErrNoContent is returned when a body was expected but the API sent none (202/204 or empty).
var ErrNoContent = errors.New("api returned no content")

// APIClient struct handles all communication with the forum API.
type APIClient struct {
	BaseURL    string
	HttpClient *http.Client
}

// New creates a new client for interacting with the forum API.
func New(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HttpClient: &http.Client{Timeout: timeout},
	}
}

// do is the single, unified helper for making API requests.
// Any non-2xx answer is turned into *errors.APIError; on success the caller owns resp.Body.
func (c *APIClient) do(ctx context.Context, endpoint, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestId := uuid.NewString()
	req.Header.Set("X-Request-Id", requestId)

	log := logger.Component("apiclient").With("endpoint", endpoint, "request_id", requestId)

	start := time.Now()
	resp, err := c.HttpClient.Do(req)
	if err != nil {
		metrics.ObserveAPICall(endpoint, 0, time.Since(start))
		log.Warn("forum API unreachable", "error", err)
		return nil, &internal_errors.APIError{Message: fmt.Sprintf("backend unavailable: %v", err)}
	}
	metrics.ObserveAPICall(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := errorFromResponse(resp)
		log.Warn("forum API error", "status", resp.StatusCode, "error", apiErr.Message)
		return nil, apiErr
	}
	return resp, nil
}

// errorFromResponse prefers the server's {"error": ...} message.
func errorFromResponse(resp *http.Response) *internal_errors.APIError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var errBody api.ErrorResponse
	if err := json.Unmarshal(bodyBytes, &errBody); err == nil && errBody.Error != "" {
		return &internal_errors.APIError{Message: errBody.Error, StatusCode: resp.StatusCode}
	}
	return &internal_errors.APIError{
		Message:    fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
		StatusCode: resp.StatusCode,
	}
}

// callJSON sends in (if not nil) as JSON and decodes the answer into out (if not nil).
// A 202/204 or empty answer yields ErrNoContent when out is set.
func (c *APIClient) callJSON(ctx context.Context, endpoint, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, endpoint, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusAccepted {
		return ErrNoContent
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &internal_errors.APIError{Message: fmt.Sprintf("failed to read response: %v", err), StatusCode: resp.StatusCode}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrNoContent
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &internal_errors.InvalidInputError{Message: fmt.Sprintf("cannot decode response: %v", err)}
	}
	return utils.ValidateResponse(out)
}
