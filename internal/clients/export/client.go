package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"export-service/internal/identity"
)

const apiPrefix = "/api/export/v1"

// Client is a typed REST client for the export service API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	identityHeader string
}

// NewClient builds a client that authenticates as the given user via the
// x-rh-identity header.
func NewClient(baseURL, orgID, username, userID string) (*Client, error) {
	header, err := identity.GenerateIdentityHeader(orgID, username, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build identity header: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		identityHeader: header,
	}, nil
}

// SetHTTPClient allows setting a custom HTTP client
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) createRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-rh-identity", c.identityHeader)

	return req, nil
}

// doRequest executes an HTTP request and decodes the response into result.
func (c *Client) doRequest(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Errors) == 0 {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}
		first := errResp.Errors[0]
		return fmt.Errorf("API error (status %d): %s - %s", resp.StatusCode, first.Title, first.Detail)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// KnownTypes lists the exportable entity types.
func (c *Client) KnownTypes(ctx context.Context) ([]ExportType, error) {
	req, err := c.createRequest(ctx, "GET", "/knowntypes", nil)
	if err != nil {
		return nil, err
	}

	var result []ExportType
	if err := c.doRequest(req, &result); err != nil {
		return nil, fmt.Errorf("failed to list export types: %w", err)
	}
	return result, nil
}

// Providers lists the available output formats.
func (c *Client) Providers(ctx context.Context) ([]Provider, error) {
	req, err := c.createRequest(ctx, "GET", "/providers", nil)
	if err != nil {
		return nil, err
	}

	var result []Provider
	if err := c.doRequest(req, &result); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return result, nil
}

// PreviewData fetches the first page of an export plus the total count.
func (c *Client) PreviewData(ctx context.Context, request PreviewRequest) (*Preview, error) {
	req, err := c.createRequest(ctx, "POST", "/data", request)
	if err != nil {
		return nil, err
	}

	var result Preview
	if err := c.doRequest(req, &result); err != nil {
		return nil, fmt.Errorf("failed to preview data: %w", err)
	}
	return &result, nil
}

// Run starts a background export job and returns its notification.
func (c *Client) Run(ctx context.Context, request RunRequest) (*Notification, error) {
	req, err := c.createRequest(ctx, "POST", "/run", request)
	if err != nil {
		return nil, err
	}

	var result Notification
	if err := c.doRequest(req, &result); err != nil {
		return nil, fmt.Errorf("failed to run export: %w", err)
	}
	return &result, nil
}

// CancelTask requests cancellation of an export job.
func (c *Client) CancelTask(ctx context.Context, jobID string) (*CancelResponse, error) {
	req, err := c.createRequest(ctx, "POST", "/task/cancel", map[string]string{"job_id": jobID})
	if err != nil {
		return nil, err
	}

	var result CancelResponse
	if err := c.doRequest(req, &result); err != nil {
		return nil, fmt.Errorf("failed to cancel export job: %w", err)
	}
	return &result, nil
}

// GetNotification retrieves the latest state of one export notification.
func (c *Client) GetNotification(ctx context.Context, id string) (*Notification, error) {
	req, err := c.createRequest(ctx, "GET", "/notifications/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var result Notification
	if err := c.doRequest(req, &result); err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &result, nil
}

// Download fetches a finished export file and returns its bytes and content
// type.
func (c *Client) Download(ctx context.Context, fileName string) ([]byte, string, error) {
	req, err := c.createRequest(ctx, "GET", "/download/"+url.PathEscape(fileName), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read download data: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Errors) == 0 {
			return nil, "", fmt.Errorf("download failed (status %d): %s", resp.StatusCode, string(body))
		}
		first := errResp.Errors[0]
		return nil, "", fmt.Errorf("download failed (status %d): %s - %s", resp.StatusCode, first.Title, first.Detail)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// DownloadURL returns the full download URL for a file name.
func (c *Client) DownloadURL(fileName string) string {
	return c.baseURL + apiPrefix + "/download/" + url.PathEscape(fileName)
}
