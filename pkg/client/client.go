package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
)

// Client is the API client for github-ecosystem-snapshot
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-200 response from the API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error: %d %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Message)
}

// GetSummary retrieves the summary of the latest snapshot
func (c *Client) GetSummary() (*domain.Summary, error) {
	var response struct {
		Data *domain.Summary `json:"data"`
	}
	if err := c.get("/api/v1/summary", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetUser retrieves the snapshotted account profile
func (c *Client) GetUser() (*domain.UserInfo, error) {
	var response struct {
		Data *domain.UserInfo `json:"data"`
	}
	if err := c.get("/api/v1/user", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetCategory decodes the records of a category into out, which should point to a slice
func (c *Client) GetCategory(category domain.Category, out interface{}) error {
	response := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	return c.get(fmt.Sprintf("/api/v1/categories/%s", category), nil, &response)
}

// GetRuns retrieves recorded runs, newest first. An empty account lists every account.
func (c *Client) GetRuns(account string, limit int) ([]*domain.SnapshotRun, error) {
	params := url.Values{}
	if account != "" {
		params.Set("account", account)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var response struct {
		Data []*domain.SnapshotRun `json:"data"`
	}
	if err := c.get("/api/v1/runs", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetLatestRun retrieves the latest completed run for an account
func (c *Client) GetLatestRun(account string) (*domain.SnapshotRun, error) {
	params := url.Values{}
	params.Set("account", account)

	var response struct {
		Data *domain.SnapshotRun `json:"data"`
	}
	if err := c.get("/api/v1/runs/latest", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRun retrieves one recorded run by ID
func (c *Client) GetRun(id string) (*domain.SnapshotRun, error) {
	var response struct {
		Data *domain.SnapshotRun `json:"data"`
	}
	if err := c.get("/api/v1/runs/"+url.PathEscape(id), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetReport retrieves the Markdown report of the latest snapshot
func (c *Client) GetReport() (string, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/report")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readAPIError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
