// Package client is the HTTP client the CLI uses to talk to the API server.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/reservoireye/internal/alert"
	"github.com/reservoireye/internal/models"
)

const apiPrefix = "/api/v1"

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("API error %s: %s", e.Code, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Login(email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) ListReservoirs() ([]models.Reservoir, error) {
	var reservoirs []models.Reservoir
	if err := c.do(http.MethodGet, "/reservoirs", nil, nil, &reservoirs); err != nil {
		return nil, err
	}
	return reservoirs, nil
}

func (c *Client) ListRules(reservoirID uint) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	if err := c.do(http.MethodGet, fmt.Sprintf("/reservoirs/%d/rules", reservoirID), nil, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *Client) GetRule(id uint) (*models.AlertRule, error) {
	var rule models.AlertRule
	if err := c.do(http.MethodGet, fmt.Sprintf("/rules/%d", id), nil, nil, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (c *Client) CreateRule(reservoirID uint, condition models.ConditionType, threshold float64) (*models.AlertRule, error) {
	var rule models.AlertRule
	body := map[string]any{"condition_type": condition, "threshold": threshold}
	if err := c.do(http.MethodPost, fmt.Sprintf("/reservoirs/%d/rules", reservoirID), nil, body, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (c *Client) UpdateRule(id uint, update alert.RuleUpdate) (*models.AlertRule, error) {
	var rule models.AlertRule
	if err := c.do(http.MethodPut, fmt.Sprintf("/rules/%d", id), nil, update, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (c *Client) DeleteRule(id uint) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/rules/%d", id), nil, nil, nil)
}

func (c *Client) EnableRule(id uint) (*models.AlertRule, error) {
	var rule models.AlertRule
	if err := c.do(http.MethodPut, fmt.Sprintf("/rules/%d/enable", id), nil, nil, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (c *Client) DisableRule(id uint) (*models.AlertRule, error) {
	var rule models.AlertRule
	if err := c.do(http.MethodPut, fmt.Sprintf("/rules/%d/disable", id), nil, nil, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// TestRule asks the server whether value would fire the condition.
func (c *Client) TestRule(condition models.ConditionType, threshold, value float64) (bool, error) {
	var resp struct {
		Triggered bool `json:"triggered"`
	}
	body := map[string]any{"condition_type": condition, "threshold": threshold, "value": value}
	if err := c.do(http.MethodPost, "/rules/test", nil, body, &resp); err != nil {
		return false, err
	}
	return resp.Triggered, nil
}

func (c *Client) ListAlerts(limit, offset int) ([]models.AlertEvent, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	if offset > 0 {
		query.Set("offset", fmt.Sprint(offset))
	}

	var events []models.AlertEvent
	if err := c.do(http.MethodGet, "/alerts", query, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// SubmitMeasurement posts a reading as the device owning apiKey. A zero at
// lets the server stamp the reading.
func (c *Client) SubmitMeasurement(apiKey string, value float64, at time.Time) (*models.Measurement, error) {
	body := map[string]any{"value": value}
	if !at.IsZero() {
		body["timestamp"] = at.Format(time.RFC3339Nano)
	}

	var m models.Measurement
	req, err := c.newRequest(http.MethodPost, "/devices/measurements", nil, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)
	if err := c.send(req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) do(method, endpoint string, query url.Values, body, v interface{}) error {
	req, err := c.newRequest(method, endpoint, query, body)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.send(req, v)
}

func (c *Client) newRequest(method, endpoint string, query url.Values, body interface{}) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, apiPrefix, endpoint)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u.String(), r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) send(req *http.Request, v interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Code = errResp.Error.Code
			apiErr.Message = errResp.Error.Message
		}
		return apiErr
	}

	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
