// Package client talks to the catering JSON API. Its Client satisfies the
// repository ports so the console controllers can run against a remote
// server.
package client

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

	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/ports"
)

var (
	_ ports.MealRepository     = (*Client)(nil)
	_ ports.MealEditor         = (*Client)(nil)
	_ ports.CompanyRepository  = (*Client)(nil)
	_ ports.EmployeeRepository = (*Client)(nil)
)

const defaultTimeout = 10 * time.Second

// HTTPClient is the subset of *http.Client the Client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	base   *url.URL
	http   HTTPClient
	logger *log.Logger
}

type Option func(*Client)

func WithHTTPClient(h HTTPClient) Option { return func(c *Client) { c.http = h } }

func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(log.ComponentClient)
	return c, nil
}

func (c *Client) ListByMonth(ctx context.Context, year, month int) ([]core.Meal, error) {
	meals := []core.Meal{}
	path := fmt.Sprintf("meals/by_month/%d/%d", year, month)
	if err := c.do(ctx, "list meals by month", http.MethodGet, path, nil, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

func (c *Client) ListAll(ctx context.Context) ([]core.Meal, error) {
	meals := []core.Meal{}
	if err := c.do(ctx, "list meals", http.MethodGet, "meals/", nil, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

func (c *Client) Create(ctx context.Context, mc core.MealCreate) (core.Meal, error) {
	var m core.Meal
	err := c.do(ctx, "create meal", http.MethodPost, "meals/", mc, &m)
	return m, err
}

func (c *Client) Get(ctx context.Context, id string) (core.Meal, error) {
	var m core.Meal
	err := c.do(ctx, "get meal", http.MethodGet, "meals/"+url.PathEscape(id), nil, &m)
	return m, err
}

func (c *Client) Update(ctx context.Context, id string, u core.MealUpdate) (core.Meal, error) {
	var m core.Meal
	err := c.do(ctx, "update meal", http.MethodPatch, "meals/"+url.PathEscape(id), u, &m)
	return m, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete meal", http.MethodDelete, "meals/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListCompanies(ctx context.Context) ([]core.Company, error) {
	companies := []core.Company{}
	if err := c.do(ctx, "list companies", http.MethodGet, "companies/", nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

func (c *Client) CreateCompany(ctx context.Context, cc core.CompanyCreate) (core.Company, error) {
	var company core.Company
	err := c.do(ctx, "create company", http.MethodPost, "companies/", cc, &company)
	return company, err
}

func (c *Client) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	employees := []core.Employee{}
	if err := c.do(ctx, "list employees", http.MethodGet, "employees/", nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func (c *Client) CreateEmployee(ctx context.Context, e core.EmployeeCreate) (core.Employee, error) {
	var employee core.Employee
	err := c.do(ctx, "create employee", http.MethodPost, "employees/", e, &employee)
	return employee, err
}

type apiError struct {
	Detail string `json:"detail"`
	Field  string `json:"field"`
}

// do sends one request. 404 becomes core.ErrNotFound and 422 a
// core.ValidationError; every other failure is a core.TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return core.NewTransportError(op, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return core.NewTransportError(op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.LogError(ctx, "API request failed", err, op, log.ErrorTypeTransport)
		return core.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return core.NewTransportError(op, fmt.Errorf("read response: %w", err))
	}
	c.logger.DebugContext(ctx, "API request",
		log.FieldMethod, method,
		log.FieldPath, endpoint.Path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		var ae apiError
		_ = json.Unmarshal(data, &ae)
		if ae.Detail == "" {
			ae.Detail = http.StatusText(resp.StatusCode)
		}
		return core.NewValidationError(ae.Field, fmt.Errorf("%s", ae.Detail))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return core.NewTransportError(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return core.NewTransportError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
