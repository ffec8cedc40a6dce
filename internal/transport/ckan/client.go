// Package ckan is a client for the CKAN action API endpoints the tool consumes:
// organization_list and package_search, plus status_show for health checks.
package ckan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/metrics"
)

// Action API operations.
const (
	OpOrganizationList = "organization_list"
	OpPackageSearch    = "package_search"
	OpStatusShow       = "status_show"
)

const maxErrorBody = 4096

// Client calls the CKAN action API. Requests are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Run
}

// Config holds the client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Run
}

// NewClient creates a CKAN client for an API base URL such as https://data.ioos.us/api/3.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

type organizationListRequest struct {
	Q         string `json:"q"`
	AllFields bool   `json:"all_fields"`
}

type packageSearchRequest struct {
	Q     string `json:"q,omitempty"`
	Start int    `json:"start"`
	Rows  int    `json:"rows"`
}

type packageSearchResult struct {
	Count   *int                    `json:"count"`
	Results *[]domain.CatalogRecord `json:"results"`
}

// envelope is the CKAN action API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"__type"`
	} `json:"error"`
}

// ListOrganizations returns the organizations matching q, with all fields.
func (c *Client) ListOrganizations(ctx context.Context, q string) ([]domain.Organization, error) {
	raw, err := c.call(ctx, OpOrganizationList, organizationListRequest{Q: q, AllFields: true})
	if err != nil {
		return nil, err
	}

	var orgs []domain.Organization
	if err := json.Unmarshal(raw, &orgs); err != nil {
		return nil, &domain.CatalogAPIError{Op: OpOrganizationList, Message: "malformed result: " + err.Error()}
	}
	return orgs, nil
}

// PackageSearch fetches one page of datasets.
func (c *Client) PackageSearch(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	body := packageSearchRequest{Q: req.Filter, Start: req.Offset, Rows: req.Rows}
	raw, err := c.call(ctx, OpPackageSearch, body)
	if err != nil {
		return domain.Page{}, err
	}

	var res packageSearchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.Page{}, &domain.CatalogAPIError{Op: OpPackageSearch, Message: "malformed result: " + err.Error()}
	}
	if res.Count == nil {
		return domain.Page{}, &domain.CatalogAPIError{Op: OpPackageSearch, Message: "result has no count"}
	}
	if res.Results == nil {
		return domain.Page{}, &domain.CatalogAPIError{Op: OpPackageSearch, Message: "result has no results"}
	}

	c.metrics.AddCatalogRecords(len(*res.Results))
	return domain.Page{Count: *res.Count, Records: *res.Results}, nil
}

// HealthCheck calls status_show to confirm the endpoint is a CKAN action API.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.call(ctx, OpStatusShow, struct{}{})
	return err
}

// call POSTs a JSON body to /action/<op> and returns the unwrapped result.
func (c *Client) call(ctx context.Context, op string, payload any) (json.RawMessage, error) {
	url := c.baseURL + "/action/" + op

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Info("Executing catalog action",
		zap.String("action", op),
		zap.String("url", url),
		zap.ByteString("params", body),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveCatalogRequest(op, "error", time.Since(start))
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCatalogQueryFailed, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := c.decode(op, resp)
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveCatalogRequest(op, status, time.Since(start))
	return raw, err
}

func (c *Client) decode(op string, resp *http.Response) (json.RawMessage, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &domain.CatalogAPIError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		// CKAN sends the error envelope with 4xx statuses too.
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Error != nil {
			apiErr.Message = env.Error.Message
			apiErr.Type = env.Error.Type
		}
		return nil, apiErr
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &domain.CatalogAPIError{Op: op, Message: "malformed response: " + err.Error()}
	}
	if !env.Success {
		apiErr := &domain.CatalogAPIError{Op: op, Message: "request unsuccessful"}
		if env.Error != nil {
			apiErr.Message = env.Error.Message
			apiErr.Type = env.Error.Type
		}
		return nil, apiErr
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil, &domain.CatalogAPIError{Op: op, Message: "response has no result"}
	}
	return env.Result, nil
}
