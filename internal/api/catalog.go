package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"geo-jigsaw/internal/config"
	"geo-jigsaw/internal/domain"
	"geo-jigsaw/internal/registry"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrNotConfigured is returned by every call when no base URL is set.
var ErrNotConfigured = errors.New("catalog data source not configured")

// StatusError is a non-200 answer from the data source.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d", e.Code)
}

// CatalogClient fetches country metadata and region datasets from the
// remote data source.
type CatalogClient struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
}

func NewCatalogClient(cfg *config.Config) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(cfg.CatalogBaseURL, "/"),
		timeout: cfg.CatalogTimeout,
		client: &fasthttp.Client{
			MaxConnsPerHost:     32,
			ReadTimeout:         cfg.CatalogTimeout,
			WriteTimeout:        cfg.CatalogTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *CatalogClient) Configured() bool {
	return c.baseURL != ""
}

func (c *CatalogClient) GetCountry(ctx context.Context, countryID string) (*CountryResponse, error) {
	return doRequest[CountryResponse](ctx, c, "/countries/"+url.PathEscape(countryID))
}

func (c *CatalogClient) GetRegions(ctx context.Context, countryID string) (*RegionsResponse, error) {
	return doRequest[RegionsResponse](ctx, c, "/countries/"+url.PathEscape(countryID)+"/regions")
}

func (c *CatalogClient) GetDisplayRegions(ctx context.Context, countryID string) (*DisplayRegionsResponse, error) {
	return doRequest[DisplayRegionsResponse](ctx, c, "/countries/"+url.PathEscape(countryID)+"/display")
}

func doRequest[T any](ctx context.Context, client *CatalogClient, path string) (*T, error) {
	if !client.Configured() {
		return nil, ErrNotConfigured
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := client.baseURL + path
	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if !ok && client.timeout > 0 {
		deadline, ok = time.Now().Add(client.timeout), true
	}
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{URL: uri, Code: resp.StatusCode()}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &result, nil
}

type CountryResponse struct {
	Status int            `json:"status"`
	Data   domain.Country `json:"data"`
}

type RegionsResponse struct {
	Status int                   `json:"status"`
	Data   []registry.RegionData `json:"data"`
}

type DisplayRegionsResponse struct {
	Status int                      `json:"status"`
	Data   []registry.DisplayRegion `json:"data"`
}
