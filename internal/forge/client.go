package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
	"git.home.luguber.info/inful/assignctl/internal/metrics"
)

// Media types understood by GitHub Enterprise.
const (
	MediaTypeV3               = "application/vnd.github.v3+json"
	MediaTypeTemplatePreview  = "application/vnd.github.baptiste-preview+json"
	MediaTypeRepositoryObject = "application/vnd.github.v3.repository+json"

	defaultUserAgent = "assignctl/1.0"
	maxBodyBytes     = 16 << 20
)

// ClientConfig holds the values a Client is built from. It is copied at
// construction; later changes to the caller's value have no effect.
type ClientConfig struct {
	APIURL     string
	Token      string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Recorder   metrics.Recorder
}

// Client is a thin GitHub Enterprise REST client. It never interprets
// status codes beyond transport failures; callers decide what a status means.
// A Client is immutable after NewClient and safe to share read-only.
type Client struct {
	httpClient *http.Client
	apiURL     *url.URL
	headers    http.Header
	recorder   metrics.Recorder
}

// NewClient validates cfg and builds a Client with its own header set.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrAuthRequired
	}
	u, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("invalid API URL").
			WithCause(err).
			WithContext("api_url", cfg.APIURL).
			Build()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	headers := make(http.Header)
	headers.Set("Accept", MediaTypeV3)
	headers.Set("Authorization", "token "+cfg.Token)
	headers.Set("User-Agent", ua)

	return &Client{
		httpClient: httpClient,
		apiURL:     u,
		headers:    headers,
		recorder:   rec,
	}, nil
}

// APIURL returns the base API URL.
func (c *Client) APIURL() string { return c.apiURL.String() }

// RequestOption customizes a single request.
type RequestOption func(*http.Request)

// WithAccept overrides the Accept header for one request.
func WithAccept(mediaType string) RequestOption {
	return func(r *http.Request) { r.Header.Set("Accept", mediaType) }
}

// Resolve turns target into an absolute URL. Absolute targets (Link headers,
// *_url fields returned by the API) are used as-is when they point at the API
// host; any other host is refused so the token never leaves it. Anything else
// is treated as a path relative to the API root, optionally carrying a query
// string.
func (c *Client) Resolve(target string) (string, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", errors.ForgeError("invalid target URL").WithCause(err).WithContext("url", target).Build()
		}
		if !strings.EqualFold(u.Scheme, c.apiURL.Scheme) || !strings.EqualFold(u.Host, c.apiURL.Host) {
			return "", ErrOffHostTarget.WithContext("url", target).WithContext("api_host", c.apiURL.Host)
		}
		return target, nil
	}

	cleanEndpoint := strings.TrimPrefix(target, "/")
	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u := *c.apiURL
	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = path.Join(basePath, cleanEndpoint)
	u.RawPath = ""
	u.RawQuery = rawQuery
	return u.String(), nil
}

// Do performs one request and buffers the response body.
func (c *Client) Do(ctx context.Context, method, target string, body any, opts ...RequestOption) (*Response, error) {
	target, err := c.Resolve(target)
	if err != nil {
		return nil, err
	}

	reqBody := io.Reader(http.NoBody)
	if body != nil {
		jsonBody, mErr := json.Marshal(body)
		if mErr != nil {
			return nil, errors.ForgeError("failed to marshal request body").WithCause(mErr).Build()
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.ForgeError("failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", target).
			Build()
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.IncRequest(method, 0)
		return nil, errors.NetworkError("failed to execute request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", target).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()
	c.recorder.IncRequest(method, resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NetworkError("failed to read response body").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", target).
			Build()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		URL:        target,
		Method:     method,
		body:       data,
	}, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, target, nil, opts...)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, target string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, target, body, opts...)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, target string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, target, body, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, target, nil, opts...)
}
