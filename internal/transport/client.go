package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"

	"gfauth/internal/logging"
)

// Config tunes the tls-client transport.
type Config struct {
	Proxy          string `yaml:"proxy"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{TimeoutSeconds: 30}
}

// TLSClient implements Client on top of tls-client so the TLS and HTTP/2
// fingerprint match the launcher.
type TLSClient struct {
	client tls_client.HttpClient
	logger logging.Logger
}

var _ Client = (*TLSClient)(nil)

func NewClient(cfg Config, logger logging.Logger, tlsLogger tls_client.Logger) (*TLSClient, error) {
	return NewClientWithProfile(cfg, DefaultProfile, logger, tlsLogger)
}

func NewClientWithProfile(cfg Config, profile *BrowserProfile, logger logging.Logger, tlsLogger tls_client.Logger) (*TLSClient, error) {
	if tlsLogger == nil {
		tlsLogger = tls_client.NewNoopLogger()
	}
	if profile == nil {
		profile = DefaultProfile
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultConfig().TimeoutSeconds
	}

	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeout),
		tls_client.WithClientProfile(profile.TLSProfile),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithCookieJar(jar),
	}

	if cfg.Proxy != "" {
		proxyURL, _, err := ParseProxy(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		options = append(options, tls_client.WithProxyUrl(proxyURL))
	}

	client, err := tls_client.NewHttpClient(tlsLogger, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tls client: %w", err)
	}
	return &TLSClient{client: client, logger: logging.OrNop(logger)}, nil
}

func (c *TLSClient) Get(ctx context.Context, rawURL string, headers Headers, query url.Values) (*Response, error) {
	target, err := withQuery(rawURL, query)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, target, headers, nil, "")
}

func (c *TLSClient) Post(ctx context.Context, rawURL string, headers Headers, body any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, rawURL, headers, body)
}

func (c *TLSClient) PostForm(ctx context.Context, rawURL string, headers Headers, form url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, headers, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (c *TLSClient) Put(ctx context.Context, rawURL string, headers Headers, body any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPut, rawURL, headers, body)
}

func (c *TLSClient) Delete(ctx context.Context, rawURL string, headers Headers, body any) (*Response, error) {
	return c.doJSON(ctx, http.MethodDelete, rawURL, headers, body)
}

func (c *TLSClient) Options(ctx context.Context, rawURL string, headers Headers) (*Response, error) {
	return c.do(ctx, http.MethodOptions, rawURL, headers, nil, "")
}

func (c *TLSClient) doJSON(ctx context.Context, method, rawURL string, headers Headers, body any) (*Response, error) {
	if body == nil {
		return c.do(ctx, method, rawURL, headers, nil, "")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s body: %w", method, err)
	}
	return c.do(ctx, method, rawURL, headers, bytes.NewReader(payload), "application/json")
}

func (c *TLSClient) do(ctx context.Context, method, rawURL string, headers Headers, body io.Reader, contentType string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header = buildHeader(headers, contentType)

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, req.URL.Path, err)
	}

	respHeaders := lowercaseHeaders(resp.Header)
	if !isSuccess(resp.StatusCode) {
		return nil, &StatusError{Status: resp.StatusCode, Headers: respHeaders, Body: respBody}
	}
	return &Response{Status: resp.StatusCode, Headers: respHeaders, Body: respBody}, nil
}

// doRequest executes an HTTP request and logs the request path and response status.
func (c *TLSClient) doRequest(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Log("%s %s -> error: %v", req.Method, req.URL.Path, err)
		return nil, err
	}
	c.logger.Log("%s %s -> %d", req.Method, req.URL.Path, resp.StatusCode)
	return resp, nil
}

// readResponseBody decompresses and reads the full response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	body := http.DecompressBody(resp)
	defer body.Close()
	return io.ReadAll(body)
}

// headerOrder is the order the launcher writes the headers it knows about.
// Anything else follows alphabetically.
var headerOrder = []string{
	"host",
	"content-length",
	"accept",
	"gf-challenge-id",
	"user-agent",
	"content-type",
	"origin",
	"sec-fetch-site",
	"sec-fetch-mode",
	"sec-fetch-dest",
	"referer",
	"accept-encoding",
	"accept-language",
	"cookie",
}

func buildHeader(headers Headers, contentType string) http.Header {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	if contentType != "" && h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}

	var extra []string
	for k := range h {
		if !slices.Contains(headerOrder, strings.ToLower(k)) {
			extra = append(extra, strings.ToLower(k))
		}
	}
	slices.Sort(extra)

	h[http.HeaderOrderKey] = append(slices.Clone(headerOrder), extra...)
	h[http.PHeaderOrderKey] = pseudoHeaderOrder
	return h
}

// lowercaseHeaders flattens a response header, joining repeated values.
func lowercaseHeaders(h http.Header) Headers {
	out := make(Headers, len(h))
	for k, values := range h {
		out[strings.ToLower(k)] = strings.Join(values, ", ")
	}
	return out
}

func withQuery(rawURL string, query url.Values) (string, error) {
	if len(query) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.RawQuery != "" {
		u.RawQuery += "&" + query.Encode()
	} else {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}
