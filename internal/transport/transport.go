// Package transport is the HTTP capability the Gameforge clients talk
// through, with a browser-fingerprinted implementation on tls-client.
package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Client is the transport capability. Non-2xx responses come back as a
// *StatusError; any other error is a transport failure.
type Client interface {
	Get(ctx context.Context, url string, headers Headers, query url.Values) (*Response, error)
	Post(ctx context.Context, url string, headers Headers, body any) (*Response, error)
	PostForm(ctx context.Context, url string, headers Headers, form url.Values) (*Response, error)
	Put(ctx context.Context, url string, headers Headers, body any) (*Response, error)
	Delete(ctx context.Context, url string, headers Headers, body any) (*Response, error)
	Options(ctx context.Context, url string, headers Headers) (*Response, error)
}

// Headers maps header names to values. Response headers are always
// lowercase-keyed.
type Headers map[string]string

// Get looks name up case-insensitively.
func (h Headers) Get(name string) string {
	if v, ok := h[strings.ToLower(name)]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

type Response struct {
	Status  int
	Headers Headers
	Body    []byte
}

// StatusError is returned for any response outside 2xx.
type StatusError struct {
	Status  int
	Headers Headers
	Body    []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Status)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
