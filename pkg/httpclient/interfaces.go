package httpclient

import (
	"context"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Request describes a single HTTP exchange. Body is sent as-is when it is a
// []byte or string; other values are left to the transport to encode.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
