// Package items is a client for the marketplace items REST API.
//
// A Client is built once from a base URL and shared; every operation is a
// single request/response exchange and the client keeps no state between
// calls, so it is safe for concurrent use.
package items

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/marketplace-items/pkg/httpclient"
)

const (
	// DefaultBaseURL is the address of a locally running items API.
	DefaultBaseURL = "http://localhost:8080/api"

	// DefaultTimeout bounds each request when no transport is injected.
	DefaultTimeout = 30 * time.Second

	itemsPath = "/items"
)

// Client issues item requests against a base URL.
type Client struct {
	baseURL string
	http    httpclient.Client
	headers map[string]string
	log     Logger
}

type clientOptions struct {
	http    httpclient.Client
	log     Logger
	headers map[string]string
	timeout time.Duration
}

// Option customizes a Client.
type Option func(*clientOptions)

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *clientOptions) { o.http = c }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *clientOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k == "" || v == "" {
				continue
			}
			o.headers[k] = v
		}
	}
}

// WithTimeout sets the per-request timeout of the default transport.
// Zero disables it. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// NewClient builds a Client for baseURL. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http or https url", baseURL)
	}

	o := clientOptions{timeout: DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative")
	}
	if o.http == nil {
		o.http = httpclient.NewRestyClient(o.timeout)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    o.http,
		headers: o.headers,
		log:     ensureLogger(o.log),
	}, nil
}

// BaseURL returns the root all item paths are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// ListItems returns every item in the order the server reports them.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	target := c.collectionURL()
	body, err := c.call(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	out := []Item{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Op: "decode", Method: http.MethodGet, URL: target, Err: err}
	}
	if out == nil {
		out = []Item{}
	}
	return out, nil
}

// GetItem fetches a single item. A missing item yields an error matching ErrNotFound.
func (c *Client) GetItem(ctx context.Context, id string) (Item, error) {
	target, err := c.itemURL(id)
	if err != nil {
		return Item{}, err
	}
	body, err := c.call(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Item{}, err
	}
	return decodeItem(http.MethodGet, target, body)
}

// CreateItem submits item and returns it as stored, including the server
// assigned id.
func (c *Client) CreateItem(ctx context.Context, item Item) (Item, error) {
	target := c.collectionURL()
	submitted := item
	submitted.ID = ""

	body, err := c.call(ctx, http.MethodPost, target, submitted)
	if err != nil {
		return Item{}, err
	}

	// Some server builds answer with an insert acknowledgement only.
	if id := insertedID(body); id != "" {
		submitted.ID = id
		return submitted, nil
	}
	created, err := decodeItem(http.MethodPost, target, body)
	if err != nil {
		return Item{}, err
	}
	if created.ID == "" {
		return Item{}, &TransportError{Op: "decode", Method: http.MethodPost, URL: target, Err: fmt.Errorf("created item has no id")}
	}
	return created, nil
}

// UpdateItem replaces the item stored under id and returns the updated item.
func (c *Client) UpdateItem(ctx context.Context, id string, item Item) (Item, error) {
	target, err := c.itemURL(id)
	if err != nil {
		return Item{}, err
	}
	body, err := c.call(ctx, http.MethodPut, target, item)
	if err != nil {
		return Item{}, err
	}

	if emptyBody(body) {
		item.ID = id
		return item, nil
	}
	updated, err := decodeItem(http.MethodPut, target, body)
	if err != nil {
		return Item{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	return updated, nil
}

// DeleteItem removes the item stored under id. A nil error means success.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	target, err := c.itemURL(id)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodDelete, target, nil)
	return err
}

func (c *Client) collectionURL() string {
	return c.baseURL + itemsPath
}

func (c *Client) itemURL(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidID
	}
	return c.baseURL + itemsPath + "/" + url.PathEscape(id), nil
}

// call performs one exchange and returns the body of a 2xx response.
func (c *Client) call(ctx context.Context, method, target string, payload any) ([]byte, error) {
	headers := make(map[string]string, len(c.headers)+2)
	for k, v := range c.headers {
		headers[k] = v
	}
	headers["Accept"] = "application/json"

	req := httpclient.Request{Method: method, URL: target, Headers: headers}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, &TransportError{Op: "encode", Method: method, URL: target, Err: err}
		}
		req.Body = raw
		headers["Content-Type"] = "application/json"
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.log.WarnObj("items request failed", "items_request", map[string]any{
			"method":     method,
			"url":        target,
			"elapsed_ms": time.Since(start).Milliseconds(),
			"error":      err.Error(),
		})
		return nil, &TransportError{Op: "request", Method: method, URL: target, Err: err}
	}

	status := resp.StatusCode()
	c.log.DebugObj("items request completed", "items_request", map[string]any{
		"method":     method,
		"url":        target,
		"status":     status,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if status < 200 || status > 299 {
		return nil, &HTTPError{
			Method:     method,
			URL:        target,
			StatusCode: status,
			Message:    errorMessage(resp.Header().Get("Content-Type"), resp.Body()),
		}
	}
	return resp.Body(), nil
}

// emptyBody reports whether body carries no value: nothing, or JSON null.
func emptyBody(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeItem(method, target string, body []byte) (Item, error) {
	if emptyBody(body) {
		return Item{}, &TransportError{Op: "decode", Method: method, URL: target, Err: fmt.Errorf("empty response body")}
	}
	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return Item{}, &TransportError{Op: "decode", Method: method, URL: target, Err: err}
	}
	return item, nil
}

// insertedID returns the id of an insert acknowledgement such as
// {"InsertedID": "..."}, or "" when body is not one.
func insertedID(body []byte) string {
	var ack map[string]json.RawMessage
	if err := json.Unmarshal(body, &ack); err != nil || len(ack) != 1 {
		return ""
	}
	for key, raw := range ack {
		if normalizeKey(key) != "insertedid" {
			return ""
		}
		id, err := decodeID(raw)
		if err != nil {
			return ""
		}
		return id
	}
	return ""
}
