package items

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxMessageBytes = 512

var (
	// ErrNotFound matches (via errors.Is) any HTTPError carrying a 404 status.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidID is returned before any request is made when an operation
	// addressing a single item receives an empty id.
	ErrInvalidID = errors.New("item id is empty")
)

// HTTPError reports a response with a non-2xx status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: http status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: http status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// TransportError reports a failure to exchange or interpret a request:
// DNS, connection and timeout errors (Op "request"), body encoding errors
// (Op "encode") and undecodable responses (Op "decode").
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Outcome is the coarse result of an operation.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "failure"
	}
}

// Classify maps an operation error onto an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeFailure
	}
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}

// errorMessage extracts a short human readable message from an error body.
func errorMessage(contentType string, body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/json" || bytes.HasPrefix(body, []byte("{")):
		if msg := jsonMessage(body); msg != "" {
			return truncate(msg)
		}
	case mediaType == "text/html" || bytes.HasPrefix(bytes.ToLower(body), []byte("<!doctype html")) || bytes.HasPrefix(bytes.ToLower(body), []byte("<html")):
		if msg := htmlMessage(body); msg != "" {
			return truncate(msg)
		}
	}
	return truncate(string(body))
}

func jsonMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message", "detail"} {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func htmlMessage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxMessageBytes {
		return s[:maxMessageBytes]
	}
	return s
}
