package diffbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.diffbot.com"
	DefaultVersion = 3
	DefaultTimeout = 30 * time.Second

	DefaultUserAgent = "diffbot-go"
)

// Transport executes one request against the versioned API. path is
// relative to the version root, e.g. "crawl" or "bulk/data". Both methods
// return the raw body once it is known not to be an error envelope; an
// envelope is returned as a KindResponse *Error.
type Transport interface {
	Get(ctx context.Context, path string, p Params) ([]byte, error)
	PostForm(ctx context.Context, path string, p Params) ([]byte, error)
}

// HTTPTransport is the net/http Transport. It adds the token to every
// request and performs no retries.
type HTTPTransport struct {
	BaseURL   string // overridable for testing
	Version   int
	Timeout   time.Duration
	UserAgent string
	token     string
	client    *http.Client
	logger    *slog.Logger
}

// NewHTTPTransport creates a transport for the default endpoint. A zero
// timeout means DefaultTimeout.
func NewHTTPTransport(token string, timeout time.Duration) *HTTPTransport {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{
		BaseURL:   DefaultBaseURL,
		Version:   DefaultVersion,
		Timeout:   timeout,
		UserAgent: DefaultUserAgent,
		token:     token,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: discardLogger(),
	}
}

// SetHTTPClient replaces the underlying client, e.g. to add a proxy.
func (t *HTTPTransport) SetHTTPClient(c *http.Client) { t.client = c }

// SetLogger sets the logger used for request tracing at debug level.
func (t *HTTPTransport) SetLogger(l *slog.Logger) {
	if l != nil {
		t.logger = l
	}
}

// Endpoint returns {base}/v{version}/{path}.
func (t *HTTPTransport) Endpoint(path string) string {
	return endpoint(t.BaseURL, t.Version, path)
}

func endpoint(base string, version int, path string) string {
	return fmt.Sprintf("%s/v%d/%s", strings.TrimRight(base, "/"), version, strings.TrimLeft(path, "/"))
}

// Get sends p in the query string.
func (t *HTTPTransport) Get(ctx context.Context, path string, p Params) ([]byte, error) {
	u := t.Endpoint(path) + "?" + t.withToken(p).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, transportError("failed to create request", err)
	}
	return t.do(req, path)
}

// PostForm sends p as a form-encoded body.
func (t *HTTPTransport) PostForm(ctx context.Context, path string, p Params) ([]byte, error) {
	body := t.withToken(p).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint(path), strings.NewReader(body))
	if err != nil {
		return nil, transportError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return t.do(req, path)
}

func (t *HTTPTransport) withToken(p Params) Params {
	return p.Merge(Params{"token": t.token})
}

func (t *HTTPTransport) do(req *http.Request, path string) ([]byte, error) {
	t.logger.Debug("diffbot request", "method", req.Method, "path", path)
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, transportError("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("failed to read response", err)
	}

	// The service reports errors in the body, sometimes with a 200.
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case 401, 403:
			return nil, transportError(fmt.Sprintf("authentication error: %s", strings.TrimSpace(string(body))), nil)
		case 429:
			return nil, transportError("rate limited", nil)
		default:
			return nil, transportError(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
		}
	}

	return body, nil
}

type errorEnvelope struct {
	Error     json.RawMessage `json:"error"`
	ErrorCode json.RawMessage `json:"errorCode"`
}

// checkEnvelope returns a KindResponse error when body is a JSON object
// carrying a non-null "error" key. Anything else, including csv, passes.
// The code may arrive as an integer, a float or a quoted string.
func checkEnvelope(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var env errorEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil
	}
	if len(env.Error) == 0 || string(env.Error) == "null" {
		return nil
	}
	return responseError(envelopeCode(env.ErrorCode), envelopeMessage(env.Error))
}

func envelopeMessage(raw json.RawMessage) string {
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg
	}
	return string(raw)
}

// envelopeCode returns 0 when raw holds no usable number.
func envelopeCode(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	text := string(raw)
	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		text = quoted
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return transportError("failed to parse response", err)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
