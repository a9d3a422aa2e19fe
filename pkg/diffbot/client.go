// Package diffbot is a client for the Diffbot extraction service: single
// page extraction, bulk and crawl jobs, and search over job results.
package diffbot

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// TokenSource resolves the API token for a profile. It is called once, in
// New.
type TokenSource func(profile string) (string, error)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func(string) (string, error) { return token, nil }
}

// Options configure a Client. The zero value uses the public endpoint.
type Options struct {
	Profile    string
	BaseURL    string
	Version    int
	Timeout    time.Duration // passed to the HTTP client; no retries are made
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is an immutable handle holding a resolved token and endpoint.
type Client struct {
	transport *HTTPTransport
}

// New resolves the token through tokens and builds the HTTP transport.
// A resolution failure is returned as a KindCredential error.
func New(tokens TokenSource, opts Options) (*Client, error) {
	if tokens == nil {
		return nil, CredentialError("no token source", nil)
	}
	token, err := tokens(opts.Profile)
	if err != nil {
		if IsKind(err, KindCredential) {
			return nil, err
		}
		return nil, CredentialError("profile "+opts.Profile, err)
	}
	if token == "" {
		return nil, CredentialError("empty token for profile "+opts.Profile, nil)
	}

	t := NewHTTPTransport(token, opts.Timeout)
	if opts.BaseURL != "" {
		t.BaseURL = opts.BaseURL
	}
	if opts.Version != 0 {
		t.Version = opts.Version
	}
	if opts.UserAgent != "" {
		t.UserAgent = opts.UserAgent
	}
	if opts.HTTPClient != nil {
		t.SetHTTPClient(opts.HTTPClient)
	}
	t.SetLogger(opts.Logger)
	return &Client{transport: t}, nil
}

// Transport exposes the underlying transport.
func (c *Client) Transport() *HTTPTransport { return c.transport }

// Bulk returns the operator for the bulk job called name.
func (c *Client) Bulk(name string) *JobOperator { return NewBulkJobOperator(c.transport, name) }

// Crawl returns the operator for the crawl job called name.
func (c *Client) Crawl(name string) *JobOperator { return NewCrawlJobOperator(c.transport, name) }

// Job returns the operator for name in the given family. Any family
// other than bulk or crawl yields ErrUnknownFamily.
func (c *Client) Job(family Family, name string) (*JobOperator, error) {
	switch family {
	case FamilyBulk:
		return c.Bulk(name), nil
	case FamilyCrawl:
		return c.Crawl(name), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFamily, family)
}

// Searcher returns a searcher over the results of job. It does not check
// the job state; see JobOperator.FetchCompletedSearcher.
func (c *Client) Searcher(job string) *Searcher { return NewSearcher(c.transport, job) }

// Single returns a fetcher for synchronous single-page extraction.
func (c *Client) Single() *SingleFetcher { return NewSingleFetcher(c.transport) }

// APIURL builds an apiUrl against this client's endpoint.
func (c *Client) APIURL(apiType ResultType, opts Params) string {
	return APIURL(c.transport.BaseURL, c.transport.Version, apiType, opts)
}
