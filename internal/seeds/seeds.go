// Package seeds gathers target URLs for extraction and job submission
// from arguments, files, piped stdin and RSS/Atom feeds.
package seeds

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Collector describes where URLs come from. The zero value reads only
// from the arguments passed to Collect.
type Collector struct {
	// File is read line by line; blank lines and # comments are skipped.
	File string
	// Feeds are fetched and each item link becomes a URL.
	Feeds []string
	// Stdin is read when no arguments, file or feeds are given.
	Stdin io.Reader
	// HTTPClient is used for feeds; nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Collect returns the cleaned, de-duplicated URLs in input order. Entries
// that are not http(s) URLs are dropped.
func (c *Collector) Collect(ctx context.Context, args []string) ([]string, error) {
	var urls []string
	urls = append(urls, args...)

	if c.File != "" {
		fileURLs, err := ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read URLs from file %s: %w", c.File, err)
		}
		urls = append(urls, fileURLs...)
	}

	for _, feedURL := range c.Feeds {
		links, err := c.FeedLinks(ctx, feedURL)
		if err != nil {
			return nil, err
		}
		urls = append(urls, links...)
	}

	if len(args) == 0 && c.File == "" && len(c.Feeds) == 0 && c.Stdin != nil {
		stdinURLs, err := ReadLines(c.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read URLs from stdin: %w", err)
		}
		urls = append(urls, stdinURLs...)
	}

	return Clean(urls), nil
}

// FeedLinks fetches an RSS or Atom feed and returns its item links.
func (c *Collector) FeedLinks(ctx context.Context, feedURL string) ([]string, error) {
	fp := gofeed.NewParser()
	if c.HTTPClient != nil {
		fp.Client = c.HTTPClient
	}
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}
	return Links(feed), nil
}

// Links returns the non-empty item links of feed.
func Links(feed *gofeed.Feed) []string {
	if feed == nil || len(feed.Items) == 0 {
		return []string{}
	}
	urls := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls
}

// ReadFile reads one URL per line from filename.
func ReadFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadLines(file)
}

// ReadLines returns the non-blank lines of r, skipping # comments.
func ReadLines(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	return urls, scanner.Err()
}

// PipedStdin returns os.Stdin when data is being piped in, nil otherwise.
func PipedStdin() io.Reader {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return nil
	}
	return os.Stdin
}

// Clean trims urls and drops invalid and duplicate entries, keeping the
// first occurrence.
func Clean(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	cleanURLs := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || !IsValidURL(u) || seen[u] {
			continue
		}
		seen[u] = true
		cleanURLs = append(cleanURLs, u)
	}
	return cleanURLs
}

// IsValidURL reports whether url is an absolute http or https URL.
func IsValidURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
