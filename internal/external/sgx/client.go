// Package sgx talks to the SGX derivatives download host.
package sgx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/pkg/config"
	"github.com/wonny/sgxsync/pkg/httputil"
	"github.com/wonny/sgxsync/pkg/logger"
	"github.com/wonny/sgxsync/pkg/redis"
)

// Client handles communication with the SGX download host and page
// ⭐ SSOT: SGX 네트워크 호출은 이 클라이언트에서만
type Client struct {
	download *httputil.Client
	page     *httputil.Client
	cache    *redis.Cache
	logger   *logger.Logger
	pageURL  string
}

// NewClient creates a client from config. cache may be nil.
func NewClient(cfg *config.Config, cache *redis.Cache, log *logger.Logger) *Client {
	// Attempts are counted by the retry controller, never here
	download := httputil.New(cfg, log).DisableRetry().WithoutRedirects()
	page := httputil.New(cfg, log).WithRetry(2, cfg.SGX.RetryDelay)

	return NewClientWith(download, page, cfg.SGX.PageURL, cache, log)
}

// NewClientWith wires pre-built HTTP clients
func NewClientWith(download, page *httputil.Client, pageURL string, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		download: download,
		page:     page,
		cache:    cache,
		logger:   log.WithField("module", "sgx"),
		pageURL:  pageURL,
	}
}

// Fetch performs one GET and normalizes the answer.
//
// SGX never answers a missing file with a plain 404: it redirects to an
// error page, or serves an HTML page where a data file was expected.
// Both are reported as 404 so callers see a single "not found" shape.
// Other redirects are followed once.
func (c *Client) Fetch(ctx context.Context, rawURL string) (contracts.Response, error) {
	resp, err := c.download.Get(ctx, rawURL)
	if err != nil {
		return contracts.Response{}, err
	}

	if isRedirect(resp.StatusCode) {
		location := resp.Header.Get("Location")
		resp.Body.Close()

		if location == "" || isErrorPage(location) {
			c.logger.WithFields(map[string]interface{}{
				"url":      rawURL,
				"location": location,
			}).Debug("Redirected to error page")
			return contracts.Response{StatusCode: http.StatusNotFound}, nil
		}

		next, err := resolveRef(rawURL, location)
		if err != nil {
			return contracts.Response{}, err
		}
		resp, err = c.download.Get(ctx, next)
		if err != nil {
			return contracts.Response{}, err
		}
		if isRedirect(resp.StatusCode) {
			resp.Body.Close()
			return contracts.Response{StatusCode: http.StatusNotFound}, nil
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return contracts.Response{}, fmt.Errorf("read response body failed: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && isHTML(contentType) && !strings.HasSuffix(remoteName(rawURL), ".html") {
		c.logger.WithField("url", rawURL).Debug("Got HTML instead of data file")
		return contracts.Response{StatusCode: http.StatusNotFound, ContentType: contentType}, nil
	}

	return contracts.Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: contentType,
	}, nil
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func isErrorPage(location string) bool {
	lower := strings.ToLower(location)
	return strings.Contains(lower, "error")
}

func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

func resolveRef(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid redirect %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

func remoteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}
