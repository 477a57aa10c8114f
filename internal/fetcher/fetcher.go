// Package fetcher performs single download attempts and classifies them.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/pkg/logger"
)

// Transport is the network collaborator. A headless-browser driver can
// stand in for the HTTP client as long as it returns the same shape.
type Transport interface {
	Fetch(ctx context.Context, url string) (contracts.Response, error)
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, url string) (contracts.Response, error)

// Fetch calls f
func (f TransportFunc) Fetch(ctx context.Context, url string) (contracts.Response, error) {
	return f(ctx, url)
}

// Options controls verification
type Options struct {
	VerifyZip bool
}

// Fetcher makes exactly one attempt per call; retries live elsewhere
type Fetcher struct {
	transport Transport
	opts      Options
	logger    *logger.Logger
}

// New creates a fetcher
func New(transport Transport, opts Options, log *logger.Logger) *Fetcher {
	return &Fetcher{
		transport: transport,
		opts:      opts,
		logger:    log.WithField("module", "fetcher"),
	}
}

// Attempt performs one download and returns a verified outcome
func (f *Fetcher) Attempt(ctx context.Context, url string) contracts.Outcome {
	f.logger.WithField("url", url).Debug("download attempted")

	resp, err := f.transport.Fetch(ctx, url)
	outcome := Classify(url, resp, err)

	return Verify(outcome, f.opts.VerifyZip)
}

// Classify maps a transport result onto the outcome taxonomy
func Classify(url string, resp contracts.Response, err error) contracts.Outcome {
	if err != nil {
		return contracts.TransportError(url, err.Error())
	}

	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		return contracts.NotFound(url, "HTTP 404")
	case code >= 200 && code < 300:
		if len(resp.Body) == 0 {
			return contracts.Empty(url, fmt.Sprintf("HTTP %d with empty body", code))
		}
		return contracts.Success(url, resp.Body)
	default:
		return contracts.TransportError(url, fmt.Sprintf("HTTP %d", code))
	}
}

var zipSignature = []byte("PK\x03\x04")

// Verify downgrades payloads that cannot be valid artifacts. A zero-size
// Success becomes Empty; with checkZip, a .zip payload lacking the local
// file header signature becomes Empty too. Anything else passes through.
func Verify(o contracts.Outcome, checkZip bool) contracts.Outcome {
	if o.Status != contracts.StatusSuccess {
		return o
	}

	if o.Size == 0 || len(o.Body) == 0 {
		return contracts.Empty(o.URL, "zero-length payload")
	}

	if checkZip && strings.HasSuffix(strings.ToLower(o.URL), ".zip") && !bytes.HasPrefix(o.Body, zipSignature) {
		return contracts.Empty(o.URL, "payload is not a zip archive")
	}

	return o
}
