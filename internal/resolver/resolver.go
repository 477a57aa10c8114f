// Package resolver maps a (date, kind) target to candidate download URLs.
package resolver

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wonny/sgxsync/internal/anchor"
	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/pkg/logger"
)

// Resolver builds candidate URLs, most confident first. It never touches
// the network: a scraped listing is handed in with SetListing.
// ⭐ SSOT: 다운로드 URL 계산은 이 리졸버에서만
type Resolver struct {
	baseURL   string
	radius    int
	anchors   *anchor.Set
	estimator *Estimator
	logger    *logger.Logger

	mu      sync.RWMutex
	listing *contracts.Listing
}

// Config holds resolver settings
type Config struct {
	BaseURL    string
	ScanRadius int
	Calendar   contracts.Calendar
}

// New creates a resolver over a shared anchor set
func New(cfg Config, anchors *anchor.Set, log *logger.Logger) *Resolver {
	return &Resolver{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		radius:    cfg.ScanRadius,
		anchors:   anchors,
		estimator: NewEstimator(anchors, cfg.Calendar),
		logger:    log.WithField("module", "resolver"),
	}
}

// SetListing installs a freshly scraped listing; nil clears it
func (r *Resolver) SetListing(l *contracts.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listing = l
}

// Listing returns the installed listing, if any
func (r *Resolver) Listing() *contracts.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listing
}

// Learn records a confirmed (date, id) pair for the kind's series.
// It reports whether the anchor set changed.
func (r *Resolver) Learn(date contracts.TradingDate, kind contracts.FileKind, id int) (anchor.Anchor, bool, error) {
	a := anchor.Anchor{Series: kind.Series(), Date: date, ID: id}
	changed, err := r.anchors.Add(a)
	return a, changed, err
}

// Estimate exposes the point estimate for diagnostics
func (r *Resolver) Estimate(date contracts.TradingDate, kind contracts.FileKind) (int, error) {
	return r.estimator.Estimate(kind.Series(), date)
}

// Resolve returns candidate URLs for a target in decreasing confidence
func (r *Resolver) Resolve(date contracts.TradingDate, kind contracts.FileKind) ([]contracts.ResolvedURL, error) {
	var candidates []contracts.ResolvedURL
	seen := make(map[string]bool)

	add := func(u contracts.ResolvedURL) {
		if !seen[u.URL] {
			seen[u.URL] = true
			candidates = append(candidates, u)
		}
	}

	// Listing always wins over estimation
	if entry, ok := r.Listing().Lookup(date, kind); ok {
		add(contracts.ResolvedURL{URL: entry.URL, Source: contracts.SourceListing, ID: entry.ID})
	}

	estimate, err := r.estimator.Estimate(kind.Series(), date)
	if err != nil {
		if len(candidates) > 0 {
			return candidates, nil
		}
		return nil, fmt.Errorf("resolve %s %s: %w", date, kind, err)
	}

	remote := kind.RemoteName(date)

	switch kind.Strategy() {
	case contracts.StrategyDirect:
		if len(candidates) == 0 {
			add(contracts.ResolvedURL{URL: r.BuildURL(estimate, remote), Source: contracts.SourceDirect, ID: estimate})
		}

	case contracts.StrategyIDScanned:
		for _, id := range Window(estimate, r.radius) {
			add(contracts.ResolvedURL{URL: r.BuildURL(id, remote), Source: contracts.SourceEstimate, ID: id})
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"date":       date.String(),
		"kind":       kind.String(),
		"estimate":   estimate,
		"candidates": len(candidates),
	}).Debug("Resolved candidate URLs")

	return candidates, nil
}

// BuildURL formats <base>/<id>/<remote name>
func (r *Resolver) BuildURL(id int, remote string) string {
	return fmt.Sprintf("%s/%d/%s", r.baseURL, id, remote)
}
