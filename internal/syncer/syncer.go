// Package syncer reconciles expected files against the local store and
// downloads what is missing.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/sgxsync/internal/anchor"
	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/internal/resolver"
	"github.com/wonny/sgxsync/internal/store"
	"github.com/wonny/sgxsync/pkg/logger"
)

// ErrSyncFailures is returned by Check when any target failed
var ErrSyncFailures = errors.New("sync finished with failures")

// Downloader fetches a target across its candidate URLs
type Downloader interface {
	Fetch(ctx context.Context, target contracts.DownloadTarget, candidates []contracts.ResolvedURL) contracts.Outcome
}

// ListingSource scrapes the live download page
type ListingSource interface {
	FetchListing(ctx context.Context) (*contracts.Listing, error)
}

// Deps are the collaborators of a Syncer. Listing and Anchors may be nil.
type Deps struct {
	Store      *store.Store
	Resolver   *resolver.Resolver
	Downloader Downloader
	Listing    ListingSource
	Anchors    anchor.Store
}

// Config holds orchestrator settings
type Config struct {
	Workers    int
	UseListing bool
	Calendar   contracts.Calendar
	Kinds      []contracts.FileKind // empty means every kind
}

// Options are per-run switches
type Options struct {
	RunID  string
	Force  bool
	DryRun bool
}

// Syncer is the orchestrator
// ⭐ SSOT: 다운로드 실행 흐름은 이 오케스트레이터에서만
type Syncer struct {
	deps   Deps
	cfg    Config
	logger *logger.Logger
}

// New creates a syncer
func New(deps Deps, cfg Config, log *logger.Logger) *Syncer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = contracts.AllKinds
	}
	return &Syncer{
		deps:   deps,
		cfg:    cfg,
		logger: log.WithField("module", "syncer"),
	}
}

// Run processes dates in order. Per-target failures are recorded in the
// report and never abort the run; the error is only non-nil when ctx was
// cancelled, in which case the partial report is still returned.
func (s *Syncer) Run(ctx context.Context, dates []contracts.TradingDate, opts Options) (*contracts.SyncReport, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	log := s.logger.WithFields(map[string]interface{}{
		"run_id":  opts.RunID,
		"force":   opts.Force,
		"dry_run": opts.DryRun,
	})

	report := contracts.NewSyncReport(opts.RunID, opts.DryRun, opts.Force)
	targets := s.plan(report, dates, opts.Force)

	log.WithFields(map[string]interface{}{
		"dates":   len(dates),
		"targets": len(targets),
	}).Info("Sync started")

	if len(targets) > 0 && s.cfg.UseListing && !opts.DryRun {
		s.refreshListing(ctx, log)
	}

	var mu sync.Mutex
	record := func(res contracts.TargetResult) {
		mu.Lock()
		defer mu.Unlock()
		report.Record(res)
	}

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Workers)

	for _, target := range targets {
		target := target
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record(s.process(ctx, log, target, opts.DryRun))
			return nil
		})
	}
	_ = g.Wait()

	report.Finish()

	totals := report.Totals()
	log.WithFields(map[string]interface{}{
		"attempted": totals.Attempted,
		"succeeded": totals.Succeeded,
		"failed":    totals.Failed,
		"skipped":   totals.Skipped,
		"present":   totals.Present,
		"planned":   totals.Planned,
		"bytes":     totals.Bytes,
		"duration":  report.Duration().String(),
	}).Info("sync completed")

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("sync interrupted: %w", err)
	}
	return report, nil
}

// plan inspects the store and returns the targets to work on.
// Present files are recorded straight away and never reach the network.
func (s *Syncer) plan(report *contracts.SyncReport, dates []contracts.TradingDate, force bool) []contracts.DownloadTarget {
	var targets []contracts.DownloadTarget

	for _, d := range dates {
		report.AddDate(d, s.cfg.Calendar.IsClosed(d))

		kinds := contracts.AllKinds
		if !force {
			kinds = s.deps.Store.Missing(d)
		}

		wanted := make(map[contracts.FileKind]bool, len(kinds))
		for _, k := range kinds {
			if !s.enabled(k) {
				continue
			}
			wanted[k] = true
			targets = append(targets, contracts.DownloadTarget{Date: d, Kind: k})
		}

		// Disabled kinds are left out of the report entirely
		for _, k := range s.cfg.Kinds {
			if !wanted[k] {
				report.Record(contracts.TargetResult{
					Date:     d,
					Kind:     k.String(),
					Category: contracts.CategoryPresent,
				})
			}
		}
	}

	return targets
}

func (s *Syncer) enabled(kind contracts.FileKind) bool {
	for _, k := range s.cfg.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// refreshListing installs the live listing once per run. Failure only
// means falling back to estimation.
func (s *Syncer) refreshListing(ctx context.Context, log *logger.Logger) {
	if s.deps.Listing == nil {
		return
	}

	listing, err := s.deps.Listing.FetchListing(ctx)
	if err != nil {
		log.WithError(err).Warn("Listing unavailable, using ID estimation")
		return
	}
	s.deps.Resolver.SetListing(listing)

	for _, e := range listing.Entries {
		if e.Kind.Strategy() != contracts.StrategyIDScanned || e.ID <= 0 {
			continue
		}
		if _, _, err := s.deps.Resolver.Learn(e.Date, e.Kind, e.ID); err != nil {
			log.WithError(err).Debug("Listing entry not usable as anchor")
		}
	}
}

// process runs one target to a recorded result
func (s *Syncer) process(ctx context.Context, log *logger.Logger, target contracts.DownloadTarget, dryRun bool) contracts.TargetResult {
	d, k := target.Date, target.Kind
	res := contracts.TargetResult{Date: d, Kind: k.String()}
	log = log.WithFields(map[string]interface{}{
		"date": d.String(),
		"kind": k.String(),
	})

	if err := ctx.Err(); err != nil {
		res.Category = contracts.CategoryFailed
		res.Reason = err.Error()
		return res
	}

	candidates, err := s.deps.Resolver.Resolve(d, k)
	if err != nil {
		log.WithError(err).Error("download failed")
		res.Category = contracts.CategoryFailed
		res.Reason = err.Error()
		return res
	}

	if dryRun {
		res.Category = contracts.CategoryPlanned
		res.Planned = candidates
		if len(candidates) > 0 {
			res.URL = candidates[0].URL
		}
		log.WithField("candidates", len(candidates)).Info("Would download")
		return res
	}

	out := s.deps.Downloader.Fetch(ctx, target, candidates)
	res.Status = out.Status.String()
	res.Attempts = out.Attempts
	res.URL = out.URL

	switch out.Status {
	case contracts.StatusSuccess:
		n, err := s.deps.Store.AtomicWrite(d, k, out.Body)
		if err == nil && n != out.Size {
			err = fmt.Errorf("persisted %d bytes, fetched %d", n, out.Size)
		}
		if err != nil {
			log.WithError(err).Error("download failed")
			res.Category = contracts.CategoryFailed
			res.Reason = err.Error()
			return res
		}

		res.Category = contracts.CategorySucceeded
		res.Bytes = n
		log.WithFields(map[string]interface{}{
			"url":      out.URL,
			"bytes":    n,
			"attempts": out.Attempts,
		}).Info("download succeeded")

		s.learn(ctx, log, target, out.URL, candidates)
		return res

	case contracts.StatusNotFound:
		res.Reason = out.Describe()
		if s.cfg.Calendar.IsClosed(d) {
			res.Category = contracts.CategorySkipped
			log.WithField("reason", res.Reason).Warn("target skipped")
			return res
		}
		res.Category = contracts.CategoryFailed
		log.WithField("reason", res.Reason).Warn("download failed")
		return res

	default:
		res.Category = contracts.CategoryFailed
		res.Reason = out.Describe()
		log.WithFields(map[string]interface{}{
			"attempts": out.Attempts,
			"reason":   res.Reason,
		}).Error("download failed")
		return res
	}
}

// learn turns a confirmed ID-scanned download into a reference point
func (s *Syncer) learn(ctx context.Context, log *logger.Logger, target contracts.DownloadTarget, url string, candidates []contracts.ResolvedURL) {
	if target.Kind.Strategy() != contracts.StrategyIDScanned {
		return
	}

	id := 0
	for _, c := range candidates {
		if c.URL == url {
			id = c.ID
			break
		}
	}
	if id <= 0 {
		return
	}

	a, changed, err := s.deps.Resolver.Learn(target.Date, target.Kind, id)
	if err != nil {
		log.WithError(err).Warn("Confirmed ID rejected as anchor")
		return
	}
	if !changed || s.deps.Anchors == nil {
		return
	}

	if err := s.deps.Anchors.Save(ctx, a); err != nil {
		log.WithError(err).Warn("Failed to persist anchor")
		return
	}
	log.WithField("anchor", a.String()).Debug("Anchor learned")
}

// Check converts a finished report into the process-level error
func Check(report *contracts.SyncReport) error {
	if !report.HasFailures() {
		return nil
	}
	t := report.Totals()
	return fmt.Errorf("%w: %d of %d targets failed", ErrSyncFailures, t.Failed, t.Attempted)
}
