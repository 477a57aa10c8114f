package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sgxsync/internal/anchor"
	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/internal/dateset"
	"github.com/wonny/sgxsync/internal/external/sgx"
	"github.com/wonny/sgxsync/internal/fetcher"
	"github.com/wonny/sgxsync/internal/resolver"
	"github.com/wonny/sgxsync/internal/retry"
	"github.com/wonny/sgxsync/internal/store"
	"github.com/wonny/sgxsync/internal/syncer"
	"github.com/wonny/sgxsync/pkg/config"
	"github.com/wonny/sgxsync/pkg/logger"
	"github.com/wonny/sgxsync/pkg/redis"
)

// loadConfig reads the env configuration and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if outputDir != "" {
		cfg.SetOutputDir(outputDir)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if quiet {
		cfg.LogQuiet = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// engine holds the wired download pipeline
type engine struct {
	cfg      *config.Config
	log      *logger.Logger
	calendar contracts.Calendar
	redis    *redis.Client
	anchors  *anchor.Set
	learned  anchor.Store
	store    *store.Store
	resolver *resolver.Resolver
	sgx      *sgx.Client
	syncer   *syncer.Syncer
}

// newEngine wires every component from the configuration
// ⭐ SSOT: 컴포넌트 조립은 여기서만
func newEngine(ctx context.Context, cfg *config.Config, log *logger.Logger) (*engine, error) {
	calendar, err := contracts.ParseCalendar(cfg.SGX.Holidays)
	if err != nil {
		return nil, err
	}
	kinds, err := parseKinds(cfg.SGX.Kinds)
	if err != nil {
		return nil, err
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, err
	}

	learned, err := openAnchorStore(cfg, rdb)
	if err != nil {
		rdb.Close()
		return nil, err
	}

	anchors, err := loadAnchors(ctx, cfg, learned, log)
	if err != nil {
		learned.Close()
		rdb.Close()
		return nil, err
	}

	e := &engine{
		cfg:      cfg,
		log:      log,
		calendar: calendar,
		redis:    rdb,
		anchors:  anchors,
		learned:  learned,
		store:    store.New(cfg.SGX.OutputDir, log),
		resolver: resolver.New(resolver.Config{
			BaseURL:    cfg.SGX.BaseURL,
			ScanRadius: cfg.SGX.ScanRadius,
			Calendar:   calendar,
		}, anchors, log),
		sgx: sgx.NewClient(cfg, redis.NewCache(rdb, "listing"), log),
	}

	f := fetcher.New(e.sgx, fetcher.Options{VerifyZip: cfg.SGX.VerifyZip}, log)
	controller := retry.New(f, retry.Options{
		MaxAttempts: cfg.SGX.RetryAttempts,
		Delay:       cfg.SGX.RetryDelay,
		MaxDelay:    cfg.SGX.RetryMaxDelay,
	}, log)

	e.syncer = syncer.New(syncer.Deps{
		Store:      e.store,
		Resolver:   e.resolver,
		Downloader: controller,
		Listing:    e.sgx,
		Anchors:    learned,
	}, syncer.Config{
		Workers:    cfg.SGX.Workers,
		UseListing: cfg.SGX.UseListing,
		Calendar:   calendar,
		Kinds:      kinds,
	}, log)

	return e, nil
}

// Close releases the anchor store and Redis connection
func (e *engine) Close() {
	if err := e.learned.Close(); err != nil {
		e.log.WithError(err).Warn("Failed to close anchor store")
	}
	if err := e.redis.Close(); err != nil {
		e.log.WithError(err).Warn("Failed to close redis")
	}
}

// parseKinds reads SGX_KINDS; nil selects every kind
func parseKinds(codes []string) ([]contracts.FileKind, error) {
	var kinds []contracts.FileKind
	for _, code := range codes {
		k, err := contracts.ParseFileKind(code)
		if err != nil {
			return nil, fmt.Errorf("SGX_KINDS: %w", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// dateOptions builds target-date options from the configuration
func dateOptions(cfg *config.Config, now time.Time) (dateset.Options, error) {
	calendar, err := contracts.ParseCalendar(cfg.SGX.Holidays)
	if err != nil {
		return dateset.Options{}, err
	}
	policy, err := dateset.ParseWeekendPolicy(cfg.SGX.WeekendPolicy)
	if err != nil {
		return dateset.Options{}, err
	}
	return dateset.Options{
		Now:                  now,
		Calendar:             calendar,
		WeekendPolicy:        policy,
		BackfillIncludeToday: cfg.SGX.BackfillIncludeToday,
	}, nil
}

// resolveDates turns a selection into target dates. It needs only the
// configuration, so bad input fails before any store or socket is opened.
func resolveDates(cfg *config.Config, mode dateset.Mode, now time.Time) (dateset.Result, error) {
	opts, err := dateOptions(cfg, now)
	if err != nil {
		return dateset.Result{}, err
	}
	return dateset.Resolve(mode, opts)
}

func openAnchorStore(cfg *config.Config, rdb *redis.Client) (anchor.Store, error) {
	switch cfg.Anchor.Store {
	case config.AnchorStoreRedis:
		return anchor.NewRedisStore(rdb), nil
	case config.AnchorStoreMemory:
		return anchor.NewMemoryStore(), nil
	default:
		return anchor.OpenBolt(cfg.Anchor.BoltPath)
	}
}

// loadAnchors merges built-in, seeded and learned anchors.
// A bad seed file is a user error; a learned anchor that no longer fits is
// only logged.
func loadAnchors(ctx context.Context, cfg *config.Config, learned anchor.Store, log *logger.Logger) (*anchor.Set, error) {
	set, err := anchor.NewSet(anchor.Defaults()...)
	if err != nil {
		return nil, err
	}

	if cfg.Anchor.File != "" {
		seeds, err := anchor.LoadFile(cfg.Anchor.File)
		if err != nil {
			return nil, err
		}
		for _, a := range seeds {
			if _, err := set.Add(a); err != nil {
				return nil, fmt.Errorf("anchors file %s: %w", cfg.Anchor.File, err)
			}
		}
	}

	stored, err := learned.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to load learned anchors")
		return set, nil
	}
	for _, a := range stored {
		if _, err := set.Add(a); err != nil {
			log.WithError(err).WithField("anchor", a.String()).Warn("Ignoring learned anchor")
		}
	}

	return set, nil
}
