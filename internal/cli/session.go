package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rshade/pecunia/internal/command"
	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/engine"
	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/quote"
)

// ErrUnsupportedBackend is returned for an unknown cache.backend.
var ErrUnsupportedBackend = errors.New("unsupported cache backend")

// propertiesFileName is the file store's default name under the config directory.
const propertiesFileName = "properties.json"

// session is one invocation's cache stack: both tiers, the engine, the dispatcher and
// the resolver, plus whatever must be closed afterwards.
type session struct {
	cache      *engine.FinanceCache
	durable    cache.Store
	dispatcher *command.Dispatcher
	resolver   *quote.Resolver
	closers    []func(context.Context) error
}

// openSession builds the cache stack described by cfg. Metrics, when enabled, are written
// to metricsOut on close.
func openSession(cfg *config.Config, metricsOut io.Writer) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &session{}

	fast := cache.NewMemoryStore(cfg.Cache.CleanupInterval.Std(), cfg.Cache.FastMaxEntries)
	durable, closeDurable, err := newDurableStore(cfg.Cache)
	if err != nil {
		return nil, err
	}
	s.durable = durable
	s.closers = append(s.closers, closeDurable)

	provider, shutdown, err := newMeterProvider(cfg.Metrics, metricsOut)
	if err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	s.closers = append(s.closers, shutdown)

	s.cache = engine.New(fast, durable,
		engine.WithLogger(logger),
		engine.WithMeter(provider.Meter(engine.MeterName)),
		engine.WithFastTTL(cfg.Cache.FastTTL.Std()),
		engine.WithStalenessWindow(cfg.Cache.StalenessWindow.Std()),
	)
	s.dispatcher = command.NewDispatcher(s.cache,
		command.WithExpireAfter(cfg.Cache.ExpireAfter.Std()),
		command.WithLogger(logger),
	)
	s.resolver = quote.NewResolver(s.cache,
		quote.WithCommands(s.dispatcher),
		quote.WithLogger(logger),
	)
	return s, nil
}

// Close flushes metrics and releases the durable store, in reverse order of creation.
func (s *session) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// newDurableStore opens the Tier-2 backend named in cfg.
func newDurableStore(cfg config.CacheConfig) (cache.Store, func(context.Context) error, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		path := cfg.File
		if path == "" {
			path = filepath.Join(config.ConfigDir(), propertiesFileName)
		}
		store, err := cache.NewFileStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file cache %s: %w", path, err)
		}
		return store, func(context.Context) error { return nil }, nil

	case config.BackendRedis:
		store := cache.NewRedisStore(cache.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Namespace: cfg.Redis.Prefix,
			Timeout:   cfg.Redis.Timeout.Std(),
		})
		return store, func(context.Context) error { return store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}

// withSession opens a session from the global configuration, runs fn, and closes the
// session even when fn fails.
func withSession(ctx context.Context, metricsOut io.Writer, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(config.GetGlobalConfig(), metricsOut)
	if err != nil {
		return err
	}
	runErr := fn(ctx, s)
	closeErr := s.Close(context.WithoutCancel(ctx))
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing cache: %w", closeErr)
	}
	return nil
}
