// Package app is the composition root. It assembles the session manager, the
// wire client, the signal bus, the domain stores, and the access guard into
// one value the shell (CLI or embedding program) drives.
package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"inkwell/internal/api"
	"inkwell/internal/categories"
	"inkwell/internal/comments"
	"inkwell/internal/guard"
	"inkwell/internal/platform/config"
	"inkwell/internal/platform/logger"
	"inkwell/internal/platform/metrics"
	platformredis "inkwell/internal/platform/redis"
	"inkwell/internal/posts"
	"inkwell/internal/session"
	"inkwell/internal/signal"
	"inkwell/internal/users"
	"inkwell/pkg/platform/circuit"
)

// App wires the client state core together.
type App struct {
	Sessions   *session.Manager
	Client     *api.Client
	Bus        *signal.Bus
	Users      *users.Store
	Posts      *posts.Store
	Categories *categories.Store
	Comments   *comments.Store
	Guard      *guard.Guard

	log   *slog.Logger
	redis *platformredis.Client
}

// Option configures an App.
type Option func(*options)

type options struct {
	log          *slog.Logger
	metrics      *metrics.Metrics
	sessionStore session.Store
	httpClient   api.Doer
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSessionStore overrides the store selection from config.
func WithSessionStore(store session.Store) Option {
	return func(o *options) {
		o.sessionStore = store
	}
}

// WithHTTPClient overrides the wire transport, mainly for tests.
func WithHTTPClient(doer api.Doer) Option {
	return func(o *options) {
		o.httpClient = doer
	}
}

// New assembles the core from config. The previous session, if any, is
// restored from the store so the user stays signed in across restarts.
func New(ctx context.Context, cfg config.Client, opts ...Option) (*App, error) {
	o := &options{log: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Bus: signal.New(signal.WithLogger(o.log)), log: o.log}

	store := o.sessionStore
	if store == nil {
		var err error
		store, err = a.selectSessionStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	a.Sessions = session.NewManager(store, session.WithLogger(o.log))
	if err := a.Sessions.Restore(ctx); err != nil {
		return nil, err
	}

	clientCfg := api.Config{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: o.httpClient,
		Timeout:    cfg.RequestTimeout,
		Tokens:     a.Sessions,
		Breaker:    circuit.New("api"),
		Logger:     o.log,
	}
	if cfg.LogoutOnAuthFailure {
		clientCfg.OnAuthReject = func() {
			clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.Sessions.Clear(clearCtx); err != nil {
				a.log.Warn("forced logout failed", "error", err)
			}
		}
	}
	client, err := api.New(clientCfg)
	if err != nil {
		return nil, err
	}
	a.Client = client

	a.Users = users.New(client, a.Sessions, a.Bus,
		users.WithLogger(o.log), users.WithMetrics(o.metrics))
	a.Posts = posts.New(client, a.Bus,
		posts.WithLogger(o.log), posts.WithMetrics(o.metrics))
	a.Categories = categories.New(client, a.Bus,
		categories.WithLogger(o.log), categories.WithMetrics(o.metrics))
	a.Comments = comments.New(client, a.Bus,
		comments.WithLogger(o.log), comments.WithMetrics(o.metrics))
	a.Guard = guard.New(a.Sessions, guard.WithLogger(o.log))

	return a, nil
}

func (a *App) selectSessionStore(cfg config.Client) (session.Store, error) {
	if cfg.RedisURL != "" {
		rc, err := platformredis.New(config.RedisConfig{
			URL:          cfg.RedisURL,
			PoolSize:     4,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		a.redis = rc
		return session.NewRedisStore(rc.Client), nil
	}
	if cfg.SessionFile != "" {
		return session.NewFileStore(cfg.SessionFile), nil
	}
	return session.NewMemoryStore(), nil
}

// Warm preloads the public catalog: the post feed and the category list, in
// parallel. Either failure surfaces; the stores have already recorded their
// own rejections by then.
func (a *App) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := a.Posts.FetchPublic(ctx)
		return err
	})
	g.Go(func() error {
		_, err := a.Categories.FetchAll(ctx)
		return err
	})
	return g.Wait()
}

// Close releases held resources. Safe when nothing was acquired.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
