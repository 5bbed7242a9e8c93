package daemon

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/bus"
	"github.com/matheus3301/freightmsg/internal/config"
	"github.com/matheus3301/freightmsg/internal/convo"
	"github.com/matheus3301/freightmsg/internal/deeplink"
	"github.com/matheus3301/freightmsg/internal/inbox"
	"github.com/matheus3301/freightmsg/internal/lock"
	"github.com/matheus3301/freightmsg/internal/logging"
	"github.com/matheus3301/freightmsg/internal/marketapi"
	"github.com/matheus3301/freightmsg/internal/metrics"
	"github.com/matheus3301/freightmsg/internal/notify"
	"github.com/matheus3301/freightmsg/internal/outbox"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/status"
	"github.com/matheus3301/freightmsg/internal/store"
	intsync "github.com/matheus3301/freightmsg/internal/sync"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string         // optional override for testing; empty = use default
	Config      *config.Config // nil = load the global config file
	Link        deeplink.Link  // applied after the first refresh
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideSessions,
			provideMetrics,
			provideBackend,
			providePipeline,
			provideController,
			provideSyncEngine,
			provideReconciler,
			provideService,
			provideRefresher,
			provideMetricsServer,
			NewServer,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.Config != nil {
		return p.Config, nil
	}
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName, cfg.Log.Level)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewSessionMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.LockPath(p.SessionName), p.SessionName)
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore takes the lock as a dependency so the cache is never opened
// by two daemons.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.CachePath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Rebuilt {
		logger.Warn("dirty cache dropped and rebuilt")
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideSessions(p Params, b *bus.Bus, logger *zap.Logger) *session.Store {
	path := session.ContextPath(p.SessionName)
	sc, err := session.LoadContext(path)
	if err != nil {
		logger.Warn("no usable session context", zap.String("path", path), zap.Error(err))
		return session.NewStore(session.Context{}, b)
	}
	logger.Info("session context loaded", zap.String("user", sc.UserID), zap.String("role", string(sc.Role)))
	return session.NewStore(sc, b)
}

func provideMetrics() *metrics.Metrics {
	return metrics.New()
}

func provideBackend(cfg *config.Config, sessions *session.Store, m *metrics.Metrics, logger *zap.Logger) *marketapi.Client {
	token := func() string {
		sc, err := sessions.Current()
		if err != nil {
			return ""
		}
		return sc.Token
	}
	return marketapi.New(cfg.API, token, m, logger.Named("marketapi"))
}

func providePipeline(client *marketapi.Client, db *store.DB, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *outbox.Pipeline {
	return outbox.NewPipeline(client, outbox.Options{
		Journal: db,
		Bus:     b,
		Metrics: m,
		Logger:  logger.Named("outbox"),
	})
}

func provideController(cfg *config.Config, client *marketapi.Client, sessions *session.Store, pipeline *outbox.Pipeline, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *inbox.Controller {
	role, _ := convo.ParseRole(cfg.Inbox.Role)
	return inbox.New(client, inbox.Options{
		Sessions:    sessions,
		Pipeline:    pipeline,
		Toasts:      notify.New(cfg.Inbox.ToastTTL(), b),
		Bus:         b,
		Metrics:     m,
		Logger:      logger.Named("inbox"),
		DefaultRole: role,
	})
}

func provideSyncEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, logger)
}

func provideReconciler(db *store.DB, logger *zap.Logger) *intsync.Reconciler {
	return intsync.NewReconciler(db, logger)
}

func provideService(p Params, ctrl *inbox.Controller, db *store.DB, sessions *session.Store, machine *status.Machine, rec *intsync.Reconciler, b *bus.Bus, logger *zap.Logger) *api.Service {
	return api.NewService(api.Deps{
		SessionName: p.SessionName,
		Inbox:       ctrl,
		DB:          db,
		Sessions:    sessions,
		Machine:     machine,
		Checkpoints: rec,
		Bus:         b,
		Logger:      logger.Named("api"),
	})
}

func provideRefresher(cfg *config.Config, ctrl *inbox.Controller, machine *status.Machine, logger *zap.Logger) (*Refresher, error) {
	return NewRefresher(cfg.Inbox.RefreshSchedule, ctrl, machine, cfg.API.Timeout(), logger.Named("refresh"))
}

func provideMetricsServer(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *MetricsServer {
	return NewMetricsServer(cfg.Metrics.Addr, m, logger)
}

// lifecycle groups everything registerLifecycle starts and stops.
type lifecycle struct {
	fx.In

	Params     Params
	Server     *Server
	Lock       *lock.Lock
	DB         *store.DB
	Sessions   *session.Store
	Inbox      *inbox.Controller
	Engine     *intsync.Engine
	Reconciler *intsync.Reconciler
	Refresher  *Refresher
	Metrics    *MetricsServer
	Machine    *status.Machine
	Logger     *zap.Logger
	Config     *config.Config
}

func registerLifecycle(lc fx.Lifecycle, d lifecycle) {
	logger := d.Logger
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := d.Reconciler.Reconcile(); err != nil {
				return fmt.Errorf("reconcile cache: %w", err)
			}
			if cached, err := d.Engine.Cached(); err != nil {
				logger.Warn("failed to read cached inbox", zap.Error(err))
			} else {
				d.Inbox.Seed(cached)
			}

			// Start sync engine (subscribes to inbox.* bus events).
			d.Engine.Start(context.Background())

			if err := d.Metrics.Start(); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}

			// Start gRPC server in background.
			go func() {
				if err := d.Server.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			if !d.Params.Link.Empty() {
				d.Inbox.QueueDeepLink(d.Params.Link)
			}
			d.Refresher.Start()

			if _, err := d.Sessions.Current(); errors.Is(err, session.ErrNoSession) {
				logger.Info("no session context, auth required")
				_ = d.Machine.Transition(status.AuthRequired)
				return nil
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), d.Config.API.Timeout())
				defer cancel()
				if err := d.Refresher.RunOnce(ctx); err != nil {
					logger.Warn("initial refresh failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Refresher.Stop(ctx)
			d.Inbox.Close()
			d.Server.Stop(ctx)
			d.Metrics.Stop(ctx)
			d.Engine.Stop()
			if err := d.DB.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := d.Lock.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
