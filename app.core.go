package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run(ctx context.Context) error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// Backends groups the storage side resources shared by the server and the cli.
type Backends struct {
	Store    BookStore
	Queue    Queuer
	Consumer Consumer
	cleanups []func() error
}

// Close releases every opened backend resource in reverse order.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		if err := b.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetupLogger creates the logs folder then builds the logger writing into
// a size-rotated file. The returned function flushes and closes the file.
func SetupLogger(config *Config) (*zap.Logger, func() error, error) {
	if err := os.MkdirAll(config.LogFolder, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewClock(config.IsProduction)
	writer := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, writer, NewTickClock(clock))
	closer := func() error {
		return errors.Join(flusher(), writer.Close())
	}
	return logger, closer, nil
}

// SetupBackends opens the configured book storage. When mirroring is on,
// it also provides the redis queue and the boltdb consumer fed by it.
func SetupBackends(logger *zap.Logger, config *Config) (*Backends, error) {
	backends := &Backends{}
	var redisClient *redis.Client
	if config.Storage.Driver == RedisDriver {
		client, err := GetRedisClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		redisClient = client
		backends.cleanups = append(backends.cleanups, redisClient.Close)
	}

	store, err := NewBookStore(logger, config, redisClient)
	if err != nil {
		_ = backends.Close()
		return nil, fmt.Errorf("failed to setup %s storage: %s", config.Storage.Driver, err)
	}
	backends.Store = store
	backends.cleanups = append(backends.cleanups, store.Close)

	if config.Mirror.Enabled {
		boltDBClient, err := GetBoltDBClient(config)
		if err != nil {
			_ = backends.Close()
			return nil, fmt.Errorf("failed to open boltdb mirror: %s", err)
		}
		replica := NewBoltBookStorage(logger.With(zap.String("storage.driver", "bolt-mirror")), &config.BoltDB, boltDBClient)
		backends.cleanups = append(backends.cleanups, replica.Close)
		backends.Queue = NewRedisQueue(redisClient)
		backends.Consumer = NewBoltDBConsumer(logger, backends.Queue, replica)
	}
	return backends, nil
}

// NewApp provides an instance of App built from the given configuration.
func NewApp(config *Config) (AppProvider, error) {
	logger, closer, err := SetupLogger(config)
	if err != nil {
		return nil, err
	}

	backends, err := SetupBackends(logger, config)
	if err != nil {
		_ = closer()
		return nil, err
	}

	clock := NewClock(config.IsProduction)
	validator := NewValidator(clock)
	tokens, err := NewJWTTokenIssuer(config.Auth.Secret, config.Auth.TokenTTL, clock)
	if err != nil {
		_ = backends.Close()
		_ = closer()
		return nil, fmt.Errorf("failed to setup token issuer: %s", err)
	}
	carrier, err := NewTokenCarrier(&config.Auth)
	if err != nil {
		_ = backends.Close()
		_ = closer()
		return nil, fmt.Errorf("failed to setup token carrier: %s", err)
	}

	bookService := NewBookService(logger, validator, backends.Store, backends.Queue)
	authService := NewAuthService(logger, NewStaticCredentialStore(config.Auth.Users), tokens)
	maintainer := NewStorageMaintainer(logger, backends.Store, backends.Queue)

	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		bookService,
		authService,
		carrier,
		maintainer,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)
	// Wrap the router with the default http timeout handler.
	routerWithTimeout := http.TimeoutHandler(
		router,
		config.Server.RequestTimeout,
		"Timeout. Processing taking too long. Please reach out to support.")

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        routerWithTimeout,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	var consumers []func(context.Context) error
	if backends.Consumer != nil {
		consumers = append(consumers, func(ctx context.Context) error {
			return backends.Consumer.Consume(ctx, MirrorQueue)
		})
	}

	return &App{
		logger:         logger,
		config:         config,
		server:         srv,
		cleanups:       []func() error{backends.Close, closer},
		queueConsumers: consumers,
	}, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run(ctx context.Context) error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		if err := f(); err != nil {
			fmt.Fprintln(os.Stderr, "error during app cleanup:", err)
		}
	}
}

// Serve starts the api web server. Its returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("storage.driver", app.config.Storage.Driver),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			f := func() error {
				return consume(gCtx)
			}
			g.Go(f)
		}
		return nil
	}
}
