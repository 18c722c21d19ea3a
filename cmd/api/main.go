package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/go-api-flatfile/internal/application/worker"
	"github.com/go-api-flatfile/internal/config"
	"github.com/go-api-flatfile/internal/infrastructure/dynamo"
	"github.com/go-api-flatfile/internal/infrastructure/filestore"
	"github.com/go-api-flatfile/internal/infrastructure/repo"
	"github.com/go-api-flatfile/internal/infrastructure/sns"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/pkg/clock"
	"github.com/go-api-flatfile/internal/pkg/keylock"
	"github.com/go-api-flatfile/internal/pkg/password"
	transporthttp "github.com/go-api-flatfile/internal/transport/http"
)

func main() {
	var opts config.Options
	pflag.StringVar(&opts.File, "config", "", "path to a YAML config file")
	pflag.StringVar(&opts.Env, "env", "", "environment: staging or production (default $APP_ENV)")
	pflag.StringVar(&opts.DataDir, "data-dir", "", "directory for the file store (default $DATA_DIR)")
	pflag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts config.Options) error {
	dotenvErr := godotenv.Load()

	cfg, err := config.Load(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.AppEnv, cfg.LogLevel)
	if dotenvErr != nil {
		log.Debug(context.Background(), "no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	locks := keylock.Nop()
	if cfg.StoreKeyLocking {
		locks = keylock.New()
	}
	userRepo := repo.NewUserRepo(store, locks)
	tokenRepo := repo.NewTokenRepo(store, locks)
	checkRepo := repo.NewCheckRepo(store, locks)

	hasher, err := password.NewHasher(cfg.HashingSecret, cfg.BcryptCost)
	if err != nil {
		return err
	}

	// SNS SMS sender (optional, falls back to logging).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(ctx, cfg); err == nil {
		smsSender = sender
	} else {
		log.Warn(ctx, "SNS sender not available, alerts will only be logged", "err", err)
		smsSender = sns.NewLogSender(log)
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		UserRepo:  userRepo,
		TokenRepo: tokenRepo,
		CheckRepo: checkRepo,
		Hasher:    hasher,
		Clock:     clock.Real(),
		Logger:    log,
	})

	workerDone := make(chan struct{})
	if cfg.WorkerEnabled {
		w := worker.New(worker.Deps{
			CheckRepo: checkRepo,
			SMS:       smsSender,
			Logger:    log,
			Interval:  cfg.WorkerInterval,
		})
		go func() {
			defer close(workerDone)
			w.Run(ctx)
		}()
	} else {
		close(workerDone)
	}

	servers := []*http.Server{newServer(cfg.HTTPPort, router)}
	go serve(ctx, log, stop, servers[0], func(s *http.Server) error { return s.ListenAndServe() })

	if tlsReady(cfg) {
		httpsSrv := newServer(cfg.HTTPSPort, router)
		servers = append(servers, httpsSrv)
		go serve(ctx, log, stop, httpsSrv, func(s *http.Server) error {
			return s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		})
	} else {
		log.Warn(ctx, "TLS certificate or key missing, HTTPS listener disabled",
			"cert", cfg.TLSCertPath, "key", cfg.TLSKeyPath)
	}

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
		}
	}
	<-workerDone
	log.Info(context.Background(), "server stopped")
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg *config.Config, log logging.Logger) (repo.DocumentStore, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// Bootstrap the documents table (creates it if it doesn't exist).
		if err := dynamo.Bootstrap(ctx, client, cfg.DynamoTable, log); err != nil {
			return nil, fmt.Errorf("bootstrap dynamo table: %w", err)
		}
		log.Info(ctx, "using dynamo store", "table", cfg.DynamoTable)
		return dynamo.NewStore(client, cfg.DynamoTable), nil
	default:
		store, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "using file store", "dir", cfg.DataDir)
		return store, nil
	}
}

func newServer(port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serve runs listen and triggers shutdown of the whole process if the
// listener fails for any reason other than a normal close.
func serve(ctx context.Context, log logging.Logger, stop context.CancelFunc, srv *http.Server, listen func(*http.Server) error) {
	log.Info(ctx, "server starting", "addr", srv.Addr)
	if err := listen(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "server error", "addr", srv.Addr, "err", err)
		stop()
	}
}

func tlsReady(cfg *config.Config) bool {
	for _, p := range []string{cfg.TLSCertPath, cfg.TLSKeyPath} {
		if p == "" {
			return false
		}
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
