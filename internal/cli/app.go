package cli

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lugayetu/collector/internal/api/handler"
	"github.com/lugayetu/collector/internal/api/metrics"
	"github.com/lugayetu/collector/internal/core/ports"
	"github.com/lugayetu/collector/internal/core/service"
	"github.com/lugayetu/collector/internal/infrastructure/config"
	mongodb "github.com/lugayetu/collector/internal/infrastructure/db/mongo"
	redisdb "github.com/lugayetu/collector/internal/infrastructure/db/redis"
	"github.com/lugayetu/collector/internal/infrastructure/storage"
	"github.com/lugayetu/collector/pkg/logger"
)

// app is the wired object graph shared by the subcommands.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	mongo *mongo.Client
	redis *goredis.Client
	store ports.AudioStore
	repos service.Repositories

	auth       *service.AuthService
	account    *service.AccountService
	recordings *service.RecordingService
	admin      *service.AdminService
	languages  *service.LanguageService
	export     *service.ExportService
	sweeper    *service.Sweeper
	bootstrap  *service.Bootstrapper
}

// newApp connects to MongoDB (and Redis when withRedis is set), prepares the
// indexes and counters, and builds every service.
func newApp(ctx context.Context, cfg *config.Config, withRedis bool) (*app, error) {
	a := &app{cfg: cfg, log: logger.Get()}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	a.mongo = client

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		a.close(ctx)
		return nil, err
	}
	if err := mongodb.SyncCounters(ctx, db); err != nil {
		a.close(ctx)
		return nil, err
	}

	var (
		sessions ports.SessionStore
		lock     ports.SubmissionLock
	)
	if withRedis {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.redis = rdb
		sessions = redisdb.NewSessionStore(rdb)
		lock = redisdb.NewSubmissionLock(rdb)
	}

	store, err := newAudioStore(cfg.Storage)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.store = metrics.InstrumentStore(store)

	seeds, err := storage.NewSeedFiles(cfg.Storage.LanguagesDir)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	a.repos = service.Repositories{
		Users:      mongodb.NewUserRepository(db),
		Languages:  mongodb.NewLanguageRepository(db),
		Sentences:  mongodb.NewSentenceRepository(db),
		Recordings: mongodb.NewRecordingRepository(db),
		UnitOfWork: mongodb.NewUnitOfWork(client, cfg.Mongo.Transactions),
	}

	a.auth = service.NewAuthService(a.repos.Users, sessions, service.AuthConfig{
		JWTSecret:     cfg.Auth.JWTSecret,
		SessionSecret: cfg.Auth.SessionSecret,
		TokenTTL:      cfg.Auth.TokenTTL,
		SessionTTL:    cfg.Auth.SessionTTL,
		RememberTTL:   cfg.Auth.RememberTTL,
	}, logger.Component("auth"))
	a.account = service.NewAccountService(a.repos, a.store, logger.Component("account"))
	a.recordings = service.NewRecordingService(a.repos, a.store, lock, service.IngestConfig{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	}, logger.Component("recordings"))
	a.admin = service.NewAdminService(a.repos, a.store, logger.Component("admin"))
	a.languages = service.NewLanguageService(a.repos, seeds, a.store, logger.Component("languages"))
	a.export = service.NewExportService(a.repos, a.store, logger.Component("export"))
	a.sweeper = service.NewSweeper(a.repos.Recordings, a.store, cfg.Sweep.Grace, logger.Component("sweeper"))
	a.bootstrap = service.NewBootstrapper(a.repos, a.auth, a.languages, logger.Component("bootstrap"))

	return a, nil
}

func newAudioStore(cfg config.StorageConfig) (ports.AudioStore, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3Store(storage.S3Config{
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
		})
	case "local", "":
		return storage.NewLocalStore(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// checks lists the dependencies probed by the readiness endpoint.
func (a *app) checks() map[string]handler.Checker {
	checks := map[string]handler.Checker{
		"mongodb": handler.CheckFunc(func(ctx context.Context) error {
			return a.mongo.Ping(ctx, readpref.Primary())
		}),
		"audio_store": a.store,
	}
	if a.redis != nil {
		checks["redis"] = handler.CheckFunc(func(ctx context.Context) error {
			return redisdb.Ping(ctx, a.redis)
		})
	}
	return checks
}

func (a *app) close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
}
