package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"

	"timebot/internal/adapter/locallock"
	msql "timebot/internal/adapter/mysql"
	"timebot/internal/adapter/postgres"
	"timebot/internal/adapter/redislock"
	slk "timebot/internal/adapter/slack"
	"timebot/internal/config"
	"timebot/internal/migrate"
	"timebot/internal/ports"
	"timebot/internal/usecase"
)

// chatClient is the part of the Slack adapter the handlers use.
type chatClient interface {
	ports.Messenger
	OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
}

// App wires adapters and the tracker.
type App struct {
	log           *slog.Logger
	tracker       *usecase.Tracker
	chat          chatClient
	store         ports.Store
	redis         *redis.Client
	signingSecret string

	// inflight tracks interactions still running after their response.
	inflight sync.WaitGroup
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	// Run migrations before opening the store for use
	if err := migrate.Run(ctx, cfg.Store.Driver, cfg.DSN(), log); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		log:           log,
		chat:          slk.NewClient(cfg.Slack.BotToken, cfg.Slack.APIURL, log),
		store:         store,
		signingSecret: cfg.Slack.SigningSecret,
	}

	var locker ports.Locker = locallock.New()
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		locker = redislock.New(a.redis, cfg.Lock.TTL, cfg.Lock.Wait, log)
		log.Info("using redis user locks", slog.String("addr", cfg.Redis.Addr))
	}

	a.tracker = &usecase.Tracker{
		Log:                log,
		Entries:            store,
		Projects:           store,
		Locker:             locker,
		VerifyProjectOwner: cfg.Tracker.VerifyProjectOwner,
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ports.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		c, err := postgres.NewClient(ctx, cfg.Store.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "mysql":
		c, err := msql.NewClient(ctx, cfg.Store.MySQLDSN, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// Close waits for acknowledged interactions to finish, then releases the
// store and the Redis client.
func (a *App) Close() error {
	a.inflight.Wait()
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
