package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"toria/internal/auth"
	"toria/internal/config"
	"toria/internal/discover"
	"toria/internal/identity"
	"toria/internal/library"
	"toria/internal/logging"
	"toria/internal/pending"
	"toria/internal/planner"
	"toria/internal/querycache"
	"toria/internal/session"
	"toria/internal/shell"
	"toria/internal/store"
	"toria/internal/tripapi"
	"toria/internal/walkthrough"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(logging.Config{})
		boot.Fatal().Err(err).Msg("load configuration")
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("toria exited")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	db, err := openDatabase(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	users := store.New(db)

	var storage session.Storage = users
	if cfg.Session.Backend == "redis" {
		rdb := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, sessions will not persist")
		}
		storage = store.NewRedisSessions(rdb, cfg.Security.TokenTTL)
	}

	issuer, err := auth.NewIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
		return err
	}

	// The client reads the token through the session, which is built after it.
	var sess *session.Store
	client, err := tripapi.New(cfg.API.BaseURL,
		tripapi.WithTimeout(cfg.API.Timeout),
		tripapi.WithLogger(logging.Component(logger, "tripapi")),
		tripapi.WithTokenSource(func() string { return sess.Token() }),
	)
	if err != nil {
		return err
	}

	cache := querycache.New(cfg.Cache.TTL)
	staged := pending.New()

	sess = session.New(identity.NewLocal(users, issuer), storage,
		session.WithDeviceID(cfg.Session.DeviceID),
		session.WithVerifier(issuer),
		session.WithRegistrar(client),
		session.WithLogger(logging.Component(logger, "session")),
		session.OnSignOut(cache.Flush),
		session.OnSignOut(staged.Clear),
	)
	if err := sess.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("restore session")
	}

	lib := library.New(client, cache)
	feed := discover.New(lib, client, sess, staged, logging.Component(logger, "discover"))
	plans := planner.New(client, sess, staged, lib, logging.Component(logger, "planner"))

	openWalkthrough := func(ctx context.Context, userID, planID string) (*walkthrough.Walkthrough, error) {
		return walkthrough.Open(ctx, lib, userID, planID,
			walkthrough.WithChatBackend(client),
			walkthrough.WithTracker(client),
			walkthrough.WithMapsBaseURL(cfg.Maps.BaseURL),
			walkthrough.WithLogger(logging.Component(logger, "walkthrough")),
		)
	}

	sh := shell.New(shell.Deps{
		Session:         sess,
		Pending:         staged,
		Feed:            feed,
		Planner:         plans,
		Library:         lib,
		Backend:         client,
		OpenWalkthrough: openWalkthrough,
		Directions:      browser{},
		Logger:          logging.Component(logger, "shell"),
	}, os.Stdout)

	logger.Info().Str("api", client.BaseURL()).Str("device", cfg.Session.DeviceID).Msg("toria ready")
	return sh.Run(ctx, os.Stdin)
}
