package main

import (
	"database/sql"

	"calistenia/internal/config"
	"calistenia/internal/gateway"
	"calistenia/internal/interfaces"
	"calistenia/internal/pkg/caching"
	"calistenia/internal/pkg/limiter"
	"calistenia/internal/scheduler"
	"calistenia/internal/services"

	"github.com/bwmarrin/discordgo"
	"github.com/go-redsync/redsync/v4"
	redsyncredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func NewContainer(cfg *config.Config) *do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(cfg.DBDSN),
			pgdriver.WithPassword(cfg.DBPassword),
		))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.Provide(injector, func(i *do.Injector) (redis.UniversalClient, error) {
		return db.InitRedis(&db.RedisConfig{
			URL: cfg.RedisURL,
		})
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		client, err := do.Invoke[redis.UniversalClient](i)
		if err != nil {
			return nil, err
		}
		return redsync.New(redsyncredis.NewPool(client)), nil
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		client, err := do.Invoke[redis.UniversalClient](i)
		if err != nil {
			return nil, err
		}
		cache, err := caching.NewCacheRedis(client, false)
		if err != nil {
			return nil, err
		}
		return cache, nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		client, err := do.Invoke[redis.UniversalClient](i)
		if err != nil {
			return nil, err
		}
		lim, err := limiter.NewLimiter(client)
		if err != nil {
			return nil, err
		}
		return lim, nil
	})

	do.Provide(injector, func(i *do.Injector) (*discordgo.Session, error) {
		session, err := discordgo.New("Bot " + cfg.BotToken)
		if err != nil {
			return nil, err
		}
		session.Identify.Intents = discordgo.IntentsGuilds |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsGuildMembers |
			discordgo.IntentsMessageContent
		return session, nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Gateway, error) {
		session, err := do.Invoke[*discordgo.Session](i)
		if err != nil {
			return nil, err
		}
		return gateway.NewDiscordGateway(session, cfg.GuildID), nil
	})

	do.Provide(injector, services.NewServiceProgress)
	do.Provide(injector, services.NewServiceRanking)
	do.Provide(injector, services.NewServiceClass)
	do.Provide(injector, services.NewServiceCoach)
	do.Provide(injector, services.NewServiceRoutine)
	do.Provide(injector, scheduler.New)

	return injector
}
