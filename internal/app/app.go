package app

import (
	"context"
	"fmt"
	"log"

	"github.com/nelasy5/blockmon/internal/bus"
	"github.com/nelasy5/blockmon/internal/chains"
	"github.com/nelasy5/blockmon/internal/ethsub"
	"github.com/nelasy5/blockmon/internal/names"
	"github.com/nelasy5/blockmon/internal/notify"
	"github.com/nelasy5/blockmon/internal/storage/pg"
	"github.com/nelasy5/blockmon/internal/stream"
	"github.com/nelasy5/blockmon/internal/tg"
	"github.com/nelasy5/blockmon/internal/watch"

	"github.com/ethereum/go-ethereum/ethclient"
	tgbot "github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("pgxpool new: %w", err)
	}
	defer pgPool.Close()

	repo := pg.New(pgPool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	nameStore := names.NewRedis(rdb)
	registry := chains.Default()

	events := make(chan bus.Batch, cfg.EventsBuffer)

	b, err := tgbot.New(cfg.TelegramToken,
		tgbot.WithWorkers(4),
		tgbot.WithNotAsyncHandlers(),
	)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}

	channel := tg.NewChannel(b, cfg.TelegramChannelID, cfg.ChannelRatePerMin)
	cache := notify.NewPendingCache(cfg.PendingCacheMax)
	pipeline := notify.NewPipeline(registry, nameStore, channel, cache, repo)

	var sources []watch.Source

	if cfg.StreamID != "" {
		sources = append(sources, stream.NewClient(cfg.StreamAPIBase, cfg.StreamAPIKey, cfg.StreamID))

		// streamsSecret = api key, как у источника
		srv := stream.NewServer(cfg.StreamAPIKey, events)
		go func() {
			if err := srv.Listen(cfg.WebhookAddr); err != nil {
				log.Printf("[webhook] stopped: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown()
		}()
	}

	if cfg.EthWSURL != "" {
		ethCl, err := ethclient.DialContext(ctx, cfg.EthWSURL)
		if err != nil {
			return fmt.Errorf("dial eth ws: %w", err)
		}

		chainID, err := ethCl.NetworkID(ctx)
		if err != nil {
			return fmt.Errorf("network id: %w", err)
		}

		watcher := ethsub.NewWatcher(ethCl, chainID, watch.NewSet(), events, ethsub.Config{
			Workers:     cfg.EthsubWorkers,
			TasksBuffer: cfg.TasksBuffer,
		})

		go func() {
			if err := watcher.Start(ctx); err != nil {
				log.Printf("[ethsub] stopped: %v", err)
			}
		}()

		sources = append(sources, watcher)
	}

	// При обоих источниках команды должны менять watchlist везде.
	var source watch.Source
	switch len(sources) {
	case 1:
		source = sources[0]
	default:
		source = watch.NewMulti(sources...)
	}

	tgSvc := tg.NewService(b, source, nameStore, repo, registry, cfg.AllowedChatIDs)
	if err := tgSvc.InitCommands(ctx); err != nil {
		log.Printf("[tg] set commands: %v", err)
	}

	go pipeline.Run(ctx, events)

	log.Printf("started. webhook=%v ethsub=%v buffer=%d", cfg.StreamID != "", cfg.EthWSURL != "", cfg.EventsBuffer)
	b.Start(ctx)

	return nil
}
