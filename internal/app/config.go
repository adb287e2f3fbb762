package app

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken     string `env:"TELEGRAM_TOKEN,required"`
	TelegramChannelID string `env:"TELEGRAM_CHANNEL_ID,required"`
	RedisURL          string `env:"REDIS_URL,required"`
	PostgresURL       string `env:"POSTGRES_URL,required"`

	// webhook-источник (stream API)
	StreamAPIKey  string `env:"STREAM_API_KEY"`
	StreamID      string `env:"STREAM_ID"`
	StreamAPIBase string `env:"STREAM_API_BASE"`
	WebhookAddr   string `env:"WEBHOOK_ADDR"`

	// живая подписка (альтернативный источник)
	EthWSURL string `env:"ETH_WS_URL"`

	AllowedChatIDs []int64 `env:"ALLOWED_CHAT_IDS"`

	EventsBuffer      int `env:"EVENTS_BUFFER"`
	EthsubWorkers     int `env:"ETHSUB_WORKERS"`
	TasksBuffer       int `env:"TASKS_BUFFER"`
	PendingCacheMax   int `env:"PENDING_CACHE_MAX"`
	ChannelRatePerMin int `env:"CHANNEL_RATE_PER_MIN"`
}

func LoadConfig() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("Warning: .env file not found, relying on environment variables")
	}

	config := Config{
		WebhookAddr:       ":8080",
		EventsBuffer:      4096,
		EthsubWorkers:     8,
		TasksBuffer:       4096,
		PendingCacheMax:   5000,
		ChannelRatePerMin: 20,
	}

	if err := env.Parse(&config); err != nil {
		return Config{}, err
	}

	if config.StreamID == "" && config.EthWSURL == "" {
		return Config{}, errors.New("at least one event source is required: set STREAM_ID or ETH_WS_URL")
	}
	if config.StreamID != "" && config.StreamAPIKey == "" {
		return Config{}, errors.New("STREAM_API_KEY is required when STREAM_ID is set")
	}

	return config, nil
}
