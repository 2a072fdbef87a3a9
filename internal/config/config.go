package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App        App
	HTTP       HTTP
	Probe      Probe
	Metrics    Metrics
	Postgres   Postgres
	Redis      Redis
	Queue      Queue
	Bot        Bot
	Scanner    Scanner
	Scorer     Scorer
	Baseline   Baseline
	Budget     Budget
	Visibility Visibility
	Deals      Deals
	Providers  Providers
}

type App struct {
	Name      string `env:"APP_NAME" envDefault:"fareglitch"`
	Version   string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Bot is optional. Without a token neither deal alerts nor operator
// commands go through Telegram.
type Bot struct {
	Token   string `env:"BOT_TOKEN" json:"-"`
	ChatID  int64  `env:"BOT_CHAT_ID"`
	AdminID int64  `env:"BOT_ADMIN_ID"`
}

func (b Bot) Enabled() bool {
	return b.Token != ""
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) validate() error {
	if c.Bot.Enabled() && c.Bot.ChatID == 0 && c.Bot.AdminID == 0 {
		return fmt.Errorf("BOT_TOKEN is set but neither BOT_CHAT_ID nor BOT_ADMIN_ID is")
	}

	switch c.Providers.Candidate {
	case ProviderTravelpayouts, ProviderAmadeus:
	default:
		return fmt.Errorf("unknown CANDIDATE_PROVIDER %q", c.Providers.Candidate)
	}

	switch c.Providers.Live {
	case ProviderAmadeus, ProviderDuffel:
	default:
		return fmt.Errorf("unknown LIVE_PROVIDER %q", c.Providers.Live)
	}

	if c.Scorer.GoodPct.GreaterThanOrEqual(c.Scorer.MistakePct) {
		return fmt.Errorf("SCORER_GOOD_PCT must be below SCORER_MISTAKE_PCT")
	}

	return nil
}
