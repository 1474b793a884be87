package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken  string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath    string `envconfig:"DB_PATH" default:"./data/meetbot.db"`
	Timezone  string `envconfig:"TIMEZONE" default:"Europe/Moscow"` // canonical zone for all event times
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`         // debug|info|warn|error
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`        // healthz
	SweepSpec string `envconfig:"SWEEP_SPEC" default:"@every 1m"`   // expired-event GC cadence
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
