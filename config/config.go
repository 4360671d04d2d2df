/* config.go
 * Process configuration loaded from the environment, with an optional .env
 * file for local runs.
 */

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken     string `env:"DISCORD_TOKEN"`
	DiscordChannelID string `env:"DISCORD_CHANNEL_ID"`

	MongoURI string `env:"MONGO_URI,required,notEmpty"`
	DBName   string `env:"DB_NAME" envDefault:"geotourney"`

	// BaseURL is the public address snapshot links are built from.
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// AuthFile holds the geoguessr session cookie.
	AuthFile   string `env:"AUTH_FILE" envDefault:"auth.json"`
	OutputFile string `env:"OUTPUT_FILE"`

	// Empty key disables reverse geocoding of round answers.
	BigDataCloudAPIKey string `env:"BIGDATACLOUD_API_KEY"`

	// Nickname overrides the generated tournament name.
	Nickname string `env:"TOURNAMENT_NICKNAME"`
}

// Load reads .env when present, then parses the environment. A missing .env
// file is not an error; broken required variables are.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
