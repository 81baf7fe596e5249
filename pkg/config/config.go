// Package config loads runtime configuration for the bot binaries.
//
// Values come from, in order of precedence: environment variables (the same
// names the deployment has always used), an optional config.yaml, and
// defaults. A .env file in the working directory is folded into the
// environment first so local runs behave like the container.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries every runtime setting for the bot and its health server.
type Config struct {
	DiscordToken string `mapstructure:"discord_token"`
	DevGuildID   string `mapstructure:"dev_guild_id"`

	HealthPort  int    `mapstructure:"health_port"`
	InstanceTag string `mapstructure:"instance_tag"`
	LogLevel    string `mapstructure:"log_level"`

	TweetsPath      string `mapstructure:"tweets_path"`
	TwitterUsername string `mapstructure:"twitter_username"`

	PortfolioPath string `mapstructure:"portfolio_path"`

	FaceitAPIKey  string `mapstructure:"faceit_api_key"`
	LastfmAPIKey  string `mapstructure:"lastfm_api_key"`
	CSFloatAPIKey string `mapstructure:"csfloat_api_key"`

	RepoURL string `mapstructure:"repo_url"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	AWSRegion string `mapstructure:"aws_region"`
}

// Load reads configuration from the environment and the optional config file.
func Load() (*Config, error) {
	// Best effort, exactly like load_dotenv: a missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/unibot/")
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DiscordToken = strings.TrimSpace(cfg.DiscordToken)
	cfg.DevGuildID = strings.TrimSpace(cfg.DevGuildID)
	cfg.TwitterUsername = strings.TrimSpace(cfg.TwitterUsername)
	cfg.FaceitAPIKey = strings.TrimSpace(cfg.FaceitAPIKey)
	cfg.LastfmAPIKey = strings.TrimSpace(cfg.LastfmAPIKey)
	cfg.CSFloatAPIKey = strings.TrimSpace(cfg.CSFloatAPIKey)
	cfg.RepoURL = strings.TrimRight(cfg.RepoURL, "/")

	return &cfg, nil
}

// ValidateBot checks the settings the gateway connection cannot run without.
func (c *Config) ValidateBot() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("set DISCORD_TOKEN in .env")
	}
	if _, err := c.GuildID(); err != nil {
		return fmt.Errorf("set DEV_GUILD_ID in .env to use guild-scoped commands")
	}
	return nil
}

// GuildID parses the development guild snowflake.
func (c *Config) GuildID() (int64, error) {
	if c.DevGuildID == "" {
		return 0, fmt.Errorf("dev guild id is not set")
	}
	id, err := strconv.ParseInt(c.DevGuildID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid dev guild id %q", c.DevGuildID)
	}
	return id, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("health_port", 6969)
	v.SetDefault("instance_tag", "vm")
	v.SetDefault("log_level", "info")
	v.SetDefault("tweets_path", "data/tweets.js")
	v.SetDefault("portfolio_path", "./data/portfolio.yaml")
	v.SetDefault("repo_url", "https://github.com/uniyx/unibot")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("aws_region", "us-east-1")
}

// bindEnv wires the environment variable names the deployment already
// uses, bound verbatim rather than behind a prefix.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("discord_token", "DISCORD_TOKEN")
	_ = v.BindEnv("dev_guild_id", "DEV_GUILD_ID")
	_ = v.BindEnv("health_port", "HEALTH_PORT")
	_ = v.BindEnv("instance_tag", "INSTANCE_TAG")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("tweets_path", "TWEETS_JS_PATH")
	_ = v.BindEnv("twitter_username", "TWITTER_USERNAME")
	_ = v.BindEnv("portfolio_path", "PORTFOLIO_PATH")
	_ = v.BindEnv("faceit_api_key", "FACEIT_API_KEY")
	_ = v.BindEnv("lastfm_api_key", "LASTFM_API_KEY")
	_ = v.BindEnv("csfloat_api_key", "CSFLOAT_API_KEY", "FLOAT_TOKEN")
	_ = v.BindEnv("repo_url", "REPO_URL")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis_db", "REDIS_DB")
	_ = v.BindEnv("aws_region", "AWS_REGION")
}
