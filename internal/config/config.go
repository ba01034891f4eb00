package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
	"github.com/aliskhannn/millionaire-bot/internal/service"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string    `mapstructure:"env"` // current application environment (local, dev, production)
	TelegramAPIToken string    `mapstructure:"-"`   // Telegram API token loaded from environment
	Log              Log       `mapstructure:"log"`
	Telegram         Telegram  `mapstructure:"telegram"`
	Storage          Storage   `mapstructure:"storage"`
	DB               DB        `mapstructure:"database"`
	Questions        Questions `mapstructure:"questions"`
	Game             Game      `mapstructure:"game"`
	Metrics          Metrics   `mapstructure:"metrics"`
}

type Log struct {
	File  string `mapstructure:"file"`  // rotating JSON log file, empty for console only
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Telegram tunes the bot front end.
type Telegram struct {
	RateLimit float64 `mapstructure:"rate_limit"` // updates per second per user, 0 disables
	RateBurst int     `mapstructure:"rate_burst"`
}

type Storage struct {
	Driver string `mapstructure:"driver"` // postgres or memory
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

type Questions struct {
	Path          string `mapstructure:"path"`            // JSON question bank
	ImportOnStart bool   `mapstructure:"import_on_start"` // copy the JSON bank into Postgres at startup
}

// Game holds the rules and help tuning.
type Game struct {
	TimeLimit         time.Duration `mapstructure:"time_limit"`
	HintCorrectWeight float64       `mapstructure:"hint_correct_weight"`
	PollCorrectMin    int           `mapstructure:"poll_correct_min"`
	PollCorrectMax    int           `mapstructure:"poll_correct_max"`
	Prizes            []int64       `mapstructure:"prizes"`
	FireproofLevels   []int         `mapstructure:"fireproof_levels"`
	TimeoutSweepSpec  string        `mapstructure:"timeout_sweep_spec"`
	Friends           []string      `mapstructure:"friends"`
}

type Metrics struct {
	Addr string `mapstructure:"addr"` // listen address of /metrics, empty disables it
}

// Rules builds the game rules from the configured prize ladder and time limit.
func (c *Config) Rules() (entities.Rules, error) {
	scores, err := entities.NewScoreTable(c.Game.Prizes, c.Game.FireproofLevels)
	if err != nil {
		return entities.Rules{}, err
	}
	if c.Game.TimeLimit <= 0 {
		return entities.Rules{}, fmt.Errorf("game.time_limit must be positive, got %s", c.Game.TimeLimit)
	}

	return entities.Rules{Scores: scores, TimeLimit: c.Game.TimeLimit}, nil
}

// HelpConfig returns the help tuning, validated.
func (c *Config) HelpConfig() (service.HelpConfig, error) {
	cfg := service.HelpConfig{
		HintCorrectWeight: c.Game.HintCorrectWeight,
		PollCorrectMin:    c.Game.PollCorrectMin,
		PollCorrectMax:    c.Game.PollCorrectMax,
		Friends:           c.Game.Friends,
	}
	if err := cfg.Validate(); err != nil {
		return service.HelpConfig{}, err
	}
	return cfg, nil
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	return load("./config")
}

func load(configPaths ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
	}

	switch cfg.Storage.Driver {
	case DriverPostgres:
		cfg.DB.URL = v.GetString("database_url")
		if cfg.DB.URL == "" {
			return nil, fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("telegram.rate_limit", 2.0)
	v.SetDefault("telegram.rate_burst", 5)
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("questions.path", "assets/questions.json")
	v.SetDefault("questions.import_on_start", true)

	help := service.DefaultHelpConfig()
	v.SetDefault("game.time_limit", entities.DefaultTimeLimit.String())
	v.SetDefault("game.hint_correct_weight", help.HintCorrectWeight)
	v.SetDefault("game.poll_correct_min", help.PollCorrectMin)
	v.SetDefault("game.poll_correct_max", help.PollCorrectMax)
	v.SetDefault("game.prizes", entities.DefaultPrizes)
	v.SetDefault("game.fireproof_levels", entities.DefaultFireproofLevels)
	v.SetDefault("game.timeout_sweep_spec", "@every 1m")
	v.SetDefault("game.friends", help.Friends)
	v.SetDefault("metrics.addr", ":9090")
}
