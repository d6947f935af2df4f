package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lineview/odds-aggregator/internal/models"
)

// Config holds all configuration for the odds aggregation service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sources   []SourceConfig  `mapstructure:"sources"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig holds snapshot store configuration.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Retention time.Duration `mapstructure:"retention"` // 0 keeps snapshot bodies forever
}

// KafkaConfig holds snapshot publisher configuration.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// SchedulerConfig holds cycle timing. API sources poll on the short interval,
// scraped sources on the long one.
type SchedulerConfig struct {
	APIInterval    time.Duration `mapstructure:"api_interval"`
	ScrapeInterval time.Duration `mapstructure:"scrape_interval"`
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`
}

// Intervals returns the per-category polling intervals.
func (c SchedulerConfig) Intervals() map[models.SourceCategory]time.Duration {
	return map[models.SourceCategory]time.Duration{
		models.CategoryAPI:    c.APIInterval,
		models.CategoryScrape: c.ScrapeInterval,
	}
}

// SourceConfig describes one enabled odds source.
type SourceConfig struct {
	ID       string `mapstructure:"id"`
	Category string `mapstructure:"category"` // "api" or "scrape"
	Enabled  bool   `mapstructure:"enabled"`

	// API sources
	BaseURL   string   `mapstructure:"base_url"`
	APIKey    string   `mapstructure:"api_key"`
	SportKey  string   `mapstructure:"sport_key"`
	Bookmaker string   `mapstructure:"bookmaker"`
	Markets   []string `mapstructure:"markets"`

	// Scrape sources
	URL         string `mapstructure:"url"`
	StateMarker string `mapstructure:"state_marker"`
}

// IdentityConfig extends the seeded alias table. Players and bookmaker-
// specific spellings are maintained here, out of band of the core.
type IdentityConfig struct {
	// Aliases maps alias -> canonical id, e.g. "Lebron" -> "lebron-james".
	Aliases map[string]string `mapstructure:"aliases"`
	// Entities maps canonical id -> display name for entities not in the
	// seeded table (players).
	Entities map[string]string `mapstructure:"entities"`
	// SourceAliases pins one source's label to a canonical id.
	SourceAliases []SourceAlias `mapstructure:"source_aliases"`
}

// SourceAlias is a per-source alias entry.
type SourceAlias struct {
	Source string `mapstructure:"source"`
	Alias  string `mapstructure:"alias"`
	ID     string `mapstructure:"id"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.retention", time.Duration(0))

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "odds_snapshots")

	v.SetDefault("scheduler.api_interval", 60*time.Second)
	v.SetDefault("scheduler.scrape_interval", 5*time.Minute)
	v.SetDefault("scheduler.adapter_timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("ODDS_AGGREGATOR")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal to struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate rejects configurations the scheduler cannot run with.
func (c *Config) validate() error {
	for _, src := range c.Sources {
		if !src.Enabled {
			continue
		}
		if src.ID == "" {
			return fmt.Errorf("source with empty id")
		}
		if err := models.SourceCategory(src.Category).Validate(); err != nil {
			return fmt.Errorf("source %s: %w", src.ID, err)
		}
	}
	if c.Scheduler.APIInterval <= 0 || c.Scheduler.ScrapeInterval <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}
	if c.Scheduler.AdapterTimeout <= 0 {
		return fmt.Errorf("scheduler adapter timeout must be positive")
	}
	return nil
}

// EnabledSources returns the sources the scheduler should poll.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}
