package config

import (
	"fmt"
	"log"
	"os"

	"BenchmarkBuilder/internal/model"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Default window and output location used when the config leaves them unset.
const (
	DefaultStart      = "2015-11-08"
	DefaultEnd        = "2025-11-07"
	DefaultOutputDir  = "data"
	DefaultSQLitePath = "data/benchmark.db"
)

// Benchmark is the ordered segment -> tickers mapping as written in YAML.
type Benchmark model.Benchmark

// UnmarshalYAML decodes a mapping while keeping the key order of the document.
func (b *Benchmark) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: benchmark must be a mapping of segment to tickers", node.Line)
	}
	out := make(Benchmark, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var tickers []string
		if err := val.Decode(&tickers); err != nil {
			return fmt.Errorf("segment %q: %w", key.Value, err)
		}
		out = append(out, model.Segment{Name: key.Value, Tickers: tickers})
	}
	*b = out
	return nil
}

// Config holds all application configuration.
type Config struct {
	Benchmark Benchmark `yaml:"benchmark"`
	Range     struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"range"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BENCHMARK_START"); v != "" {
		cfg.Range.Start = v
	}
	if v := os.Getenv("BENCHMARK_END"); v != "" {
		cfg.Range.End = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_REBUILD"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Range.Start == "" {
		cfg.Range.Start = DefaultStart
	}
	if cfg.Range.End == "" {
		cfg.Range.End = DefaultEnd
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = DefaultSQLitePath
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well formed.
func (c *Config) Validate() error {
	if len(c.Benchmark) == 0 {
		return fmt.Errorf("benchmark must list at least one segment")
	}
	total := 0
	for _, seg := range c.Benchmark {
		if len(seg.Tickers) == 0 {
			log.Printf("[WARN] benchmark segment %q has no tickers", seg.Name)
		}
		total += len(seg.Tickers)
		for _, t := range seg.Tickers {
			if t == "" {
				return fmt.Errorf("benchmark segment %q contains an empty ticker", seg.Name)
			}
		}
	}
	if total == 0 {
		return fmt.Errorf("benchmark must list at least one ticker")
	}
	if _, err := c.DateRange(); err != nil {
		return err
	}
	if c.Schedule.Cron != "" {
		if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Segments returns the benchmark as the model type.
func (c *Config) Segments() model.Benchmark {
	return model.Benchmark(c.Benchmark)
}

// DateRange parses the configured download window.
func (c *Config) DateRange() (model.DateRange, error) {
	return model.ParseDateRange(c.Range.Start, c.Range.End)
}
