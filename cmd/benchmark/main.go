package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"BenchmarkBuilder/internal/collector"
	"BenchmarkBuilder/internal/config"
	"BenchmarkBuilder/internal/notifier"
	"BenchmarkBuilder/internal/recorder"
	"BenchmarkBuilder/internal/scheduler"

	"github.com/joho/godotenv"
)

// Swapped out in tests.
var (
	newProvider = func(proxy string) collector.Provider {
		return collector.NewYahooProvider(proxy)
	}
	openRecorder = func(path string) (recorder.Recorder, error) {
		return recorder.NewSQLiteRecorder(path)
	}
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] BenchmarkBuilder starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] .env not loaded: %v", err)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	if err := run(cfgPath); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	log.Println("[INFO] BenchmarkBuilder stopped")
}

// run loads the config and either builds once or serves the cron schedule
// until a shutdown signal arrives. Resources are released before it returns.
func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	rng, err := cfg.DateRange()
	if err != nil {
		return fmt.Errorf("date range: %w", err)
	}

	provider := newProvider(cfg.Proxy)
	log.Printf("[INFO] data source: %s", provider.Name())

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		if sr, err := openRecorder(cfg.Database.SQLitePath); err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builder := &scheduler.Builder{
		Collector: collector.NewCollector(provider),
		Recorder:  rec,
		Benchmark: cfg.Segments(),
		Range:     rng,
		OutputDir: cfg.Output.Dir,
	}

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}
	sched := scheduler.NewScheduler(ctx, builder, sender)

	// One-shot build when no schedule is configured
	if cfg.Schedule.Cron == "" {
		if _, err := sched.RunNow(); err != nil {
			return fmt.Errorf("build: %w", err)
		}
		return nil
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, building now")
		go func() {
			if _, err := sched.RunNow(); err != nil {
				log.Printf("[ERROR] initial build: %v", err)
			}
		}()
	}

	log.Printf("[INFO] BenchmarkBuilder is running on schedule %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}
