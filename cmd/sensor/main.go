package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/saffron-monitor/internal/client"
	"github.com/afroash/saffron-monitor/internal/config"
	"github.com/afroash/saffron-monitor/internal/ingest"
	"github.com/afroash/saffron-monitor/internal/models"
)

const version = "v0.2.0"

// batchMax caps how many buffered readings are shipped per flush
const batchMax = 25

func main() {
	configPath := flag.String("config", "configs/sensor.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", version).
		Str("greenhouse", cfg.Greenhouse.ID).
		Str("source", cfg.Source.Mode).
		Msg("Starting saffron sensor client")

	source, err := newSource(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create reading source")
	}

	info := models.NewGreenhouseInfo(
		cfg.Greenhouse.ID,
		cfg.Greenhouse.Location,
		cfg.Greenhouse.Crop,
		version,
	)

	reader := ingest.NewReader(source, info, cfg.Source.ReadInterval, logger)
	defer reader.Close()

	buffer := client.NewReadingBuffer(cfg.Buffer.Size, cfg.Buffer.DropOldest)

	conn := client.NewConnection(client.ConnectionConfig{
		URL:                  cfg.Server.URL,
		AuthToken:            cfg.Server.AuthToken,
		ReconnectInterval:    cfg.Server.ReconnectInterval,
		MaxReconnectInterval: cfg.Server.MaxReconnectInterval,
		PingInterval:         cfg.Server.PingInterval,
		PongTimeout:          cfg.Server.PongTimeout,
	}, info, logger)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("Shutdown signal received")
		cancel()
	}()

	err = run(ctx, cfg, reader, buffer, conn, logger, false)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("Sensor client failed")
	}

	logger.Info().Str("buffer", buffer.String()).Msg("Sensor client stopped")
}

// newSource builds the configured reading source
func newSource(cfg *config.Config) (ingest.Source, error) {
	switch cfg.Source.Mode {
	case "csv":
		return ingest.NewCSVSource(cfg.Source.CSVPath, cfg.Greenhouse.ID)
	case "simulate":
		return ingest.NewSimulatedSource(cfg.Greenhouse.ID, cfg.Source.Seed), nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.Source.Mode)
	}
}

// setupLogger configures zerolog from the logging section
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

// run wires the reader, buffer and connection together and blocks until the
// context ends or the source is exhausted. In test mode the connection is
// not used and readings simply accumulate in the buffer.
func run(ctx context.Context, cfg *config.Config, reader *ingest.Reader, buffer *client.ReadingBuffer, conn *client.Connection, logger zerolog.Logger, testMode bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	// Reader loop; a CSV source ends the run when it is exhausted
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := reader.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Reader stopped with error")
		}
	}()

	// Move readings from the reader into the buffer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case reading := <-reader.Readings():
				if !buffer.Push(reading) {
					logger.Warn().Msg("Buffer full, reading dropped")
				}
			}
		}
	}()

	if conn != nil && !testMode {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn.Run(ctx)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			flushLoop(ctx, buffer, conn, logger)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// flushLoop ships buffered readings to the server whenever connected
func flushLoop(ctx context.Context, buffer *client.ReadingBuffer, conn *client.Connection, logger zerolog.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !conn.IsConnected() || buffer.IsEmpty() {
				continue
			}

			batch := buffer.PopBatch(batchMax)
			var err error
			if len(batch) == 1 {
				err = conn.Send(batch[0])
			} else {
				err = conn.SendBatch(batch)
			}
			if err != nil {
				logger.Warn().Err(err).Int("count", len(batch)).Msg("Flush failed, re-buffering")
				for _, reading := range batch {
					buffer.Push(reading)
				}
			}
		}
	}
}
