package ingest

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/saffron-monitor/internal/models"
)

// Reader orchestrates periodic reads from a Source and publishes valid
// readings on a channel.
type Reader struct {
	source   Source
	info     *models.GreenhouseInfo
	interval time.Duration
	logger   zerolog.Logger
	readings chan *models.Reading
}

// NewReader creates a new reader
func NewReader(source Source, info *models.GreenhouseInfo, interval time.Duration, logger zerolog.Logger) *Reader {
	return &Reader{
		source:   source,
		info:     info,
		interval: interval,
		logger:   logger,
		readings: make(chan *models.Reading, 10),
	}
}

// Start begins periodic reading from the source. Blocks until the context
// is cancelled or the source is exhausted (CSV replay reaching its end).
func (r *Reader) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if done := r.readAndPublish(ctx); done {
				r.logger.Info().Msg("source exhausted, reader stopping")
				return nil
			}
		}
	}
}

// ReadOnce performs a single read (useful for testing)
func (r *Reader) ReadOnce() (*models.Reading, error) {
	reading, err := r.source.Read()
	if err != nil {
		return nil, err
	}
	if reading.SensorID == "" {
		reading.SensorID = r.info.ID
	}
	if err := reading.Validate(); err != nil {
		return nil, err
	}
	return reading, nil
}

// readAndPublish performs a read and publishes to the channel. Returns true
// when the source is exhausted. An invalid row is logged and skipped, never
// defaulted.
func (r *Reader) readAndPublish(ctx context.Context) bool {
	reading, err := r.ReadOnce()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		r.logger.Error().Err(err).Msg("failed to read from source")
		return false
	}
	select {
	case r.readings <- reading:
		r.logger.Info().Msgf("read from source: %s", reading.String())
	case <-ctx.Done():
	}
	return false
}

// Readings returns the channel where readings are published
func (r *Reader) Readings() <-chan *models.Reading {
	return r.readings
}

// Close stops the reader and cleans up resources
func (r *Reader) Close() error {
	return r.source.Close()
}
