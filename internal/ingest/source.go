package ingest

import "github.com/afroash/saffron-monitor/internal/models"

// Source supplies greenhouse readings one at a time. Implementations: CSV
// replay of a greenhouse export, and the built-in simulator. Read returns
// io.EOF when the source is exhausted.
type Source interface {
	Read() (*models.Reading, error)
	Close() error
}
