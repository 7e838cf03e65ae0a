package ingest

import (
	"math/rand"
	"time"

	"github.com/afroash/saffron-monitor/internal/models"
)

// SimulatedSource generates plausible greenhouse readings for running the
// pipeline without a CSV export. Values wander around the saffron ideal
// midpoints with bounded jitter, so most readings are healthy with the
// occasional excursion.
type SimulatedSource struct {
	sensorID string
	rng      *rand.Rand
	now      func() time.Time
}

// NewSimulatedSource creates a simulator. seed 0 means time-based.
func NewSimulatedSource(sensorID string, seed int64) *SimulatedSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSource{
		sensorID: sensorID,
		rng:      rand.New(rand.NewSource(seed)),
		now:      time.Now,
	}
}

// Read returns a fresh simulated reading. Never returns io.EOF.
func (s *SimulatedSource) Read() (*models.Reading, error) {
	jitter := func(mid, spread float64) float64 {
		return mid + (s.rng.Float64()*2-1)*spread
	}

	return &models.Reading{
		SensorID:        s.sensorID,
		Timestamp:       s.now(),
		Temperature:     jitter(20, 8),
		Humidity:        jitter(50, 15),
		SoilTemperature: jitter(20, 4),
		SoilHumidity:    jitter(50, 18),
		PH:              jitter(7, 1.4),
		Nitrogen:        jitter(40, 25),
		Phosphorus:      jitter(90, 40),
		Potassium:       jitter(60, 28),
	}, nil
}

// Close is a no-op for the simulator
func (s *SimulatedSource) Close() error {
	return nil
}
