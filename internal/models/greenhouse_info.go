package models

import "time"

// GreenhouseInfo contains metadata about the greenhouse sensor client
type GreenhouseInfo struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	Crop      string    `json:"crop"` // e.g. "saffron"
	Version   string    `json:"version"`
	StartTime time.Time `json:"start_time"`
}

// Uptime returns the duration since the client started
func (g *GreenhouseInfo) Uptime() time.Duration {
	return time.Since(g.StartTime)
}

// NewGreenhouseInfo creates a new GreenhouseInfo with the current time as start time
func NewGreenhouseInfo(id, location, crop, version string) *GreenhouseInfo {
	return &GreenhouseInfo{
		ID:        id,
		Location:  location,
		Crop:      crop,
		Version:   version,
		StartTime: time.Now(),
	}
}
