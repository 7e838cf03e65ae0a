package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/saffron-monitor/internal/agronomy"
	"github.com/afroash/saffron-monitor/internal/models"
)

// ActiveSensorTracker reports currently connected sensors.
// The WebSocket Handler implements this interface.
type ActiveSensorTracker interface {
	GetActiveSensors() []SensorConnection
}

// APIHandler handles HTTP API requests for the dashboard
type APIHandler struct {
	store     ReadingStore
	history   HistoricalStore // nil when persistence is disabled
	evaluator *agronomy.Evaluator
	tracker   ActiveSensorTracker
	logger    zerolog.Logger
}

// NewAPIHandler creates a new API handler backed by the in-memory store only
func NewAPIHandler(store ReadingStore, evaluator *agronomy.Evaluator, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		store:     store,
		evaluator: evaluator,
		logger:    logger,
	}
}

// NewAPIHandlerWithHistory creates an API handler that can also answer
// date/hour queries and daily aggregates from persistent storage
func NewAPIHandlerWithHistory(store ReadingStore, history HistoricalStore, evaluator *agronomy.Evaluator, logger zerolog.Logger) *APIHandler {
	api := NewAPIHandler(store, evaluator, logger)
	api.history = history
	return api
}

// SetSensorTracker attaches the WebSocket handler so /api/sensors can
// report live connections
func (api *APIHandler) SetSensorTracker(tracker ActiveSensorTracker) {
	api.tracker = tracker
}

func (api *APIHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// resolveSensorID picks the sensor from the query param, falling back to
// the first known sensor. Returns "" when no sensor has sent data yet.
func (api *APIHandler) resolveSensorID(r *http.Request) string {
	sensorID := r.URL.Query().Get("sensor_id")
	if sensorID != "" {
		return sensorID
	}
	sensorIDs := api.store.GetSensorIDs()
	if len(sensorIDs) == 0 {
		return ""
	}
	return sensorIDs[0]
}

// HandleCurrent returns the current reading for a sensor
func (api *APIHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	sensorID := api.resolveSensorID(r)
	if sensorID == "" {
		http.Error(w, "No sensors found", http.StatusNotFound)
		return
	}

	reading := api.store.GetCurrentReading(sensorID)
	if reading == nil {
		http.Error(w, "No readings available", http.StatusNotFound)
		return
	}

	api.writeJSON(w, http.StatusOK, reading)
}

// EvaluationResponse is the full health assessment for one reading
type EvaluationResponse struct {
	SensorID  string                 `json:"sensor_id"`
	Timestamp time.Time              `json:"timestamp"`
	Stage     agronomy.Stage         `json:"growth_stage"`
	Verdict   agronomy.HealthVerdict `json:"health"`
	Narrative string                 `json:"narrative"`
	SoilTable []agronomy.SoilRow     `json:"soil_table"`
}

// evaluate runs the rule evaluator against one reading
func (api *APIHandler) evaluate(reading *models.Reading) (*EvaluationResponse, error) {
	stage := api.evaluator.StageFor(reading)

	verdict, err := api.evaluator.ClassifyHealth(reading, stage)
	if err != nil {
		return nil, err
	}

	table, err := api.evaluator.BuildSoilTable(reading, stage)
	if err != nil {
		return nil, err
	}

	evaluationsTotal.WithLabelValues(string(verdict.Verdict)).Inc()

	return &EvaluationResponse{
		SensorID:  reading.SensorID,
		Timestamp: reading.Timestamp,
		Stage:     stage,
		Verdict:   verdict,
		Narrative: agronomy.Narrate(verdict, stage),
		SoilTable: table,
	}, nil
}

// readingForEvaluation resolves which reading to evaluate: the latest from
// memory, or a historical row when date/hour query params are present.
// A nil reading with a nil error means not found (already reported).
func (api *APIHandler) readingForEvaluation(w http.ResponseWriter, r *http.Request, sensorID string) *models.Reading {
	dateStr := r.URL.Query().Get("date")
	hourStr := r.URL.Query().Get("hour")

	if dateStr == "" && hourStr == "" {
		reading := api.store.GetCurrentReading(sensorID)
		if reading == nil {
			http.Error(w, "No readings available", http.StatusNotFound)
			return nil
		}
		return reading
	}

	if api.history == nil {
		http.Error(w, "Historical queries require database storage", http.StatusNotImplemented)
		return nil
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return nil
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		http.Error(w, "Invalid hour, expected 0-23", http.StatusBadRequest)
		return nil
	}

	reading, err := api.history.GetReadingAt(sensorID, date, hour)
	if err != nil {
		api.logger.Error().Err(err).Msg("Historical lookup failed")
		http.Error(w, "Historical lookup failed", http.StatusInternalServerError)
		return nil
	}
	if reading == nil {
		api.logger.Warn().
			Str("sensor_id", sensorID).
			Str("date", dateStr).
			Int("hour", hour).
			Msg("No reading recorded for requested date and hour")
		api.writeJSON(w, http.StatusNotFound, map[string]string{
			"warning": "no reading recorded for " + dateStr + " hour " + hourStr,
		})
		return nil
	}
	return reading
}

// HandleEvaluation returns verdict, findings, narrative and soil table for
// the latest reading, or for a historical reading selected with
// ?date=YYYY-MM-DD&hour=H
func (api *APIHandler) HandleEvaluation(w http.ResponseWriter, r *http.Request) {
	sensorID := api.resolveSensorID(r)
	if sensorID == "" {
		http.Error(w, "No sensors found", http.StatusNotFound)
		return
	}

	reading := api.readingForEvaluation(w, r, sensorID)
	if reading == nil {
		return
	}

	resp, err := api.evaluate(reading)
	if err != nil {
		api.logger.Error().Err(err).Msg("Evaluation failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	api.writeJSON(w, http.StatusOK, resp)
}

// HandleSoilTable returns just the per-parameter soil rows for the latest reading
func (api *APIHandler) HandleSoilTable(w http.ResponseWriter, r *http.Request) {
	sensorID := api.resolveSensorID(r)
	if sensorID == "" {
		http.Error(w, "No sensors found", http.StatusNotFound)
		return
	}

	reading := api.store.GetCurrentReading(sensorID)
	if reading == nil {
		http.Error(w, "No readings available", http.StatusNotFound)
		return
	}

	stage := api.evaluator.StageFor(reading)
	table, err := api.evaluator.BuildSoilTable(reading, stage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	api.writeJSON(w, http.StatusOK, table)
}

// HandleHistory returns recent readings for charting
func (api *APIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sensorID := r.URL.Query().Get("sensor_id")
	if sensorID == "" {
		sensorIDs := api.store.GetSensorIDs()
		if len(sensorIDs) == 0 {
			api.writeJSON(w, http.StatusOK, []models.Reading{})
			return
		}
		sensorID = sensorIDs[0]
	}

	limit := 50 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	readings := api.store.GetLatest(sensorID, limit)
	api.writeJSON(w, http.StatusOK, readings)
}

// TemperatureChart is a smoothed temperature series for the dashboard chart
type TemperatureChart struct {
	SensorID   string      `json:"sensor_id"`
	Sigma      float64     `json:"sigma"`
	Timestamps []time.Time `json:"timestamps"`
	Raw        []float64   `json:"raw"`
	Smoothed   []float64   `json:"smoothed"`
}

// HandleChartTemperature returns the recent temperature series with a
// Gaussian-smoothed overlay (?sigma=, default 2)
func (api *APIHandler) HandleChartTemperature(w http.ResponseWriter, r *http.Request) {
	sensorID := api.resolveSensorID(r)
	if sensorID == "" {
		http.Error(w, "No sensors found", http.StatusNotFound)
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sigma := 2.0
	if sigmaStr := r.URL.Query().Get("sigma"); sigmaStr != "" {
		parsed, err := strconv.ParseFloat(sigmaStr, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid sigma", http.StatusBadRequest)
			return
		}
		sigma = parsed
	}

	readings := api.store.GetLatest(sensorID, limit)

	// GetLatest returns newest first; the chart wants oldest first
	chart := TemperatureChart{
		SensorID:   sensorID,
		Sigma:      sigma,
		Timestamps: make([]time.Time, len(readings)),
		Raw:        make([]float64, len(readings)),
	}
	for i, reading := range readings {
		j := len(readings) - 1 - i
		chart.Timestamps[j] = reading.Timestamp
		chart.Raw[j] = reading.Temperature
	}
	chart.Smoothed = agronomy.SmoothTemperatures(chart.Raw, sigma)

	api.writeJSON(w, http.StatusOK, chart)
}

// HandleDailyStats returns per-day aggregates from persistent storage
// (?days=, default 7)
func (api *APIHandler) HandleDailyStats(w http.ResponseWriter, r *http.Request) {
	if api.history == nil {
		http.Error(w, "Daily stats require database storage", http.StatusNotImplemented)
		return
	}

	sensorID := r.URL.Query().Get("sensor_id")

	days := 7
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 {
			days = parsed
		}
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	stats, err := api.history.GetDailyStats(sensorID, start, end)
	if err != nil {
		api.logger.Error().Err(err).Msg("Daily stats query failed")
		http.Error(w, "Daily stats query failed", http.StatusInternalServerError)
		return
	}

	api.writeJSON(w, http.StatusOK, stats)
}

// SensorsResponse lists live connections and every sensor seen in storage
type SensorsResponse struct {
	Active []SensorConnection `json:"active"`
	Known  []string           `json:"known"`
}

// HandleSensors returns connected sensors plus all sensor IDs with data
func (api *APIHandler) HandleSensors(w http.ResponseWriter, r *http.Request) {
	resp := SensorsResponse{
		Active: []SensorConnection{},
		Known:  api.store.GetSensorIDs(),
	}
	if api.tracker != nil {
		resp.Active = api.tracker.GetActiveSensors()
	}
	if api.history != nil {
		if ids, err := api.history.GetSensorIDs(); err == nil {
			resp.Known = mergeIDs(resp.Known, ids)
		}
	}
	api.writeJSON(w, http.StatusOK, resp)
}

// mergeIDs unions two ID lists preserving first-seen order
func mergeIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range append(a, b...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// StatsResponse combines memory and database statistics
type StatsResponse struct {
	Memory   StoreStats  `json:"memory"`
	Database interface{} `json:"database,omitempty"`
}

// HandleStats returns store statistics
func (api *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Memory: api.store.Stats()}
	if api.history != nil {
		if dbStats, err := api.history.GetStorageStats(); err == nil {
			resp.Database = dbStats
		}
	}
	api.writeJSON(w, http.StatusOK, resp)
}

// DashboardData contains all data for the dashboard
type DashboardData struct {
	CurrentReading *models.Reading     `json:"current_reading"`
	Evaluation     *EvaluationResponse `json:"evaluation,omitempty"`
	Stats          StoreStats          `json:"stats"`
	SensorIDs      []string            `json:"sensor_ids"`
	LastUpdate     time.Time           `json:"last_update"`
}

// HandleDashboardData returns combined data for dashboard (htmx-friendly)
func (api *APIHandler) HandleDashboardData(w http.ResponseWriter, r *http.Request) {
	sensorIDs := api.store.GetSensorIDs()

	var currentReading *models.Reading
	if len(sensorIDs) > 0 {
		requestedSensor := r.URL.Query().Get("sensor_id")
		if requestedSensor != "" {
			currentReading = api.store.GetCurrentReading(requestedSensor)
		} else {
			currentReading = api.store.GetCurrentReading(sensorIDs[0])
		}
	}

	data := DashboardData{
		CurrentReading: currentReading,
		Stats:          api.store.Stats(),
		SensorIDs:      sensorIDs,
		LastUpdate:     time.Now(),
	}

	if currentReading != nil {
		evaluation, err := api.evaluate(currentReading)
		if err != nil {
			api.logger.Warn().Err(err).Msg("Dashboard evaluation failed")
		} else {
			data.Evaluation = evaluation
		}
	}

	api.writeJSON(w, http.StatusOK, data)
}
