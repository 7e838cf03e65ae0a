package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/afroash/saffron-monitor/internal/models"
)

// CSVSource replays a greenhouse CSV export one row per Read call.
//
// The header is matched case-insensitively with a few aliases so exports
// from different dashboard variants all load: either a "timestamp" column
// (RFC3339) or "date" (2006-01-02) plus "hour" columns; the eight sensor
// columns; optional "growth_stage" and "irrigation_amount".
type CSVSource struct {
	file     *os.File
	reader   *csv.Reader
	columns  map[string]int
	sensorID string
	line     int
}

// columnAliases maps export header variants to canonical column names.
var columnAliases = map[string]string{
	"temp":            "temperature",
	"air_temperature": "temperature",
	"air_humidity":    "humidity",
	"soil_temp":       "soil_temperature",
	"soil_moisture":   "soil_humidity",
	"n":               "nitrogen",
	"p":               "phosphorus",
	"k":               "potassium",
	"stage":           "growth_stage",
	"irrigation_ml":   "irrigation_amount",
	"water_amount":    "irrigation_amount",
}

var requiredColumns = []string{
	"temperature", "humidity", "soil_temperature", "soil_humidity",
	"ph", "nitrogen", "phosphorus", "potassium",
}

// NewCSVSource opens a greenhouse export. sensorID is stamped on every
// reading; the exports do not carry one.
func NewCSVSource(path, sensorID string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := columnAliases[key]; ok {
			key = canonical
		}
		columns[key] = i
	}

	if _, hasTS := columns["timestamp"]; !hasTS {
		_, hasDate := columns["date"]
		_, hasHour := columns["hour"]
		if !hasDate || !hasHour {
			f.Close()
			return nil, fmt.Errorf("csv needs a timestamp column or date and hour columns")
		}
	}
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			f.Close()
			return nil, fmt.Errorf("csv missing required column %s", col)
		}
	}

	return &CSVSource{
		file:     f,
		reader:   r,
		columns:  columns,
		sensorID: sensorID,
		line:     1,
	}, nil
}

// Read returns the next reading, or io.EOF when the export is exhausted.
// A malformed row is an error for that row only; the next Read continues.
func (s *CSVSource) Read() (*models.Reading, error) {
	record, err := s.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read csv record: %w", err)
	}
	s.line++

	reading, err := s.parseRecord(record)
	if err != nil {
		return nil, fmt.Errorf("csv line %d: %w", s.line, err)
	}
	return reading, nil
}

func (s *CSVSource) parseRecord(record []string) (*models.Reading, error) {
	cell := func(name string) (string, bool) {
		i, ok := s.columns[name]
		if !ok || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	number := func(name string) (float64, error) {
		raw, ok := cell(name)
		if !ok || raw == "" {
			return 0, fmt.Errorf("missing %s", name)
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s value %q", name, raw)
		}
		return v, nil
	}

	ts, err := s.parseTimestamp(cell)
	if err != nil {
		return nil, err
	}

	reading := &models.Reading{
		SensorID:  s.sensorID,
		Timestamp: ts,
	}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"temperature", &reading.Temperature},
		{"humidity", &reading.Humidity},
		{"soil_temperature", &reading.SoilTemperature},
		{"soil_humidity", &reading.SoilHumidity},
		{"ph", &reading.PH},
		{"nitrogen", &reading.Nitrogen},
		{"phosphorus", &reading.Phosphorus},
		{"potassium", &reading.Potassium},
	}
	for _, f := range fields {
		v, err := number(f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if stage, ok := cell("growth_stage"); ok && stage != "" {
		reading.GrowthStage = stage
	}
	if raw, ok := cell("irrigation_amount"); ok && raw != "" {
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("bad irrigation_amount value %q", raw)
		}
		reading.IrrigationAmount = &v
	}

	if err := reading.Validate(); err != nil {
		return nil, err
	}
	return reading, nil
}

func (s *CSVSource) parseTimestamp(cell func(string) (string, bool)) (time.Time, error) {
	if raw, ok := cell("timestamp"); ok && raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad timestamp %q", raw)
		}
		return ts, nil
	}

	rawDate, _ := cell("date")
	rawHour, _ := cell("hour")
	if rawDate == "" || rawHour == "" {
		return time.Time{}, fmt.Errorf("missing date or hour")
	}
	day, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q", rawDate)
	}
	hour, err := strconv.Atoi(rawHour)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("bad hour %q", rawHour)
	}
	return day.Add(time.Duration(hour) * time.Hour), nil
}

// Close closes the underlying file
func (s *CSVSource) Close() error {
	return s.file.Close()
}
