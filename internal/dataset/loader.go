package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"agripulse/internal/errors"
)

// dateFormats are the accepted layouts for the date column, tried in order
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Loader reads the raw per-region CSV files into TimeSeries values
type Loader struct {
	dataDir string
	logger  *slog.Logger
}

// NewLoader creates a loader rooted at the given data directory
func NewLoader(dataDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dataDir: dataDir, logger: logger}
}

// FileName returns the expected CSV file name for a series key,
// e.g. MH_precipitation.csv
func FileName(key SeriesKey) string {
	return fmt.Sprintf("%s_%s.csv", key.Region.Code(), key.Measurement.String())
}

// LoadAll loads every region+measurement series. Any missing or
// malformed file aborts the load; there is no partial result.
func (l *Loader) LoadAll(ctx context.Context) (Collection, error) {
	collection := make(Collection, len(Regions)*len(Measurements))

	for _, region := range Regions {
		for _, measurement := range Measurements {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("load cancelled: %w", ctx.Err())
			default:
			}

			key := SeriesKey{Region: region, Measurement: measurement}
			path := filepath.Join(l.dataDir, FileName(key))

			series, err := l.loadCSV(path, key)
			if err != nil {
				return nil, err
			}

			l.logger.InfoContext(ctx, "loaded series",
				"dataset", key.String(),
				"path", path,
				"records", series.Len(),
				"missing", series.MissingCount(),
			)
			collection[key] = series
		}
	}

	return collection, nil
}

// loadCSV reads a single CSV file into a TimeSeries. The file must have
// a header row with a date column and the measurement's value column.
func (l *Loader) loadCSV(path string, key SeriesKey) (*TimeSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewLoadError(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewLoadError(path, err)
	}
	if len(records) < 2 {
		return nil, errors.NewLoadError(path, fmt.Errorf("no data rows"))
	}

	header := records[0]
	dateIdx, valueIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.ToLower(col)) {
		case "date":
			dateIdx = i
		case key.Measurement.Column():
			valueIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, errors.NewFormatError(key.String(), "date", fmt.Errorf("column not found in header %v", header))
	}
	if valueIdx < 0 {
		return nil, errors.NewFormatError(key.String(), key.Measurement.Column(), fmt.Errorf("column not found in header %v", header))
	}

	points := make([]Point, 0, len(records)-1)
	for rowNum, record := range records[1:] {
		if len(record) <= dateIdx || len(record) <= valueIdx {
			return nil, errors.NewFormatError(key.String(), key.Measurement.Column(),
				fmt.Errorf("row %d has %d columns", rowNum+2, len(record)))
		}

		date, err := parseDate(record[dateIdx])
		if err != nil {
			return nil, errors.NewFormatError(key.String(), "date",
				fmt.Errorf("row %d: %w", rowNum+2, err))
		}

		value := math.NaN()
		if raw := strings.TrimSpace(record[valueIdx]); raw != "" {
			value, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.NewFormatError(key.String(), key.Measurement.Column(),
					fmt.Errorf("row %d: %w", rowNum+2, err))
			}
		}

		points = append(points, Point{Date: date, Value: value})
	}

	series := &TimeSeries{Key: key, Points: points}
	if err := checkDateOrder(series); err != nil {
		return nil, errors.NewFormatError(key.String(), "date", err)
	}

	return series, nil
}

// parseDate tries the accepted date layouts in order
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// checkDateOrder enforces the load invariant: dates strictly increasing
func checkDateOrder(ts *TimeSeries) error {
	for i := 1; i < len(ts.Points); i++ {
		prev, cur := ts.Points[i-1].Date, ts.Points[i].Date
		if cur.Equal(prev) {
			return fmt.Errorf("duplicate date %s", cur.Format("2006-01-02"))
		}
		if cur.Before(prev) {
			return fmt.Errorf("dates out of order at %s", cur.Format("2006-01-02"))
		}
	}
	return nil
}
