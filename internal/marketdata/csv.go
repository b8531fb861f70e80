// Package marketdata loads OHLCV bar series from CSV files for offline
// backtesting and scanning.
package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"swing-trade-lab/internal/domain"
)

var (
	ErrEmptyFile     = errors.New("csv file has no data rows")
	ErrMissingColumn = errors.New("csv header missing required column")
)

// Required header columns, case-insensitive. A "date" column is
// accepted in place of "timestamp".
var requiredColumns = []string{"open", "high", "low", "close", "volume"}

// Timestamp layouts tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadFile reads a bar series for one symbol from a CSV file. Rows must
// be strictly increasing in time; indicators are left NaN for the
// annotation pass.
func LoadFile(path, symbol string) ([]*domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := Load(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return bars, nil
}

// Load reads a bar series for one symbol from CSV data.
func Load(r io.Reader, symbol string) ([]*domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []*domain.Bar
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		b, err := parseBar(rec, cols, symbol)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}

	if len(bars) == 0 {
		return nil, ErrEmptyFile
	}
	if err := domain.ValidateSeries(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// columnMap gives the index of each field in a data row.
type columnMap struct {
	timestamp, open, high, low, close, volume int
}

func mapColumns(header []string) (columnMap, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cm := columnMap{timestamp: -1}
	if i, ok := idx["timestamp"]; ok {
		cm.timestamp = i
	} else if i, ok := idx["date"]; ok {
		cm.timestamp = i
	}
	if cm.timestamp < 0 {
		return cm, fmt.Errorf("%w: timestamp or date", ErrMissingColumn)
	}

	for _, name := range requiredColumns {
		i, ok := idx[name]
		if !ok {
			return cm, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		switch name {
		case "open":
			cm.open = i
		case "high":
			cm.high = i
		case "low":
			cm.low = i
		case "close":
			cm.close = i
		case "volume":
			cm.volume = i
		}
	}
	return cm, nil
}

func parseBar(rec []string, cols columnMap, symbol string) (*domain.Bar, error) {
	ts, err := parseTime(rec[cols.timestamp])
	if err != nil {
		return nil, err
	}

	b := &domain.Bar{
		Symbol:    symbol,
		Timestamp: ts,
		SMA20:     math.NaN(),
		SMA50:     math.NaN(),
		EMA10:     math.NaN(),
		EMA20:     math.NaN(),
		ATR14:     math.NaN(),
		High20:    math.NaN(),
		Low20:     math.NaN(),
		Volume20:  math.NaN(),
	}

	fields := []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"open", cols.open, &b.Open},
		{"high", cols.high, &b.High},
		{"low", cols.low, &b.Low},
		{"close", cols.close, &b.Close},
		{"volume", cols.volume, &b.Volume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[f.idx]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", f.name, rec[f.idx], err)
		}
		*f.dst = v
	}
	return b, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognized format", s)
}
