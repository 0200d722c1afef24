// Package store persists temperature readings as one CSV file per sensor
// per calendar day: modbus_data/sensor{N}_log_{YYYYMMDD}.csv.
//
// CSVStore rewrites the whole file on every append. The rewrite is not
// atomic: a crash in the middle of a write can truncate the day's log.
package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/luki/modbusmon/internal/sensor"
)

const (
	// DefaultDir is the data directory relative to the working directory.
	DefaultDir = "modbus_data"
	dayLayout  = "20060102"
)

var header = []string{"Time", "Temperature"}

// LogStore persists readings for a sensor and reads back today's log.
type LogStore interface {
	Append(idx int, r sensor.Reading) error
	Read(idx int) (Log, error)
}

// CSVStore is a LogStore backed by per-sensor, per-day CSV files.
type CSVStore struct {
	dir   string
	clock func() time.Time
}

// Option configures a CSVStore.
type Option func(*CSVStore)

// WithClock overrides the clock used to pick the day's file.
func WithClock(clock func() time.Time) Option {
	return func(s *CSVStore) { s.clock = clock }
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*CSVStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create data dir: %w", err)
	}
	s := &CSVStore{dir: dir, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the data directory.
func (s *CSVStore) Dir() string {
	return s.dir
}

// FileName returns the log file name for a 0-based sensor index and day.
func FileName(idx int, day time.Time) string {
	return fmt.Sprintf("sensor%d_log_%s.csv", sensor.Number(idx), day.Format(dayLayout))
}

// Path returns today's log path for a sensor.
func (s *CSVStore) Path(idx int) string {
	return filepath.Join(s.dir, FileName(idx, s.clock()))
}

// Append adds one row to today's file for the sensor. The existing file is
// loaded in full and rewritten with the new row at the end.
func (s *CSVStore) Append(idx int, r sensor.Reading) error {
	path := s.Path(idx)

	rows, err := LoadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	rows = append(rows, r)

	if err := writeFile(path, rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Read returns today's log for a sensor. A missing file yields an empty
// Log with Exists false, not an error.
func (s *CSVStore) Read(idx int) (Log, error) {
	path := s.Path(idx)
	rows, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Log{Sensor: idx}, nil
	}
	if err != nil {
		return Log{Sensor: idx}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return Log{Sensor: idx, Rows: rows, Exists: true}, nil
}

func writeFile(path string, rows []sensor.Reading) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{strconv.Itoa(r.Time), strconv.Itoa(r.Temp)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadFile reads all readings from a log file, in file order.
func LoadFile(path string) ([]sensor.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]sensor.Reading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var readings []sensor.Reading
	for i, row := range records {
		if i == 0 && len(row) > 0 && row[0] == header[0] {
			continue
		}
		if len(row) < 2 {
			continue
		}
		t, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad time %q", i+1, row[0])
		}
		temp, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad temperature %q", i+1, row[1])
		}
		readings = append(readings, sensor.Reading{Time: t, Temp: temp})
	}
	return readings, nil
}

// ListFiles returns the log files in dir for the given day, keyed by
// 0-based sensor index.
func ListFiles(dir string, day time.Time) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	suffix := "_log_" + day.Format(dayLayout) + ".csv"
	files := make(map[int]string)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "sensor") || !strings.HasSuffix(name, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "sensor"), suffix))
		if err != nil || n < 1 {
			continue
		}
		files[n-1] = filepath.Join(dir, name)
	}
	return files, nil
}

// SortedIndexes returns the keys of a ListFiles result in ascending order.
func SortedIndexes(files map[int]string) []int {
	idx := make([]int, 0, len(files))
	for k := range files {
		idx = append(idx, k)
	}
	sort.Ints(idx)
	return idx
}
