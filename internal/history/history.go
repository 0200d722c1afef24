// Package history holds the in-memory series of readings per sensor with
// min/peak/avg statistics. Series are kept across sensor count changes and
// discarded only by an explicit Reset.
package history

import (
	"math"
	"sync"

	"github.com/luki/modbusmon/internal/sensor"
)

// Series stores the readings of one sensor in insertion order.
type Series struct {
	Points []sensor.Reading
	Max    int // capacity, 0 keeps every point
	Min    int
	Peak   int
}

// NewSeries creates an empty series. A capacity of 0 means unbounded.
func NewSeries(capacity int) *Series {
	return &Series{
		Max:  capacity,
		Min:  math.MaxInt,
		Peak: math.MinInt,
	}
}

// Push appends a reading, dropping the oldest one when the series is full.
func (s *Series) Push(r sensor.Reading) {
	if s.Max > 0 && len(s.Points) >= s.Max {
		copy(s.Points, s.Points[1:])
		s.Points[len(s.Points)-1] = r
	} else {
		s.Points = append(s.Points, r)
	}

	if r.Temp < s.Min {
		s.Min = r.Temp
	}
	if r.Temp > s.Peak {
		s.Peak = r.Temp
	}
}

// Len returns the number of stored readings.
func (s *Series) Len() int {
	return len(s.Points)
}

// Last returns the most recent reading, or false if empty.
func (s *Series) Last() (sensor.Reading, bool) {
	if len(s.Points) == 0 {
		return sensor.Reading{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Avg returns the average temperature across all stored points.
func (s *Series) Avg() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	sum := 0
	for _, p := range s.Points {
		sum += p.Temp
	}
	return float64(sum) / float64(len(s.Points))
}

// LastN returns a copy of the last n readings.
func (s *Series) LastN(n int) []sensor.Reading {
	if n <= 0 || len(s.Points) == 0 {
		return nil
	}
	start := max(len(s.Points)-n, 0)
	out := make([]sensor.Reading, len(s.Points[start:]))
	copy(out, s.Points[start:])
	return out
}

func (s *Series) clone() *Series {
	c := *s
	c.Points = make([]sensor.Reading, len(s.Points))
	copy(c.Points, s.Points)
	return &c
}

// Store manages the series of all sensors. It is safe for concurrent use;
// the sampler writes and the UI reads snapshots.
type Store struct {
	mu       sync.RWMutex
	data     map[int]*Series
	capacity int
}

// NewStore creates a store with n empty series and the given per-sensor
// capacity.
func NewStore(n, capacity int) *Store {
	s := &Store{capacity: capacity}
	s.Reset(n)
	return s
}

// Reset discards every series and allocates n empty ones, indexed 0..n-1.
func (s *Store) Reset(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[int]*Series, n)
	for i := 0; i < n; i++ {
		s.data[i] = NewSeries(s.capacity)
	}
}

// Ensure allocates empty series for any of the indexes 0..n-1 that do not
// have one yet. Existing series, including those at n and above, are kept.
func (s *Store) Ensure(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		if _, ok := s.data[i]; !ok {
			s.data[i] = NewSeries(s.capacity)
		}
	}
}

// Record adds a reading for a sensor, creating its series if needed.
func (s *Store) Record(idx int, r sensor.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[idx]
	if !ok {
		b = NewSeries(s.capacity)
		s.data[idx] = b
	}
	b.Push(r)
}

// Len returns the number of series.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Get returns a copy of a sensor's series, or nil.
func (s *Store) Get(idx int) *Series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[idx]
	if !ok {
		return nil
	}
	return b.clone()
}

// Snapshot returns a deep copy of every series.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(Snapshot, len(s.data))
	for k, b := range s.data {
		snap[k] = b.clone()
	}
	return snap
}

// Snapshot is a point-in-time copy of all series, keyed by sensor index.
type Snapshot map[int]*Series

// Points returns the readings of every series, keyed by sensor index.
func (s Snapshot) Points() map[int][]sensor.Reading {
	out := make(map[int][]sensor.Reading, len(s))
	for k, b := range s {
		out[k] = b.Points
	}
	return out
}
