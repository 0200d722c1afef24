// Package sampler drives periodic acquisition: once per tick it takes one
// reading per active sensor, persists it, records it into the in-memory
// series and emits a Tick event for the renderer.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/luki/modbusmon/internal/history"
	"github.com/luki/modbusmon/internal/sensor"
	"github.com/luki/modbusmon/internal/store"
)

const (
	// Interval is the fixed delay between ticks.
	Interval = 1 * time.Second

	defaultEventBuffer = 16
)

// ErrInvalidSensorCount is returned for sensor counts outside 1..4.
var ErrInvalidSensorCount = errors.New("sensor count must be between 1 and 4")

// SensorError is a failed write for one sensor within a tick.
type SensorError struct {
	Sensor int
	Err    error
}

func (e SensorError) Error() string {
	return fmt.Sprintf("%s: %v", sensor.Label(e.Sensor), e.Err)
}

func (e SensorError) Unwrap() error { return e.Err }

// Tick is emitted once per loop iteration, after every active sensor has
// been sampled and persisted. Gen is the series generation the tick was
// sampled in; Start and Reset each begin a new one.
type Tick struct {
	Gen     int
	T       int
	Sensors int
	Series  history.Snapshot
	Errors  []SensorError
}

// Sampler owns the running state, the tick counter and the series store.
// Only one sampling loop can exist at a time.
type Sampler struct {
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	count   int
	tick    int
	gen     int

	series   *history.Store
	store    store.LogStore
	source   sensor.Source
	interval time.Duration
	events   chan Tick
	logger   zerolog.Logger

	// wait blocks for one interval; false means the loop must exit.
	wait func(ctx context.Context) bool
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithLogger sets the logger for write failures and state changes.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sampler) { s.logger = l }
}

// WithSource replaces the synthetic reading source.
func WithSource(src sensor.Source) Option {
	return func(s *Sampler) { s.source = src }
}

// WithCapacity caps each series; 0 keeps every reading.
func WithCapacity(n int) Option {
	return func(s *Sampler) { s.series = history.NewStore(0, n) }
}

// WithEventBuffer sets the size of the tick event buffer.
func WithEventBuffer(n int) Option {
	return func(s *Sampler) { s.events = make(chan Tick, n) }
}

// New creates a stopped sampler with n sensors writing to ls.
func New(ls store.LogStore, n int, opts ...Option) (*Sampler, error) {
	if !sensor.ValidCount(n) {
		return nil, ErrInvalidSensorCount
	}
	s := &Sampler{
		count:    n,
		series:   history.NewStore(0, 0),
		store:    ls,
		source:   sensor.NewSynthetic(0),
		interval: Interval,
		events:   make(chan Tick, defaultEventBuffer),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.series.Reset(n)
	s.wait = s.sleep
	return s, nil
}

// Events returns the tick event stream. The loop blocks when the buffer is
// full, so the consumer must keep reading while the sampler runs.
func (s *Sampler) Events() <-chan Tick {
	return s.events
}

// Start launches the sampling loop. It returns false, doing nothing, when
// the loop is already running. Cancelling ctx stops the loop as well.
func (s *Sampler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done
	s.tick = 0
	s.gen++

	s.logger.Info().Int("sensors", s.count).Msg("sampler started")
	go s.loop(loopCtx, cancel, done)
	return true
}

// Stop asks the loop to exit and waits until it has. The loop notices at
// the top of its next iteration or while waiting, so it returns within one
// tick. Ticks still queued for the consumer are dropped. Stop returns false
// when nothing was running or another Stop is already in progress. Start
// keeps returning false until the loop is gone.
func (s *Sampler) Stop() bool {
	s.mu.Lock()
	if !s.running || s.cancel == nil {
		s.mu.Unlock()
		return false
	}
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-done
	dropped := s.drain()
	s.logger.Info().Int("dropped", dropped).Msg("sampler stopped")
	return true
}

func (s *Sampler) drain() int {
	n := 0
	for {
		select {
		case <-s.events:
			n++
		default:
			return n
		}
	}
}

// Running reports whether the loop is active.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SensorCount returns the number of active sensors.
func (s *Sampler) SensorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Tick returns the counter value the next iteration will sample at. A
// sensor added now gets its first reading at this value.
func (s *Sampler) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// SetSensorCount changes the number of active sensors. The next iteration
// samples the new count. Existing series keep their history; added
// sensors start empty and get their first reading at the current tick.
func (s *Sampler) SetSensorCount(n int) error {
	if !sensor.ValidCount(n) {
		return ErrInvalidSensorCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
	s.series.Ensure(n)
	s.logger.Info().Int("sensors", n).Msg("sensor count changed")
	return nil
}

// Reset discards every series and allocates n empty ones. Ticks sampled
// before the reset carry an older Gen.
func (s *Sampler) Reset(n int) error {
	if !sensor.ValidCount(n) {
		return ErrInvalidSensorCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
	s.gen++
	s.series.Reset(n)
	s.logger.Info().Int("sensors", n).Msg("series reset")
	return nil
}

// Gen returns the current series generation. Ticks carrying an older Gen
// were sampled before the last Start or Reset and are stale.
func (s *Sampler) Gen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Series returns a copy of every series.
func (s *Sampler) Series() history.Snapshot {
	return s.series.Snapshot()
}

// LogText returns today's log for a sensor as display text, or the
// empty-state text when there is none.
func (s *Sampler) LogText(idx int) (string, error) {
	log, err := s.store.Read(idx)
	if err != nil {
		return "", fmt.Errorf("read log: %w", err)
	}
	return log.Text(), nil
}

func (s *Sampler) loop(ctx context.Context, cancel context.CancelFunc, done chan<- struct{}) {
	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
		close(done)
	}()

	for t := 0; ; t++ {
		if ctx.Err() != nil {
			return
		}

		ev := s.step(t)

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}

		if !s.wait(ctx) {
			return
		}
	}
}

// step runs one iteration: sample, record and persist every active sensor.
// A failed write is logged and reported; the remaining sensors are still
// written. The count is taken once and the counter advanced in the same
// critical section, so a count change lands exactly at Tick(). File I/O
// runs without s.mu held.
func (s *Sampler) step(t int) Tick {
	s.mu.Lock()
	n, gen := s.count, s.gen
	s.tick = t + 1
	s.mu.Unlock()

	ev := Tick{Gen: gen, T: t, Sensors: n}
	for idx := 0; idx < n; idx++ {
		r := sensor.Reading{Time: t, Temp: s.source.Read(idx)}
		s.series.Record(idx, r)
		if err := s.store.Append(idx, r); err != nil {
			s.logger.Error().Err(err).Int("sensor", sensor.Number(idx)).Int("tick", t).Msg("log write failed")
			ev.Errors = append(ev.Errors, SensorError{Sensor: idx, Err: err})
		}
	}
	ev.Series = s.series.Snapshot()
	return ev
}

func (s *Sampler) sleep(ctx context.Context) bool {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
