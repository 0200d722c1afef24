package history

import (
	"testing"

	"github.com/luki/modbusmon/internal/sensor"
)

func TestSeries(t *testing.T) {
	h := NewSeries(5)

	for i := 0; i < 7; i++ {
		h.Push(sensor.Reading{Time: i, Temp: 300 + i})
	}

	if h.Len() != 5 {
		t.Errorf("expected 5 points, got %d", h.Len())
	}

	last, ok := h.Last()
	if !ok || last.Temp != 306 {
		t.Errorf("Last(): got %+v (ok=%v), want temp 306", last, ok)
	}

	if h.Min != 300 {
		t.Errorf("Min: got %d, want 300", h.Min)
	}

	if h.Peak != 306 {
		t.Errorf("Peak: got %d, want 306", h.Peak)
	}

	vals := h.LastN(3)
	if len(vals) != 3 {
		t.Errorf("LastN(3): got %d values, want 3", len(vals))
	}
}

func TestSeriesUnbounded(t *testing.T) {
	h := NewSeries(0)
	for i := 0; i < 1000; i++ {
		h.Push(sensor.Reading{Time: i, Temp: 100 + i%400})
	}
	if h.Len() != 1000 {
		t.Fatalf("expected 1000 points, got %d", h.Len())
	}
	for i, p := range h.Points {
		if p.Time != i {
			t.Fatalf("point %d has time %d", i, p.Time)
		}
	}
}

func TestResetAllocatesEmptySeries(t *testing.T) {
	s := NewStore(1, 0)
	s.Record(0, sensor.Reading{Time: 0, Temp: 200})

	for n := 1; n <= sensor.MaxSensors; n++ {
		s.Reset(n)
		snap := s.Snapshot()
		if len(snap) != n {
			t.Fatalf("Reset(%d): got %d series", n, len(snap))
		}
		for i := 0; i < n; i++ {
			b, ok := snap[i]
			if !ok {
				t.Fatalf("Reset(%d): missing series %d", n, i)
			}
			if b.Len() != 0 {
				t.Errorf("Reset(%d): series %d has %d points", n, i, b.Len())
			}
		}
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewStore(2, 0)
	s.Record(1, sensor.Reading{Time: 0, Temp: 123})

	snap := s.Snapshot()
	s.Record(1, sensor.Reading{Time: 1, Temp: 456})

	if snap[1].Len() != 1 {
		t.Errorf("snapshot changed after Record: %d points", snap[1].Len())
	}
	if got := s.Get(1).Len(); got != 2 {
		t.Errorf("Get(1): got %d points, want 2", got)
	}
	if s.Get(7) != nil {
		t.Error("Get(7) should be nil")
	}
}

func TestAvg(t *testing.T) {
	h := NewSeries(0)
	if h.Avg() != 0 {
		t.Error("empty Avg should be 0")
	}
	h.Push(sensor.Reading{Time: 0, Temp: 100})
	h.Push(sensor.Reading{Time: 1, Temp: 300})
	if h.Avg() != 200 {
		t.Errorf("Avg: got %f, want 200", h.Avg())
	}
}

func TestEnsureKeepsHistory(t *testing.T) {
	s := NewStore(2, 0)
	s.Record(0, sensor.Reading{Time: 0, Temp: 111})
	s.Record(1, sensor.Reading{Time: 0, Temp: 222})

	s.Ensure(4)
	snap := s.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 series, got %d", len(snap))
	}
	if snap[0].Len() != 1 || snap[1].Len() != 1 {
		t.Error("existing series lost history")
	}
	if snap[2].Len() != 0 || snap[3].Len() != 0 {
		t.Error("new series should be empty")
	}

	s.Ensure(1)
	if s.Len() != 4 {
		t.Errorf("Ensure(1) should not drop series, got %d", s.Len())
	}
}
