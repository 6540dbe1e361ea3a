package gesture

import (
	"sync"
	"testing"
	"time"
)

func TestSlot_InitializedToSentinel(t *testing.T) {
	s := NewSlot()

	e := s.Load()
	if !e.IsZero() {
		t.Errorf("fresh slot holds %+v, want sentinel", e)
	}
	if e.Gesture != None {
		t.Errorf("fresh slot gesture = %v, want %v", e.Gesture, None)
	}
}

func TestSlot_PublishReplaces(t *testing.T) {
	s := NewSlot()
	now := time.Now()

	s.Publish(Event{Gesture: Play, Timestamp: now})
	s.Publish(Event{Gesture: Pause, Timestamp: now.Add(time.Second)})

	e := s.Load()
	if e.Gesture != Pause {
		t.Errorf("Load() = %v, want %v (latest value wins)", e.Gesture, Pause)
	}
}

func TestSlot_Reset(t *testing.T) {
	s := NewSlot()
	s.Publish(Event{Gesture: Play, Timestamp: time.Now()})
	s.Reset()

	if e := s.Load(); !e.IsZero() {
		t.Errorf("reset slot holds %+v, want sentinel", e)
	}
}

// Each published event pairs a gesture with a timestamp derived from a
// single sequence number, so any torn read surfaces as a mismatched pair.
func TestSlot_NoTornReads(t *testing.T) {
	s := NewSlot()

	base := time.Unix(0, 0)
	stamp := func(g Gesture, seq int64) Event {
		return Event{Gesture: g, Timestamp: base.Add(time.Duration(seq))}
	}
	expect := map[Gesture]time.Duration{
		Play:  0,
		Pause: 1,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			s.Publish(stamp(Play, 2*int64(i)))
			s.Publish(stamp(Pause, 2*int64(i)+1))
		}
	}()

	var wg sync.WaitGroup
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				e := s.Load()
				if e.IsZero() {
					continue
				}
				parity := e.Timestamp.Sub(base) % 2
				if want := expect[e.Gesture]; parity != want {
					t.Errorf("torn read: gesture %v with timestamp parity %d", e.Gesture, parity)
					return
				}
			}
		}()
	}

	<-done
	wg.Wait()
}
