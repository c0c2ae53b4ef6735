package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/carsim/core/events"
	coremetrics "github.com/kilianp07/carsim/core/metrics"
	"github.com/kilianp07/carsim/infra/logger"
	"github.com/kilianp07/carsim/internal/eventbus"
)

// StartEventCollector subscribes to the state and shift buses and records
// their events on sink. State events are downsampled to one per interval of
// simulated time; the most recent skipped sample is flushed on exit. Every
// shift is forwarded when sink implements GearShiftRecorder.
//
// The collector stops when ctx is canceled or both buses are closed. The
// returned channel is closed once it has stopped.
func StartEventCollector(ctx context.Context, states *eventbus.TypedBus[events.StateEvent], shifts *eventbus.TypedBus[events.ShiftEvent], sink coremetrics.TelemetrySink, interval time.Duration, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sink == nil || (states == nil && shifts == nil) {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	var stateSub <-chan events.StateEvent
	var shiftSub <-chan events.ShiftEvent
	if states != nil {
		stateSub = states.Subscribe()
	}
	if shifts != nil {
		shiftSub = shifts.Subscribe()
	}
	shiftRec, _ := sink.(coremetrics.GearShiftRecorder)

	go func() {
		defer close(done)
		defer func() {
			if states != nil {
				states.Unsubscribe(stateSub)
			}
			if shifts != nil {
				shifts.Unsubscribe(shiftSub)
			}
		}()
		s := sampler{interval: interval.Seconds()}
		record := func(ev events.StateEvent) {
			if err := sink.RecordVehicleState(toStateEvent(ev)); err != nil {
				log.Warnf("record vehicle state: %v", err)
			}
		}
		defer func() {
			if ev, ok := s.flush(); ok {
				record(ev)
			}
		}()
		for stateSub != nil || shiftSub != nil {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-stateSub:
				if !ok {
					stateSub = nil
					continue
				}
				if s.offer(ev) {
					record(ev)
				}
			case ev, ok := <-shiftSub:
				if !ok {
					shiftSub = nil
					continue
				}
				if shiftRec == nil {
					continue
				}
				if err := shiftRec.RecordGearShift(toShiftEvent(ev)); err != nil {
					log.Warnf("record gear shift: %v", err)
				}
			}
		}
	}()
	return done
}

// sampler keeps one state event per interval of simulated time.
type sampler struct {
	interval float64
	last     float64
	started  bool
	pending  *events.StateEvent
}

// offer reports whether ev should be recorded now. Rejected events are kept
// as pending until a newer one arrives.
func (s *sampler) offer(ev events.StateEvent) bool {
	t := ev.Snapshot.Elapsed
	if !s.started || s.interval <= 0 || t-s.last >= s.interval || t < s.last {
		s.started = true
		s.last = t
		s.pending = nil
		return true
	}
	s.pending = &ev
	return false
}

func (s *sampler) flush() (events.StateEvent, bool) {
	if s.pending == nil {
		return events.StateEvent{}, false
	}
	ev := *s.pending
	s.pending = nil
	return ev, true
}

func toStateEvent(ev events.StateEvent) coremetrics.VehicleStateEvent {
	return coremetrics.VehicleStateEvent{
		VehicleID: ev.VehicleID,
		Snapshot:  ev.Snapshot,
		NetForce:  ev.Forces.Net,
		Time:      ev.Time,
	}
}

func toShiftEvent(ev events.ShiftEvent) coremetrics.GearShiftEvent {
	return coremetrics.GearShiftEvent{
		VehicleID: ev.VehicleID,
		From:      ev.From,
		To:        ev.To,
		Direction: ev.Direction.String(),
		Speed:     ev.Speed,
		EngineRPM: ev.EngineRPM,
		Time:      ev.Time,
	}
}
