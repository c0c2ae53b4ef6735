// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - StateEvent: snapshot produced by every integrator tick
//   - ShiftEvent: gear change applied by a tick
package events
