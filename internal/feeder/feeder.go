// Package feeder generates a deterministic demo frame stream so the web
// view can be exercised without a physical CAN transport.
//
// The pattern mirrors a typical bench sender: a periodic status frame
// whose second byte steps every few seconds, plus an occasional two-byte
// button frame toggling its state.
package feeder

import (
	"context"
	"log/slog"
	"time"

	"github.com/simonwood/canmon/internal/engine"
	"github.com/simonwood/canmon/internal/frame"
)

// Demo frame schedule.
const (
	statusID       = 0x123
	statusPeriod   = time.Second
	statusBumpEach = 5 * time.Second

	buttonID         = 0x124
	buttonToggleEach = 7 * time.Second
)

// Feeder emits demo frames into a Monitor on a fixed schedule.
//
// Feeder is step-driven: Step(now) ingests whatever is due at now, which
// makes the schedule fully deterministic under a manual clock. Run drives
// Step from a ticker for live use. Not safe for concurrent Step calls.
type Feeder struct {
	monitor *engine.Monitor

	statusData [frame.MaxPayload]byte
	nextStatus time.Time
	nextBump   time.Time

	buttonOn   bool
	nextToggle time.Time
}

// New creates a Feeder whose first Step emits immediately.
func New(monitor *engine.Monitor) *Feeder {
	return &Feeder{
		monitor:    monitor,
		statusData: [frame.MaxPayload]byte{0x01, 0x02, 0xFF, 0x04, 0x05, 0x06, 0x07, 0x08},
	}
}

// Step ingests every frame due at now and schedules the next ones.
// now must be non-decreasing across calls.
func (f *Feeder) Step(now time.Time) {
	if !now.Before(f.nextBump) {
		if !f.nextBump.IsZero() {
			f.statusData[1]++
		}
		f.nextBump = now.Add(statusBumpEach)
	}

	if !now.Before(f.nextStatus) {
		f.nextStatus = now.Add(statusPeriod)
		f.ingest(statusID, f.statusData[:], now)
	}

	if !now.Before(f.nextToggle) {
		if !f.nextToggle.IsZero() {
			f.buttonOn = !f.buttonOn
		}
		f.nextToggle = now.Add(buttonToggleEach)
		state := byte(0x00)
		if f.buttonOn {
			state = 0x01
		}
		f.ingest(buttonID, []byte{0xAA, state}, now)
	}
}

// Run drives Step from a ticker until the context is cancelled.
func (f *Feeder) Run(ctx context.Context) {
	slog.Info("demo feeder running",
		"status_id", statusID,
		"button_id", buttonID,
	)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("demo feeder stopped")
			return
		case <-ticker.C:
			f.Step(f.monitor.Clock().Now())
		}
	}
}

func (f *Feeder) ingest(id uint32, payload []byte, now time.Time) {
	fr, err := frame.New(id, payload, now)
	if err != nil {
		// Payloads here are fixed and within bounds; this cannot fire
		// unless the schedule tables are edited incorrectly.
		slog.Error("demo frame rejected", "id", id, "error", err)
		return
	}
	f.monitor.Ingest(fr)
}
