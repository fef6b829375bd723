package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonwood/canmon/internal/frame"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(offsetMS int64) time.Time {
	return base.Add(time.Duration(offsetMS) * time.Millisecond)
}

func mustFrame(t *testing.T, id uint32, payload []byte, offsetMS int64) frame.Frame {
	t.Helper()
	f, err := frame.New(id, payload, at(offsetMS))
	require.NoError(t, err)
	return f
}

func TestNew_ZeroRetentionFallsBack(t *testing.T) {
	assert.Equal(t, DefaultRetention, New(0).Retention())
	assert.Equal(t, DefaultRetention, New(-time.Second).Retention())
	assert.Equal(t, time.Minute, New(time.Minute).Retention())
}

func TestRecordTransition_FirstFrame_AllBytesChanged(t *testing.T) {
	l := New(DefaultRetention)
	next := mustFrame(t, 0x123, []byte{0x01, 0x02, 0x03}, 0)

	l.RecordTransition(next, nil, at(0))

	mask, last, ok := l.Summarize(0x123, at(0))
	require.True(t, ok)
	assert.Equal(t, at(0), last)
	for i := 0; i < 3; i++ {
		assert.True(t, mask[i], "byte %d should be marked on first frame", i)
	}
	for i := 3; i < frame.MaxPayload; i++ {
		assert.False(t, mask[i], "byte %d is beyond the payload", i)
	}
}

func TestRecordTransition_FirstFrame_OldSynthesizedAsNew(t *testing.T) {
	// With no prior value, Old mirrors New so consumers see no spurious
	// 0x00 -> value contrast.
	l := New(DefaultRetention)
	next := mustFrame(t, 0x55, []byte{0xAB}, 0)

	l.RecordTransition(next, nil, at(0))

	evs := l.events[0x55]
	require.Len(t, evs, 1)
	assert.Equal(t, byte(0xAB), evs[0].Old)
	assert.Equal(t, byte(0xAB), evs[0].New)
}

func TestRecordTransition_SingleByteDiff(t *testing.T) {
	// Scenario: byte 2 flips 0xFF -> 0xFE, everything else steady.
	l := New(10 * time.Second)
	first := mustFrame(t, 0x123, []byte{0x01, 0x02, 0xFF, 0x04, 0x05, 0x06, 0x07, 0x08}, 0)
	second := mustFrame(t, 0x123, []byte{0x01, 0x02, 0xFE, 0x04, 0x05, 0x06, 0x07, 0x08}, 100)

	l.RecordTransition(first, nil, at(0))

	// Drain the first-frame events past the window so only the byte-2
	// transition remains observable.
	l.PruneAll(at(20_000))
	l.RecordTransition(second, &first, at(20_100))

	mask, last, ok := l.Summarize(0x123, at(20_100))
	require.True(t, ok)
	assert.Equal(t, at(20_100), last)
	assert.Equal(t, [frame.MaxPayload]bool{2: true}, mask)

	evs := l.events[0x123]
	require.Len(t, evs, 1)
	assert.Equal(t, byte(0xFF), evs[0].Old)
	assert.Equal(t, byte(0xFE), evs[0].New)
	assert.Equal(t, uint8(2), evs[0].ByteIndex)
}

func TestRecordTransition_NoChange_NoEvents(t *testing.T) {
	l := New(10 * time.Second)
	first := mustFrame(t, 0x10, []byte{0xAA, 0xBB}, 0)
	repeat := mustFrame(t, 0x10, []byte{0xAA, 0xBB}, 100)

	l.RecordTransition(first, nil, at(0))
	before := l.EventCount(0x10)
	l.RecordTransition(repeat, &first, at(100))

	assert.Equal(t, before, l.EventCount(0x10), "identical payload must not append events")
}

func TestRecordTransition_LengthChange_FullHighlight(t *testing.T) {
	// Scenario: 2 bytes then 4 bytes, first two bytes numerically equal.
	// Every byte of the new frame counts as changed: the length change
	// invalidates byte-position alignment.
	l := New(10 * time.Second)
	short := mustFrame(t, 0x10, []byte{0xAA, 0xBB}, 0)
	long := mustFrame(t, 0x10, []byte{0xAA, 0xBB, 0xCC, 0xDD}, 100)

	l.RecordTransition(long, &short, at(100))

	mask, _, ok := l.Summarize(0x10, at(100))
	require.True(t, ok)
	assert.Equal(t, [frame.MaxPayload]bool{true, true, true, true}, mask)
}

func TestRecordTransition_LengthChange_OldFromPrevWhereItExisted(t *testing.T) {
	l := New(10 * time.Second)
	short := mustFrame(t, 0x10, []byte{0xAA, 0xBB}, 0)
	long := mustFrame(t, 0x10, []byte{0xAA, 0xBB, 0xCC, 0xDD}, 100)

	l.RecordTransition(long, &short, at(100))

	evs := l.events[0x10]
	require.Len(t, evs, 4)
	assert.Equal(t, byte(0xAA), evs[0].Old, "index 0 existed in prev")
	assert.Equal(t, byte(0xBB), evs[1].Old, "index 1 existed in prev")
	assert.Equal(t, byte(0xCC), evs[2].Old, "index 2 had no prior value: Old mirrors New")
	assert.Equal(t, byte(0xDD), evs[3].Old, "index 3 had no prior value: Old mirrors New")
}

func TestRecordTransition_ShrinkingLength(t *testing.T) {
	l := New(10 * time.Second)
	long := mustFrame(t, 0x10, []byte{0xAA, 0xBB, 0xCC, 0xDD}, 0)
	short := mustFrame(t, 0x10, []byte{0xAA, 0xBB}, 100)

	l.RecordTransition(short, &long, at(100))

	mask, _, ok := l.Summarize(0x10, at(100))
	require.True(t, ok)
	assert.Equal(t, [frame.MaxPayload]bool{true, true}, mask, "only bytes of the new frame are marked")

	evs := l.events[0x10]
	require.Len(t, evs, 2)
	assert.Equal(t, byte(0xAA), evs[0].Old)
}

func TestSummarize_ExpiredEventsPruned(t *testing.T) {
	// Scenario: change at t=0, queried past the window.
	l := New(10 * time.Second)
	l.RecordTransition(mustFrame(t, 0x300, []byte{0x01}, 0), nil, at(0))

	_, _, ok := l.Summarize(0x300, at(10_001))
	assert.False(t, ok, "event at t=0 expired by t=10001")
	assert.Empty(t, l.IDs(), "drained IDs are removed from the ledger")
}

func TestSummarize_EventOnCutoffSurvives(t *testing.T) {
	// Expiry is strict: now - observedAt must exceed the window.
	l := New(10 * time.Second)
	l.RecordTransition(mustFrame(t, 0x300, []byte{0x01}, 0), nil, at(0))

	_, last, ok := l.Summarize(0x300, at(10_000))
	assert.True(t, ok, "event exactly on the cutoff is not yet expired")
	assert.Equal(t, at(0), last)
}

func TestSummarize_UnknownID(t *testing.T) {
	l := New(10 * time.Second)
	mask, last, ok := l.Summarize(0x999, at(0))
	assert.False(t, ok)
	assert.True(t, last.IsZero())
	assert.Equal(t, [frame.MaxPayload]bool{}, mask)
}

func TestSummarize_LastChangeAtIsMax(t *testing.T) {
	l := New(10 * time.Second)
	f1 := mustFrame(t, 0x20, []byte{0x01, 0x02}, 0)
	f2 := mustFrame(t, 0x20, []byte{0x03, 0x02}, 4000)

	l.RecordTransition(f1, nil, at(0))
	l.RecordTransition(f2, &f1, at(4000))

	mask, last, ok := l.Summarize(0x20, at(5000))
	require.True(t, ok)
	assert.Equal(t, at(4000), last)
	assert.True(t, mask[0])
	assert.True(t, mask[1], "t=0 event for byte 1 is still in the window")
}

func TestPruneAll_Idempotent(t *testing.T) {
	l := New(10 * time.Second)
	l.RecordTransition(mustFrame(t, 0x1, []byte{0x01}, 0), nil, at(0))
	l.RecordTransition(mustFrame(t, 0x2, []byte{0x02}, 5000), nil, at(5000))

	l.PruneAll(at(12_000))
	surviving := l.IDs()
	l.PruneAll(at(12_000))
	assert.Equal(t, surviving, l.IDs(), "same now, same surviving set")
	assert.Equal(t, []uint32{0x2}, surviving)
}

func TestPruneAll_MonotonicInNow(t *testing.T) {
	l := New(10 * time.Second)
	l.RecordTransition(mustFrame(t, 0x1, []byte{0x01}, 0), nil, at(0))
	l.RecordTransition(mustFrame(t, 0x2, []byte{0x02}, 5000), nil, at(5000))

	l.PruneAll(at(12_000))
	earlier := map[uint32]bool{}
	for _, id := range l.IDs() {
		earlier[id] = true
	}

	l.PruneAll(at(16_000))
	for _, id := range l.IDs() {
		assert.True(t, earlier[id], "a later sweep never re-admits ID 0x%X", id)
	}
	assert.Empty(t, l.IDs())
}

func TestRecordTransition_PrunesBeforeAppend(t *testing.T) {
	l := New(10 * time.Second)
	f1 := mustFrame(t, 0x5, []byte{0x01}, 0)
	f2 := mustFrame(t, 0x5, []byte{0x02}, 30_000)

	l.RecordTransition(f1, nil, at(0))
	l.RecordTransition(f2, &f1, at(30_000))

	assert.Equal(t, 1, l.EventCount(0x5), "expired events are evicted before appending")
}

func TestIDs_SortedAscending(t *testing.T) {
	l := New(10 * time.Second)
	for _, id := range []uint32{0x300, 0x10, 0x123} {
		l.RecordTransition(mustFrame(t, id, []byte{0x01}, 0), nil, at(0))
	}
	assert.Equal(t, []uint32{0x10, 0x123, 0x300}, l.IDs())
}
