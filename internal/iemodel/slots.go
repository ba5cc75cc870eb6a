package iemodel

import "sync"

// SlotState is the lifecycle state of one pooled request slot.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotInFlight
	SlotSucceeded
	SlotFailed
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotInFlight:
		return "in_flight"
	case SlotSucceeded:
		return "succeeded"
	case SlotFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type slot struct {
	mu    sync.Mutex
	state SlotState
}

func newSlots(n int) []*slot {
	out := make([]*slot, n)
	for i := range out {
		out[i] = &slot{}
	}
	return out
}
