package manager

import (
	"sync"
	"time"

	"inferd/internal/iemodel"
)

// State represents lifecycle state of the manager/instances.
type State string

const (
	StateReady    State = "ready"
	StateLoading  State = "loading"
	StateError    State = "error"
	StateDraining State = "draining"
)

// Instance is one loaded model with its admission primitives.
type Instance struct {
	ID       string
	State    State
	LastUsed time.Time
	EstMemMB int

	model *iemodel.Model

	// Synchronous path: queue slots, then a single in-flight inference.
	genCh   chan struct{}
	queueCh chan struct{}

	// Asynchronous path: free request slot ids and which are handed out.
	freeSlots chan int
	leaseTTL  time.Duration
	slotMu    sync.Mutex
	leases    []lease
}

// lease is the hand-out record of one async slot. gen changes on every
// lease so a late release cannot free a slot that was leased again.
type lease struct {
	active    bool
	gen       uint64
	submitted time.Time
}

func newInstance(id string, model *iemodel.Model, estMB, maxQueueDepth int, leaseTTL time.Duration) *Instance {
	n := model.NumRequests()
	inst := &Instance{
		ID:        id,
		State:     StateReady,
		LastUsed:  time.Now(),
		EstMemMB:  estMB,
		model:     model,
		genCh:     make(chan struct{}, 1),
		queueCh:   make(chan struct{}, maxQueueDepth),
		freeSlots: make(chan int, n),
		leaseTTL:  leaseTTL,
		leases:    make([]lease, n),
	}
	for i := 0; i < n; i++ {
		inst.freeSlots <- i
	}
	return inst
}

// leasedCount is the number of slots handed out and not yet waited on.
func (inst *Instance) leasedCount() int {
	inst.slotMu.Lock()
	defer inst.slotMu.Unlock()
	n := 0
	for _, l := range inst.leases {
		if l.active {
			n++
		}
	}
	return n
}

// idle reports no queued, in-flight or leased work.
func (inst *Instance) idle() bool {
	return len(inst.genCh) == 0 && len(inst.queueCh) == 0 && inst.leasedCount() == 0
}
