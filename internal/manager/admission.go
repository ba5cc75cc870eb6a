package manager

import (
	"context"
	"time"

	"inferd/internal/iemodel"
)

// beginInference reserves a queue slot and then the single in-flight slot of
// the synchronous path. Returns a release func to be deferred.
func (m *Manager) beginInference(ctx context.Context, inst *Instance) (func(), error) {
	m.mu.RLock()
	draining := inst.State == StateDraining
	m.mu.RUnlock()
	// If draining, reject new work to allow graceful shutdown/unload
	if draining {
		return func() {}, tooBusyError{modelID: inst.ID}
	}
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case inst.queueCh <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{modelID: inst.ID}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-inst.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	timer2 := time.NewTimer(m.maxWait)
	defer timer2.Stop()
	select {
	case inst.genCh <- struct{}{}:
		acquired = true
		m.touch(inst)
		return func() { <-inst.genCh; <-inst.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer2.C:
		return func() {}, tooBusyError{modelID: inst.ID}
	}
}

// acquireSlot leases a free request slot of inst, waiting up to maxWait.
// It returns the slot id and the lease generation.
func (m *Manager) acquireSlot(ctx context.Context, inst *Instance) (int, uint64, error) {
	m.mu.RLock()
	draining := inst.State == StateDraining
	m.mu.RUnlock()
	if draining {
		return -1, 0, tooBusyError{modelID: inst.ID}
	}
	if err := ctx.Err(); err != nil {
		return -1, 0, err
	}
	if n := inst.reclaimExpired(time.Now()); n > 0 {
		m.log.Debug().Str("model", inst.ID).Int("slots", n).Msg("reclaimed abandoned requests")
	}
	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case id := <-inst.freeSlots:
		inst.slotMu.Lock()
		l := &inst.leases[id]
		l.active = true
		l.gen++
		l.submitted = time.Time{}
		gen := l.gen
		inst.slotMu.Unlock()
		slotsInflight.WithLabelValues(inst.ID).Inc()
		m.touch(inst)
		return id, gen, nil
	case <-ctx.Done():
		return -1, 0, ctx.Err()
	case <-timer.C:
		return -1, 0, tooBusyError{modelID: inst.ID}
	}
}

// releaseSlot returns a leased slot to the pool if it is still held under
// lease generation gen. Otherwise it is a no-op.
func (m *Manager) releaseSlot(inst *Instance, id int, gen uint64) {
	inst.slotMu.Lock()
	if id < 0 || id >= len(inst.leases) || !inst.leases[id].active || inst.leases[id].gen != gen {
		inst.slotMu.Unlock()
		return
	}
	inst.leases[id].active = false
	inst.slotMu.Unlock()
	slotsInflight.WithLabelValues(inst.ID).Dec()
	inst.freeSlots <- id
}

// markSubmitted starts the lease clock of a slot once its request runs.
func (inst *Instance) markSubmitted(id int, gen uint64, at time.Time) {
	inst.slotMu.Lock()
	defer inst.slotMu.Unlock()
	if l := &inst.leases[id]; l.active && l.gen == gen {
		l.submitted = at
	}
}

// activeLease reports whether id is leased and, if so, its generation and
// submission time.
func (inst *Instance) activeLease(id int) (gen uint64, submitted time.Time, ok bool) {
	inst.slotMu.Lock()
	defer inst.slotMu.Unlock()
	if id < 0 || id >= len(inst.leases) || !inst.leases[id].active {
		return 0, time.Time{}, false
	}
	l := inst.leases[id]
	return l.gen, l.submitted, true
}

func (inst *Instance) isLeased(id int) bool {
	_, _, ok := inst.activeLease(id)
	return ok
}

// reclaimExpired returns to the pool every slot whose request finished and
// whose lease is older than leaseTTL without a Wait collecting it. Requests
// still running keep their lease. It returns the number of slots reclaimed.
func (inst *Instance) reclaimExpired(now time.Time) int {
	if inst.leaseTTL <= 0 {
		return 0
	}
	var ids []int
	inst.slotMu.Lock()
	for i := range inst.leases {
		l := &inst.leases[i]
		if !l.active || l.submitted.IsZero() || now.Sub(l.submitted) < inst.leaseTTL {
			continue
		}
		st, err := inst.model.Settle(i)
		if err != nil || (st != iemodel.SlotSucceeded && st != iemodel.SlotFailed) {
			continue
		}
		l.active = false
		ids = append(ids, i)
	}
	inst.slotMu.Unlock()
	for _, id := range ids {
		slotsInflight.WithLabelValues(inst.ID).Dec()
		inferRequestsTotal.WithLabelValues("async", "abandoned").Inc()
		inst.freeSlots <- id
	}
	return len(ids)
}

func (m *Manager) touch(inst *Instance) {
	m.mu.Lock()
	inst.LastUsed = time.Now()
	m.mu.Unlock()
}
