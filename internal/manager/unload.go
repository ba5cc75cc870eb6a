package manager

import (
	"errors"
	"time"
)

// Unload initiates a graceful drain of a model instance and removes it.
//   - Sets instance state to draining to reject new work.
//   - Waits up to drainTimeout for queued, in-flight and leased requests.
//   - Closes the compiled network and removes the instance entry.
func (m *Manager) Unload(modelID string) error {
	if modelID == "" {
		return ErrModelNotFound("(unspecified)")
	}
	m.mu.Lock()
	inst := m.instances[modelID]
	if inst == nil {
		m.mu.Unlock()
		return ErrModelNotFound(modelID)
	}
	inst.State = StateDraining
	m.mu.Unlock()
	m.publisher.Publish(Event{Name: "unload_start", ModelID: modelID, Fields: map[string]any{}})

	m.drain(inst)

	m.mu.Lock()
	if m.instances[modelID] == inst {
		m.usedEstMB -= inst.EstMemMB
		if m.usedEstMB < 0 {
			m.usedEstMB = 0
		}
		delete(m.instances, modelID)
	}
	m.mu.Unlock()
	err := inst.model.Close()
	slotsInflight.DeleteLabelValues(modelID)

	m.log.Info().Str("model", modelID).Msg("unloaded")
	m.publisher.Publish(Event{Name: "unload_done", ModelID: modelID, Fields: map[string]any{}})
	return err
}

func (m *Manager) drain(inst *Instance) {
	deadline := time.Now().Add(m.drainTimeout)
	for {
		inst.reclaimExpired(time.Now())
		qlen := len(inst.queueCh)
		inflight := len(inst.genCh)
		leased := inst.leasedCount()
		if inflight == 0 && qlen == 0 && leased == 0 {
			return
		}
		if time.Now().After(deadline) {
			m.log.Warn().Str("model", inst.ID).Int("inflight", inflight).Int("queue", qlen).Int("leased", leased).Msg("unload: drain timeout")
			m.publisher.Publish(Event{Name: "unload_timeout", ModelID: inst.ID, Fields: map[string]any{"inflight": inflight, "queue": qlen, "leased": leased}})
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Close drains and closes every instance, then releases the engine handle.
func (m *Manager) Close() error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.instances))
	for id := range m.instances {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	var errs []error
	for _, id := range ids {
		if err := m.Unload(id); err != nil && !IsModelNotFound(err) {
			errs = append(errs, err)
		}
	}
	m.mu.Lock()
	core := m.core
	m.core = nil
	m.mu.Unlock()
	if core != nil {
		if err := core.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
