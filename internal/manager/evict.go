package manager

import "time"

// evictUntilFits closes LRU idle instances until requiredMB fits budget +
// margin. Instances with queued, in-flight or leased work are never evicted.
func (m *Manager) evictUntilFits(requiredMB int) error {
	for {
		m.mu.Lock()
		if m.usedEstMB+requiredMB+m.marginMB <= m.budgetMB {
			m.mu.Unlock()
			return nil
		}
		var lru *Instance
		now := time.Now()
		for _, inst := range m.instances {
			inst.reclaimExpired(now)
			if inst.State != StateReady || !inst.idle() {
				continue
			}
			if lru == nil || inst.LastUsed.Before(lru.LastUsed) {
				lru = inst
			}
		}
		if lru == nil {
			m.mu.Unlock()
			return budgetExceededError{requiredMB: requiredMB + m.marginMB, budgetMB: m.budgetMB}
		}
		lru.State = StateDraining
		delete(m.instances, lru.ID)
		m.usedEstMB -= lru.EstMemMB
		if m.usedEstMB < 0 {
			m.usedEstMB = 0
		}
		m.evictionCount++
		m.mu.Unlock()

		evictionsTotal.Inc()
		if err := lru.model.Close(); err != nil {
			m.log.Warn().Str("model", lru.ID).Err(err).Msg("evict: close")
		}
		m.log.Info().Str("model", lru.ID).Int("freed_mb", lru.EstMemMB).Msg("evicted")
		m.publisher.Publish(Event{Name: "evicted", ModelID: lru.ID, Fields: map[string]any{"freed_mb": lru.EstMemMB}})
	}
}
