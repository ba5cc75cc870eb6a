package manager

import (
	"context"
	"time"

	"inferd/internal/engine"
	"inferd/internal/iemodel"
	"inferd/pkg/types"
)

// EnsureInstance loads modelID (or the default model when empty) unless it
// is already ready. Concurrent calls for the same model share one load.
func (m *Manager) EnsureInstance(ctx context.Context, modelID string) error {
	_, err := m.ensureInstance(ctx, modelID)
	return err
}

func (m *Manager) ensureInstance(ctx context.Context, modelID string) (*Instance, error) {
	id, err := m.resolveID(modelID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	inst, ok := m.instances[id]
	m.mu.RUnlock()
	if ok {
		m.mu.Lock()
		state := inst.State
		if state == StateReady {
			inst.LastUsed = time.Now()
		}
		m.mu.Unlock()
		if state == StateReady {
			return inst, nil
		}
		if state == StateDraining {
			return nil, tooBusyError{modelID: id}
		}
	}

	mdl, ok := m.getModelByID(id)
	if !ok {
		m.log.Debug().Str("model", id).Msg("ensure: model not found")
		m.publisher.Publish(Event{Name: "ensure_model_not_found", ModelID: id, Fields: map[string]any{}})
		return nil, ErrModelNotFound(id)
	}
	m.mu.RLock()
	core := m.core
	m.mu.RUnlock()
	if core == nil {
		return nil, ErrDependencyUnavailable("no inference engine configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := m.loads.Do(id, func() (any, error) {
		return m.load(ctx, core, mdl)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Instance), nil
}

func (m *Manager) load(ctx context.Context, core engine.Core, mdl types.Model) (*Instance, error) {
	start := time.Now()
	m.log.Info().Str("model", mdl.ID).Str("device", m.device).Msg("ensure start")
	m.publisher.Publish(Event{Name: "ensure_start", ModelID: mdl.ID, Fields: map[string]any{}})

	// Another caller may have finished the load while we waited on the group.
	m.mu.RLock()
	if inst, ok := m.instances[mdl.ID]; ok && inst.State == StateReady {
		m.mu.RUnlock()
		return inst, nil
	}
	m.mu.RUnlock()

	reqMB := m.estimateMemMB(mdl)
	if m.budgetMB > 0 {
		if err := m.evictUntilFits(reqMB); err != nil {
			m.log.Warn().Str("model", mdl.ID).Err(err).Msg("ensure: budget")
			m.publisher.Publish(Event{Name: "ensure_budget_fail", ModelID: mdl.ID, Fields: map[string]any{"error": err.Error()}})
			m.recordLoadFailure(err)
			loadsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	}

	m.mu.Lock()
	m.warming++
	if len(m.instances) == 0 {
		m.state = StateLoading
	}
	m.mu.Unlock()

	model, err := iemodel.New(mdl.Path, m.device, core, m.numRequests, iemodel.WithLogger(m.log))

	m.mu.Lock()
	m.warming--
	m.mu.Unlock()
	if err != nil {
		result := "error"
		if iemodel.IsUnsupportedLayers(err) {
			result = "unsupported"
		}
		loadsTotal.WithLabelValues(result).Inc()
		m.recordLoadFailure(err)
		m.log.Error().Str("model", mdl.ID).Err(err).Msg("ensure: load failed")
		m.publisher.Publish(Event{Name: "ensure_error", ModelID: mdl.ID, Fields: map[string]any{"error": err.Error()}})
		return nil, err
	}

	inst := newInstance(mdl.ID, model, reqMB, m.maxQueueDepth, m.leaseTTL)
	m.mu.Lock()
	m.instances[mdl.ID] = inst
	m.usedEstMB += reqMB
	m.loadCount++
	m.state = StateReady
	m.err = ""
	m.mu.Unlock()
	loadsTotal.WithLabelValues("ok").Inc()

	dur := time.Since(start)
	m.log.Info().Str("model", mdl.ID).Dur("dur", dur).Int("num_requests", model.NumRequests()).
		Str("input", model.InputName()).Strs("outputs", model.Outputs().Names()).Msg("ensure ready")
	m.publisher.Publish(Event{Name: "ensure_ready", ModelID: mdl.ID, Fields: map[string]any{"dur_ms": int(dur / time.Millisecond)}})
	if ctx.Err() != nil {
		// The caller is gone, but the load completed and stays cached.
		m.log.Debug().Str("model", mdl.ID).Msg("ensure finished after caller canceled")
	}
	return inst, nil
}

// recordLoadFailure keeps the last error; the manager only enters the error
// state when nothing else is loaded.
func (m *Manager) recordLoadFailure(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	if len(m.instances) == 0 {
		m.state = StateError
		m.err = err.Error()
	}
	m.mu.Unlock()
}
