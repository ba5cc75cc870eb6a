package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inferd/internal/iemodel"
	"inferd/pkg/types"
)

// Infer runs one blocking inference through the instance's admission queue.
func (m *Manager) Infer(ctx context.Context, req types.InferRequest) (types.InferResponse, error) {
	inst, err := m.ensureInstance(ctx, req.Model)
	if err != nil {
		return types.InferResponse{}, err
	}
	in := toEngineTensor(req.Input)
	if err := in.Validate(); err != nil {
		return types.InferResponse{}, badInputError{err: err}
	}
	release, err := m.beginInference(ctx, inst)
	if err != nil {
		return types.InferResponse{}, err
	}
	defer release()

	start := time.Now()
	res, err := inst.model.Infer(in)
	inferDuration.WithLabelValues("sync").Observe(time.Since(start).Seconds())
	if err != nil {
		inferRequestsTotal.WithLabelValues("sync", "error").Inc()
		if errors.Is(err, iemodel.ErrInvalidInput) {
			return types.InferResponse{}, badInputError{err: err}
		}
		return types.InferResponse{}, err
	}
	inferRequestsTotal.WithLabelValues("sync", "ok").Inc()
	return types.InferResponse{
		Model:    inst.ID,
		Multiple: res.IsMultiple(),
		Outputs:  namedOutputs(inst.model.Outputs(), res),
	}, nil
}

// Submit leases a free request slot of the model, starts an asynchronous
// inference on it and returns the slot. The slot stays leased until Wait
// delivers its result, or until the lease TTL passes after the request
// finished without anyone waiting.
func (m *Manager) Submit(ctx context.Context, req types.InferRequest) (types.SubmitResponse, error) {
	inst, err := m.ensureInstance(ctx, req.Model)
	if err != nil {
		return types.SubmitResponse{}, err
	}
	in := toEngineTensor(req.Input)
	if err := in.Validate(); err != nil {
		return types.SubmitResponse{}, badInputError{err: err}
	}
	slot, gen, err := m.acquireSlot(ctx, inst)
	if err != nil {
		return types.SubmitResponse{}, err
	}
	if err := inst.model.AsyncInfer(in, slot); err != nil {
		m.releaseSlot(inst, slot, gen)
		inferRequestsTotal.WithLabelValues("async", "error").Inc()
		if errors.Is(err, iemodel.ErrInvalidInput) {
			return types.SubmitResponse{}, badInputError{err: err}
		}
		return types.SubmitResponse{}, err
	}
	inst.markSubmitted(slot, gen, time.Now())
	m.log.Debug().Str("model", inst.ID).Int("slot", slot).Msg("submitted")
	return types.SubmitResponse{Model: inst.ID, Slot: slot}, nil
}

type waitResult struct {
	res iemodel.Result
	ok  bool
	err error
}

// Wait blocks until the request on slot completes. A request that completed
// without a result is reported as Ready=false, not as an error. If ctx ends
// first the slot stays leased and Wait may be called again until the lease
// expires.
func (m *Manager) Wait(ctx context.Context, modelID string, slot int) (types.WaitResponse, error) {
	id, err := m.resolveID(modelID)
	if err != nil {
		return types.WaitResponse{}, err
	}
	m.mu.RLock()
	inst := m.instances[id]
	m.mu.RUnlock()
	if inst == nil {
		if _, known := m.getModelByID(id); known {
			return types.WaitResponse{}, fmt.Errorf("%w: model %s is not loaded", iemodel.ErrSlotIdle, id)
		}
		return types.WaitResponse{}, ErrModelNotFound(id)
	}
	if _, err := inst.model.SlotState(slot); err != nil {
		return types.WaitResponse{}, err
	}
	gen, submitted, leased := inst.activeLease(slot)
	if !leased {
		return types.WaitResponse{}, fmt.Errorf("%w: slot %d has no pending submission", iemodel.ErrSlotIdle, slot)
	}

	done := make(chan waitResult, 1)
	go func() {
		r, ok, err := inst.model.WaitRequest(slot)
		done <- waitResult{res: r, ok: ok, err: err}
	}()
	var wr waitResult
	select {
	case <-ctx.Done():
		return types.WaitResponse{}, ctx.Err()
	case wr = <-done:
	}
	if wr.err != nil {
		return types.WaitResponse{}, wr.err
	}

	m.releaseSlot(inst, slot, gen)
	m.touch(inst)
	if !submitted.IsZero() {
		inferDuration.WithLabelValues("async").Observe(time.Since(submitted).Seconds())
	}

	resp := types.WaitResponse{Model: inst.ID, Slot: slot, Ready: wr.ok}
	if !wr.ok {
		inferRequestsTotal.WithLabelValues("async", "no_result").Inc()
		m.log.Debug().Str("model", inst.ID).Int("slot", slot).Msg("request completed without result")
		return resp, nil
	}
	inferRequestsTotal.WithLabelValues("async", "ok").Inc()
	resp.Multiple = wr.res.IsMultiple()
	resp.Outputs = namedOutputs(inst.model.Outputs(), wr.res)
	return resp, nil
}
