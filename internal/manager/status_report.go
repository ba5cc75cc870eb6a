package manager

import (
	"sort"
	"time"

	"inferd/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	resp := types.StatusResponse{
		BudgetMB:          m.budgetMB,
		UsedMB:            m.usedEstMB,
		MarginMB:          m.marginMB,
		Error:             m.err,
		LastError:         m.lastErr,
		State:             string(m.state),
		UptimeSeconds:     int64(now.Sub(m.startTime) / time.Second),
		ServerTimeUnix:    now.Unix(),
		EvictionsTotal:    m.evictionCount,
		LoadsTotal:        m.loadCount,
		WarmupsInProgress: m.warming,
	}
	resp.Instances = make([]types.InstanceStatus, 0, len(m.instances))
	for _, inst := range m.instances {
		if inst.State == StateDraining {
			resp.DrainingCount++
		}
		resp.Instances = append(resp.Instances, types.InstanceStatus{
			ModelID:       inst.ID,
			State:         string(inst.State),
			Device:        inst.model.Device(),
			LastUsed:      inst.LastUsed.Unix(),
			EstMemMB:      inst.EstMemMB,
			QueueLen:      len(inst.queueCh),
			Inflight:      len(inst.genCh),
			MaxQueueDepth: cap(inst.queueCh),
			NumRequests:   inst.model.NumRequests(),
			Slots:         inst.slotStatus(),
		})
	}
	sort.Slice(resp.Instances, func(i, j int) bool { return resp.Instances[i].ModelID < resp.Instances[j].ModelID })
	return resp
}

func (inst *Instance) slotStatus() []types.SlotStatus {
	n := inst.model.NumRequests()
	out := make([]types.SlotStatus, 0, n)
	for i := 0; i < n; i++ {
		st, _ := inst.model.SlotState(i)
		out = append(out, types.SlotStatus{ID: i, State: st.String(), Leased: inst.isLeased(i)})
	}
	return out
}
