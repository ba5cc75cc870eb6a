package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

type Manager struct {
	mu           sync.RWMutex
	state        State
	err          string
	lastErr      string
	registry     []types.Model
	budgetMB     int
	marginMB     int
	defaultModel string

	core        engine.Core
	device      string
	numRequests int

	instances map[string]*Instance
	usedEstMB int
	warming   int
	loads     *singleflight.Group

	evictionCount uint64
	loadCount     uint64

	maxQueueDepth int
	maxWait       time.Duration
	drainTimeout  time.Duration
	leaseTTL      time.Duration

	publisher EventPublisher
	log       zerolog.Logger
	startTime time.Time
}

// New builds a Manager over core with package defaults.
func New(reg []types.Model, core engine.Core, device string, numRequests int, defaultModel string) *Manager {
	return NewWithConfig(ManagerConfig{
		Registry:     reg,
		Core:         core,
		Device:       device,
		NumRequests:  numRequests,
		DefaultModel: defaultModel,
	})
}

func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.core == nil || m.state == StateError {
		return false
	}
	for _, inst := range m.instances {
		if inst.State == StateReady {
			return true
		}
	}
	// Nothing loaded yet: ready when there is something to load.
	return len(m.instances) == 0 && len(m.registry) > 0
}

func (m *Manager) ListModels() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// return a shallow copy to avoid external mutation
	out := make([]types.Model, len(m.registry))
	copy(out, m.registry)
	return out
}

// Device is the compute target every model is compiled for.
func (m *Manager) Device() string { return m.device }

// resolveID applies the default model to an empty id.
func (m *Manager) resolveID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if m.defaultModel == "" {
		return "", modelNotFoundError{id: "(unspecified)"}
	}
	return m.defaultModel, nil
}

// SetEventPublisher replaces the event sink. nil restores the no-op publisher.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.mu.Lock()
	m.publisher = p
	m.mu.Unlock()
}
