package manager

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"inferd/internal/engine"
	"inferd/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDrainTimeout  = 10 * time.Second
	defaultLeaseTTL      = 5 * time.Minute
	defaultNumRequests   = 1
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Registry     []types.Model
	DefaultModel string

	// Core is the shared engine handle. Without it every load fails as
	// dependency unavailable.
	Core        engine.Core
	Device      string
	NumRequests int

	BudgetMB      int
	MarginMB      int
	MaxQueueDepth int
	MaxWait       time.Duration
	DrainTimeout  time.Duration
	// LeaseTTL bounds how long a finished async request keeps its slot when
	// nobody waits for it.
	LeaseTTL time.Duration

	Publisher EventPublisher
	Logger    *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		state:        StateLoading,
		registry:     cfg.Registry,
		budgetMB:     cfg.BudgetMB,
		marginMB:     cfg.MarginMB,
		defaultModel: cfg.DefaultModel,
		core:         cfg.Core,
		device:       cfg.Device,
		numRequests:  cfg.NumRequests,
		instances:    make(map[string]*Instance),
		loads:        &singleflight.Group{},
		publisher:    cfg.Publisher,
		log:          zerolog.Nop(),
	}
	if m.device == "" {
		m.device = engine.DeviceCPU
	}
	if m.numRequests <= 0 {
		m.numRequests = defaultNumRequests
	}
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	if cfg.DrainTimeout <= 0 {
		m.drainTimeout = defaultDrainTimeout
	} else {
		m.drainTimeout = cfg.DrainTimeout
	}
	if cfg.LeaseTTL <= 0 {
		m.leaseTTL = defaultLeaseTTL
	} else {
		m.leaseTTL = cfg.LeaseTTL
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	m.startTime = time.Now()
	return m
}
