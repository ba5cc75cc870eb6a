package manager

import (
	"inferd/internal/common/fsutil"
)

// SanityReport describes runtime checks for the inference engine and the
// model files it will read.
type SanityReport struct {
	EngineAvailable bool     `json:"engine_available"`
	Device          string   `json:"device"`
	Models          int      `json:"models"`
	MissingFiles    []string `json:"missing_files,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// SanityCheck validates that an engine handle is configured and that every
// registered model still has its description and weights on disk.
// It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck() SanityReport {
	m.mu.RLock()
	r := SanityReport{EngineAvailable: m.core != nil, Device: m.device, Models: len(m.registry)}
	reg := m.registry
	m.mu.RUnlock()
	for _, mdl := range reg {
		for _, p := range []string{mdl.Path, mdl.Weights} {
			if p != "" && !fsutil.PathExists(p) {
				r.MissingFiles = append(r.MissingFiles, p)
			}
		}
	}
	switch {
	case !r.EngineAvailable:
		r.Error = "inference engine not available"
	case len(r.MissingFiles) > 0:
		r.Error = "model files missing"
	}
	return r
}
