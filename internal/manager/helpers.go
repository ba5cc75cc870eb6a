package manager

import (
	"inferd/internal/common/fsutil"
	"inferd/internal/iemodel"
	"inferd/pkg/types"
)

// Helper: find model in registry by id.
func (m *Manager) getModelByID(id string) (types.Model, bool) {
	for _, mdl := range m.registry {
		if mdl.ID == id {
			return mdl, true
		}
	}
	return types.Model{}, false
}

// Helper: estimate resident memory (MB) from the weights file size.
func (m *Manager) estimateMemMB(mdl types.Model) int {
	weights := mdl.Weights
	if weights == "" {
		_, weights = iemodel.ModelFiles(mdl.Path)
	}
	// An unreadable file still counts 1MB against the budget.
	size, _ := fsutil.RegularFileSize(weights)
	return fsutil.SizeMB(size)
}
