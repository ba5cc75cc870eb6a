package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"inferd/internal/common/fsutil"
	"inferd/internal/engine/ir"
	"inferd/pkg/types"
)

// IRScanner discovers OpenVINO IR models: a .xml description with a sibling
// .bin weights file.
type IRScanner struct{}

func NewIRScanner() *IRScanner { return &IRScanner{} }

// Scan lists the models in dir, sorted by ID. A description without weights
// is skipped. A description that does not parse is still listed, with only
// file metadata filled in; loading it will report the engine's error.
func (s *IRScanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".xml") {
			continue
		}
		id := strings.TrimSuffix(name, ".xml")
		xmlPath := filepath.Join(abs, name)
		binPath := filepath.Join(abs, id+".bin")
		size, ok := fsutil.RegularFileSize(binPath)
		if !ok {
			continue
		}
		models = append(models, describe(id, xmlPath, binPath, size))
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

func describe(id, xmlPath, binPath string, size int64) types.Model {
	m := types.Model{ID: id, Name: id, Path: xmlPath, Weights: binPath, SizeBytes: size}
	d, err := ir.ReadFile(xmlPath)
	if err != nil {
		return m
	}
	if d.Name != "" {
		m.Name = d.Name
	}
	m.IRVersion = d.Version
	m.Layers = len(d.Layers)
	for _, p := range d.Inputs {
		m.Inputs = append(m.Inputs, types.Port{Name: p.Name, Shape: p.Shape})
	}
	for _, p := range d.Outputs {
		m.Outputs = append(m.Outputs, types.Port{Name: p.Name, Shape: p.Shape})
	}
	return m
}

// LoadDir scans dir with an IRScanner.
func LoadDir(dir string) ([]types.Model, error) {
	return NewIRScanner().Scan(dir)
}
