// Package ir reads network metadata from an OpenVINO IR description file.
// Only the graph skeleton is decoded: layer names and types, Parameter
// inputs with their dims, and the layers feeding Result nodes.
package ir

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"inferd/internal/engine"
)

type xmlNet struct {
	XMLName xml.Name   `xml:"net"`
	Name    string     `xml:"name,attr"`
	Version string     `xml:"version,attr"`
	Layers  []xmlLayer `xml:"layers>layer"`
	Edges   []xmlEdge  `xml:"edges>edge"`
}

type xmlLayer struct {
	ID      string    `xml:"id,attr"`
	Name    string    `xml:"name,attr"`
	Type    string    `xml:"type,attr"`
	Outputs []xmlPort `xml:"output>port"`
	Inputs  []xmlPort `xml:"input>port"`
}

type xmlPort struct {
	ID   string  `xml:"id,attr"`
	Dims []int64 `xml:"dim"`
}

type xmlEdge struct {
	FromLayer string `xml:"from-layer,attr"`
	FromPort  string `xml:"from-port,attr"`
	ToLayer   string `xml:"to-layer,attr"`
	ToPort    string `xml:"to-port,attr"`
}

// Layer is one operator of the graph.
type Layer struct {
	ID   string
	Name string
	Type string
}

// Description is the decoded skeleton of an IR file.
type Description struct {
	Name    string
	Version string
	Layers  []Layer
	Inputs  []engine.PortInfo
	Outputs []engine.PortInfo
}

// LayerNames returns the operator names in file order.
func (d *Description) LayerNames() []string {
	out := make([]string, 0, len(d.Layers))
	for _, l := range d.Layers {
		out = append(out, l.Name)
	}
	return out
}

// ReadFile parses the IR description at path.
func ReadFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// Read parses an IR description from r.
//
// Inputs and outputs are ordered by name, the way the engine keys its
// input and output maps. An output is named after the layer that feeds the
// Result node, suffixed with ".<port>" when that layer has several outputs.
func Read(r io.Reader) (*Description, error) {
	var n xmlNet
	if err := xml.NewDecoder(r).Decode(&n); err != nil {
		return nil, err
	}
	if len(n.Layers) == 0 {
		return nil, fmt.Errorf("network %q has no layers", n.Name)
	}
	d := &Description{Name: n.Name, Version: n.Version}
	byID := make(map[string]xmlLayer, len(n.Layers))
	for _, l := range n.Layers {
		byID[l.ID] = l
		if l.Type == "Result" {
			continue
		}
		d.Layers = append(d.Layers, Layer{ID: l.ID, Name: l.Name, Type: l.Type})
		if l.Type == "Parameter" || l.Type == "Input" {
			var shape []int64
			if len(l.Outputs) > 0 {
				shape = append(shape, l.Outputs[0].Dims...)
			}
			d.Inputs = append(d.Inputs, engine.PortInfo{Name: l.Name, Shape: shape})
		}
	}
	feeds := make(map[string]xmlEdge, len(n.Edges))
	for _, e := range n.Edges {
		feeds[e.ToLayer] = e
	}
	for _, l := range n.Layers {
		if l.Type != "Result" {
			continue
		}
		e, ok := feeds[l.ID]
		if !ok {
			return nil, fmt.Errorf("result layer %q has no producer", l.Name)
		}
		src, ok := byID[e.FromLayer]
		if !ok {
			return nil, fmt.Errorf("result layer %q fed by unknown layer id %s", l.Name, e.FromLayer)
		}
		name := src.Name
		var shape []int64
		for i, p := range src.Outputs {
			if p.ID != e.FromPort {
				continue
			}
			shape = append(shape, p.Dims...)
			// engine names multi-port outputs by position, not port id
			if len(src.Outputs) > 1 {
				name += "." + strconv.Itoa(i)
			}
			break
		}
		d.Outputs = append(d.Outputs, engine.PortInfo{Name: name, Shape: shape})
	}
	sort.SliceStable(d.Inputs, func(i, j int) bool { return d.Inputs[i].Name < d.Inputs[j].Name })
	sort.SliceStable(d.Outputs, func(i, j int) bool { return d.Outputs[i].Name < d.Outputs[j].Name })
	return d, nil
}

// Dims formats a shape as "1x3x224x224".
func Dims(shape []int64) string {
	if len(shape) == 0 {
		return "scalar"
	}
	s := ""
	for i, d := range shape {
		if i > 0 {
			s += "x"
		}
		s += strconv.FormatInt(d, 10)
	}
	return s
}
