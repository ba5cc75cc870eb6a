package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"inferd/internal/engine"
	"inferd/internal/iemodel"
	"inferd/internal/registry"
)

// probeReport is what `inferd probe` prints.
type probeReport struct {
	Model       string   `json:"model"`
	Device      string   `json:"device"`
	XML         string   `json:"xml"`
	Bin         string   `json:"bin"`
	Network     string   `json:"network"`
	InputName   string   `json:"input_name"`
	InputSize   []int64  `json:"input_size"`
	Multiple    bool     `json:"multiple"`
	Outputs     []string `json:"outputs"`
	NumRequests int      `json:"num_requests"`
}

func newProbeCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "probe <model-id|path>",
		Short: "Load a model on the device and print its input and outputs",
		Long: "Reads the network, checks that every layer is supported by the device, " +
			"compiles it with the configured number of request slots and prints the metadata.",
		Example: "  inferd probe face-detection-adas-0001 --device MYRIAD",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, id, err := a.resolveModelPath(args[0])
			if err != nil {
				return err
			}
			core, err := a.loadCore()
			if err != nil {
				return err
			}
			defer core.Close()
			rep, err := a.probe(core, id, path)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model:    %s (%s)\n", rep.Model, rep.Network)
			fmt.Fprintf(out, "device:   %s, %d request slot(s)\n", rep.Device, rep.NumRequests)
			fmt.Fprintf(out, "files:    %s, %s\n", rep.XML, rep.Bin)
			fmt.Fprintf(out, "input:    %s %v\n", rep.InputName, rep.InputSize)
			if rep.Multiple {
				fmt.Fprintf(out, "outputs:  %s\n", strings.Join(rep.Outputs, ", "))
			} else {
				fmt.Fprintf(out, "output:   %s\n", rep.Outputs[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func (a *app) probe(core engine.Core, id, path string) (probeReport, error) {
	m, err := iemodel.New(path, a.cfg.Device, core, a.cfg.NumRequests, iemodel.WithLogger(a.log))
	if err != nil {
		return probeReport{}, err
	}
	defer m.Close()
	xml, bin := m.Paths()
	spec := m.Outputs()
	return probeReport{
		Model:       id,
		Device:      m.Device(),
		XML:         xml,
		Bin:         bin,
		Network:     m.NetworkName(),
		InputName:   m.InputName(),
		InputSize:   m.InputSize(),
		Multiple:    spec.IsMultiple(),
		Outputs:     spec.Names(),
		NumRequests: m.NumRequests(),
	}, nil
}

// resolveModelPath accepts a registry id or a path to the model files.
func (a *app) resolveModelPath(arg string) (path, id string, err error) {
	reg, err := registry.LoadDir(a.cfg.ModelsDir)
	if err == nil {
		for _, m := range reg {
			if m.ID == arg {
				return m.Path, m.ID, nil
			}
		}
	}
	if strings.ContainsAny(arg, `/\`) || strings.HasSuffix(arg, ".xml") || strings.HasSuffix(arg, ".bin") {
		return arg, arg, nil
	}
	if err != nil {
		return "", "", err
	}
	return "", "", fmt.Errorf("model %q not found in %s", arg, a.cfg.ModelsDir)
}

