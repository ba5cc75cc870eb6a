package main

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/config"
	"inferd/internal/engine"
	"inferd/internal/engine/openvino"
	"inferd/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// openCore constructs the raw engine handle. Tests swap it for an in-memory core.
var openCore = func(pluginsXML string) engine.Opener {
	return func() (engine.Core, error) { return openvino.OpenWithConfig(pluginsXML) }
}

// app carries state shared by subcommands once the root pre-run resolved it.
type app struct {
	configPath string
	cfg        config.Config
	log        zerolog.Logger
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Serve OpenVINO IR models over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.String("log-level", config.DefaultLogLevel, "Log level: trace|debug|info|warn|error|off")
	pf.String("log-format", config.DefaultLogFormat, "Log format: console|json")
	pf.String("log-file", "", "Also write JSON logs to this file (rotated)")
	pf.String("models-dir", config.DefaultModelsDir, "Directory to scan for *.xml/*.bin model pairs")
	pf.String("device", config.DefaultDevice, "Target device (CPU, GPU, MYRIAD, ...)")
	pf.String("cpu-extension", "", "CPU extension library loaded when device is CPU")
	pf.String("plugins-xml", "", "Plugins configuration file for the engine")
	pf.Int("num-requests", config.DefaultNumRequests, "Request slots per model")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd, a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
		a.log, a.logCloser, err = logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			File:   cfg.LogFile,
			Out:    cmd.ErrOrStderr(),
		})
		return err
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if a.logCloser != nil {
			return a.logCloser.Close()
		}
		return nil
	}

	root.AddCommand(newServeCmd(a), newModelsCmd(a), newProbeCmd(a), newVersionCmd())
	return root
}

// resolveConfig layers sources: defaults < config file < INFERD_* env < flags
// the user set explicitly.
func resolveConfig(cmd *cobra.Command, path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	str("log-file", &cfg.LogFile)
	str("models-dir", &cfg.ModelsDir)
	str("device", &cfg.Device)
	str("cpu-extension", &cfg.CPUExtension)
	str("plugins-xml", &cfg.PluginsXML)
	str("addr", &cfg.Addr)
	str("default-model", &cfg.DefaultModel)
	if flags.Changed("num-requests") {
		cfg.NumRequests, _ = flags.GetInt("num-requests")
	}
	if flags.Changed("budget-mb") {
		cfg.BudgetMB, _ = flags.GetInt("budget-mb")
	}
	if flags.Changed("margin-mb") {
		cfg.MarginMB, _ = flags.GetInt("margin-mb")
	}
	if flags.Changed("preload") {
		v, _ := flags.GetString("preload")
		cfg.Preload = splitCSV(v)
	}

	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

// loadCore opens the engine for the configured device.
func (a *app) loadCore() (engine.Core, error) {
	return engine.LoadCore(openCore(a.cfg.PluginsXML), a.cfg.Device, a.cfg.CPUExtension, a.log)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
