package kestrel

import "github.com/kestrelscript/kestrel/config"

// OptionsFromConfig translates a loaded config.EngineConfig into the
// EngineOption values New expects, so a binary can do:
//
//	cfg, _ := config.Load(path)
//	e := kestrel.New(kestrel.OptionsFromConfig(cfg)...)
func OptionsFromConfig(cfg config.EngineConfig) []EngineOption {
	return []EngineOption{
		WithBaseTickRate(cfg.BaseTickRate()),
		WithWorkerJoinTimeout(cfg.WorkerJoinTimeout()),
		WithFaultThreshold(cfg.FaultThreshold),
	}
}
