package config

import (
	"testing"
	"time"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/pipeline"
)

func TestParseEngineDefaults(t *testing.T) {
	cfg, strategy, err := ParseEngine([]byte("engine: {}\n"))
	if err != nil {
		t.Fatalf("ParseEngine: %v", err)
	}

	def := core.DefaultEngineConfig()
	if cfg.CollabWeight != def.CollabWeight || cfg.ContentWeight != def.ContentWeight {
		t.Errorf("weights = %v/%v, want defaults %v/%v",
			cfg.CollabWeight, cfg.ContentWeight, def.CollabWeight, def.ContentWeight)
	}
	if cfg.NeighborK != def.NeighborK || cfg.MinOverlap != def.MinOverlap {
		t.Errorf("neighbor knobs differ from defaults: %+v", cfg)
	}
	if strategy != core.StrategyAdaptive {
		t.Errorf("default strategy = %s, want adaptive", strategy)
	}
}

func TestParseEngineOverrides(t *testing.T) {
	yaml := `
engine:
  collab_weight: 0.7
  content_weight: 0.3
  neighbor_k: 20
  hybrid_threshold: 8
  rebuild_timeout: 2s
  filter_rules:
    - 'movie.release_year >= 1990'
default_strategy: content
`
	cfg, strategy, err := ParseEngine([]byte(yaml))
	if err != nil {
		t.Fatalf("ParseEngine: %v", err)
	}
	if cfg.CollabWeight != 0.7 || cfg.ContentWeight != 0.3 {
		t.Errorf("weights = %v/%v", cfg.CollabWeight, cfg.ContentWeight)
	}
	if cfg.NeighborK != 20 {
		t.Errorf("NeighborK = %d", cfg.NeighborK)
	}
	if cfg.HybridThreshold != 8 {
		t.Errorf("HybridThreshold = %d", cfg.HybridThreshold)
	}
	if cfg.RebuildTimeout != 2*time.Second {
		t.Errorf("RebuildTimeout = %v", cfg.RebuildTimeout)
	}
	if len(cfg.FilterRules) != 1 {
		t.Errorf("FilterRules = %v", cfg.FilterRules)
	}
	if strategy != core.StrategyContent {
		t.Errorf("strategy = %s, want content", strategy)
	}
}

func TestParseEngineInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative weight", "engine:\n  collab_weight: -1\n"},
		{"negative neighbor k", "engine:\n  neighbor_k: -5\n"},
		{"inverted thresholds", "engine:\n  cold_start_threshold: 9\n  hybrid_threshold: 3\n"},
		{"unknown strategy", "default_strategy: magic\n"},
		{"bad rebuild timeout", "engine:\n  rebuild_timeout: nope\n"},
		{"broken yaml", "engine: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseEngine([]byte(tt.yaml)); err == nil {
				t.Errorf("ParseEngine accepted %q", tt.yaml)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	Register("test.noop", func(cfg map[string]any) (pipeline.Node, error) {
		return nil, nil
	})

	found := false
	for _, typ := range SupportedTypes() {
		if typ == "test.noop" {
			found = true
		}
	}
	if !found {
		t.Fatal("registered type missing from SupportedTypes")
	}

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "test.noop"}}
	if err := ValidatePipelineConfig(cfg); err != nil {
		t.Errorf("ValidatePipelineConfig: %v", err)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "no.such.node"})
	if err := ValidatePipelineConfig(cfg); err == nil {
		t.Error("unknown node type should be rejected")
	}
}
