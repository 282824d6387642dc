package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/cinekit/core"
)

// engineYAML 是引擎配置的 YAML 形态。字段用指针区分"缺省"与"显式置零"，
// 缺省字段保留 core.DefaultEngineConfig 的默认值；
// rebuild_timeout 以时长字符串书写（如 "5s"、"200ms"）。
type engineYAML struct {
	CollabWeight        *float64 `yaml:"collab_weight"`
	ContentWeight       *float64 `yaml:"content_weight"`
	NeighborK           *int     `yaml:"neighbor_k"`
	MinOverlap          *int     `yaml:"min_overlap"`
	ColdStartThreshold  *int     `yaml:"cold_start_threshold"`
	HybridThreshold     *int     `yaml:"hybrid_threshold"`
	PopularityShrinkage *float64 `yaml:"popularity_shrinkage"`
	VocabSize           *int     `yaml:"vocab_size"`
	MinSimilarity       *float64 `yaml:"min_similarity"`
	RebuildTimeout      string   `yaml:"rebuild_timeout"`
	FilterRules         []string `yaml:"filter_rules"`
}

// engineFile 是引擎配置文件的顶层结构。
type engineFile struct {
	Engine engineYAML `yaml:"engine"`

	// DefaultStrategy 是未显式指定策略时的入口策略，默认 adaptive。
	DefaultStrategy string `yaml:"default_strategy"`
}

// LoadEngine 读取 YAML 引擎配置。文件中缺省的字段取默认值，
// 非法取值（负权重、倒置阈值等）在这里拒绝。
func LoadEngine(path string) (*core.EngineConfig, core.Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read engine config: %w", err)
	}
	return ParseEngine(data)
}

// ParseEngine 解析 YAML 内容为引擎配置。
func ParseEngine(data []byte) (*core.EngineConfig, core.Strategy, error) {
	var file engineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, "", fmt.Errorf("parse engine config: %w", err)
	}

	cfg := core.DefaultEngineConfig()
	raw := file.Engine
	if raw.CollabWeight != nil {
		cfg.CollabWeight = *raw.CollabWeight
	}
	if raw.ContentWeight != nil {
		cfg.ContentWeight = *raw.ContentWeight
	}
	if raw.NeighborK != nil {
		cfg.NeighborK = *raw.NeighborK
	}
	if raw.MinOverlap != nil {
		cfg.MinOverlap = *raw.MinOverlap
	}
	if raw.ColdStartThreshold != nil {
		cfg.ColdStartThreshold = *raw.ColdStartThreshold
	}
	if raw.HybridThreshold != nil {
		cfg.HybridThreshold = *raw.HybridThreshold
	}
	if raw.PopularityShrinkage != nil {
		cfg.PopularityShrinkage = *raw.PopularityShrinkage
	}
	if raw.VocabSize != nil {
		cfg.VocabSize = *raw.VocabSize
	}
	if raw.MinSimilarity != nil {
		cfg.MinSimilarity = *raw.MinSimilarity
	}
	if raw.RebuildTimeout != "" {
		d, err := time.ParseDuration(raw.RebuildTimeout)
		if err != nil {
			return nil, "", core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
				fmt.Sprintf("config: bad rebuild_timeout %q", raw.RebuildTimeout))
		}
		cfg.RebuildTimeout = d
	}
	if len(raw.FilterRules) > 0 {
		cfg.FilterRules = raw.FilterRules
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	strategy := core.StrategyAdaptive
	if file.DefaultStrategy != "" {
		strategy = core.Strategy(file.DefaultStrategy)
		if !core.ValidStrategy(strategy) {
			return nil, "", core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
				fmt.Sprintf("config: unknown strategy %q", file.DefaultStrategy))
		}
	}
	return cfg, strategy, nil
}
