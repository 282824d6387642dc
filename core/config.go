package core

import "time"

// EngineConfig 是推荐引擎的配置项。
//
// 所有常数（权重、阈值、收缩系数）都是可调参数而非算法硬编码，
// 默认值见 DefaultEngineConfig。
type EngineConfig struct {
	// CollabWeight / ContentWeight 是 Hybrid 融合权重。
	// 单边缺席时权重对该候选重归一化为 1.0。
	CollabWeight  float64
	ContentWeight float64

	// NeighborK 是协同过滤保留的 TopK 相似邻居数。
	NeighborK int

	// MinOverlap 是两个用户至少需要的共同评分电影数，低于该值不计算相似度。
	MinOverlap int

	// ColdStartThreshold / HybridThreshold 驱动自适应选择器的策略表：
	//   n < ColdStartThreshold          → popularity
	//   ColdStartThreshold ≤ n < Hybrid → content
	//   n ≥ HybridThreshold             → hybrid
	ColdStartThreshold int
	HybridThreshold    int

	// PopularityShrinkage 是热门兜底的贝叶斯收缩常数 m：
	// score = (avg*count + globalAvg*m) / (count + m)
	PopularityShrinkage float64

	// VocabSize 限制简介文本词表的规模（按文档频率取 TopK 词）。
	VocabSize int

	// MinSimilarity 是内容打分的相似度下限，低于该值的候选不给分。
	// 默认 0（不过滤）。
	MinSimilarity float64

	// RebuildTimeout 是一次快照重建的超时上限，超时返回 REBUILD_TIMEOUT。
	RebuildTimeout time.Duration

	// FilterRules 是 CEL 候选过滤表达式列表（如 "movie.release_year >= 1980"）。
	// YAML 形态见 config.ParseEngine。
	FilterRules []string
}

// DefaultEngineConfig 返回带默认值的配置。
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		CollabWeight:        0.6,
		ContentWeight:       0.4,
		NeighborK:           50,
		MinOverlap:          2,
		ColdStartThreshold:  1,
		HybridThreshold:     5,
		PopularityShrinkage: 10,
		VocabSize:           512,
		MinSimilarity:       0,
		RebuildTimeout:      5 * time.Second,
	}
}

// Validate 校验配置合法性。
func (c *EngineConfig) Validate() error {
	if c.CollabWeight < 0 || c.ContentWeight < 0 || c.CollabWeight+c.ContentWeight == 0 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "config: hybrid weights must be non-negative and not both zero")
	}
	if c.NeighborK <= 0 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "config: neighbor_k must be positive")
	}
	if c.MinOverlap < 1 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "config: min_overlap must be at least 1")
	}
	if c.ColdStartThreshold < 0 || c.HybridThreshold < c.ColdStartThreshold {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "config: thresholds must satisfy 0 <= cold_start <= hybrid")
	}
	if c.PopularityShrinkage < 0 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "config: popularity_shrinkage must be non-negative")
	}
	if c.VocabSize <= 0 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "config: vocab_size must be positive")
	}
	return nil
}
