package core

import "github.com/rushteam/cinekit/pkg/utils"

// Strategy 是推荐策略名。
type Strategy string

const (
	StrategyCollaborative Strategy = "collaborative" // 用户协同过滤
	StrategyContent       Strategy = "content"       // 基于内容（用户画像向量）
	StrategyHybrid        Strategy = "hybrid"        // 协同 + 内容加权融合
	StrategyPopularity    Strategy = "popularity"    // 热门兜底（贝叶斯收缩均分）
	StrategyAdaptive      Strategy = "adaptive"      // 按评分数量自动选择
)

// ValidStrategy 检查策略名是否合法。
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyCollaborative, StrategyContent, StrategyHybrid,
		StrategyPopularity, StrategyAdaptive, "":
		return true
	}
	return false
}

// RecommendContext 承载一次推荐请求的上下文，贯穿打分、过滤、重排各阶段透传。
type RecommendContext struct {
	UserID int64

	// Strategy 是请求方显式指定的策略；空值或 adaptive 表示由选择器决定。
	Strategy Strategy

	// Limit 是最终返回的条数上限，必须为正。
	Limit int

	// Labels 是请求级标签，记录策略解析与降级轨迹，可驱动各阶段行为。
	Labels map[string]utils.Label

	// Params 请求级扩展参数（如过滤规则变量）。
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
