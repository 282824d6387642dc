package recall

import (
	"context"

	"github.com/rushteam/cinekit/core"
)

// Scorer 表示一条可复用的打分策略（协同/内容/热门）。
//
// 返回的 ScoreMap 保留缺席语义：策略无法打分的电影不出现在 map 中，
// 而不是记 0 分。候选集约定为"目标用户尚未评分的电影"，
// 已评分电影的剔除由 filter 阶段兜底保证。
//
// 策略失败以 INSUFFICIENT_DATA 上报，由引擎按降级顺序回退，
// Scorer 自身从不静默返回空结果。
type Scorer interface {
	Name() string
	Score(ctx context.Context, userID int64) (core.ScoreMap, error)
}

// ErrInsufficientData 表示策略没有足够数据为任何候选打分（可恢复）。
var ErrInsufficientData = core.NewDomainError(core.ModuleRecall, core.ErrorCodeInsufficientData, "recall: insufficient data for strategy")
