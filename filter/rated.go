package filter

import (
	"context"

	"github.com/rushteam/cinekit/core"
)

// RatedFilter 过滤掉请求用户已经评过分的电影。
//
// 各打分策略的候选集本身就排除了已评分电影，此过滤器是推荐列表
// "永不包含已评分电影"这一性质的最终保证（例如热门兜底整榜缓存
// 与用户无关，必须在这里按用户剔除）。
type RatedFilter struct {
	// RatedMovies 返回用户已评分的电影 ID 集合（来自当前快照）。
	RatedMovies func(userID int64) map[int64]float64
}

func (f *RatedFilter) Name() string {
	return "filter.rated"
}

func (f *RatedFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.RatedMovies == nil || rctx == nil {
		return false, nil
	}
	rated := f.RatedMovies(rctx.UserID)
	if rated == nil {
		return false, nil
	}
	_, ok := rated[item.ID]
	return ok, nil
}
