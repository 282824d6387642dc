package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/pipeline"
	"github.com/rushteam/cinekit/pkg/utils"
)

// TopNNode 是最终排序与截断节点：
//  1. 按电影 ID 去重（保留分数更高的一个）
//  2. 排序：分数降序；同分按 rating_count 降序，再按电影 ID 升序。
//     比较器是全序：除非是同一部电影，任意两项必分先后，
//     同一快照上两次排序得到完全相同的列表。
//  3. 截断到 N
//  4. 为没有理由文案的候选按策略标签补默认理由
type TopNNode struct {
	// N 要保留的条数；<= 0 时取 rctx.Limit。
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	// 去重：同一电影保留分数更高的一项
	seen := make(map[int64]*core.Item, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			if it.Score > old.Score {
				seen[it.ID] = it
			}
			continue
		}
		seen[it.ID] = it
	}
	out := make([]*core.Item, 0, len(seen))
	for _, it := range seen {
		out = append(out, it)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ci, cj := ratingCount(out[i]), ratingCount(out[j])
		if ci != cj {
			return ci > cj
		}
		return out[i].ID < out[j].ID
	})

	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	for _, it := range out {
		if it.GetLabel("reason") == "" {
			it.PutLabel("reason", utils.Label{
				Value:  ReasonFor(core.Strategy(it.GetLabel("strategy"))),
				Source: "rerank",
			})
		}
	}
	return out, nil
}

func ratingCount(it *core.Item) int {
	if it.Movie == nil {
		return 0
	}
	return it.Movie.RatingCount
}

// ReasonFor 返回策略对应的默认理由文案。
func ReasonFor(s core.Strategy) string {
	switch s {
	case core.StrategyCollaborative:
		return "similar users enjoyed this"
	case core.StrategyContent:
		return "matches your genre preferences"
	case core.StrategyHybrid:
		return "liked by similar users and close to your tastes"
	case core.StrategyPopularity:
		return "popular with a strong track record"
	}
	return "recommended for you"
}
