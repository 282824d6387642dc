package engine

import (
	"context"
	"sort"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/stats"
)

// UserStats 返回用户的评分行为摘要。从未评分的用户得到零值摘要。
func (e *Engine) UserStats(ctx context.Context, userID int64) (*stats.UserStats, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	agg := &stats.Aggregator{Matrix: snap.Matrix, Movies: snap.Movies}
	return agg.UserStats(userID), nil
}

// SystemStats 返回系统全量摘要。
func (e *Engine) SystemStats(ctx context.Context) (*stats.SystemStats, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	agg := &stats.Aggregator{Matrix: snap.Matrix, Movies: snap.Movies}
	return agg.SystemStats(), nil
}

// Evaluate 用留出集对一个策略做离线评估：对留出集中的每个用户
// 生成 limit 条推荐，与其留出评分对比，返回平均指标。
// 留出评分不应出现在台账里（训练/评估分离由调用方保证）。
func (e *Engine) Evaluate(
	ctx context.Context,
	strategy core.Strategy,
	heldOut map[int64]map[int64]float64,
	limit int,
) (stats.Metrics, error) {
	userIDs := make([]int64, 0, len(heldOut))
	for userID := range heldOut {
		userIDs = append(userIDs, userID)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	results := make([]stats.Metrics, 0, len(userIDs))
	for _, userID := range userIDs {
		recs, err := e.Recommend(ctx, userID, strategy, limit)
		if err != nil {
			if core.IsInsufficientData(err) {
				continue
			}
			return stats.Metrics{}, err
		}
		ids := make([]int64, len(recs))
		for i, r := range recs {
			ids[i] = r.Movie.ID
		}
		results = append(results, stats.EvaluateList(ids, heldOut[userID]))
	}
	return stats.Average(results), nil
}
