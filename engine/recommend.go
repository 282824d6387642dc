package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/filter"
	"github.com/rushteam/cinekit/pipeline"
	"github.com/rushteam/cinekit/pkg/utils"
	"github.com/rushteam/cinekit/rank"
	"github.com/rushteam/cinekit/rerank"
)

// Recommend 为用户生成推荐列表。
//
// strategy 为空或 adaptive 时由策略表解析；显式策略绕过策略表，
// 但数据不足时仍按降级序列回退（requested → hybrid → content → popularity），
// 每次降级都打日志，不静默。
func (e *Engine) Recommend(ctx context.Context, userID int64, strategy core.Strategy, limit int) ([]*core.Recommendation, error) {
	start := time.Now()
	if limit <= 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommend: limit must be positive, got %d", limit))
	}
	if strategy == "" {
		strategy = core.StrategyAdaptive
	}
	if !core.ValidStrategy(strategy) {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommend: unknown strategy %q", strategy))
	}

	snap, err := e.snapshot(ctx)
	if err != nil {
		e.logger.Error().Err(err).Int64("user_id", userID).Msg("snapshot unavailable")
		return nil, err
	}

	resolved := strategy
	if strategy == core.StrategyAdaptive {
		resolved = e.resolveStrategy(snap, userID)
	}

	rctx := &core.RecommendContext{UserID: userID, Strategy: strategy, Limit: limit}
	rctx.PutLabel("strategy", utils.Label{Value: string(resolved), Source: "selector"})

	scores, effective, err := e.scoreWithDegradation(ctx, snap, rctx, userID, resolved)
	if err != nil {
		e.logger.Error().Err(err).Int64("user_id", userID).
			Str("strategy", string(resolved)).Msg("all strategies failed")
		return nil, err
	}

	recs, err := e.postProcess(ctx, snap, rctx, scores, effective)
	if err != nil {
		return nil, err
	}
	e.logger.Debug().Int64("user_id", userID).
		Str("strategy", string(effective)).Int("count", len(recs)).
		Dur("took", logDuration(start)).Msg("recommend")
	return recs, nil
}

// scoreWithDegradation 沿降级序列执行，返回第一份非空分数及其策略。
// 只有 INSUFFICIENT_DATA（含重建超时归类）触发降级，其余错误直接上抛。
func (e *Engine) scoreWithDegradation(
	ctx context.Context,
	snap *Snapshot,
	rctx *core.RecommendContext,
	userID int64,
	resolved core.Strategy,
) (core.ScoreMap, core.Strategy, error) {
	var lastErr error
	for _, s := range degradationChain(resolved) {
		scores, err := e.score(ctx, snap, userID, s)
		if err == nil {
			if s != resolved {
				rctx.PutLabel("strategy", utils.Label{Value: string(s), Source: "degraded"})
				e.logger.Warn().Int64("user_id", userID).
					Str("from", string(resolved)).Str("to", string(s)).
					Msg("strategy degraded")
			}
			return scores, s, nil
		}
		if !core.IsInsufficientData(err) {
			return nil, s, err
		}
		lastErr = err
	}
	return nil, resolved, lastErr
}

// score 执行单个策略的打分，保证返回的分数落在 [0,1]：
// 协同预测与热门均分在 1~5 量纲上，min-max 归一化后输出；
// 内容分经 (cos+1)/2 已是 [0,1]；hybrid 由融合器归一化。
// hybrid 并发跑两路，单路数据不足时融合退化为另一路（权重对在场者重归一化）。
func (e *Engine) score(ctx context.Context, snap *Snapshot, userID int64, s core.Strategy) (core.ScoreMap, error) {
	switch s {
	case core.StrategyCollaborative:
		scores, err := snap.collab.Score(ctx, userID)
		if err != nil {
			return nil, err
		}
		return scores.Normalize(), nil
	case core.StrategyContent:
		return snap.content.Score(ctx, userID)
	case core.StrategyPopularity:
		scores, err := snap.pop.Score(ctx, userID)
		if err != nil {
			return nil, err
		}
		return scores.Normalize(), nil
	case core.StrategyHybrid:
		var (
			collabScores, contentScores core.ScoreMap
			collabErr, contentErr       error
		)
		// 一路失败不取消另一路，错误在汇合后分类处理
		var g errgroup.Group
		g.Go(func() error {
			collabScores, collabErr = snap.collab.Score(ctx, userID)
			return nil
		})
		g.Go(func() error {
			contentScores, contentErr = snap.content.Score(ctx, userID)
			return nil
		})
		_ = g.Wait()

		if collabErr != nil && !core.IsInsufficientData(collabErr) {
			return nil, collabErr
		}
		if contentErr != nil && !core.IsInsufficientData(contentErr) {
			return nil, contentErr
		}
		if collabErr != nil && contentErr != nil {
			return nil, collabErr
		}
		h := &rank.Hybrid{CollabWeight: e.cfg.CollabWeight, ContentWeight: e.cfg.ContentWeight}
		return h.Fuse(collabScores, contentScores), nil
	}
	return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
		fmt.Sprintf("score: unknown strategy %q", s))
}

// postProcess 把分数表转成 Item 并跑后处理流水线：
// 已评分过滤 → 屏蔽名单 → 规则过滤 → 排序截断 →（可选）类型打散。
func (e *Engine) postProcess(
	ctx context.Context,
	snap *Snapshot,
	rctx *core.RecommendContext,
	scores core.ScoreMap,
	effective core.Strategy,
) ([]*core.Recommendation, error) {
	items := make([]*core.Item, 0, len(scores))
	for id, score := range scores {
		it := core.NewItem(id)
		it.Score = score
		it.Movie = snap.Movies[id]
		if it.Movie == nil {
			// 台账里出现目录之外的电影 ID，跳过
			continue
		}
		it.PutLabel("strategy", utils.Label{Value: string(effective), Source: "engine"})
		items = append(items, it)
	}

	p := e.buildPipeline(snap)
	out, err := p.Run(ctx, rctx, items)
	if err != nil {
		return nil, err
	}
	if lbl, ok := rctx.GetLabel("filter_error"); ok {
		e.logger.Warn().
			Int64("user_id", rctx.UserID).
			Str("filter", lbl.Source).
			Str("error", lbl.Value).
			Msg("filter error, candidates kept")
	}

	recs := make([]*core.Recommendation, 0, len(out))
	for _, it := range out {
		recs = append(recs, &core.Recommendation{
			Movie:    it.Movie,
			Score:    it.Score,
			Reason:   it.GetLabel("reason"),
			Strategy: it.GetLabel("strategy"),
		})
	}
	return recs, nil
}

// buildPipeline 为一次请求装配后处理流水线，RatedFilter 绑定请求快照。
func (e *Engine) buildPipeline(snap *Snapshot) *pipeline.Pipeline {
	filters := []filter.Filter{
		&filter.RatedFilter{RatedMovies: snap.Matrix.UserRatings},
	}
	if e.blacklist != nil {
		filters = append(filters, e.blacklist)
	}
	if e.rules != nil {
		filters = append(filters, e.rules)
	}

	// 类型打散放在 TopN 之后：TopN 会按分数全量重排，
	// 打散只在最终返回的页内调顺序。
	nodes := []pipeline.Node{&filter.FilterNode{Filters: filters}, &rerank.TopNNode{}}
	if e.diversity != nil {
		nodes = append(nodes, e.diversity)
	}
	return &pipeline.Pipeline{Nodes: nodes}
}

// SimilarTo 返回与指定电影最相似的电影（内容向量余弦）。
// 电影不在目录中返回 NOT_FOUND。结果与用户无关，不做已评分过滤。
func (e *Engine) SimilarTo(ctx context.Context, movieID int64, limit int) ([]*core.Recommendation, error) {
	if limit <= 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("similar: limit must be positive, got %d", limit))
	}

	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	anchor := snap.Movies[movieID]
	if anchor == nil {
		return nil, core.ErrMovieNotFound
	}

	scores, err := snap.content.Similar(ctx, movieID)
	if err != nil {
		return nil, err
	}

	items := make([]*core.Item, 0, len(scores))
	for id, score := range scores {
		it := core.NewItem(id)
		it.Score = score
		it.Movie = snap.Movies[id]
		if it.Movie == nil {
			continue
		}
		it.PutLabel("strategy", utils.Label{Value: string(core.StrategyContent), Source: "engine"})
		it.PutLabel("reason", utils.Label{
			Value:  fmt.Sprintf("similar to %s", anchor.Title),
			Source: "engine",
		})
		items = append(items, it)
	}

	rctx := &core.RecommendContext{Strategy: core.StrategyContent, Limit: limit}
	nodes := []pipeline.Node{&rerank.TopNNode{}}
	if e.rules != nil {
		nodes = append([]pipeline.Node{&filter.FilterNode{Filters: []filter.Filter{e.rules}}}, nodes...)
	}
	p := &pipeline.Pipeline{Nodes: nodes}
	out, err := p.Run(ctx, rctx, items)
	if err != nil {
		return nil, err
	}

	recs := make([]*core.Recommendation, 0, len(out))
	for _, it := range out {
		recs = append(recs, &core.Recommendation{
			Movie:    it.Movie,
			Score:    it.Score,
			Reason:   it.GetLabel("reason"),
			Strategy: it.GetLabel("strategy"),
		})
	}
	return recs, nil
}

// Block 把电影加入用户的屏蔽名单，后续推荐不再出现。
// 未配置 KeyValueStore 时返回 NOT_SUPPORTED。
func (e *Engine) Block(ctx context.Context, userID, movieID int64) error {
	if e.blacklist == nil {
		return core.ErrStoreNotSupported
	}
	return e.blacklist.Block(ctx, userID, movieID)
}
