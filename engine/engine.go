// Package engine 是推荐引擎的装配层与对外入口：
// 解析策略、组装快照、调度打分、执行后处理流水线，
// 并在这一层统一记录降级与错误（下层各包只返回错误，不打日志）。
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/cinekit/cache"
	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/filter"
	"github.com/rushteam/cinekit/rerank"
)

// Engine 对外提供 Recommend / SimilarTo / Stats 三类入口。
// 并发安全：请求只读各自的快照，共享可变状态只有缓存。
type Engine struct {
	catalog core.Catalog
	ledger  core.RatingLedger
	cfg     *core.EngineConfig

	// provider 可选的外部向量来源（如 feast.VectorStore）；
	// 为空时用内置 TF-IDF 提取器。
	provider core.VectorProvider

	// kv 可选：热门榜缓存与用户屏蔽名单的后端。
	kv core.KeyValueStore

	cache  *cache.Service
	logger zerolog.Logger

	// rules 由 cfg.FilterRules 预编译，非法表达式在 New 时报错。
	rules *filter.RuleFilter

	// blacklist 仅在配置了 kv 时生效。
	blacklist *filter.BlacklistFilter

	// diversity 可选的类型打散节点。
	diversity *rerank.Diversity
}

// Option 配置 Engine。
type Option func(*Engine)

// WithConfig 指定引擎参数；缺省用 core.DefaultEngineConfig。
func WithConfig(cfg *core.EngineConfig) Option {
	return func(e *Engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithVectorProvider 指定外部电影向量来源，替代内置 TF-IDF 提取器。
func WithVectorProvider(p core.VectorProvider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithKeyValueStore 启用热门榜缓存与用户屏蔽名单。
func WithKeyValueStore(kv core.KeyValueStore) Option {
	return func(e *Engine) { e.kv = kv }
}

// WithLogger 指定边界日志；缺省为 Nop。
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithServeStale 允许版本过期的快照先行服务，后台完成重建。
func WithServeStale() Option {
	return func(e *Engine) { e.cache.ServeStale = true }
}

// WithDiversity 在排序截断后的最终页内按类型打散（滑动窗口内限制同类型条数）。
func WithDiversity(maxPerGenre, window int) Option {
	return func(e *Engine) {
		e.diversity = &rerank.Diversity{MaxPerGenre: maxPerGenre, Window: window}
	}
}

// New 创建引擎。配置非法或过滤规则编译失败时返回 INVALID_INPUT。
func New(catalog core.Catalog, ledger core.RatingLedger, opts ...Option) (*Engine, error) {
	e := &Engine{
		catalog: catalog,
		ledger:  ledger,
		cfg:     core.DefaultEngineConfig(),
		cache:   &cache.Service{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	e.cache.RebuildTimeout = e.cfg.RebuildTimeout

	if len(e.cfg.FilterRules) > 0 {
		rules, err := filter.NewRuleFilter(e.cfg.FilterRules)
		if err != nil {
			return nil, err
		}
		e.rules = rules
	}
	if e.kv != nil {
		e.blacklist = &filter.BlacklistFilter{Store: e.kv}
	}
	return e, nil
}

// Config 返回引擎生效的配置。
func (e *Engine) Config() *core.EngineConfig { return e.cfg }

// Invalidate 丢弃全部缓存快照，下次请求重建。
func (e *Engine) Invalidate() {
	e.cache.Invalidate("catalog")
	e.cache.Invalidate("matrix")
	e.cache.Invalidate("snapshot")
}

// resolveStrategy 按用户评分数执行自适应策略表：
//
//	n < ColdStartThreshold → popularity
//	n < HybridThreshold    → content
//	其余                   → hybrid
func (e *Engine) resolveStrategy(snap *Snapshot, userID int64) core.Strategy {
	n := snap.Matrix.UserRatingCount(userID)
	switch {
	case n < e.cfg.ColdStartThreshold:
		return core.StrategyPopularity
	case n < e.cfg.HybridThreshold:
		return core.StrategyContent
	default:
		return core.StrategyHybrid
	}
}

// degradationChain 返回某策略的降级序列（含自身），
// 末端恒为 popularity：策略数据不足降级而非失败。
func degradationChain(s core.Strategy) []core.Strategy {
	switch s {
	case core.StrategyCollaborative:
		return []core.Strategy{core.StrategyCollaborative, core.StrategyHybrid, core.StrategyContent, core.StrategyPopularity}
	case core.StrategyHybrid:
		return []core.Strategy{core.StrategyHybrid, core.StrategyContent, core.StrategyPopularity}
	case core.StrategyContent:
		return []core.Strategy{core.StrategyContent, core.StrategyPopularity}
	default:
		return []core.Strategy{core.StrategyPopularity}
	}
}

func logDuration(start time.Time) time.Duration {
	return time.Since(start).Round(time.Microsecond)
}
