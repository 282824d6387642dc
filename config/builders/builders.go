// Package builders 在 init 中把可由纯配置构建的 Node 注册进 config 注册表。
// 依赖运行期快照的节点（filter.rated、filter.blacklist）由 engine 直接装配，
// 不走配置构建。
package builders

import (
	"github.com/rushteam/cinekit/config"
	"github.com/rushteam/cinekit/filter"
	"github.com/rushteam/cinekit/pipeline"
	"github.com/rushteam/cinekit/pkg/conv"
	"github.com/rushteam/cinekit/rerank"
)

func init() {
	config.Register("filter.rule", BuildRuleFilterNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildRuleFilterNode(cfg map[string]any) (pipeline.Node, error) {
	exprs := conv.ToStringSlice(cfg["rules"])
	rule, err := filter.NewRuleFilter(exprs)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{rule}}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		MaxPerGenre: conv.ConfigGetInt(cfg, "max_per_genre", 2),
		Window:      conv.ConfigGetInt(cfg, "window", 5),
	}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}
