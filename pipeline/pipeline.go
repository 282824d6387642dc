package pipeline

import (
	"context"

	"github.com/rushteam/cinekit/core"
)

// Pipeline 把打分之后的处理逻辑拆成可组合的 Node 链
// （典型链路：filter.rated → filter.rule → rerank.topn）。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
