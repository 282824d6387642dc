package rerank

import (
	"context"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/pipeline"
)

// Diversity 是类型多样性重排：限制同一 Genre 连续出现的次数，
// 避免榜单被单一类型刷屏（例如前十条全是动作片）。
//
// 实现为贪心滑动窗口：候选按当前顺序扫描，若其任一类型在最近
// Window 条已选结果中出现次数达到 MaxPerGenre，则推迟到末尾。
// 不改变总集合，只调顺序；放在 TopN 排序截断之后，在最终页内打散
// （放在前面会被 TopN 的全量重排抹掉）。
type Diversity struct {
	// MaxPerGenre 窗口内同类型上限，<= 0 时取 2。
	MaxPerGenre int

	// Window 滑动窗口大小，<= 0 时取 5。
	Window int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) <= 1 {
		return items, nil
	}

	maxPerGenre := n.MaxPerGenre
	if maxPerGenre <= 0 {
		maxPerGenre = 2
	}
	window := n.Window
	if window <= 0 {
		window = 5
	}

	out := make([]*core.Item, 0, len(items))
	deferred := make([]*core.Item, 0)

	for _, it := range items {
		if it == nil {
			continue
		}
		if exceedsWindow(out, it, window, maxPerGenre) {
			deferred = append(deferred, it)
			continue
		}
		out = append(out, it)
	}
	// 被推迟的候选保持相对顺序挂到末尾
	return append(out, deferred...), nil
}

func exceedsWindow(selected []*core.Item, it *core.Item, window, maxPerGenre int) bool {
	if it.Movie == nil || len(it.Movie.Genres) == 0 {
		return false
	}
	start := len(selected) - window
	if start < 0 {
		start = 0
	}
	counts := make(map[string]int)
	for _, prev := range selected[start:] {
		if prev.Movie == nil {
			continue
		}
		for _, g := range prev.Movie.Genres {
			counts[g.Name]++
		}
	}
	for _, g := range it.Movie.Genres {
		if counts[g.Name] >= maxPerGenre {
			return true
		}
	}
	return false
}
