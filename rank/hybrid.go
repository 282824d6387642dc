// Package rank 提供分数融合。
package rank

import "github.com/rushteam/cinekit/core"

// Hybrid 把协同与内容两路原始分数融合成一张候选分表。
//
// 算法：
//  1. 两路分数各自做 min-max 归一化到 [0,1]
//     （一路只有单一取值时全部记 1.0，避免除零）
//  2. 两路都有分的候选：fused = w_c·norm_collab + w_t·norm_content
//  3. 只有单路有分的候选：fused = 该路归一化分
//     （权重对该候选重归一化为 1.0，不惩罚另一路无法打分的电影）
//
// 由此保证：任一路打过分的候选都有融合分，且融合分恒在 [0,1]。
type Hybrid struct {
	// CollabWeight / ContentWeight 融合权重；两数会按比例归一化，
	// 均 <= 0 时取默认 0.6 / 0.4。
	CollabWeight  float64
	ContentWeight float64
}

func (h *Hybrid) Name() string { return "rank.hybrid" }

// Fuse 融合两路分数。任一路可为 nil（该路策略打分失败时），
// 此时等价于另一路权重为 1.0 的直通。
func (h *Hybrid) Fuse(collab, content core.ScoreMap) core.ScoreMap {
	wc, wt := h.CollabWeight, h.ContentWeight
	if wc <= 0 && wt <= 0 {
		wc, wt = 0.6, 0.4
	}
	total := wc + wt
	wc /= total
	wt /= total

	normCollab := collab.Normalize()
	normContent := content.Normalize()

	fused := make(core.ScoreMap, len(normCollab)+len(normContent))
	for movieID, c := range normCollab {
		if t, ok := normContent[movieID]; ok {
			fused[movieID] = wc*c + wt*t
		} else {
			fused[movieID] = c
		}
	}
	for movieID, t := range normContent {
		if _, ok := normCollab[movieID]; !ok {
			fused[movieID] = t
		}
	}
	return fused
}
