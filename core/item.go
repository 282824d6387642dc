package core

import "github.com/rushteam/cinekit/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选电影、分数、元信息、标签。
// Labels 用于解释与策略溯源（最终的 reason 文案由 rerank 根据标签生成）；
// Score 用于排序决策。
type Item struct {
	ID     int64 // 电影 ID
	Score  float64
	Movie  *Movie // 快照中的电影（含重算后的 RatingCount / AvgRating）
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// GetLabel 获取标签值；不存在时返回空串。
func (it *Item) GetLabel(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}

// Recommendation 是对外返回的一条推荐结果（瞬态，不持久化）。
type Recommendation struct {
	Movie    *Movie
	Score    float64 // 归一化后，取值 [0,1]
	Reason   string  // 人类可读的推荐理由
	Strategy string  // 产生该分数的策略
}
