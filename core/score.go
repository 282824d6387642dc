package core

// ScoreMap 是"电影 ID → 原始分数"的稀疏映射。
//
// 缺席语义是一等公民：某部电影不在 map 中表示"该策略无法为它打分"
// （例如没有任何邻居评过分），与 0.0 分严格区分。融合与排序阶段
// 都依赖这一区分，禁止用 0 填充缺席项。
type ScoreMap map[int64]float64

// Normalize 对分数做 min-max 归一化，返回新 map，所有值落入 [0,1]。
//
// 特殊情况：map 中只有一个不同取值时（含单元素 map），全部归一化为 1.0，
// 避免除零，同时不惩罚只有单一证据的策略。
func (s ScoreMap) Normalize() ScoreMap {
	if len(s) == 0 {
		return ScoreMap{}
	}
	var min, max float64
	first := true
	for _, v := range s {
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make(ScoreMap, len(s))
	if max == min {
		for id := range s {
			out[id] = 1.0
		}
		return out
	}
	span := max - min
	for id, v := range s {
		out[id] = (v - min) / span
	}
	return out
}

// IDs 返回 map 中所有电影 ID（无序）。
func (s ScoreMap) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}
