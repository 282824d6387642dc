package stats

// Metrics 是一次离线评估的产出。
type Metrics struct {
	Precision float64 // 推荐列表中命中留出喜好的比例
	Recall    float64 // 留出喜好被推荐覆盖的比例
	HitRate   float64 // 至少命中一条则为 1
}

// likedThreshold 以上（含）的留出评分视为"喜欢"。
const likedThreshold = 4.0

// EvaluateList 对单个用户的一次推荐做留出评估。
// recommended 是推荐的电影 ID，heldOut 是留出集中该用户的 movieID→评分。
// 留出集中无喜好条目时召回无意义，三项指标均为 0。
func EvaluateList(recommended []int64, heldOut map[int64]float64) Metrics {
	liked := make(map[int64]bool, len(heldOut))
	for movieID, value := range heldOut {
		if value >= likedThreshold {
			liked[movieID] = true
		}
	}
	if len(liked) == 0 || len(recommended) == 0 {
		return Metrics{}
	}

	hits := 0
	for _, movieID := range recommended {
		if liked[movieID] {
			hits++
		}
	}
	m := Metrics{
		Precision: float64(hits) / float64(len(recommended)),
		Recall:    float64(hits) / float64(len(liked)),
	}
	if hits > 0 {
		m.HitRate = 1
	}
	return m
}

// Average 对多用户的评估结果求算术平均，作为策略级指标。
func Average(results []Metrics) Metrics {
	if len(results) == 0 {
		return Metrics{}
	}
	var out Metrics
	for _, r := range results {
		out.Precision += r.Precision
		out.Recall += r.Recall
		out.HitRate += r.HitRate
	}
	n := float64(len(results))
	out.Precision /= n
	out.Recall /= n
	out.HitRate /= n
	return out
}
