package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 策略溯源（某个分数来自哪条策略）、降级轨迹都通过 Label 携带，
// 最终的推荐理由文案由 rerank 阶段根据 Label 生成。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / filter / engine ...
}

// MergeLabel 用于合并同名 Label，遵循"保留历史、可追踪"的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
//
// 降级轨迹因此天然可读：strategy=hybrid|content 表示 hybrid 失败后回退 content。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
