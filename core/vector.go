package core

import "context"

// VectorProvider 提供电影特征向量。
//
// 默认实现是 feature.Extractor（本地 TF-IDF + 类型 one-hot）；
// ext/feast 提供基于 Feast 在线特征库的实现（预计算的 embedding 向量）。
//
// 约定：返回的向量必须已做 L2 归一化，余弦相似度退化为点积。
// 同一版本快照内所有向量维度一致。
type VectorProvider interface {
	// MovieVectors 返回指定电影的特征向量；无法提供的电影不出现在结果中。
	MovieVectors(ctx context.Context, movieIDs []int64) (map[int64][]float64, error)
}
