package feature

import (
	"context"
	"math"

	"github.com/rushteam/cinekit/core"
)

// Extractor 把目录中的每部电影变成定长数值向量：
// 类型 one-hot（二值存在性）拼接简介文本的 TF-IDF 词袋。
//
// 输出向量做 L2 归一化，余弦相似度退化为点积。
// 向量对给定的目录快照不可变：目录元数据变化 → 新版本 → 整体重建。
type Extractor struct {
	// VocabSize 词维上限（按文档频率取 TopK 词），<= 0 时取 512。
	VocabSize int

	// Catalog 仅在把 Extractor 当作 core.VectorProvider 独立使用时需要；
	// 引擎内部直接调 Build 并传入快照中的电影列表。
	Catalog core.Catalog
}

// VectorSet 是一个目录版本的全部特征向量，构建后只读。
type VectorSet struct {
	Version    int64 // 目录版本
	Vocabulary *Vocabulary
	Vectors    map[int64][]float64 // movieID → L2 归一化向量

	dims int // 外部向量来源无词表，维度在构造时固定
}

// NewExternalVectorSet 把外部来源（如 Feast 在线存储）的向量包装成 VectorSet。
// 向量须已 L2 归一化且等长；维度取第一条向量的长度。
func NewExternalVectorSet(version int64, vectors map[int64][]float64) *VectorSet {
	s := &VectorSet{Version: version, Vectors: vectors}
	for _, v := range vectors {
		s.dims = len(v)
		break
	}
	return s
}

// Dims 返回向量维度。
func (s *VectorSet) Dims() int {
	if s.Vocabulary != nil {
		return s.Vocabulary.Dims()
	}
	return s.dims
}

// Vector 返回指定电影的向量；没有时返回 nil。
func (s *VectorSet) Vector(movieID int64) []float64 {
	return s.Vectors[movieID]
}

// Cosine 返回两部电影向量的余弦相似度（向量已归一化，等于点积）。
// 任一向量缺席时返回 0。
func (s *VectorSet) Cosine(a, b int64) float64 {
	va, vb := s.Vectors[a], s.Vectors[b]
	if va == nil || vb == nil {
		return 0
	}
	return Dot(va, vb)
}

// Build 从目录快照构建全量特征向量。
// 目录为空时返回 EMPTY_CATALOG。
func (e *Extractor) Build(ctx context.Context, movies []*core.Movie, version int64) (*VectorSet, error) {
	if len(movies) == 0 {
		return nil, core.ErrEmptyCatalog
	}

	vocabSize := e.VocabSize
	if vocabSize <= 0 {
		vocabSize = 512
	}

	// 第一遍：收集类型词表与每部电影的词项集合
	genres := make(map[string]struct{})
	docTerms := make([]map[string]struct{}, len(movies))
	docCounts := make([]map[string]int, len(movies))
	for i, m := range movies {
		for _, g := range m.Genres {
			genres[g.Name] = struct{}{}
		}
		terms := Tokenize(m.Overview)
		set := make(map[string]struct{}, len(terms))
		counts := make(map[string]int, len(terms))
		for _, t := range terms {
			set[t] = struct{}{}
			counts[t]++
		}
		docTerms[i] = set
		docCounts[i] = counts
	}

	vocab := buildVocabulary(genres, docTerms, vocabSize)

	// 第二遍：生成向量
	set := &VectorSet{
		Version:    version,
		Vocabulary: vocab,
		Vectors:    make(map[int64][]float64, len(movies)),
	}
	docs := float64(vocab.Docs)
	for i, m := range movies {
		vec := make([]float64, vocab.Dims())
		for _, g := range m.Genres {
			if idx := vocab.GenreIndex(g.Name); idx >= 0 {
				vec[idx] = 1
			}
		}
		total := 0
		for _, c := range docCounts[i] {
			total += c
		}
		if total > 0 {
			for t, c := range docCounts[i] {
				idx := vocab.TermIndex(t)
				if idx < 0 {
					continue
				}
				tf := float64(c) / float64(total)
				idf := math.Log((1+docs)/(1+float64(vocab.DocFreq[t]))) + 1
				vec[idx] = tf * idf
			}
		}
		L2Normalize(vec)
		set.Vectors[m.ID] = vec
	}
	return set, nil
}

var _ core.VectorProvider = (*Extractor)(nil)

// MovieVectors 实现 core.VectorProvider：从 Catalog 拉取快照并构建向量后取子集。
// 引擎内部持有完整 VectorSet 时不走这条路径，该方法服务于把 Extractor
// 当作独立 Provider 使用的场景（与 feast.VectorStore 互换）。
func (e *Extractor) MovieVectors(ctx context.Context, movieIDs []int64) (map[int64][]float64, error) {
	if e.Catalog == nil {
		return nil, core.ErrEmptyCatalog
	}
	movies, err := e.Catalog.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	set, err := e.Build(ctx, movies, 0)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]float64, len(movieIDs))
	for _, id := range movieIDs {
		if v := set.Vector(id); v != nil {
			out[id] = v
		}
	}
	return out, nil
}

// Dot 返回两个等长向量的点积；长度不一致时按较短者截断。
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// L2Normalize 就地把向量归一化为单位长度；零向量保持不变。
func L2Normalize(v []float64) {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
}
