package feature

import (
	"sort"
	"strings"
	"unicode"
)

// Vocabulary 是特征向量的固定维度表：
// 前若干维是类型 one-hot（每个已知 Genre 一维），
// 后若干维是简介文本的 TF-IDF 词袋（按文档频率取 TopK 词）。
//
// 维度顺序确定性：类型按名称排序，词项按 (df 降序, 字典序) 排序。
// 同一目录快照两次构建得到完全相同的词表。
type Vocabulary struct {
	Genres  []string       // 类型名，排序后
	Terms   []string       // 入选词项
	DocFreq map[string]int // 词项 → 文档频率
	Docs    int            // 目录中的文档（电影）总数

	genreIndex map[string]int
	termIndex  map[string]int
}

// Dims 返回向量总维度。
func (v *Vocabulary) Dims() int {
	return len(v.Genres) + len(v.Terms)
}

// GenreIndex 返回类型维度下标；未知类型返回 -1。
func (v *Vocabulary) GenreIndex(name string) int {
	if i, ok := v.genreIndex[name]; ok {
		return i
	}
	return -1
}

// TermIndex 返回词项维度下标（已偏移到类型维之后）；词表外的词返回 -1。
func (v *Vocabulary) TermIndex(term string) int {
	if i, ok := v.termIndex[term]; ok {
		return len(v.Genres) + i
	}
	return -1
}

// Tokenize 把简介文本切成小写词项：连续字母/数字为一个词，长度 < 2 的丢弃。
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// buildVocabulary 从目录快照构建词表。
//   - genres: 去重后的全部类型名
//   - docTerms: 每部电影的去重词项集合（用于 df）
//   - vocabSize: 词维上限
func buildVocabulary(genres map[string]struct{}, docTerms []map[string]struct{}, vocabSize int) *Vocabulary {
	v := &Vocabulary{
		DocFreq: make(map[string]int),
		Docs:    len(docTerms),
	}

	for g := range genres {
		v.Genres = append(v.Genres, g)
	}
	sort.Strings(v.Genres)

	for _, terms := range docTerms {
		for t := range terms {
			v.DocFreq[t]++
		}
	}

	candidates := make([]string, 0, len(v.DocFreq))
	for t := range v.DocFreq {
		candidates = append(candidates, t)
	}
	// df 降序，同频按字典序，保证确定性
	sort.Slice(candidates, func(i, j int) bool {
		di, dj := v.DocFreq[candidates[i]], v.DocFreq[candidates[j]]
		if di != dj {
			return di > dj
		}
		return candidates[i] < candidates[j]
	})
	if vocabSize > 0 && len(candidates) > vocabSize {
		candidates = candidates[:vocabSize]
	}
	v.Terms = candidates

	v.genreIndex = make(map[string]int, len(v.Genres))
	for i, g := range v.Genres {
		v.genreIndex[g] = i
	}
	v.termIndex = make(map[string]int, len(v.Terms))
	for i, t := range v.Terms {
		v.termIndex[t] = i
	}
	return v
}
