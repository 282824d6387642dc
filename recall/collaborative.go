package recall

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/interaction"
)

// Collaborative 是基于用户的协同过滤打分策略（User-CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的电影"
//
// 算法流程：
//  1. 对每个与目标用户至少共同评分 MinOverlap 部电影的用户 v，
//     在共同电影集上计算评分向量的余弦相似度（低于该重叠数的用户排除，
//     避免单次巧合撑起一个相似度）
//  2. 保留相似度 > 0 的 TopK 邻居
//  3. 候选电影 m 的预测分 = Σ sim(u,v)·rating(v,m) / Σ |sim(u,v)|
//     （只累加评过 m 的邻居；没有任何邻居评过的电影不给分，缺席而非 0）
//  4. 一个合格邻居都没有时返回 INSUFFICIENT_DATA，由引擎降级
//
// 边界：某部电影只有一个邻居贡献分数时，预测分就是该邻居的评分本身
// （单项加权平均），与相似度大小无关。
type Collaborative struct {
	Matrix *interaction.Matrix

	// NeighborK 保留的 TopK 相似邻居数，<= 0 时取 50。
	NeighborK int

	// MinOverlap 参与相似度计算所需的最少共同评分电影数，<= 0 时取 2。
	MinOverlap int

	// Metric 相似度度量方式：cosine / pearson，默认 cosine。
	Metric string

	// simMu/simCache 是快照内的 (u,v) 相似度备忘，键为有序对。
	// 快照失效即整体作废，不做增量维护。
	simMu    sync.RWMutex
	simCache map[[2]int64]float64
}

func (r *Collaborative) Name() string { return "recall.collaborative" }

// Similarity 返回两个用户在共同评分集上的相似度；重叠不足时返回 0。
// 对称：Similarity(u,v) == Similarity(v,u)。
func (r *Collaborative) Similarity(u, v int64) float64 {
	key := pairKey(u, v)

	r.simMu.RLock()
	if r.simCache != nil {
		if sim, ok := r.simCache[key]; ok {
			r.simMu.RUnlock()
			return sim
		}
	}
	r.simMu.RUnlock()

	sim := r.computeSimilarity(u, v)

	r.simMu.Lock()
	if r.simCache == nil {
		r.simCache = make(map[[2]int64]float64)
	}
	r.simCache[key] = sim
	r.simMu.Unlock()
	return sim
}

func (r *Collaborative) computeSimilarity(u, v int64) float64 {
	uRatings := r.Matrix.UserRatings(u)
	vRatings := r.Matrix.UserRatings(v)
	if len(uRatings) == 0 || len(vRatings) == 0 {
		return 0
	}

	minOverlap := r.MinOverlap
	if minOverlap <= 0 {
		minOverlap = 2
	}

	// 评分向量限制在共同评分的电影集上；确定性地按电影 ID 对齐
	common := make([]int64, 0)
	for movieID := range uRatings {
		if _, ok := vRatings[movieID]; ok {
			common = append(common, movieID)
		}
	}
	if len(common) < minOverlap {
		return 0
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	x := make([]float64, len(common))
	y := make([]float64, len(common))
	for i, movieID := range common {
		x[i] = uRatings[movieID]
		y[i] = vRatings[movieID]
	}

	switch r.Metric {
	case "pearson":
		return pearsonCorrelation(x, y)
	default:
		return cosineSimilarity(x, y)
	}
}

// Score 为目标用户计算所有可打分候选的预测评分（原始 1-5 尺度，不归一化）。
func (r *Collaborative) Score(ctx context.Context, userID int64) (core.ScoreMap, error) {
	if r.Matrix == nil {
		return nil, ErrInsufficientData
	}
	targetRatings := r.Matrix.UserRatings(userID)
	if len(targetRatings) == 0 {
		return nil, ErrInsufficientData
	}

	topK := r.NeighborK
	if topK <= 0 {
		topK = 50
	}

	// 1. 计算所有候选邻居的相似度，只保留正值
	type neighbor struct {
		userID     int64
		similarity float64
	}
	neighbors := make([]neighbor, 0)
	for _, other := range r.Matrix.Users() {
		if other == userID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sim := r.Similarity(userID, other)
		if sim > 0 {
			neighbors = append(neighbors, neighbor{userID: other, similarity: sim})
		}
	}
	if len(neighbors) == 0 {
		return nil, ErrInsufficientData
	}

	// 2. TopK 邻居（同相似度按用户 ID 升序，保证确定性）
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	if len(neighbors) > topK {
		neighbors = neighbors[:topK]
	}

	// 3. 邻居加权平均：score[m] = Σ sim·rating / Σ |sim|
	weighted := make(map[int64]float64)
	simSum := make(map[int64]float64)
	for _, nb := range neighbors {
		for movieID, rating := range r.Matrix.UserRatings(nb.userID) {
			if _, rated := targetRatings[movieID]; rated {
				continue // 候选集只含目标用户未评分的电影
			}
			weighted[movieID] += nb.similarity * rating
			simSum[movieID] += math.Abs(nb.similarity)
		}
	}

	scores := make(core.ScoreMap, len(weighted))
	for movieID, w := range weighted {
		if s := simSum[movieID]; s > 0 {
			scores[movieID] = w / s
		}
	}
	if len(scores) == 0 {
		return nil, ErrInsufficientData
	}
	return scores, nil
}

// pairKey 生成无序用户对的缓存键。
func pairKey(u, v int64) [2]int64 {
	if u > v {
		u, v = v, u
	}
	return [2]int64{u, v}
}
