package recall

import (
	"context"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/feature"
	"github.com/rushteam/cinekit/interaction"
)

// Content 是基于内容的打分策略。
//
// 用户画像模式（Score）：
//   profile(u) = Σ (rating(u,m) − 3) · vector(m)，再归一化为单位长度。
//   以 3 为中点做中心化：差评从画像里减去对应特征，而不只是"贡献少一点"。
//   候选分 = cosine(profile, vector(candidate))，经 (c+1)/2 映射进 [0,1]。
//
// 电影相似模式（Similar）：
//   score(candidate) = cosine(vector(m), vector(candidate))，candidate ≠ m。
//   特征向量非负，余弦天然落在 [0,1]。
type Content struct {
	Matrix  *interaction.Matrix
	Vectors *feature.VectorSet

	// MinSimilarity 是候选入选的相似度下限（画像模式按映射前的余弦判断）。
	// 默认 0 表示不过滤：负余弦（画像背向的候选）也要给出低分，
	// 缺席语义只留给"无画像"的情况。
	MinSimilarity float64
}

func (r *Content) Name() string { return "recall.content" }

// Profile 返回用户画像向量（单位长度）；用户无评分或画像退化为零向量时返回 nil。
func (r *Content) Profile(userID int64) []float64 {
	ratings := r.Matrix.UserRatings(userID)
	if len(ratings) == 0 {
		return nil
	}

	profile := make([]float64, r.Vectors.Dims())
	found := false
	for movieID, rating := range ratings {
		vec := r.Vectors.Vector(movieID)
		if vec == nil {
			continue
		}
		found = true
		weight := rating - 3 // 中点中心化：2 分及以下为负权
		for i, x := range vec {
			profile[i] += weight * x
		}
	}
	if !found {
		return nil
	}

	var norm float64
	for _, x := range profile {
		norm += x * x
	}
	if norm == 0 {
		// 全部打 3 分（或正负刚好抵消）时画像无方向可言
		return nil
	}
	feature.L2Normalize(profile)
	return profile
}

// Score 为目标用户计算所有未评分候选的内容匹配分。
func (r *Content) Score(ctx context.Context, userID int64) (core.ScoreMap, error) {
	if r.Matrix == nil || r.Vectors == nil {
		return nil, ErrInsufficientData
	}
	profile := r.Profile(userID)
	if profile == nil {
		return nil, ErrInsufficientData
	}

	rated := r.Matrix.UserRatings(userID)
	scores := make(core.ScoreMap)
	for movieID, vec := range r.Vectors.Vectors {
		if _, ok := rated[movieID]; ok {
			continue
		}
		cos := feature.Dot(profile, vec)
		if r.MinSimilarity > 0 && cos < r.MinSimilarity {
			continue
		}
		scores[movieID] = (cos + 1) / 2
	}
	if len(scores) == 0 {
		return nil, ErrInsufficientData
	}
	return scores, nil
}

// Similar 返回与指定电影最相似的候选分数（电影相似模式）。
// 电影没有特征向量时返回 NOT_FOUND。
func (r *Content) Similar(ctx context.Context, movieID int64) (core.ScoreMap, error) {
	if r.Vectors == nil {
		return nil, ErrInsufficientData
	}
	target := r.Vectors.Vector(movieID)
	if target == nil {
		return nil, core.ErrMovieNotFound
	}

	scores := make(core.ScoreMap)
	for candidateID, vec := range r.Vectors.Vectors {
		if candidateID == movieID {
			continue
		}
		cos := feature.Dot(target, vec)
		if cos < r.MinSimilarity || cos <= 0 {
			continue
		}
		scores[candidateID] = cos
	}
	if len(scores) == 0 {
		return nil, ErrInsufficientData
	}
	return scores, nil
}
