// Package stats 汇总评分行为：单用户画像统计与系统全量统计，
// 供算法评估与外层展示使用。
package stats

import (
	"sort"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/interaction"
)

// GenreCount 是 (类型, 该用户评过分且带此类型的电影数)。
type GenreCount struct {
	Genre string
	Count int
}

// UserStats 是单用户的评分行为摘要。
type UserStats struct {
	UserID      int64
	RatingCount int
	AvgRating   float64 // 用户评分的算术平均

	// FavoriteGenres 按 Count 降序、同数按类型名字典序。
	FavoriteGenres []GenreCount

	// RatingDistribution 星级 1..5 → 条数，总和恒等于 RatingCount。
	RatingDistribution map[int]int
}

// SystemStats 是系统全量摘要。
type SystemStats struct {
	TotalMovies     int
	TotalUsers      int
	TotalRatings    int
	RatingsPerMovie float64
}

// Aggregator 基于一个快照（矩阵 + 目录）计算统计量。
type Aggregator struct {
	Matrix *interaction.Matrix
	Movies map[int64]*core.Movie // movieID → 电影（取类型信息用）
}

// UserStats 计算单用户摘要。
// 没有任何评分的用户得到零值摘要（引擎不持有用户注册表，
// 无法区分"从未评分"与"不存在"，用户 ID 的存在性校验在外层完成）。
func (a *Aggregator) UserStats(userID int64) *UserStats {
	out := &UserStats{
		UserID:             userID,
		RatingDistribution: make(map[int]int),
	}
	ratings := a.Matrix.UserRatings(userID)
	if len(ratings) == 0 {
		return out
	}

	genreCounts := make(map[string]int)
	var sum float64
	for movieID, value := range ratings {
		sum += value
		out.RatingDistribution[int(value)]++
		if m := a.Movies[movieID]; m != nil {
			for _, g := range m.Genres {
				genreCounts[g.Name]++
			}
		}
	}
	out.RatingCount = len(ratings)
	out.AvgRating = sum / float64(len(ratings))

	out.FavoriteGenres = make([]GenreCount, 0, len(genreCounts))
	for g, c := range genreCounts {
		out.FavoriteGenres = append(out.FavoriteGenres, GenreCount{Genre: g, Count: c})
	}
	sort.Slice(out.FavoriteGenres, func(i, j int) bool {
		if out.FavoriteGenres[i].Count != out.FavoriteGenres[j].Count {
			return out.FavoriteGenres[i].Count > out.FavoriteGenres[j].Count
		}
		return out.FavoriteGenres[i].Genre < out.FavoriteGenres[j].Genre
	})
	return out
}

// SystemStats 计算系统全量摘要。
func (a *Aggregator) SystemStats() *SystemStats {
	out := &SystemStats{
		TotalMovies:  len(a.Movies),
		TotalUsers:   a.Matrix.UserCount(),
		TotalRatings: a.Matrix.TotalRatings(),
	}
	if out.TotalMovies > 0 {
		out.RatingsPerMovie = float64(out.TotalRatings) / float64(out.TotalMovies)
	}
	return out
}
