// Package interaction 把评分台账快照物化为稀疏的 用户→电影→评分 矩阵。
//
// 此处不做任何归一化（保留原始 1-5 分值）：归一化是各打分策略自己的职责。
// 同一台账版本两次构建得到完全一致的矩阵。
package interaction

import (
	"context"
	"sort"

	"github.com/rushteam/cinekit/core"
)

// Matrix 是一个台账版本的用户-电影交互矩阵，构建后只读。
type Matrix struct {
	Version int64 // 台账版本

	ratings map[int64]map[int64]float64 // userID → movieID → rating
	count   map[int64]int               // movieID → 评分条数（派生，供排序与热门兜底）
	sum     map[int64]float64           // movieID → 评分总和

	users  []int64 // 排序后的用户 ID，保证遍历确定性
	total  int     // 总评分条数
	global float64 // 全局均分
}

// Build 从台账快照构建矩阵。
func Build(ctx context.Context, ledger core.RatingLedger) (*Matrix, error) {
	version, err := ledger.Version(ctx)
	if err != nil {
		return nil, err
	}
	all, err := ledger.ListAllRatings(ctx)
	if err != nil {
		return nil, err
	}

	m := &Matrix{
		Version: version,
		ratings: make(map[int64]map[int64]float64),
		count:   make(map[int64]int),
		sum:     make(map[int64]float64),
	}
	var sum float64
	for _, r := range all {
		row := m.ratings[r.UserID]
		if row == nil {
			row = make(map[int64]float64)
			m.ratings[r.UserID] = row
		}
		// (user, movie) 唯一约束由台账保证；重复出现时后写覆盖
		if old, dup := row[r.MovieID]; dup {
			m.sum[r.MovieID] -= old
			sum -= old
		} else {
			m.count[r.MovieID]++
			m.total++
		}
		row[r.MovieID] = float64(r.Value)
		m.sum[r.MovieID] += float64(r.Value)
		sum += float64(r.Value)
	}
	if m.total > 0 {
		m.global = sum / float64(m.total)
	}

	m.users = make([]int64, 0, len(m.ratings))
	for u := range m.ratings {
		m.users = append(m.users, u)
	}
	sort.Slice(m.users, func(i, j int) bool { return m.users[i] < m.users[j] })
	return m, nil
}

// UserRatings 返回用户的评分行（movieID → rating）；无评分用户返回 nil。
// 返回的 map 是矩阵内部数据，调用方不得修改。
func (m *Matrix) UserRatings(userID int64) map[int64]float64 {
	return m.ratings[userID]
}

// Users 返回所有有评分的用户 ID（升序）。
func (m *Matrix) Users() []int64 { return m.users }

// UserRatingCount 返回用户的评分条数。
func (m *Matrix) UserRatingCount(userID int64) int {
	return len(m.ratings[userID])
}

// MovieRatingCount 返回电影的评分条数（从台账重算，不信任外部反规范化值）。
func (m *Matrix) MovieRatingCount(movieID int64) int { return m.count[movieID] }

// MovieAvgRating 返回电影的平均分；无评分时返回 0。
func (m *Matrix) MovieAvgRating(movieID int64) float64 {
	c := m.count[movieID]
	if c == 0 {
		return 0
	}
	return m.sum[movieID] / float64(c)
}

// GlobalAvgRating 返回全局平均分；台账为空时返回 0。
func (m *Matrix) GlobalAvgRating() float64 { return m.global }

// TotalRatings 返回总评分条数。
func (m *Matrix) TotalRatings() int { return m.total }

// UserCount 返回有评分的用户数。
func (m *Matrix) UserCount() int { return len(m.users) }
