package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/interaction"
)

// Popularity 是热门兜底策略：对每部候选电影计算贝叶斯收缩均分
//
//	score(m) = (avg·count + globalAvg·shrinkage) / (count + shrinkage)
//
// 收缩常数把低样本电影往全局均分拉：一条 5 星孤评排不过口碑扎实的老片。
// 分数对所有用户相同，与用户无关，因此天然可整榜缓存。
//
// Store 为可选的榜单缓存后端：命中版本化 key 直接返回，
// 未命中则计算后回写（JSON 全量 + ZAdd TopN，供外层直接读热门榜）。
type Popularity struct {
	Matrix *interaction.Matrix

	// MovieIDs 是候选全集（目录快照中的全部电影，包括零评分的）。
	MovieIDs []int64

	// Shrinkage 收缩常数 m，<= 0 时取 10。
	Shrinkage float64

	// Store 榜单缓存（可选）；Key 前缀之后拼台账版本。
	Store core.KeyValueStore
	Key   string // 例如 "popularity"

	// BoardSize 写入有序集合的榜单长度，<= 0 时取 100。
	BoardSize int
}

func (r *Popularity) Name() string { return "recall.popularity" }

// Score 返回全部候选的收缩均分；目录为空时返回 EMPTY_CATALOG。
// userID 不参与计算（热门榜与用户无关）。
func (r *Popularity) Score(ctx context.Context, userID int64) (core.ScoreMap, error) {
	if len(r.MovieIDs) == 0 {
		return nil, core.ErrEmptyCatalog
	}

	if cached := r.loadCached(ctx); cached != nil {
		return cached, nil
	}

	shrinkage := r.Shrinkage
	if shrinkage <= 0 {
		shrinkage = 10
	}
	global := r.Matrix.GlobalAvgRating()

	scores := make(core.ScoreMap, len(r.MovieIDs))
	for _, movieID := range r.MovieIDs {
		count := float64(r.Matrix.MovieRatingCount(movieID))
		avg := r.Matrix.MovieAvgRating(movieID)
		scores[movieID] = (avg*count + global*shrinkage) / (count + shrinkage)
	}

	r.storeCached(ctx, scores)
	return scores, nil
}

// cacheKey 按台账版本隔离缓存；版本推进后旧榜自然失效。
func (r *Popularity) cacheKey() string {
	return fmt.Sprintf("%s:v%d", r.Key, r.Matrix.Version)
}

func (r *Popularity) loadCached(ctx context.Context) core.ScoreMap {
	if r.Store == nil || r.Key == "" {
		return nil
	}
	data, err := r.Store.Get(ctx, r.cacheKey())
	if err != nil {
		return nil
	}
	var raw map[string]float64
	if json.Unmarshal(data, &raw) != nil {
		return nil
	}
	scores := make(core.ScoreMap, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil
		}
		scores[id] = v
	}
	return scores
}

func (r *Popularity) storeCached(ctx context.Context, scores core.ScoreMap) {
	if r.Store == nil || r.Key == "" {
		return
	}
	raw := make(map[string]float64, len(scores))
	for id, v := range scores {
		raw[strconv.FormatInt(id, 10)] = v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return
	}
	// 回写失败只影响缓存命中率，不影响本次结果
	_ = r.Store.Set(ctx, r.cacheKey(), data)

	boardSize := r.BoardSize
	if boardSize <= 0 {
		boardSize = 100
	}
	type entry struct {
		id    int64
		score float64
	}
	board := make([]entry, 0, len(scores))
	for id, v := range scores {
		board = append(board, entry{id: id, score: v})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].score != board[j].score {
			return board[i].score > board[j].score
		}
		return board[i].id < board[j].id
	})
	if len(board) > boardSize {
		board = board[:boardSize]
	}
	for _, e := range board {
		if err := r.Store.ZAdd(ctx, r.cacheKey()+":board", e.score, strconv.FormatInt(e.id, 10)); err != nil {
			break // 后端不支持 ZAdd 时放弃榜单，全量 JSON 已写入
		}
	}
}
