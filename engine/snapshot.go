package engine

import (
	"context"
	"sort"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/feature"
	"github.com/rushteam/cinekit/interaction"
	"github.com/rushteam/cinekit/recall"
)

// catalogData 是目录侧的缓存单元：电影列表 + 特征向量。
// 按目录版本缓存，与台账版本无关。
type catalogData struct {
	version int64
	movies  []*core.Movie
	vectors *feature.VectorSet
}

// Snapshot 是一次请求使用的不可变数据视图：
// 目录、向量、交互矩阵，以及绑定在其上的三个打分器。
// 同一快照内所有计算版本一致，不混用两个版本的向量。
type Snapshot struct {
	CatalogVersion int64
	LedgerVersion  int64

	// Movies 的 RatingCount / AvgRating 已按本快照的矩阵重算。
	Movies   map[int64]*core.Movie
	MovieIDs []int64 // 升序
	Vectors  *feature.VectorSet
	Matrix   *interaction.Matrix

	// 打分器与快照同生命周期（协同过滤的相似度备忘随快照失效）。
	collab  *recall.Collaborative
	content *recall.Content
	pop     *recall.Popularity
}

// snapshot 组装当前版本的快照，三层缓存各自按版本失效：
// 目录层（向量构建贵）、台账层（矩阵构建贵）、组装层（电影统计重算）。
func (e *Engine) snapshot(ctx context.Context) (*Snapshot, error) {
	catVer, err := e.catalog.Version(ctx)
	if err != nil {
		return nil, err
	}
	ledVer, err := e.ledger.Version(ctx)
	if err != nil {
		return nil, err
	}

	catAny, err := e.cache.Get(ctx, "catalog", catVer, func(ctx context.Context) (any, error) {
		return e.buildCatalogData(ctx, catVer)
	})
	if err != nil {
		return nil, err
	}
	cat := catAny.(*catalogData)

	matAny, err := e.cache.Get(ctx, "matrix", ledVer, func(ctx context.Context) (any, error) {
		return interaction.Build(ctx, e.ledger)
	})
	if err != nil {
		return nil, err
	}
	matrix := matAny.(*interaction.Matrix)

	// 组装层按实际拿到的数据版本为键：开启 ServeStale 时上面两层可能
	// 返回旧版本数据，若按目标版本落键，新版本数据就绪后会被旧组装挡住。
	snapAny, err := e.cache.Get(ctx, "snapshot", mixVersion(cat.version, matrix.Version), func(ctx context.Context) (any, error) {
		return e.assemble(cat, matrix), nil
	})
	if err != nil {
		return nil, err
	}
	return snapAny.(*Snapshot), nil
}

func (e *Engine) buildCatalogData(ctx context.Context, version int64) (*catalogData, error) {
	movies, err := e.catalog.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, core.ErrEmptyCatalog
	}

	var vectors *feature.VectorSet
	if e.provider != nil {
		ids := make([]int64, len(movies))
		for i, m := range movies {
			ids[i] = m.ID
		}
		vecs, err := e.provider.MovieVectors(ctx, ids)
		if err != nil {
			return nil, err
		}
		vectors = feature.NewExternalVectorSet(version, vecs)
	} else {
		extractor := &feature.Extractor{VocabSize: e.cfg.VocabSize}
		vectors, err = extractor.Build(ctx, movies, version)
		if err != nil {
			return nil, err
		}
	}

	return &catalogData{version: version, movies: movies, vectors: vectors}, nil
}

// assemble 把目录数据与矩阵拼成快照。电影结构体做浅拷贝后
// 重算评分统计，目录提供方持有的原对象不被修改。
func (e *Engine) assemble(cat *catalogData, matrix *interaction.Matrix) *Snapshot {
	snap := &Snapshot{
		CatalogVersion: cat.version,
		LedgerVersion:  matrix.Version,
		Movies:         make(map[int64]*core.Movie, len(cat.movies)),
		MovieIDs:       make([]int64, 0, len(cat.movies)),
		Vectors:        cat.vectors,
		Matrix:         matrix,
	}
	for _, m := range cat.movies {
		mc := *m
		mc.RatingCount = matrix.MovieRatingCount(m.ID)
		mc.AvgRating = matrix.MovieAvgRating(m.ID)
		snap.Movies[mc.ID] = &mc
		snap.MovieIDs = append(snap.MovieIDs, mc.ID)
	}
	sort.Slice(snap.MovieIDs, func(i, j int) bool { return snap.MovieIDs[i] < snap.MovieIDs[j] })

	snap.collab = &recall.Collaborative{
		Matrix:     matrix,
		NeighborK:  e.cfg.NeighborK,
		MinOverlap: e.cfg.MinOverlap,
	}
	snap.content = &recall.Content{
		Matrix:        matrix,
		Vectors:       cat.vectors,
		MinSimilarity: e.cfg.MinSimilarity,
	}
	snap.pop = &recall.Popularity{
		Matrix:    matrix,
		MovieIDs:  snap.MovieIDs,
		Shrinkage: e.cfg.PopularityShrinkage,
		Store:     e.kv,
		Key:       "popularity",
	}
	return snap
}

// mixVersion 把目录/台账两个版本号折叠成组装层的缓存版本。
// 只用于相等性判断，不要求单调。
func mixVersion(catVer, ledVer int64) int64 {
	return catVer<<32 ^ ledVer
}
