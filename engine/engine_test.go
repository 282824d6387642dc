package engine

import (
	"context"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/store"
)

type fakeCatalog struct {
	movies  []*core.Movie
	version int64
}

func (c *fakeCatalog) ListMovies(ctx context.Context) ([]*core.Movie, error) {
	return c.movies, nil
}

func (c *fakeCatalog) GetMovie(ctx context.Context, movieID int64) (*core.Movie, error) {
	for _, m := range c.movies {
		if m.ID == movieID {
			return m, nil
		}
	}
	return nil, core.ErrMovieNotFound
}

func (c *fakeCatalog) Version(ctx context.Context) (int64, error) {
	return c.version, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	ratings []*core.Rating
	version int64
}

func (l *fakeLedger) ListRatingsForUser(ctx context.Context, userID int64) ([]*core.Rating, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*core.Rating
	for _, r := range l.ratings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *fakeLedger) ListAllRatings(ctx context.Context) ([]*core.Rating, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*core.Rating, len(l.ratings))
	copy(out, l.ratings)
	return out, nil
}

func (l *fakeLedger) Version(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version, nil
}

func (l *fakeLedger) add(userID, movieID int64, value int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ratings = append(l.ratings, &core.Rating{UserID: userID, MovieID: movieID, Value: value})
	l.version++
}

func testMovies() []*core.Movie {
	action := core.Genre{ID: 1, Name: "Action"}
	scifi := core.Genre{ID: 2, Name: "Sci-Fi"}
	crime := core.Genre{ID: 3, Name: "Crime"}
	horror := core.Genre{ID: 4, Name: "Horror"}
	romance := core.Genre{ID: 5, Name: "Romance"}
	thriller := core.Genre{ID: 6, Name: "Thriller"}
	return []*core.Movie{
		{ID: 1, Title: "The Matrix", ReleaseYear: 1999, Genres: []core.Genre{action, scifi},
			Overview: "a hacker discovers reality is a simulation"},
		{ID: 2, Title: "Inception", ReleaseYear: 2010, Genres: []core.Genre{action, scifi},
			Overview: "a thief steals secrets through shared dreams"},
		{ID: 3, Title: "Heat", ReleaseYear: 1995, Genres: []core.Genre{action, crime},
			Overview: "a detective hunts a methodical bank robber"},
		{ID: 4, Title: "Alien", ReleaseYear: 1979, Genres: []core.Genre{scifi, horror},
			Overview: "a deep space crew is stalked by a lethal creature"},
		{ID: 5, Title: "Amelie", ReleaseYear: 2001, Genres: []core.Genre{romance},
			Overview: "a shy waitress schemes to improve the lives around her"},
		{ID: 6, Title: "Se7en", ReleaseYear: 1995, Genres: []core.Genre{crime, thriller},
			Overview: "two investigators track a serial killer driven by sin"},
	}
}

// testLedger 的评分布局（默认阈值 cold=1, hybrid=5）：
//
//	用户 1：5 条评分 → hybrid
//	用户 2：3 条评分 → content
//	用户 3：1 条评分 → content
//	用户 9：无评分   → popularity
func testLedger() *fakeLedger {
	l := &fakeLedger{}
	l.add(1, 1, 5)
	l.add(1, 2, 4)
	l.add(1, 3, 4)
	l.add(1, 4, 5)
	l.add(1, 6, 3)
	l.add(2, 1, 5)
	l.add(2, 2, 4)
	l.add(2, 5, 2)
	l.add(3, 5, 4)
	return l
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *fakeLedger) {
	t.Helper()
	ledger := testLedger()
	e, err := New(&fakeCatalog{movies: testMovies(), version: 1}, ledger, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, ledger
}

func strategies(recs []*core.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Strategy
	}
	return out
}

func recIDs(recs []*core.Recommendation) []int64 {
	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.Movie.ID
	}
	return ids
}

func TestRecommendAdaptiveSelector(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   int64
		strategy string
	}{
		{"heavy rater gets hybrid", 1, "hybrid"},
		{"moderate rater gets content", 2, "content"},
		{"single rating gets content", 3, "content"},
		{"cold user gets popularity", 9, "popularity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := e.Recommend(ctx, tt.userID, core.StrategyAdaptive, 10)
			if err != nil {
				t.Fatalf("Recommend: %v", err)
			}
			if len(recs) == 0 {
				t.Fatal("no recommendations")
			}
			for _, r := range recs {
				if r.Strategy != tt.strategy {
					t.Errorf("movie %d strategy = %q, want %q", r.Movie.ID, r.Strategy, tt.strategy)
				}
				if r.Reason == "" {
					t.Errorf("movie %d has empty reason", r.Movie.ID)
				}
			}
		})
	}
}

func TestRecommendNeverContainsRated(t *testing.T) {
	e, ledger := newTestEngine(t)
	ctx := context.Background()

	rated := make(map[int64]map[int64]bool)
	for _, r := range ledger.ratings {
		if rated[r.UserID] == nil {
			rated[r.UserID] = make(map[int64]bool)
		}
		rated[r.UserID][r.MovieID] = true
	}

	for _, userID := range []int64{1, 2, 3} {
		recs, err := e.Recommend(ctx, userID, core.StrategyAdaptive, 10)
		if err != nil {
			t.Fatalf("user %d: %v", userID, err)
		}
		for _, r := range recs {
			if rated[userID][r.Movie.ID] {
				t.Errorf("user %d recommended already-rated movie %d", userID, r.Movie.ID)
			}
		}
	}
}

func TestRecommendScoreBounds(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	for _, userID := range []int64{1, 2, 3, 9} {
		recs, err := e.Recommend(ctx, userID, core.StrategyAdaptive, 10)
		if err != nil {
			t.Fatalf("user %d: %v", userID, err)
		}
		for _, r := range recs {
			if r.Score < 0 || r.Score > 1 {
				t.Errorf("user %d movie %d score %v out of [0,1]", userID, r.Movie.ID, r.Score)
			}
		}
	}
}

func TestRecommendDeterministic(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	for _, userID := range []int64{2, 9} {
		first, err := e.Recommend(ctx, userID, core.StrategyAdaptive, 10)
		if err != nil {
			t.Fatalf("user %d: %v", userID, err)
		}
		second, err := e.Recommend(ctx, userID, core.StrategyAdaptive, 10)
		if err != nil {
			t.Fatalf("user %d: %v", userID, err)
		}
		if len(first) != len(second) {
			t.Fatalf("user %d: lengths %d vs %d", userID, len(first), len(second))
		}
		for i := range first {
			if first[i].Movie.ID != second[i].Movie.ID || first[i].Score != second[i].Score {
				t.Errorf("user %d pos %d: (%d, %v) vs (%d, %v)", userID, i,
					first[i].Movie.ID, first[i].Score, second[i].Movie.ID, second[i].Score)
			}
		}
	}
}

func TestRecommendLimit(t *testing.T) {
	e, _ := newTestEngine(t)

	recs, err := e.Recommend(context.Background(), 9, core.StrategyPopularity, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("len = %d, want 3", len(recs))
	}
}

func TestRecommendInvalidInput(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Recommend(ctx, 1, core.StrategyAdaptive, 0); !core.IsInvalidInput(err) {
		t.Errorf("limit 0: err = %v, want INVALID_INPUT", err)
	}
	if _, err := e.Recommend(ctx, 1, core.Strategy("magic"), 10); !core.IsInvalidInput(err) {
		t.Errorf("unknown strategy: err = %v, want INVALID_INPUT", err)
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	e, err := New(&fakeCatalog{version: 1}, &fakeLedger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Recommend(context.Background(), 1, core.StrategyAdaptive, 10); !core.IsEmptyCatalog(err) {
		t.Errorf("err = %v, want EMPTY_CATALOG", err)
	}
}

func TestRecommendExplicitStrategyDegrades(t *testing.T) {
	e, _ := newTestEngine(t)

	// 无评分用户显式要协同过滤：沿降级序列落到热门兜底，不报错
	recs, err := e.Recommend(context.Background(), 9, core.StrategyCollaborative, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no recommendations after degradation")
	}
	for _, r := range recs {
		if r.Strategy != "popularity" {
			t.Errorf("movie %d strategy = %q, want popularity", r.Movie.ID, r.Strategy)
		}
	}
}

func TestRecommendHybridSingleEngine(t *testing.T) {
	e, _ := newTestEngine(t)

	// 用户 3 只有一条评分：协同过滤无邻居，hybrid 退化为纯内容分，
	// 策略标签仍是 hybrid（融合器对在场一路重归一化权重）。
	recs, err := e.Recommend(context.Background(), 3, core.StrategyHybrid, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no recommendations")
	}
	for _, r := range recs {
		if r.Strategy != "hybrid" {
			t.Errorf("movie %d strategy = %q, want hybrid", r.Movie.ID, r.Strategy)
		}
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("movie %d score %v out of [0,1]", r.Movie.ID, r.Score)
		}
	}
}

func TestLedgerVersionAdvancesSnapshot(t *testing.T) {
	e, ledger := newTestEngine(t)
	ctx := context.Background()

	recs, err := e.Recommend(ctx, 9, core.StrategyAdaptive, 10)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	if recs[0].Strategy != "popularity" {
		t.Fatalf("before: strategy = %q, want popularity", recs[0].Strategy)
	}

	// 新评分推进台账版本，下一次请求重建快照并跨过冷启动阈值
	ledger.add(9, 1, 5)
	recs, err = e.Recommend(ctx, 9, core.StrategyAdaptive, 10)
	if err != nil {
		t.Fatalf("after: %v", err)
	}
	for _, r := range recs {
		if r.Strategy != "content" {
			t.Errorf("after: movie %d strategy = %q, want content", r.Movie.ID, r.Strategy)
		}
		if r.Movie.ID == 1 {
			t.Error("after: rated movie 1 still recommended")
		}
	}
}

func TestServeStaleConverges(t *testing.T) {
	e, ledger := newTestEngine(t, WithServeStale())
	ctx := context.Background()

	recs, err := e.Recommend(ctx, 9, core.StrategyAdaptive, 10)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("before: no recommendations")
	}
	if recs[0].Strategy != "popularity" {
		t.Fatalf("before: strategy = %q, want popularity", recs[0].Strategy)
	}

	// 台账版本推进后，前几次请求允许拿旧快照，
	// 但后台重建完成之后必须收敛到新数据。
	ledger.add(9, 1, 5)

	deadline := time.Now().Add(2 * time.Second)
	for {
		recs, err = e.Recommend(ctx, 9, core.StrategyAdaptive, 10)
		if err != nil {
			t.Fatalf("after: %v", err)
		}
		if len(recs) > 0 && recs[0].Strategy == "content" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never converged, last strategies: %v", strategies(recs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDiversityReordersFinalPage(t *testing.T) {
	ctx := context.Background()

	plain, _ := newTestEngine(t)
	recs, err := plain.Recommend(ctx, 9, core.StrategyPopularity, 10)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	if got, want := recIDs(recs), []int64{1, 4, 2, 3, 6, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("plain order = %v, want %v", got, want)
	}

	// 打散作用在截断后的最终页上：Matrix 之后的同类型影片推后，
	// 总集合不变。
	spread, _ := newTestEngine(t, WithDiversity(1, 3))
	recs, err = spread.Recommend(ctx, 9, core.StrategyPopularity, 10)
	if err != nil {
		t.Fatalf("diversity: %v", err)
	}
	if got, want := recIDs(recs), []int64{1, 6, 5, 4, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("diversity order = %v, want %v", got, want)
	}
}

func TestSimilarTo(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	recs, err := e.SimilarTo(ctx, 1, 3)
	if err != nil {
		t.Fatalf("SimilarTo: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no similar movies")
	}
	// Inception 与锚点共享两个类型，必须排最前
	if recs[0].Movie.ID != 2 {
		t.Errorf("top similar = %d, want 2", recs[0].Movie.ID)
	}
	for _, r := range recs {
		if r.Movie.ID == 1 {
			t.Error("anchor movie in its own similar list")
		}
		if r.Reason != "similar to The Matrix" {
			t.Errorf("reason = %q", r.Reason)
		}
	}
}

func TestSimilarToErrors(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.SimilarTo(ctx, 999, 5); !core.IsNotFound(err) {
		t.Errorf("unknown movie: err = %v, want NOT_FOUND", err)
	}
	if _, err := e.SimilarTo(ctx, 1, 0); !core.IsInvalidInput(err) {
		t.Errorf("limit 0: err = %v, want INVALID_INPUT", err)
	}
}

func TestBlockWithoutStore(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Block(context.Background(), 1, 2); !core.IsNotSupported(err) {
		t.Errorf("err = %v, want NOT_SUPPORTED", err)
	}
}

func TestBlockFiltersRecommendations(t *testing.T) {
	e, _ := newTestEngine(t, WithKeyValueStore(store.NewMemoryStore()))
	ctx := context.Background()

	recs, err := e.Recommend(ctx, 9, core.StrategyPopularity, 10)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	found := false
	for _, id := range recIDs(recs) {
		if id == 1 {
			found = true
		}
	}
	if !found {
		t.Fatal("before: movie 1 missing from popularity list")
	}

	if err := e.Block(ctx, 9, 1); err != nil {
		t.Fatalf("Block: %v", err)
	}
	recs, err = e.Recommend(ctx, 9, core.StrategyPopularity, 10)
	if err != nil {
		t.Fatalf("after: %v", err)
	}
	for _, id := range recIDs(recs) {
		if id == 1 {
			t.Error("after: blocked movie 1 still recommended")
		}
	}
}

func TestFilterRules(t *testing.T) {
	cfg := core.DefaultEngineConfig()
	cfg.FilterRules = []string{"movie.release_year >= 1990"}
	e, _ := newTestEngine(t, WithConfig(cfg))

	recs, err := e.Recommend(context.Background(), 9, core.StrategyPopularity, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, r := range recs {
		if r.Movie.ReleaseYear < 1990 {
			t.Errorf("movie %d (%d) passed the release-year rule", r.Movie.ID, r.Movie.ReleaseYear)
		}
	}
}

func TestNewRejectsBadRule(t *testing.T) {
	cfg := core.DefaultEngineConfig()
	cfg.FilterRules = []string{"movie.release_year >=="}
	_, err := New(&fakeCatalog{movies: testMovies(), version: 1}, testLedger(), WithConfig(cfg))
	if !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestUserStats(t *testing.T) {
	e, _ := newTestEngine(t)

	st, err := e.UserStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if st.RatingCount != 5 {
		t.Errorf("RatingCount = %d, want 5", st.RatingCount)
	}
	want := (5 + 4 + 4 + 5 + 3) / 5.0
	if math.Abs(st.AvgRating-want) > 1e-9 {
		t.Errorf("AvgRating = %v, want %v", st.AvgRating, want)
	}
	sum := 0
	for _, n := range st.RatingDistribution {
		sum += n
	}
	if sum != st.RatingCount {
		t.Errorf("distribution sums to %d, want %d", sum, st.RatingCount)
	}
}

func TestSystemStats(t *testing.T) {
	e, _ := newTestEngine(t)

	st, err := e.SystemStats(context.Background())
	if err != nil {
		t.Fatalf("SystemStats: %v", err)
	}
	if st.TotalMovies != 6 || st.TotalUsers != 3 || st.TotalRatings != 9 {
		t.Errorf("stats = %+v, want 6 movies / 3 users / 9 ratings", st)
	}
	if math.Abs(st.RatingsPerMovie-1.5) > 1e-9 {
		t.Errorf("RatingsPerMovie = %v, want 1.5", st.RatingsPerMovie)
	}
}

func TestEvaluate(t *testing.T) {
	e, _ := newTestEngine(t)

	// 用户 2 未评分候选只有 {3,4,6}；留出集标记 3 为喜欢
	heldOut := map[int64]map[int64]float64{
		2: {3: 5},
	}
	m, err := e.Evaluate(context.Background(), core.StrategyContent, heldOut, 10)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if m.HitRate != 1 {
		t.Errorf("HitRate = %v, want 1", m.HitRate)
	}
	if m.Recall != 1 {
		t.Errorf("Recall = %v, want 1", m.Recall)
	}
	if math.Abs(m.Precision-1.0/3) > 1e-9 {
		t.Errorf("Precision = %v, want 1/3", m.Precision)
	}
}
