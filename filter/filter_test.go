package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/store"
)

func mkItem(id int64, releaseYear int, genres ...string) *core.Item {
	it := core.NewItem(id)
	it.Movie = &core.Movie{ID: id, Title: "m", ReleaseYear: releaseYear}
	for i, g := range genres {
		it.Movie.Genres = append(it.Movie.Genres, core.Genre{ID: int64(i + 1), Name: g})
	}
	return it
}

func TestRatedFilter(t *testing.T) {
	f := &RatedFilter{RatedMovies: func(userID int64) map[int64]float64 {
		if userID == 1 {
			return map[int64]float64{10: 5}
		}
		return nil
	}}
	rctx := &core.RecommendContext{UserID: 1}

	if ok, _ := f.ShouldFilter(context.Background(), rctx, mkItem(10, 2000)); !ok {
		t.Error("rated movie should be filtered")
	}
	if ok, _ := f.ShouldFilter(context.Background(), rctx, mkItem(11, 2000)); ok {
		t.Error("unrated movie should pass")
	}

	// 其他用户不受影响
	other := &core.RecommendContext{UserID: 2}
	if ok, _ := f.ShouldFilter(context.Background(), other, mkItem(10, 2000)); ok {
		t.Error("movie rated by someone else should pass")
	}
}

func TestRuleFilter(t *testing.T) {
	f, err := NewRuleFilter([]string{
		"movie.release_year >= 1980",
		"!('Horror' in movie.genres)",
	})
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}

	tests := []struct {
		name string
		item *core.Item
		want bool
	}{
		{"passes all rules", mkItem(1, 2000, "Action"), false},
		{"too old", mkItem(2, 1960, "Action"), true},
		{"blocked genre", mkItem(3, 2000, "Horror"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), &core.RecommendContext{UserID: 1}, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleFilterBadExpression(t *testing.T) {
	_, err := NewRuleFilter([]string{"movie.release_year >=== 1980"})
	if !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestBlacklistFilter(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()

	f := &BlacklistFilter{Store: kv}
	ctx := context.Background()

	if err := f.Block(ctx, 1, 10); err != nil {
		t.Fatalf("Block: %v", err)
	}
	// 幂等
	if err := f.Block(ctx, 1, 10); err != nil {
		t.Fatalf("Block twice: %v", err)
	}

	rctx := &core.RecommendContext{UserID: 1}
	if ok, _ := f.ShouldFilter(ctx, rctx, mkItem(10, 2000)); !ok {
		t.Error("blocked movie should be filtered")
	}
	if ok, _ := f.ShouldFilter(ctx, rctx, mkItem(11, 2000)); ok {
		t.Error("unblocked movie should pass")
	}

	other := &core.RecommendContext{UserID: 2}
	if ok, _ := f.ShouldFilter(ctx, other, mkItem(10, 2000)); ok {
		t.Error("blacklist is per-user")
	}
}

func TestFilterNode(t *testing.T) {
	f, err := NewRuleFilter([]string{"movie.release_year >= 1980"})
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}
	node := &FilterNode{Filters: []Filter{f}}

	items := []*core.Item{
		mkItem(1, 2000),
		mkItem(2, 1960),
		nil,
		mkItem(3, 1990),
	}
	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: 1}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].ID != 1 || out[1].ID != 3 {
		t.Errorf("kept = [%d %d], want [1 3]", out[0].ID, out[1].ID)
	}
	// 被过滤的候选带上溯源标签
	if items[1].GetLabel("filtered") != "true" {
		t.Errorf("filtered item should carry the filtered label")
	}
}

type failingFilter struct{}

func (failingFilter) Name() string { return "filter.failing" }

func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("backend unavailable")
}

func TestFilterNodeErrorKeepsCandidate(t *testing.T) {
	node := &FilterNode{Filters: []Filter{failingFilter{}}}
	rctx := &core.RecommendContext{UserID: 1}

	items := []*core.Item{mkItem(1, 2000), mkItem(2, 1990)}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// 过滤器出错不丢候选
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	// 错误要可溯源：记在请求级标签上
	lbl, ok := rctx.GetLabel("filter_error")
	if !ok {
		t.Fatal("filter_error label missing")
	}
	if lbl.Source != "filter.failing" {
		t.Errorf("label source = %q, want filter.failing", lbl.Source)
	}
	if lbl.Value == "" {
		t.Error("label value should carry the error message")
	}
}
