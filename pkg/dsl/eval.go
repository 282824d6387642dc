// Package dsl 是候选过滤规则的解释器，使用 CEL (Common Expression Language) 实现。
// CEL 是 Google 开发的表达式语言，具有类型安全、高性能、线程安全等特性。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/cinekit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("movie", cel.DynType),
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// Rule 是一条编译后的过滤表达式，可对多个候选反复求值。
//
// 表达式语法（CEL 标准语法）：
//   - 元数据：movie.release_year >= 1980 / "Action" in movie.genres
//   - 分数：item.score > 0.7
//   - 标签：label.strategy == "popularity"
//   - 组合：movie.rating_count >= 10 && item.score > 0.5
//
// 表达式描述的是"保留条件"：求值为 false 的候选被过滤。
type Rule struct {
	Expr string
	prg  cel.Program
}

// Compile 编译表达式。编译一次，之后可并发调用 Match。
func Compile(expr string) (*Rule, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Rule{Expr: expr, prg: prg}, nil
}

// Match 对一个候选求值，返回表达式结果。
// 表达式必须返回布尔值；访问不存在的 key 会报错，
// 存在性检查请使用 label.key != null 的写法。
func (r *Rule) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := r.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labelAccessor := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labelAccessor[k] = v.Value
	}

	movie := map[string]any{}
	if it.Movie != nil {
		genres := make([]string, 0, len(it.Movie.Genres))
		for _, g := range it.Movie.Genres {
			genres = append(genres, g.Name)
		}
		movie = map[string]any{
			"id":           it.Movie.ID,
			"title":        it.Movie.Title,
			"release_year": it.Movie.ReleaseYear,
			"genres":       genres,
			"rating_count": it.Movie.RatingCount,
			"avg_rating":   it.Movie.AvgRating,
		}
	}

	input := map[string]any{
		"movie": movie,
		"item": map[string]any{
			"id":    it.ID,
			"score": it.Score,
		},
		"label": labelAccessor,
	}
	if rctx != nil {
		input["rctx"] = map[string]any{
			"user_id": rctx.UserID,
			"limit":   rctx.Limit,
			"params":  rctx.Params,
		}
	} else {
		input["rctx"] = map[string]any{}
	}
	return input
}
