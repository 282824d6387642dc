package filter

import (
	"context"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/pkg/dsl"
)

// RuleFilter 按 CEL 表达式过滤候选（表达式描述保留条件）。
//
// 运营侧典型用法（配置下发，无需改代码）：
//   - "movie.release_year >= 1980"     只推 1980 年之后的片子
//   - "!('Horror' in movie.genres)"    某场景屏蔽恐怖片
//   - "movie.rating_count >= 5"        至少 5 条评分才可推
//
// 多条规则取与：任一规则不满足即过滤。
type RuleFilter struct {
	rules []*dsl.Rule
}

// NewRuleFilter 编译表达式列表；任一表达式非法即报 INVALID_INPUT。
func NewRuleFilter(exprs []string) (*RuleFilter, error) {
	rules := make([]*dsl.Rule, 0, len(exprs))
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		rule, err := dsl.Compile(expr)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleFilter, core.ErrorCodeInvalidInput, "filter: bad rule "+expr+": "+err.Error())
		}
		rules = append(rules, rule)
	}
	return &RuleFilter{rules: rules}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	for _, rule := range f.rules {
		keep, err := rule.Match(item, rctx)
		if err != nil {
			// 规则求值错误不杀候选（例如 Movie 元数据缺失）
			continue
		}
		if !keep {
			return true, nil
		}
	}
	return false, nil
}
