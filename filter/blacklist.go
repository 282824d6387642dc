package filter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/cinekit/core"
)

// BlacklistFilter 过滤掉用户主动屏蔽（"不感兴趣"）的电影。
// 屏蔽列表以 JSON 数组形式存放在 Store 中，key 为 {KeyPrefix}:{userID}。
type BlacklistFilter struct {
	Store core.Store

	// KeyPrefix 默认 "blacklist"。
	KeyPrefix string
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) key(userID int64) string {
	prefix := f.KeyPrefix
	if prefix == "" {
		prefix = "blacklist"
	}
	return fmt.Sprintf("%s:%d", prefix, userID)
}

func (f *BlacklistFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Store == nil || rctx == nil {
		return false, nil
	}
	data, err := f.Store.Get(ctx, f.key(rctx.UserID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return false, nil
		}
		return false, err
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return false, nil
	}
	for _, id := range ids {
		if id == item.ID {
			return true, nil
		}
	}
	return false, nil
}

// Block 把电影加入用户的屏蔽列表（幂等）。
func (f *BlacklistFilter) Block(ctx context.Context, userID, movieID int64) error {
	if f.Store == nil {
		return core.ErrStoreNotSupported
	}
	var ids []int64
	if data, err := f.Store.Get(ctx, f.key(userID)); err == nil {
		_ = json.Unmarshal(data, &ids)
	}
	for _, id := range ids {
		if id == movieID {
			return nil
		}
	}
	ids = append(ids, movieID)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return f.Store.Set(ctx, f.key(userID), data)
}
