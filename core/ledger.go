package core

import (
	"context"
	"time"
)

// Rating 是 (user, movie) 的一条评分。每个用户对每部电影至多一条有效评分；
// 更新即替换分值，删除即移除该对。
type Rating struct {
	UserID    int64
	MovieID   int64
	Value     int // 整数，取值 [1,5]
	CreatedAt time.Time
}

// RatingLedger 是评分台账的领域接口（外部协作方，读 + 追加）。
//
// Version 单调递增：台账任何变化都会推进版本号，引擎以此判定快照失效。
// 同一版本下两次 ListAllRatings 必须返回同一集合。
type RatingLedger interface {
	// ListRatingsForUser 返回指定用户的全部评分
	ListRatingsForUser(ctx context.Context, userID int64) ([]*Rating, error)

	// ListAllRatings 返回台账中全部评分
	ListAllRatings(ctx context.Context) ([]*Rating, error)

	// Version 返回台账版本号（单调递增，用于缓存失效）
	Version(ctx context.Context) (int64, error)
}

// Ledger 错误定义
var (
	// ErrUserNotFound 表示用户不存在
	ErrUserNotFound = NewDomainError(ModuleLedger, ErrorCodeNotFound, "ledger: user not found")
)
