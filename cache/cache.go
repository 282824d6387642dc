// Package cache 缓存昂贵的快照产物（交互矩阵、特征向量集、热门榜）。
//
// 并发约定（引擎唯一的共享可变资源在这里收口）：
//   - 同一 key 同时至多一次重建：晚到的请求等待进行中的重建，
//     而不是触发第二次（golang.org/x/sync/singleflight）
//   - 重建有超时上限，超时对该请求返回 REBUILD_TIMEOUT（可恢复），
//     重建本身继续在后台完成，供后续请求使用
//   - 可选 serve-while-revalidate：存在旧版本时直接返回旧值，
//     新版本在后台重建；单次返回值内部自洽（整值替换，不会新旧混用）
//   - 请求方取消只影响它自己的等待，不会打断其他请求共享的重建
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/cinekit/core"
)

// ErrRebuildTimeout 表示一次重建超过了时间上限（可恢复，调用方降级处理）。
var ErrRebuildTimeout = core.NewDomainError(core.ModuleCache, core.ErrorCodeRebuildTimeout, "cache: rebuild timed out")

// Service 是版本化的单飞缓存。
type Service struct {
	// RebuildTimeout 单次重建的等待上限，<= 0 时取 5s。
	RebuildTimeout time.Duration

	// ServeStale 为 true 时，版本过期但有旧值的 key 先返回旧值，
	// 新版本在后台重建（serve-while-revalidate）。
	ServeStale bool

	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group
}

type entry struct {
	version int64
	value   any
}

// Rebuild 重建某个 key 的值。收到的 ctx 与任何单个请求方解耦，
// 只受重建超时约束。
type Rebuild func(ctx context.Context) (any, error)

// Get 返回 key 在指定版本下的值，必要时触发（或等待）一次重建。
func (s *Service) Get(ctx context.Context, key string, version int64, rebuild Rebuild) (any, error) {
	s.mu.RLock()
	cur, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && cur.version == version {
		return cur.value, nil
	}

	timeout := s.RebuildTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	// singleflight 按 key+version 合并并发重建
	flightKey := fmt.Sprintf("%s@%d", key, version)
	ch := s.group.DoChan(flightKey, func() (any, error) {
		// 与请求方 ctx 解耦：单个请求放弃不应打断共享重建
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		value, err := rebuild(buildCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.entries == nil {
			s.entries = make(map[string]*entry)
		}
		s.entries[key] = &entry{version: version, value: value}
		s.mu.Unlock()
		return value, nil
	})

	// serve-while-revalidate：有旧值就先用旧值，重建已在路上
	if ok && s.ServeStale {
		return cur.value, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	case <-timer.C:
		return nil, ErrRebuildTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek 返回 key 当前缓存的值与版本（不触发重建）。
func (s *Service) Peek(key string) (any, int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[key]; ok {
		return e.value, e.version, true
	}
	return nil, 0, false
}

// Invalidate 删除 key 的缓存值。
func (s *Service) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}
