// Package feast 提供基于 Feast Feature Server 的电影向量来源，
// 实现 core.VectorProvider。预计算的电影向量（离线训练的 embedding）
// 存放在 Feast 在线存储中，按 movie_id 批量取回。
//
// 本地构建的 TF-IDF 向量（feature.Extractor）是默认来源，
// Feast 来源用于已有离线特征管道的部署。
package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/cinekit/core"
	"github.com/rushteam/cinekit/feature"
)

// VectorStore 通过 Feast gRPC 在线接口取电影向量。
type VectorStore struct {
	client *feastsdk.GrpcClient

	// Project 是 Feast 项目名。
	Project string

	// Feature 是向量特征的全名，如 "movie_embeddings:vector"。
	Feature string

	// EntityKey 是实体键名，默认 "movie_id"。
	EntityKey string

	// Timeout 是单次在线查询的超时，默认 5s。
	Timeout time.Duration
}

// Option 配置 VectorStore。
type Option func(*VectorStore)

func WithEntityKey(key string) Option {
	return func(s *VectorStore) { s.EntityKey = key }
}

func WithTimeout(d time.Duration) Option {
	return func(s *VectorStore) { s.Timeout = d }
}

// NewVectorStore 连接 Feast Feature Server（gRPC，默认端口 6565）。
func NewVectorStore(host string, port int, project, featureName string, opts ...Option) (*VectorStore, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast: connect %s:%d: %w", host, port, err)
	}

	s := &VectorStore{
		client:    client,
		Project:   project,
		Feature:   featureName,
		EntityKey: "movie_id",
		Timeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ core.VectorProvider = (*VectorStore)(nil)

// MovieVectors 批量取电影向量。在线存储中没有向量的电影不出现在结果里；
// 取回的向量统一做 L2 归一化，保证余弦相似度可用点积计算。
func (s *VectorStore) MovieVectors(ctx context.Context, movieIDs []int64) (map[int64][]float64, error) {
	if len(movieIDs) == 0 {
		return map[int64][]float64{}, nil
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	rows := make([]feastsdk.Row, len(movieIDs))
	for i, id := range movieIDs {
		rows[i] = feastsdk.Row{s.EntityKey: feastsdk.Int64Val(id)}
	}

	resp, err := s.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: []string{s.Feature},
		Entities: rows,
		Project:  s.Project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast: get online features: %w", err)
	}

	respRows := resp.Rows()
	if len(respRows) != len(movieIDs) {
		return nil, fmt.Errorf("feast: row count mismatch: sent %d, got %d", len(movieIDs), len(respRows))
	}

	out := make(map[int64][]float64, len(movieIDs))
	for i, row := range respRows {
		vec := doubleList(row[s.Feature])
		if len(vec) == 0 {
			continue
		}
		feature.L2Normalize(vec)
		out[movieIDs[i]] = vec
	}
	return out, nil
}

func (s *VectorStore) Close() error {
	s.client = nil
	return nil
}

// doubleList 从 Feast 值中取 double/float 列表，其余类型视为缺失。
func doubleList(v *feasttypes.Value) []float64 {
	if v == nil {
		return nil
	}
	if l := v.GetDoubleListVal(); l != nil {
		out := make([]float64, len(l.Val))
		copy(out, l.Val)
		return out
	}
	if l := v.GetFloatListVal(); l != nil {
		out := make([]float64, len(l.Val))
		for i, f := range l.Val {
			out[i] = float64(f)
		}
		return out
	}
	return nil
}
