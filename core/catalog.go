package core

import "context"

// Genre 是电影类型词表中的一项。词表稳定、与顺序无关。
type Genre struct {
	ID   int64
	Name string
}

// Movie 是目录中的一部电影。
//
// RatingCount / AvgRating 是派生字段：引擎从评分台账重新计算后填入快照，
// 不信任外部传入的陈旧反规范化值。
type Movie struct {
	ID          int64
	Title       string
	ReleaseYear int     // 0 表示未知
	Overview    string  // 简介文本，可为空
	Genres      []Genre // 多对多，集合语义

	// 派生字段（由台账重算，见 interaction.Matrix）
	RatingCount int
	AvgRating   float64
}

// HasGenre 检查电影是否带有指定类型。
func (m *Movie) HasGenre(name string) bool {
	for _, g := range m.Genres {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Catalog 是电影目录的领域接口（外部协作方，只读）。
//
// 设计原则：
//   - 定义在领域层（core），由外部持久化层实现
//   - 引擎只依赖快照语义：一次 ListMovies 的结果在本次请求内视为不变
//
// 实现方：
//   - 上层 API 服务挂接真实数据库
//   - 测试中使用内存实现
type Catalog interface {
	// ListMovies 返回目录中所有电影（含类型、简介、年份）
	ListMovies(ctx context.Context) ([]*Movie, error)

	// GetMovie 按 ID 获取电影；不存在时返回 NOT_FOUND
	GetMovie(ctx context.Context, movieID int64) (*Movie, error)

	// Version 返回目录版本号（单调递增，用于缓存失效）
	Version(ctx context.Context) (int64, error)
}

// Catalog 错误定义（使用统一的 DomainError）
var (
	// ErrMovieNotFound 表示电影不存在
	ErrMovieNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: movie not found")

	// ErrEmptyCatalog 表示目录为空，系统不可用
	ErrEmptyCatalog = NewDomainError(ModuleCatalog, ErrorCodeEmptyCatalog, "catalog: no movies")
)
