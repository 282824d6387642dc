package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Catalog 错误：NOT_FOUND, EMPTY_CATALOG
//   - 策略错误：INSUFFICIENT_DATA（可恢复，调用方按降级顺序回退）
//   - 缓存错误：REBUILD_TIMEOUT（可恢复，等同 INSUFFICIENT_DATA 处理）
//   - 入参错误：INVALID_INPUT（未知策略名、非正数 limit 等）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INSUFFICIENT_DATA"）
	Message string // 错误消息
	Module  string // 模块名称（如 "catalog", "recall", "cache"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound         = "NOT_FOUND"         // 用户/电影不存在，直接上抛，不重试
	ErrorCodeInsufficientData = "INSUFFICIENT_DATA" // 策略无法给任何候选打分，可恢复
	ErrorCodeEmptyCatalog     = "EMPTY_CATALOG"     // 目录为空，系统不可用
	ErrorCodeInvalidInput     = "INVALID_INPUT"     // 输入无效，直接上抛，不重试
	ErrorCodeRebuildTimeout   = "REBUILD_TIMEOUT"   // 缓存重建超时，可恢复
	ErrorCodeNotSupported     = "NOT_SUPPORTED"     // 操作不支持（Store 后端能力差异）
)

// 模块名称常量
const (
	ModuleCatalog = "catalog" // 电影目录
	ModuleLedger  = "ledger"  // 评分台账
	ModuleRecall  = "recall"  // 召回/打分策略
	ModuleCache   = "cache"   // 快照缓存
	ModuleEngine  = "engine"  // 引擎入口
	ModuleStore   = "store"   // 存储后端
	ModuleFilter  = "filter"  // 候选过滤
)

// hasCode 检查错误是否携带指定错误代码
func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsInsufficientData 检查错误是否为 INSUFFICIENT_DATA。
// REBUILD_TIMEOUT 对调用方等同于 INSUFFICIENT_DATA：该请求可降级到 Popularity。
func IsInsufficientData(err error) bool {
	return hasCode(err, ErrorCodeInsufficientData) || hasCode(err, ErrorCodeRebuildTimeout)
}

// IsEmptyCatalog 检查错误是否为 EMPTY_CATALOG
func IsEmptyCatalog(err error) bool { return hasCode(err, ErrorCodeEmptyCatalog) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsRebuildTimeout 检查错误是否为 REBUILD_TIMEOUT
func IsRebuildTimeout(err error) bool { return hasCode(err, ErrorCodeRebuildTimeout) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }
