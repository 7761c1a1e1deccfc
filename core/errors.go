package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Pipeline 错误：NOT_FITTED, INVALID_INPUT
//   - Template 错误：NOT_FOUND, INVALID_INPUT
//   - Tuner 错误：EXHAUSTED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NOT_FITTED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "pipeline", "tuner"）
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
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeNotFitted     = "NOT_FITTED"     // Pipeline 尚未 Fit
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeExhausted     = "EXHAUSTED"      // 候选已耗尽（所有模板均被淘汰）
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModulePipeline = "pipeline" // 流水线执行模块
	ModuleTemplate = "template" // 模板模块
	ModuleTuner    = "tuner"    // 调参模块
	ModuleMetric   = "metric"   // 指标模块
	ModuleDataset  = "dataset"  // 数据集模块
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotFitted 检查错误是否为 NOT_FITTED
func IsNotFitted(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFitted
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsExhausted 检查错误是否为 EXHAUSTED
func IsExhausted(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeExhausted
	}
	return false
}

// ErrNotFitted 表示在 Fit 之前调用了 Predict。
var ErrNotFitted = NewDomainError(ModulePipeline, ErrorCodeNotFitted, "pipeline: not fitted")
