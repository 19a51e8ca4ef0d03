package core

// DomainError 是领域层的统一错误类型：模块 + 错误码 + 消息。
// 打分核心内部不需要重试，错误只分两类：要么降级（可选输入缺失、模型拟合失败），
// 要么整次运行失败；DomainError 用于让边界层区分这两种情况。
type DomainError struct {
	Code    string
	Message string
	Module  string
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// 错误代码常量
const (
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效
	ErrorCodeModelFit     = "MODEL_FIT"     // 模型拟合失败（触发兜底，不上抛）
)

// 模块名称常量
const (
	ModuleStore   = "store"
	ModuleDataset = "dataset"
	ModuleModel   = "model"
	ModuleEngine  = "engine"
)

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED。
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}
