package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：输入问题，重试无效
// - 5xxx：系统错误（可重试）
const (
	OK              = 0
	InvalidSnapshot = 4002
	SystemError     = 5000
)
