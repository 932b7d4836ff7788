package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务错误（调用方可修正后重试）
// - 5xxx：系统错误（需要中断流程）
const (
	OK             = 0
	InvalidParam   = 4000
	Unauthorized   = 4001
	Forbidden      = 4003
	NotFound       = 4004
	DepthLimit     = 4005
	NotPublished   = 4006
	UploadRejected = 4007
	SystemError    = 5000
)
