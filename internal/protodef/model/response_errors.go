package model

type ResponseError struct {
	// 自定义错误码。
	Code int `json:"code"`
	// 请求ID。
	RequestID string `json:"requestID"`
	// Message
	Message string `json:"message"`
}

const (
	ResponseErrorBadRequest          = 400000
	ResponseErrorNotLoggedIn         = 401001
	ResponseErrorWrongCredentials    = 401002
	ResponseErrorBadToken            = 401003
	ResponseErrorValidation          = 401005
	ResponseErrorNotFound            = 404000
	ResponseErrorNoSuchUser          = 404001
	ResponseErrorNoSuchInterview     = 404002
	ResponseErrorNoSuchResume        = 404003
	ResponseErrorEmailUsed           = 409000
	ResponseErrorInterviewState      = 409001
	ResponseErrorQuestionLimit       = 409002
	ResponseErrorInterviewTerminated = 409003
	ResponseErrorTurnMismatch        = 409004
	ResponseErrorUploadTooLarge      = 413001
	ResponseErrorUnsupportedFileType = 415001
	ResponseErrorInternal            = 500000
	ResponseErrorExternalService     = 502001
)

// NewResponseErrorBadRequest 参数错误。
func NewResponseErrorBadRequest() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorBadRequest,
		Message: "bad request",
	}
}

// NewResponseErrorNotLoggedIn 用户未登录。
func NewResponseErrorNotLoggedIn() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNotLoggedIn,
		Message: "not logged in",
	}
}

// NewResponseErrorWrongCredentials 邮箱或密码错误。
func NewResponseErrorWrongCredentials() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorWrongCredentials,
		Message: "wrong email or password",
	}
}

// NewResponseErrorBadToken 登录token错误。
func NewResponseErrorBadToken() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorBadToken,
		Message: "bad token",
	}
}

// NewResponseErrorInternal 其他内部服务错误。
func NewResponseErrorInternal() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorInternal,
		Message: "internal server error",
	}
}

// NewResponseErrorExternalService 调用外部服务错误。
func NewResponseErrorExternalService() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorExternalService,
		Message: "calling external service failed",
	}
}

// NewResponseErrorNoSuchUser 无此用户。
func NewResponseErrorNoSuchUser() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNoSuchUser,
		Message: "no such user",
	}
}

// NewResponseErrorEmailUsed 邮箱已注册。
func NewResponseErrorEmailUsed() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorEmailUsed,
		Message: "email already registered",
	}
}

func NewResponseErrorNotFound() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNotFound,
		Message: "not found",
	}
}

// NewResponseErrorNoSuchInterview 无此面试。
func NewResponseErrorNoSuchInterview() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNoSuchInterview,
		Message: "no such interview",
	}
}

func NewResponseErrorNoSuchResume() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNoSuchResume,
		Message: "no resume yet",
	}
}

func NewResponseErrorValidation(err error) *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorValidation,
		Message: err.Error(),
	}
}

// NewResponseErrorInterviewState 面试当前状态不允许该操作。
func NewResponseErrorInterviewState() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorInterviewState,
		Message: "operation not allowed in current interview status",
	}
}

func NewResponseErrorQuestionLimit() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorQuestionLimit,
		Message: "all questions have been asked",
	}
}

func NewResponseErrorInterviewTerminated() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorInterviewTerminated,
		Message: "interview has been terminated",
	}
}

func NewResponseErrorTurnMismatch() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorTurnMismatch,
		Message: "answer does not match the current question",
	}
}

func NewResponseErrorUploadTooLarge() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorUploadTooLarge,
		Message: "file too large",
	}
}

func NewResponseErrorUnsupportedFileType() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorUnsupportedFileType,
		Message: "unsupported file type",
	}
}

func NewResponseError(code int, message string) *ResponseError {
	return &ResponseError{
		Code:    code,
		Message: message,
	}
}
