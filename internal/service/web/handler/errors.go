package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	errors2 "github.com/solutions/mock-interview/internal/protodef/errors"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/db"
	"github.com/solutions/mock-interview/internal/service/interview"
	"github.com/solutions/mock-interview/internal/service/report"
)

// errorMapping 业务错误到返回码的对应关系。
var errorMapping = []struct {
	target error
	build  func() *model.ResponseError
}{
	{interview.ErrNotFound, model.NewResponseErrorNoSuchInterview},
	{interview.ErrInvalidTransition, model.NewResponseErrorInterviewState},
	{interview.ErrQuestionLimit, model.NewResponseErrorQuestionLimit},
	{interview.ErrTurnMismatch, model.NewResponseErrorTurnMismatch},
	{interview.ErrSessionTerminated, model.NewResponseErrorInterviewTerminated},
	{interview.ErrEngine, model.NewResponseErrorExternalService},
	{report.ErrEngine, model.NewResponseErrorExternalService},
	{db.ErrNoSuchAccount, model.NewResponseErrorNoSuchUser},
	{db.ErrEmailUsed, model.NewResponseErrorEmailUsed},
}

// responseError 将服务返回的错误转换为返回码，无法识别的错误视为内部错误。
func responseError(xl *xlog.Logger, err error) *model.ResponseError {
	if errors.Is(err, report.ErrNotReady) {
		return model.NewResponseError(model.ResponseErrorInterviewState, "interview is not finished yet")
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return m.build()
		}
	}
	var serverErr *errors2.ServerError
	if errors.As(err, &serverErr) && serverErr.IsExternal() {
		xl.Errorf("external service error %v", serverErr)
		return model.NewResponseErrorExternalService()
	}
	xl.Errorf("internal error %v", err)
	return model.NewResponseErrorInternal()
}

// writeError 以统一格式返回错误。
func writeError(c *gin.Context, xl *xlog.Logger, err error) {
	responseErr := responseError(xl, err)
	model.NewFailResponse(*responseErr).WithRequestID(xl.ReqId).Send(c)
}

func writeResponseError(c *gin.Context, xl *xlog.Logger, responseErr *model.ResponseError) {
	model.NewFailResponse(*responseErr).WithRequestID(xl.ReqId).Send(c)
}

func writeSuccess(c *gin.Context, xl *xlog.Logger, data interface{}) {
	model.NewSuccessResponse(data).WithRequestID(xl.ReqId).Send(c)
}
