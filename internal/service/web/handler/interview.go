package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/protodef/form"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/dashboard"
	"github.com/solutions/mock-interview/internal/service/db"
	"github.com/solutions/mock-interview/internal/service/interview"
	"github.com/solutions/mock-interview/internal/service/proctor"
	"github.com/solutions/mock-interview/internal/service/report"
)

// ResumeReader 创建面试时读取简历。
type ResumeReader interface {
	GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error)
}

type InterviewApiHandler struct {
	Interviews *interview.Service
	Proctor    *proctor.Service
	Reports    *report.Service
	Dashboard  *dashboard.Service
	Accounts   ResumeReader
	Conf       utils.InterviewConfig
}

// CreateInterview 创建面试，岗位等未填写时取自简历。
func (h *InterviewApiHandler) CreateInterview(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	userID := c.GetString(model.UserIDContextKey)
	args := form.InterviewCreateForm{}
	if err := c.ShouldBindJSON(&args); err != nil {
		xl.Infof("CreateInterview: invalid args in body, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	var resume *model.ResumeDo
	account, err := h.Accounts.GetAccountByID(xl, userID)
	if err != nil && !errors.Is(err, db.ErrNoSuchAccount) {
		writeError(c, xl, err)
		return
	}
	if account != nil {
		resume = account.Resume
	}
	args.FillDefault(resume, h.Conf.QuestionCount)
	if err := args.Validate(); err != nil {
		writeResponseError(c, xl, model.NewResponseErrorValidation(err))
		return
	}
	session, err := h.Interviews.Create(c.Request.Context(), xl, userID, &args, resume)
	if err != nil {
		writeError(c, xl, err)
		return
	}
	xl.Infof("user %s created interview %s for role %s", userID, session.ID, session.Role)
	writeSuccess(c, xl, session)
}

func (h *InterviewApiHandler) ListInterviews(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	userID := c.GetString(model.UserIDContextKey)
	pageNum := c.GetInt(model.PageNumContextKey)
	pageSize := c.GetInt(model.PageSizeContextKey)
	list, total, err := h.Interviews.List(c.Request.Context(), userID, pageNum, pageSize)
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, model.NewPagination(list, len(list), total, pageNum, pageSize))
}

func (h *InterviewApiHandler) GetInterview(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	session, err := h.Interviews.Get(c.Request.Context(), c.GetString(model.UserIDContextKey), c.Param("interviewId"))
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, session)
}

func (h *InterviewApiHandler) StartInterview(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	session, err := h.Interviews.Start(c.Request.Context(), xl, c.GetString(model.UserIDContextKey), c.Param("interviewId"))
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, session)
}

// NextQuestion 返回当前待回答的问题，没有则生成下一题。
func (h *InterviewApiHandler) NextQuestion(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	turn, session, err := h.Interviews.NextQuestion(c.Request.Context(), xl, c.GetString(model.UserIDContextKey), c.Param("interviewId"))
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, model.NewQuestionResponse(turn, session))
}

func (h *InterviewApiHandler) SubmitAnswer(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := form.AnswerForm{}
	if err := c.ShouldBindJSON(&args); err != nil {
		xl.Infof("SubmitAnswer: invalid args in body, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	if err := args.Validate(); err != nil {
		writeResponseError(c, xl, model.NewResponseErrorValidation(err))
		return
	}
	session, err := h.Interviews.SubmitAnswer(c.Request.Context(), xl, c.GetString(model.UserIDContextKey),
		c.Param("interviewId"), args.Index, args.Answer, model.AnswerMode(args.Mode))
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, session)
}

func (h *InterviewApiHandler) EndInterview(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	session, err := h.Interviews.End(c.Request.Context(), xl, c.GetString(model.UserIDContextKey), c.Param("interviewId"))
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, session)
}

// ReportProctorEvent 浏览器上报切屏、失焦等事件。
func (h *InterviewApiHandler) ReportProctorEvent(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := form.ProctorEventForm{}
	if err := c.ShouldBindJSON(&args); err != nil {
		xl.Infof("ReportProctorEvent: invalid args in body, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	if err := args.Validate(); err != nil {
		writeResponseError(c, xl, model.NewResponseErrorValidation(err))
		return
	}
	var clientTime time.Time
	if args.ClientTime > 0 {
		clientTime = time.UnixMilli(args.ClientTime)
	}
	verdict, err := h.Proctor.Report(c.Request.Context(), xl, c.GetString(model.UserIDContextKey),
		c.Param("interviewId"), model.ProctorEventKind(args.Kind), clientTime)
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, verdict)
}

func (h *InterviewApiHandler) ListProctorEvents(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	list, err := h.Proctor.List(c.Request.Context(), c.GetString(model.UserIDContextKey), c.Param("interviewId"))
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, list)
}

// GetReport 首次请求时生成报告，之后返回缓存。
func (h *InterviewApiHandler) GetReport(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	result, err := h.Reports.Get(c.Request.Context(), xl, c.GetString(model.UserIDContextKey), c.Param("interviewId"))
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, result)
}

func (h *InterviewApiHandler) GetDashboard(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	stats, err := h.Dashboard.Stats(c.Request.Context(), c.GetString(model.UserIDContextKey))
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, stats)
}
