// Copyright 2020 Qiniu Cloud (qiniu.com)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package web

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/cloud"
	"github.com/solutions/mock-interview/internal/service/web/handler"
	"github.com/solutions/mock-interview/internal/service/web/middleware"
)

// NewRouter @title 模拟面试API
// @version 0.0.1
// @description  http apis
// @BasePath /v1
// NewRouter 返回gin router，分流API。
func NewRouter(config *utils.Config, services *Services) *gin.Engine {
	// 1. 初始化GIN
	router := gin.New()
	router.Use(gin.Recovery())
	// 1.1. 全局CORS配置，前端需携带 cookie
	router.Use(corsMiddleware(config.Auth.AllowOrigins))

	// 2. 声明Handler
	accountApiHandler := &handler.AccountApiHandler{
		Account:           services.Accounts,
		DefaultAvatarURLs: config.DefaultAvatars,
		Auth:              config.Auth,
	}
	resumeApiHandler := handler.NewResumeApiHandler(services.Accounts, services.Storage, config.Storage)
	interviewApiHandler := &handler.InterviewApiHandler{
		Interviews: services.Interviews,
		Proctor:    services.Proctor,
		Reports:    services.Reports,
		Dashboard:  services.Dashboard,
		Accounts:   services.Accounts,
		Conf:       config.Interview,
	}

	middleware.InitMiddleware(services.Accounts, config.Auth)

	router.GET("/healthz", addRequestID, healthz)
	if config.MetricsEnabled && services.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(services.Gatherer, promhttp.HandlerOpts{})))
	}
	// 本地存储的简历文件需登录，且只能访问本人文件
	if _, ok := services.Storage.(*cloud.LocalStorage); ok && strings.HasPrefix(config.Storage.URLPrefix, "/") {
		files := router.Group(config.Storage.URLPrefix, addRequestID, middleware.Authenticate)
		files.GET("/*filepath", resumeApiHandler.ServeResumeFile)
	}

	// 3. 配置V1路径
	v1 := router.Group("/v1", addApiVersion(model.ApiVersionV1), addRequestID, middleware.FetchPageInfo, middleware.ActionLogMiddleware(services.Metrics))
	{
		// 3.1 注册/登录
		v1.POST("signUp", accountApiHandler.SignUp)
		v1.POST("signIn", accountApiHandler.SignIn)
	}
	baseAuth := v1.Group("", middleware.Authenticate)
	{
		// 3.2 登出
		baseAuth.POST("signOut", accountApiHandler.SignOut)
		// 3.3 用户信息获取与更新
		baseAuth.GET("accountInfo", accountApiHandler.GetAccountInfo)
		baseAuth.POST("accountInfo", accountApiHandler.UpdateAccountInfo)

		// 4.1 简历
		baseAuth.GET("resume", resumeApiHandler.GetResume)
		baseAuth.PUT("resume", resumeApiHandler.SaveResume)
		baseAuth.POST("resume/upload", resumeApiHandler.UploadResume)

		// 5.1 面试列表与创建
		baseAuth.GET("interview", interviewApiHandler.ListInterviews)
		baseAuth.POST("interview", interviewApiHandler.CreateInterview)
		// 5.2 面试详情
		baseAuth.GET("interview/:interviewId", interviewApiHandler.GetInterview)
		// 5.3 面试流程
		baseAuth.POST("interview/:interviewId/start", interviewApiHandler.StartInterview)
		baseAuth.POST("interview/:interviewId/question", interviewApiHandler.NextQuestion)
		baseAuth.POST("interview/:interviewId/answer", interviewApiHandler.SubmitAnswer)
		baseAuth.POST("interview/:interviewId/end", interviewApiHandler.EndInterview)
		// 5.4 监考事件
		baseAuth.POST("interview/:interviewId/proctor", interviewApiHandler.ReportProctorEvent)
		baseAuth.GET("interview/:interviewId/proctor", interviewApiHandler.ListProctorEvents)
		// 5.5 面试报告
		baseAuth.GET("interview/:interviewId/report", interviewApiHandler.GetReport)

		// 6.1 统计
		baseAuth.GET("dashboard", interviewApiHandler.GetDashboard)
	}

	router.NoRoute(addRequestID, returnNotFound)
	router.RedirectTrailingSlash = false

	return router
}

// 增加当前接口调用版本
func addApiVersion(version model.ApiVersion) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(model.RequestApiVersion, version)
	}
}

func addRequestID(c *gin.Context) {
	requestID := ""
	if requestID = c.Request.Header.Get(model.RequestIDHeader); requestID == "" {
		requestID = utils.NewReqID()
		c.Request.Header.Set(model.RequestIDHeader, requestID)
	}
	xl := xlog.New(requestID)
	xl.Debugf("request: %s %s", c.Request.Method, c.Request.URL.Path)
	c.Header(model.RequestIDHeader, requestID)
	c.Set(model.XLogKey, xl)
	c.Set(model.RequestStartKey, time.Now())
}

func healthz(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	model.NewSuccessResponse(gin.H{"status": "ok"}).WithRequestID(xl.ReqId).Send(c)
}

func returnNotFound(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	xl.Debugf("%s %s: not found", c.Request.Method, c.Request.URL.Path)
	responseErr := model.NewResponseErrorNotFound()
	model.NewFailResponse(*responseErr).WithRequestID(xl.ReqId).Send(c)
}

func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:     []string{"POST", "OPTIONS", "GET", "PUT", "DELETE", "HEAD"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Accept", "Origin", "Cache-Control", "X-Requested-With", model.RequestIDHeader},
		ExposeHeaders:    []string{model.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowOrigins) == 0 {
		conf.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		conf.AllowOrigins = allowOrigins
	}
	return cors.New(conf)
}
