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

package model

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/*
	http_model.go: 规定API的参数与返回值的定义，***Args 表示 *** 接口的参数，***Response表示 *** 接口的返回体格式。
*/

const (
	// RequestIDHeader 七牛 request ID 头部。
	RequestIDHeader = "X-Reqid"
	// XLogKey gin context中，用于获取记录请求相关日志的 xlog logger的key。
	XLogKey = "xlog-logger"

	// UserIDContextKey 存放在请求context 中的用户ID。
	UserIDContextKey = "userID"
	// UserContextKey 存放用户对象
	UserContextKey = "user"

	// TokenSourceContextKey 存放在请求context 中的TOKEN获取来源
	TokenSourceContextKey = "tokenSource"
	// TOKEN获取来源
	TokenSourceFromCookie TokenSource = "cookie"
	TokenSourceFromHeader TokenSource = "header"

	PageNumContextKey  = "pageNum"
	PageSizeContextKey = "pageSize"

	// MaxPageSize 分页大小上限。
	MaxPageSize = 50

	// ResponseCodeKey 存放返回体中的 code，用于请求指标。
	ResponseCodeKey = "response-code"

	// RequestStartKey 存放在gin context中的请求开始的时间戳，单位为纳秒。
	RequestStartKey = "request-start-timestamp-nano"

	// RequestApiVersion
	RequestApiVersion            = "request-api-version"
	ApiVersionV1      ApiVersion = "v1"

	// 状态码和状态信息
	ResponseStatusCodeSuccess    ResponseStatusCode    = 0
	ResponseStatusMessageSuccess ResponseStatusMessage = "success"
)

// API Version
type ApiVersion string

// token来源枚举
type TokenSource string

// 状态码和状态信息
type ResponseStatusCode int
type ResponseStatusMessage string

type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"requestId"`
}

// NewSuccessResponse 成功返回。
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    int(ResponseStatusCodeSuccess),
		Message: string(ResponseStatusMessageSuccess),
		Data:    data,
	}
}

// NewFailResponse 失败返回。
func NewFailResponse(err ResponseError) *Response {
	return &Response{
		Code:    err.Code,
		Message: err.Message,
	}
}

// Send 写出返回体，并记录 code。
func (r *Response) Send(c *gin.Context) {
	c.Set(ResponseCodeKey, r.Code)
	c.JSON(http.StatusOK, r)
}

func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

type Pagination struct {
	Total          int         `json:"total"`
	Cnt            int         `json:"cnt"`
	CurrentPageNum int         `json:"currentPageNum"`
	NextPageNum    int         `json:"nextPageNum"`
	PageSize       int         `json:"pageSize"`
	EndPage        bool        `json:"endPage"`
	List           interface{} `json:"list"`
}

// NewPagination 根据总数与当前页计算分页信息。
func NewPagination(list interface{}, cnt, total, pageNum, pageSize int) Pagination {
	endPage := pageNum*pageSize >= total
	nextPageNum := pageNum + 1
	if endPage {
		nextPageNum = pageNum
	}
	return Pagination{
		Total:          total,
		Cnt:            cnt,
		CurrentPageNum: pageNum,
		NextPageNum:    nextPageNum,
		PageSize:       pageSize,
		EndPage:        endPage,
		List:           list,
	}
}

// UserInfoResponse 用户的信息，包括ID、昵称等。
type UserInfoResponse struct {
	ID        string `json:"accountId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	HasResume bool   `json:"hasResume"`
}

// NewUserInfoResponse 去除密码等敏感字段。
func NewUserInfoResponse(account *AccountDo) UserInfoResponse {
	return UserInfoResponse{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Avatar:    account.Avatar,
		HasResume: account.Resume != nil,
	}
}

// LoginResponse 登录成功返回，token 同时写入 cookie。
type LoginResponse struct {
	UserInfoResponse
	Token    string `json:"loginToken"`
	ExpireAt int64  `json:"expireAt"`
}

// QuestionResponse 当前待回答的问题。
type QuestionResponse struct {
	Turn          *TurnDo       `json:"turn"`
	QuestionCount int           `json:"questionCount"`
	Remaining     int           `json:"remaining"`
	Status        SessionStatus `json:"status"`
}

// NewQuestionResponse Remaining 不包含当前问题。
func NewQuestionResponse(turn *TurnDo, session *InterviewSessionDo) QuestionResponse {
	remaining := session.QuestionCount - len(session.Turns)
	if remaining < 0 {
		remaining = 0
	}
	return QuestionResponse{
		Turn:          turn,
		QuestionCount: session.QuestionCount,
		Remaining:     remaining,
		Status:        session.Status,
	}
}
