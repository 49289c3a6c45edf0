package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/common/utils"
	model "github.com/solutions/mock-interview/internal/protodef/model"
)

// AccountResolver 根据登录 token 找到账号。
type AccountResolver interface {
	GetIDByToken(xl *xlog.Logger, token string) (string, error)
	GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error)
}

var (
	accountService AccountResolver
	cookieName     = "token"
	xl             = xlog.New("Middleware")
)

// InitMiddleware 注入账号服务与 cookie 配置。
func InitMiddleware(resolver AccountResolver, auth utils.AuthConfig) {
	accountService = resolver
	if auth.CookieName != "" {
		cookieName = auth.CookieName
	}
}

// Authenticate 校验请求者的身份，token 优先取 cookie，其次 Authorization:Bearer <token>。
func Authenticate(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	token, source := FetchToken(c)
	if token == "" {
		xl.Debugf("%s %s: request unauthorized, no token in cookie or header", c.Request.Method, c.Request.URL.Path)
		responseErr := model.NewResponseErrorNotLoggedIn()
		resp := model.NewFailResponse(*responseErr).WithRequestID(requestID)
		resp.Send(c)
		c.Abort()
		return
	}
	id, err := accountService.GetIDByToken(xl, token)
	if err != nil {
		xl.Debugf("%s %s: request unauthorized, error %v", c.Request.Method, c.Request.URL.Path, err)
		responseErr := model.NewResponseErrorBadToken()
		resp := model.NewFailResponse(*responseErr).WithRequestID(requestID)
		resp.Send(c)
		c.Abort()
		return
	}
	user, err := accountService.GetAccountByID(xl, id)
	if err != nil {
		xl.Infof("account %s of a valid token not found, error %v", id, err)
		responseErr := model.NewResponseErrorNoSuchUser()
		resp := model.NewFailResponse(*responseErr).WithRequestID(requestID)
		resp.Send(c)
		c.Abort()
		return
	}
	c.Set(model.UserContextKey, *user)
	c.Set(model.UserIDContextKey, id)
	c.Set(model.TokenSourceContextKey, source)
}

// FetchToken 读取请求携带的登录 token 及其来源。
func FetchToken(c *gin.Context) (string, model.TokenSource) {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token, model.TokenSourceFromCookie
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		xl.Debugf("auth header is empty or in wrong format: %q", authHeader)
		return "", ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), model.TokenSourceFromHeader
}
