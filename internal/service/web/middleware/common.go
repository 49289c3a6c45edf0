package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/metrics"
)

var (
	defaultActionManager = NewActionManager()
)

// FetchPageInfo 解析分页参数，默认第1页每页10条，每页最多50条。
func FetchPageInfo(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	pageNumArg := c.DefaultQuery("pageNum", "1")
	pageSizeArg := c.DefaultQuery("pageSize", "10")
	pageNum, err := strconv.Atoi(pageNumArg)
	if err != nil || pageNum < 1 {
		xl.Infof("FetchPageInfo.pageNum %q invalid, use default value, error %v", pageNumArg, err)
		pageNum = 1
	}
	pageSize, err := strconv.Atoi(pageSizeArg)
	if err != nil || pageSize < 1 {
		xl.Infof("FetchPageInfo.pageSize %q invalid, use default value, error %v", pageSizeArg, err)
		pageSize = 10
	}
	if pageSize > model.MaxPageSize {
		pageSize = model.MaxPageSize
	}
	c.Set(model.PageNumContextKey, pageNum)
	c.Set(model.PageSizeContextKey, pageSize)
}

// ActionLogMiddleware 请求结束后记录用户操作日志与请求指标，m 为空时不记录指标。
func ActionLogMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		method := c.Request.Method
		action := defaultActionManager.MatchRoute(method, path)
		c.Next()

		route := path
		if route == "" {
			route = "unmatched"
		}
		if m != nil {
			m.RecordHTTP(method, route, responseCode(c), time.Since(start).Seconds())
		}
		if val, ok := c.Get(model.XLogKey); ok {
			val.(*xlog.Logger).Infof("action: %s, cost %s", action.With(c), time.Since(start))
		}
	}
}

// responseCode 返回体中的 code，未写返回体时使用 HTTP 状态码。
func responseCode(c *gin.Context) int {
	if code, ok := c.Get(model.ResponseCodeKey); ok {
		if v, ok := code.(int); ok {
			return v
		}
	}
	return c.Writer.Status()
}

var methodMsg = map[string]string{
	"POST":   "创建",
	"GET":    "获取",
	"DELETE": "删除",
	"PUT":    "更新",
}

var routeMsg = map[string]string{
	"GET accountInfo":    "账户信息",
	"POST accountInfo":   "更新了账户信息",
	"GET resume":         "简历",
	"PUT resume":         "简历",
	"POST resume upload": "上传了简历文件",

	"POST interview":          "面试",
	"GET interview":           "面试详情",
	"POST interview start":    "开始了面试",
	"POST interview question": "请求了下一题",
	"POST interview answer":   "提交了回答",
	"POST interview end":      "结束了面试",
	"POST interview proctor":  "上报了监考事件",
	"GET interview proctor":   "监考记录",
	"GET interview report":    "面试报告",
	"GET dashboard":           "统计数据",

	"signUp":  "注册",
	"signIn":  "登入",
	"signOut": "登出",
}

type Action struct {
	method  string
	subject string
	msg     string
}

func NewAction(method string, subject string, msg string) *Action {
	return &Action{method: method, subject: subject, msg: msg}
}

type ActionManager struct {
	Actions []*Action
}

func NewActionManager() *ActionManager {
	am := &ActionManager{Actions: make([]*Action, 0, len(routeMsg))}
	for k, v := range routeMsg {
		method, subject := parseMethodAndSubject(k)
		am.Actions = append(am.Actions, NewAction(method, subject, v))
	}
	return am
}

func (am *ActionManager) MatchRoute(method, path string) *Action {
	subject := strings.Join(parsePath(path), " ")
	for _, action := range am.Actions {
		if (action.method == "ALL" || action.method == method) && action.subject == subject {
			return action
		}
	}
	return NewAction(method, subject, "default")
}

func (a Action) String() string {
	methodStr := ""
	if a.method != "ALL" {
		methodStr += methodMsg[a.method]
	}
	return fmt.Sprintf("%s%s", methodStr, a.msg)
}

// With 带上当前登录用户。
func (a *Action) With(c *gin.Context) string {
	val, ok := c.Get(model.UserContextKey)
	if !ok {
		return "anonymous " + a.String()
	}
	user, ok := val.(model.AccountDo)
	if !ok {
		return a.String()
	}
	return fmt.Sprintf("user %s %s", user.Email, a.String())
}

// /v1/interview/:interviewId/answer -> interview answer
// parsePath 去掉版本前缀与路径参数，可能返回nil
func parsePath(path string) []string {
	fields := strings.Split(path, "/")
	if len(fields) < 2 {
		return nil
	}
	noVersionFields := fields[2:]
	res := make([]string, 0)
	for _, part := range noVersionFields {
		if part != "" && !strings.HasPrefix(part, ":") {
			res = append(res, part)
		}
	}
	return res
}

// GET interview -> method="GET" subject="interview"
// signOut -> method="ALL" subject="signOut"
func parseMethodAndSubject(val string) (method, subject string) {
	val = strings.TrimSpace(val)
	if val == "" {
		return "", ""
	}
	for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
		if strings.HasPrefix(val, m+" ") {
			return m, strings.TrimSpace(val[len(m):])
		}
	}
	return "ALL", val
}
