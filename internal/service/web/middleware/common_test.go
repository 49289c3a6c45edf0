package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/metrics"
)

func TestFetchPageInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query    string
		pageNum  int
		pageSize int
	}{
		{"", 1, 10},
		{"?pageNum=3&pageSize=20", 3, 20},
		{"?pageNum=0&pageSize=-1", 1, 10},
		{"?pageNum=abc&pageSize=500", 1, model.MaxPageSize},
	}
	for _, tc := range cases {
		r := gin.New()
		var pageNum, pageSize int
		r.GET("/list", setXLog, FetchPageInfo, func(c *gin.Context) {
			pageNum = c.GetInt(model.PageNumContextKey)
			pageSize = c.GetInt(model.PageSizeContextKey)
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/list"+tc.query, nil))
		assert.Equal(t, tc.pageNum, pageNum, tc.query)
		assert.Equal(t, tc.pageSize, pageSize, tc.query)
	}
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, []string{"interview", "answer"}, parsePath("/v1/interview/:interviewId/answer"))
	assert.Equal(t, []string{"signIn"}, parsePath("/v1/signIn"))
	assert.Nil(t, parsePath(""))
}

func TestMatchRoute(t *testing.T) {
	am := NewActionManager()
	assert.Equal(t, "创建提交了回答", am.MatchRoute("POST", "/v1/interview/:interviewId/answer").String())
	assert.Equal(t, "登出", am.MatchRoute("POST", "/v1/signOut").String())
	assert.Equal(t, "default", am.MatchRoute("GET", "/v1/unknown").msg)
}

func TestActionLogMiddlewareRecordsMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	r := gin.New()
	r.Use(setXLog, ActionLogMiddleware(m))
	r.GET("/v1/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/missing", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/dashboard", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestActionLogMiddlewareUsesEnvelopeCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	r := gin.New()
	r.Use(setXLog, ActionLogMiddleware(m))
	r.GET("/v1/interview/:interviewId", func(c *gin.Context) {
		model.NewFailResponse(*model.NewResponseErrorNoSuchInterview()).Send(c)
	})
	r.GET("/v1/dashboard", func(c *gin.Context) {
		model.NewSuccessResponse(nil).Send(c)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/interview/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))

	notFound := strconv.Itoa(model.ResponseErrorNoSuchInterview)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/interview/:interviewId", notFound)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/interview/:interviewId", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/dashboard", "0")))
}
