package web

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/cloud"
	"github.com/solutions/mock-interview/internal/service/dao"
	"github.com/solutions/mock-interview/internal/service/dashboard"
	"github.com/solutions/mock-interview/internal/service/db"
	"github.com/solutions/mock-interview/internal/service/events"
	"github.com/solutions/mock-interview/internal/service/interview"
	"github.com/solutions/mock-interview/internal/service/llm"
	"github.com/solutions/mock-interview/internal/service/metrics"
	"github.com/solutions/mock-interview/internal/service/proctor"
	"github.com/solutions/mock-interview/internal/service/report"
	"github.com/solutions/mock-interview/internal/service/web/handler"
	"github.com/solutions/mock-interview/internal/service/web/middleware"
)

// AccountService 账号、登录态与简历存储。
type AccountService interface {
	handler.AccountInterface
	middleware.AccountResolver
	SaveResume(xl *xlog.Logger, id string, resume *model.ResumeDo) error
}

// Services 路由依赖的全部服务。
type Services struct {
	Accounts   AccountService
	Storage    cloud.Storage
	Interviews *interview.Service
	Proctor    *proctor.Service
	Reports    *report.Service
	Dashboard  *dashboard.Service
	Metrics    *metrics.Metrics
	// Gatherer /metrics 输出的指标来源。
	Gatherer prometheus.Gatherer
	// Publisher 进程退出时需要关闭。
	Publisher *events.KafkaPublisher
}

// NewServices 连接数据库并创建各服务。
func NewServices(config *utils.Config) (*Services, error) {
	xl := xlog.New("services")
	accountService, err := db.NewAccountService(*config.Mongo, config.Auth, nil)
	if err != nil {
		return nil, err
	}
	database, err := dao.Connect(config.Mongo)
	if err != nil {
		return nil, err
	}
	storage, err := cloud.NewStorage(config.Storage)
	if err != nil {
		return nil, err
	}
	engine := llm.NewEngine(config.LLM, xl)
	publisher := events.NewKafkaPublisher(config.Kafka)

	interviews := interview.NewService(dao.NewInterviewDaoService(database), engine, publisher, config.Interview)
	reports := report.NewService(interviews, dao.NewReportDaoService(database), engine)
	xl.Infof("services initialized, llm provider %s, storage provider %s, llm timeout %s",
		config.LLM.Provider, config.Storage.Provider, time.Duration(config.LLM.TimeoutSecond)*time.Second)
	return &Services{
		Accounts:   accountService,
		Storage:    storage,
		Interviews: interviews,
		Proctor:    proctor.NewService(config.Proctor, interviews, dao.NewProctorEventDaoService(database), publisher),
		Reports:    reports,
		Dashboard:  dashboard.NewService(interviews, reports),
		Metrics:    metrics.DefaultMetrics,
		Gatherer:   prometheus.DefaultGatherer,
		Publisher:  publisher,
	}, nil
}

// Close 释放事件投递等资源。
func (s *Services) Close() error {
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher.Close()
}
