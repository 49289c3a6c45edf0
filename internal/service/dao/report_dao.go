package dao

import (
	"context"

	"github.com/qiniu/x/xlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/db/dao"
)

type ReportDao interface {
	// Select 不存在时返回 nil, nil
	Select(ctx context.Context, sessionID string) (*model.ReportDo, error)

	Upsert(ctx context.Context, report *model.ReportDo) error

	ListByUser(ctx context.Context, userID string) ([]model.ReportDo, error)
}

type ReportDaoService struct {
	collection *mongo.Collection
	logger     *xlog.Logger
}

func NewReportDaoService(db *mongo.Database) *ReportDaoService {
	return &ReportDaoService{
		collection: db.Collection(dao.CollectionReport),
		logger:     xlog.New("report dao service"),
	}
}

func (r *ReportDaoService) Select(ctx context.Context, sessionID string) (*model.ReportDo, error) {
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	one := r.collection.FindOne(timeout, primitive.M{"_id": sessionID})
	if err := one.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		r.logger.Errorf("查询数据表失败: %v", err)
		return nil, err
	}
	result := model.ReportDo{}
	if err := one.Decode(&result); err != nil {
		r.logger.Error(err)
		return nil, err
	}
	return &result, nil
}

func (r *ReportDaoService) Upsert(ctx context.Context, report *model.ReportDo) error {
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	_, err := r.collection.ReplaceOne(timeout, primitive.M{"_id": report.ID}, report, options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Errorf("写入报告失败: %v", err)
	}
	return err
}

func (r *ReportDaoService) ListByUser(ctx context.Context, userID string) ([]model.ReportDo, error) {
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	cursor, err := r.collection.Find(timeout, primitive.M{"user_id": userID})
	if err != nil {
		r.logger.Error(err)
		return nil, err
	}
	results := make([]model.ReportDo, 0)
	if err := cursor.All(timeout, &results); err != nil {
		r.logger.Error(err)
		return nil, err
	}
	return results, nil
}
