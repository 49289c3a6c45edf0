package dao

import (
	"context"
	"time"

	"github.com/qiniu/x/xlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/db/dao"
)

type ProctorEventDao interface {
	Insert(ctx context.Context, event *model.ViolationEventDo) error

	ListBySession(ctx context.Context, sessionID string) ([]model.ViolationEventDo, error)
}

type ProctorEventDaoService struct {
	collection *mongo.Collection
	logger     *xlog.Logger
}

func NewProctorEventDaoService(db *mongo.Database) *ProctorEventDaoService {
	return &ProctorEventDaoService{
		collection: db.Collection(dao.CollectionProctorEvent),
		logger:     xlog.New("proctor event dao service"),
	}
}

func (p *ProctorEventDaoService) Insert(ctx context.Context, event *model.ViolationEventDo) error {
	if event.ID == "" {
		event.ID = primitive.NewObjectID().Hex()
	}
	if event.ServerTime.IsZero() {
		event.ServerTime = time.Now()
	}
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	_, err := p.collection.InsertOne(timeout, event)
	if err != nil {
		p.logger.Errorf("插入数据失败: %v", err)
		return err
	}
	return nil
}

func (p *ProctorEventDaoService) ListBySession(ctx context.Context, sessionID string) ([]model.ViolationEventDo, error) {
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	cursor, err := p.collection.Find(timeout, primitive.M{"session_id": sessionID}, &options.FindOptions{
		Sort: primitive.M{"server_time": 1},
	})
	if err != nil {
		p.logger.Error(err)
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		err := cursor.Close(ctx)
		if err != nil {
			p.logger.Error(err)
		}
	}(cursor, timeout)
	results := make([]model.ViolationEventDo, 0)
	if err := cursor.All(timeout, &results); err != nil {
		p.logger.Error(err)
		return nil, err
	}
	return results, nil
}
