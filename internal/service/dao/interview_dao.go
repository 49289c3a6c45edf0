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

type InterviewDao interface {
	Insert(ctx context.Context, session *model.InterviewSessionDo) error

	// Select 不存在时返回 nil, nil
	Select(ctx context.Context, id string) (*model.InterviewSessionDo, error)

	ListByUser(ctx context.Context, userID string, pgNum, pgSize int64) ([]model.InterviewSessionDo, int64, error)

	ListAllByUser(ctx context.Context, userID string) ([]model.InterviewSessionDo, error)

	// ListStale 列出创建时间早于 before 且仍未结束的面试。
	ListStale(ctx context.Context, before time.Time) ([]model.InterviewSessionDo, error)

	Update(ctx context.Context, session *model.InterviewSessionDo) error
}

type InterviewDaoService struct {
	collection *mongo.Collection
	logger     *xlog.Logger
}

func NewInterviewDaoService(db *mongo.Database) *InterviewDaoService {
	return &InterviewDaoService{
		collection: db.Collection(dao.CollectionInterview),
		logger:     xlog.New("interview dao service"),
	}
}

func (i *InterviewDaoService) Insert(ctx context.Context, session *model.InterviewSessionDo) error {
	if session.ID == "" {
		session.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now()
	if session.CreatedTime.IsZero() {
		session.CreatedTime = now
	}
	session.UpdatedTime = now
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	_, err := i.collection.InsertOne(timeout, session)
	if err != nil {
		i.logger.Errorf("插入数据失败: %v", err)
		return err
	}
	return nil
}

func (i *InterviewDaoService) Select(ctx context.Context, id string) (*model.InterviewSessionDo, error) {
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	one := i.collection.FindOne(timeout, primitive.M{"_id": id})
	if err := one.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		i.logger.Errorf("查询数据表失败: %v", err)
		return nil, err
	}
	result := model.InterviewSessionDo{}
	if err := one.Decode(&result); err != nil {
		i.logger.Error(err)
		return nil, err
	}
	return &result, nil
}

func (i *InterviewDaoService) ListByUser(ctx context.Context, userID string, pgNum, pgSize int64) ([]model.InterviewSessionDo, int64, error) {
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	filter := primitive.M{"user_id": userID}
	skip := (pgNum - 1) * pgSize
	results, err := i.find(timeout, filter, &options.FindOptions{
		Limit: &pgSize,
		Skip:  &skip,
		Sort:  primitive.M{"created_time": -1},
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := i.collection.CountDocuments(timeout, filter)
	if err != nil {
		i.logger.Error(err)
		return nil, 0, err
	}
	return results, total, nil
}

func (i *InterviewDaoService) ListAllByUser(ctx context.Context, userID string) ([]model.InterviewSessionDo, error) {
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	return i.find(timeout, primitive.M{"user_id": userID}, &options.FindOptions{
		Sort: primitive.M{"created_time": 1},
	})
}

func (i *InterviewDaoService) ListStale(ctx context.Context, before time.Time) ([]model.InterviewSessionDo, error) {
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	return i.find(timeout, primitive.M{
		"status": primitive.M{"$in": []model.SessionStatus{
			model.SessionStatusCreated,
			model.SessionStatusInProgress,
		}},
		"created_time": primitive.M{"$lt": before},
	}, nil)
}

func (i *InterviewDaoService) Update(ctx context.Context, session *model.InterviewSessionDo) error {
	session.UpdatedTime = time.Now()
	timeout, cancelFunc := withTimeout(ctx)
	defer cancelFunc()
	_, err := i.collection.UpdateByID(timeout, session.ID, primitive.M{"$set": session})
	if err != nil {
		i.logger.Errorf("更新数据失败: %v", err)
	}
	return err
}

func (i *InterviewDaoService) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]model.InterviewSessionDo, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := i.collection.Find(ctx, filter, findOpts...)
	if err != nil {
		i.logger.Error(err)
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		err := cursor.Close(ctx)
		if err != nil {
			i.logger.Error(err)
		}
	}(cursor, ctx)
	results := make([]model.InterviewSessionDo, 0)
	for cursor.Next(ctx) {
		tmp := model.InterviewSessionDo{}
		if err := cursor.Decode(&tmp); err != nil {
			i.logger.Error(err)
			return nil, err
		}
		results = append(results, tmp)
	}
	if err := cursor.Err(); err != nil {
		i.logger.Error(err)
		return nil, err
	}
	return results, nil
}
