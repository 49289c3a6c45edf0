package db

import (
	"time"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	model "github.com/solutions/mock-interview/internal/protodef/model"
	dao "github.com/solutions/mock-interview/internal/service/db/dao"
)

// AccountTokenService 已登录用户表，以账号ID为主键，每个账号只有一条记录。
type AccountTokenService struct {
	accountTokenCollection *mgo.Collection
	xl                     *xlog.Logger
}

func NewAccountTokenService(session *mgo.Session, database string, xl *xlog.Logger) *AccountTokenService {
	if xl == nil {
		xl = xlog.New("accountToken service")
	}
	return &AccountTokenService{
		accountTokenCollection: session.DB(database).C(dao.CollectionAccountToken),
		xl:                     xl,
	}
}

func (v *AccountTokenService) logger(xl *xlog.Logger) *xlog.Logger {
	if xl != nil {
		return xl
	}
	return v.xl
}

// Upsert 写入登录记录，覆盖该账号之前的 token。
func (v *AccountTokenService) Upsert(xl *xlog.Logger, accountToken *model.AccountTokenDo) error {
	if accountToken.ID == "" {
		accountToken.ID = accountToken.AccountId
	}
	accountToken.LastModifyTime = time.Now()
	_, err := v.accountTokenCollection.Upsert(bson.M{"_id": accountToken.ID}, accountToken)
	if err != nil {
		v.logger(xl).Errorf("error upsert accountTokenDo %s err:%v", accountToken.ID, err)
	}
	return err
}

func (v *AccountTokenService) Delete(xl *xlog.Logger, id string) error {
	err := v.accountTokenCollection.RemoveId(id)
	if err != nil && err != mgo.ErrNotFound {
		v.logger(xl).Errorf("error remove accountToken %v err:%v", id, err)
		return err
	}
	return nil
}

// GetOneByID 未登录时返回 mgo.ErrNotFound。
func (v *AccountTokenService) GetOneByID(xl *xlog.Logger, id string) (*model.AccountTokenDo, error) {
	token := &model.AccountTokenDo{}
	err := v.accountTokenCollection.FindId(id).One(token)
	if err != nil {
		if err != mgo.ErrNotFound {
			v.logger(xl).Errorf("error get accountToken %s err:%v", id, err)
		}
		return nil, err
	}
	return token, nil
}
