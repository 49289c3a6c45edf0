package db

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/solutions/mock-interview/internal/common/utils"
	model "github.com/solutions/mock-interview/internal/protodef/model"
	dao "github.com/solutions/mock-interview/internal/service/db/dao"
)

const dialTimeout = 10 * time.Second

var (
	ErrEmailUsed = errors.New("email already registered")
	ErrBadToken  = errors.New("bad token")
	// ErrNoSuchAccount 账号不存在。
	ErrNoSuchAccount = errors.New("no such account")
)

// AccountService 用户注册、更新信息、登录、退出登录等操作。
type AccountService struct {
	mongoClient *mgo.Session
	accountColl *mgo.Collection
	tokens      *AccountTokenService
	auth        utils.AuthConfig
	xl          *xlog.Logger
}

func NewAccountService(conf utils.MongoConfig, auth utils.AuthConfig, xl *xlog.Logger) (*AccountService, error) {
	if xl == nil {
		xl = xlog.New("mock-interview-account-db")
	}
	info, err := dialInfo(conf.URI)
	if err != nil {
		xl.Errorf("invalid mongo uri, error %v", err)
		return nil, err
	}
	mongoClient, err := mgo.DialWithInfo(info)
	if err != nil {
		xl.Errorf("failed to create mongo client, error %v", err)
		return nil, err
	}
	mongoClient.SetSyncTimeout(time.Minute)
	mongoClient.SetSocketTimeout(time.Minute)
	accountColl := mongoClient.DB(conf.Database).C(dao.CollectionAccount)
	err = accountColl.EnsureIndex(mgo.Index{Key: []string{"email"}, Unique: true})
	if err != nil {
		xl.Errorf("failed to ensure email index, error %v", err)
		return nil, err
	}
	return &AccountService{
		mongoClient: mongoClient,
		accountColl: accountColl,
		tokens:      NewAccountTokenService(mongoClient, conf.Database, xl),
		auth:        auth,
		xl:          xl,
	}, nil
}

// dialInfo 解析连接串，库名与认证库以连接串为准，业务库由 DB(conf.Database) 选择。
func dialInfo(uri string) (*mgo.DialInfo, error) {
	info, err := mgo.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	info.Timeout = dialTimeout
	return info, nil
}

// CreateAccount 创建用户账号，邮箱重复时返回 ErrEmailUsed。
func (c *AccountService) CreateAccount(xl *xlog.Logger, account *model.AccountDo) error {
	if xl == nil {
		xl = c.xl
	}
	account.RegisterTime = time.Now()
	err := c.accountColl.Insert(account)
	if err != nil {
		if mgo.IsDup(err) {
			xl.Infof("email %s already registered", account.Email)
			return ErrEmailUsed
		}
		xl.Errorf("failed to insert user, error %v", err)
		return err
	}
	return nil
}

// GetAccountByEmail 使用邮箱查找账号。
func (c *AccountService) GetAccountByEmail(xl *xlog.Logger, email string) (*model.AccountDo, error) {
	return c.GetAccountByFields(xl, bson.M{"email": email})
}

// GetAccountByID 使用ID查找账号。
func (c *AccountService) GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error) {
	return c.GetAccountByFields(xl, bson.M{"_id": id})
}

// GetAccountByFields 根据一组key/value关系查找用户账号。
func (c *AccountService) GetAccountByFields(xl *xlog.Logger, fields bson.M) (*model.AccountDo, error) {
	if xl == nil {
		xl = c.xl
	}
	account := model.AccountDo{}
	err := c.accountColl.Find(fields).One(&account)
	if err != nil {
		if err == mgo.ErrNotFound {
			xl.Infof("no such user for fields %v", fields)
			return nil, ErrNoSuchAccount
		}
		xl.Errorf("failed to get user, error %v", err)
		return nil, err
	}
	return &account, nil
}

// UpdateAccount 更新昵称与头像，空字段保持不变。
func (c *AccountService) UpdateAccount(xl *xlog.Logger, id string, name, avatar string) (*model.AccountDo, error) {
	if xl == nil {
		xl = c.xl
	}
	account, err := c.GetAccountByID(xl, id)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if name != "" {
		account.Name = name
		set["name"] = name
	}
	if avatar != "" {
		account.Avatar = avatar
		set["avatar"] = avatar
	}
	if len(set) == 0 {
		return account, nil
	}
	err = c.accountColl.Update(bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		xl.Errorf("failed to update account %s,error %v", id, err)
		return nil, err
	}
	return account, nil
}

// SaveResume 整体替换账号上的简历。
func (c *AccountService) SaveResume(xl *xlog.Logger, id string, resume *model.ResumeDo) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.accountColl.Update(bson.M{"_id": id}, bson.M{"$set": bson.M{"resume": resume}})
	if err != nil {
		if err == mgo.ErrNotFound {
			return ErrNoSuchAccount
		}
		xl.Errorf("failed to save resume of account %s, error %v", id, err)
		return err
	}
	return nil
}

// AccountLogin 设置某个账号为已登录状态，旧的登录 token 随之失效。
func (c *AccountService) AccountLogin(xl *xlog.Logger, userID string) (*model.AccountTokenDo, error) {
	if xl == nil {
		xl = c.xl
	}
	_, err := c.tokens.GetOneByID(xl, userID)
	if err == nil {
		xl.Infof("user %s has been already logged in, the old session will be invalid", userID)
	} else if err != mgo.ErrNotFound {
		xl.Errorf("failed to check logged in users in mongo,error %v", err)
		return nil, err
	}
	tokenID := uuid.NewString()
	now := time.Now()
	expireAt := now.Add(time.Duration(c.auth.TokenExpireSecond) * time.Second)
	token, err := utils.JwtSign(c.auth.JwtKey, jwt.MapClaims{
		"userID": userID,
		"jti":    tokenID,
		"iat":    now.Unix(),
		"exp":    expireAt.Unix(),
	})
	if err != nil {
		xl.Errorf("failed to sign login token, error %v", err)
		return nil, err
	}
	activeUser := &model.AccountTokenDo{
		ID:        userID,
		AccountId: userID,
		Token:     token,
		TokenID:   tokenID,
		ExpireAt:  expireAt,
	}
	if err = c.tokens.Upsert(xl, activeUser); err != nil {
		xl.Errorf("failed to update or insert user login record, error %v", err)
		return nil, err
	}
	err = c.accountColl.Update(bson.M{"_id": userID}, bson.M{"$set": bson.M{"lastLoginTime": now}})
	if err != nil {
		// 更新登录时间失败不影响正常返回。
		xl.Errorf("failed to update user %s login time, error %v", userID, err)
	}
	return activeUser, nil
}

// AccountLogout 用户退出登录。
func (c *AccountService) AccountLogout(xl *xlog.Logger, userID string) error {
	return c.tokens.Delete(xl, userID)
}

// GetIDByToken 校验 token 签名与有效期，且必须是该账号当前的登录 token。
func (c *AccountService) GetIDByToken(xl *xlog.Logger, token string) (string, error) {
	if xl == nil {
		xl = c.xl
	}
	claims, err := utils.JwtDecode(c.auth.JwtKey, token)
	if err != nil {
		xl.Debugf("failed to decode token, error %v", err)
		return "", fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	userID, _ := claims["userID"].(string)
	if userID == "" {
		return "", ErrBadToken
	}
	record, err := c.tokens.GetOneByID(xl, userID)
	if err != nil {
		if err == mgo.ErrNotFound {
			xl.Infof("user %s not in active users", userID)
			return "", ErrBadToken
		}
		return "", err
	}
	if record.Token != token {
		xl.Infof("token of user %s has been replaced by a newer login", userID)
		return "", ErrBadToken
	}
	return userID, nil
}
