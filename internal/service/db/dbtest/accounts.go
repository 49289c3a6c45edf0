// Package dbtest 内存版账号服务，供单元测试使用。
package dbtest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/db"
)

var ErrBadToken = errors.New("token not found")

type Accounts struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]model.AccountDo
	tokens   map[string]string
	ttl      time.Duration
	// SaveErr 非空时 SaveResume 返回该错误
	SaveErr error
}

func NewAccounts() *Accounts {
	return &Accounts{
		accounts: make(map[string]model.AccountDo),
		tokens:   make(map[string]string),
		ttl:      time.Hour,
	}
}

func (a *Accounts) CreateAccount(xl *xlog.Logger, account *model.AccountDo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.accounts {
		if existing.Email == account.Email {
			return db.ErrEmailUsed
		}
	}
	if account.RegisterTime.IsZero() {
		account.RegisterTime = time.Now()
	}
	a.accounts[account.ID] = *account
	return nil
}

func (a *Accounts) GetAccountByEmail(xl *xlog.Logger, email string) (*model.AccountDo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, account := range a.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, db.ErrNoSuchAccount
}

func (a *Accounts) GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	account, ok := a.accounts[id]
	if !ok {
		return nil, db.ErrNoSuchAccount
	}
	return &account, nil
}

func (a *Accounts) UpdateAccount(xl *xlog.Logger, id string, name, avatar string) (*model.AccountDo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	account, ok := a.accounts[id]
	if !ok {
		return nil, db.ErrNoSuchAccount
	}
	if name != "" {
		account.Name = name
	}
	if avatar != "" {
		account.Avatar = avatar
	}
	a.accounts[id] = account
	return &account, nil
}

func (a *Accounts) SaveResume(xl *xlog.Logger, id string, resume *model.ResumeDo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.SaveErr != nil {
		return a.SaveErr
	}
	account, ok := a.accounts[id]
	if !ok {
		return db.ErrNoSuchAccount
	}
	copied := *resume
	account.Resume = &copied
	a.accounts[id] = account
	return nil
}

// AccountLogin 签发新 token，旧 token 失效。
func (a *Accounts) AccountLogin(xl *xlog.Logger, id string) (*model.AccountTokenDo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.accounts[id]; !ok {
		return nil, db.ErrNoSuchAccount
	}
	a.dropTokens(id)
	a.seq++
	token := fmt.Sprintf("token-%s-%d", id, a.seq)
	a.tokens[token] = id
	now := time.Now()
	return &model.AccountTokenDo{
		ID:             id,
		AccountId:      id,
		Token:          token,
		ExpireAt:       now.Add(a.ttl),
		LastModifyTime: now,
	}, nil
}

func (a *Accounts) AccountLogout(xl *xlog.Logger, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dropTokens(id)
	return nil
}

func (a *Accounts) GetIDByToken(xl *xlog.Logger, token string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.tokens[token]
	if !ok {
		return "", ErrBadToken
	}
	return id, nil
}

// Delete 删除账号但保留 token。
func (a *Accounts) Delete(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.accounts, id)
}

func (a *Accounts) dropTokens(id string) {
	for token, owner := range a.tokens {
		if owner == id {
			delete(a.tokens, token)
		}
	}
}
