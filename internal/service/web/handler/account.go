package handler

import (
	"errors"
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/protodef/form"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/db"
)

type AccountInterface interface {
	// GetAccountByEmail 通过邮箱查询账号
	GetAccountByEmail(xl *xlog.Logger, email string) (*model.AccountDo, error)

	GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error)

	CreateAccount(xl *xlog.Logger, account *model.AccountDo) error

	UpdateAccount(xl *xlog.Logger, id string, name, avatar string) (*model.AccountDo, error)

	AccountLogin(xl *xlog.Logger, id string) (*model.AccountTokenDo, error)

	AccountLogout(xl *xlog.Logger, id string) error
}

type AccountApiHandler struct {
	Account           AccountInterface
	DefaultAvatarURLs []string
	Auth              utils.AuthConfig
}

func (h *AccountApiHandler) generateInitialAvatar() string {
	if len(h.DefaultAvatarURLs) == 0 {
		return ""
	}
	index := rand.Intn(len(h.DefaultAvatarURLs))
	return h.DefaultAvatarURLs[index]
}

// SignUp 邮箱注册，成功后直接登录。
func (h *AccountApiHandler) SignUp(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := form.SignUpForm{}
	if err := c.ShouldBindJSON(&args); err != nil {
		xl.Infof("SignUp: invalid args in body, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	args.Normalize()
	if err := args.Validate(); err != nil {
		writeResponseError(c, xl, model.NewResponseErrorValidation(err))
		return
	}
	hash, err := utils.HashPassword(args.Password)
	if err != nil {
		xl.Errorf("SignUp: failed to hash password, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorInternal())
		return
	}
	account := &model.AccountDo{
		ID:           utils.GenerateID(),
		Email:        args.Email,
		PasswordHash: hash,
		Name:         args.Name,
		Avatar:       h.generateInitialAvatar(),
	}
	if err := h.Account.CreateAccount(xl, account); err != nil {
		if errors.Is(err, db.ErrEmailUsed) {
			xl.Infof("SignUp: email %s already registered", args.Email)
		}
		writeError(c, xl, err)
		return
	}
	xl.Infof("SignUp: account %s created for %s", account.ID, account.Email)
	h.login(c, xl, account)
}

// SignIn 邮箱密码登录，邮箱不存在与密码错误返回相同错误。
func (h *AccountApiHandler) SignIn(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := form.SignInForm{}
	if err := c.ShouldBindJSON(&args); err != nil {
		xl.Infof("SignIn: invalid args in body, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	args.Normalize()
	if err := args.Validate(); err != nil {
		writeResponseError(c, xl, model.NewResponseErrorValidation(err))
		return
	}
	account, err := h.Account.GetAccountByEmail(xl, args.Email)
	if err != nil {
		if errors.Is(err, db.ErrNoSuchAccount) {
			xl.Infof("SignIn: email %s not registered", args.Email)
			writeResponseError(c, xl, model.NewResponseErrorWrongCredentials())
			return
		}
		writeError(c, xl, err)
		return
	}
	if !utils.CheckPassword(account.PasswordHash, args.Password) {
		xl.Infof("SignIn: wrong password for account %s", account.ID)
		writeResponseError(c, xl, model.NewResponseErrorWrongCredentials())
		return
	}
	h.login(c, xl, account)
}

func (h *AccountApiHandler) login(c *gin.Context, xl *xlog.Logger, account *model.AccountDo) {
	user, err := h.Account.AccountLogin(xl, account.ID)
	if err != nil {
		xl.Errorf("failed to set account %s to status logged in, error %v", account.ID, err)
		writeResponseError(c, xl, model.NewResponseErrorInternal())
		return
	}
	h.setTokenCookie(c, user.Token, h.Auth.TokenExpireSecond)
	writeSuccess(c, xl, model.LoginResponse{
		UserInfoResponse: model.NewUserInfoResponse(account),
		Token:            user.Token,
		ExpireAt:         user.ExpireAt.Unix(),
	})
}

func (h *AccountApiHandler) SignOut(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	userID := c.GetString(model.UserIDContextKey)
	if err := h.Account.AccountLogout(xl, userID); err != nil {
		xl.Errorf("user %s log out error: %v", userID, err)
		writeResponseError(c, xl, model.NewResponseErrorInternal())
		return
	}
	xl.Infof("user %s logged out", userID)
	h.setTokenCookie(c, "", -1)
	writeSuccess(c, xl, nil)
}

func (h *AccountApiHandler) setTokenCookie(c *gin.Context, token string, maxAge int) {
	name := h.Auth.CookieName
	if name == "" {
		name = "token"
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, maxAge, "/", "", h.Auth.SecureCookie, true)
}

func (h *AccountApiHandler) GetAccountInfo(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	accountId := c.GetString(model.UserIDContextKey)
	account, err := h.Account.GetAccountByID(xl, accountId)
	if err != nil {
		xl.Infof("cannot find account, error %v", err)
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, model.NewUserInfoResponse(account))
}

func (h *AccountApiHandler) UpdateAccountInfo(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	accountId := c.GetString(model.UserIDContextKey)

	args := form.UpdateAccountForm{}
	if err := c.ShouldBindJSON(&args); err != nil {
		xl.Infof("invalid args in request body, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	if err := args.Validate(); err != nil {
		writeResponseError(c, xl, model.NewResponseErrorValidation(err))
		return
	}
	account, err := h.Account.UpdateAccount(xl, accountId, args.Name, args.Avatar)
	if err != nil {
		writeError(c, xl, err)
		return
	}
	writeSuccess(c, xl, model.NewUserInfoResponse(account))
}
