package form

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	ErrPasswordLengthMsg = "密码长度需在6到72个字符之间"
	ErrNameLengthMsg     = "昵称长度不应超过50个字符"
)

// SignUpForm 注册参数
type SignUpForm struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Normalize 去除首尾空白，邮箱统一小写。
func (f *SignUpForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = NormalizeEmail(f.Email)
}

func (f *SignUpForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required, validation.RuneLength(1, 50).Error(ErrNameLengthMsg)),
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		// bcrypt 只使用前72字节
		validation.Field(&f.Password, validation.Required, validation.Length(6, 72).Error(ErrPasswordLengthMsg)),
	)
}

// SignInForm 邮箱密码登录参数
type SignInForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (f *SignInForm) Normalize() {
	f.Email = NormalizeEmail(f.Email)
}

func (f *SignInForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Email, validation.Required),
		validation.Field(&f.Password, validation.Required),
	)
}

// UpdateAccountForm 修改用户信息参数，空字段不修改。
type UpdateAccountForm struct {
	Name   string `json:"name" form:"name"`
	Avatar string `json:"avatar" form:"avatar"`
}

func (f *UpdateAccountForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.RuneLength(0, 50).Error(ErrNameLengthMsg)),
		validation.Field(&f.Avatar, validation.Length(0, 512)),
	)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
