package model

import (
	"time"
)

/*
	db_model.go: 规定数据存储的格式。
*/

// AccountDo 用户账号信息。
type AccountDo struct {
	// 用户ID，作为数据库唯一标识。
	ID string `json:"id" bson:"_id"`
	// 邮箱，全局唯一，统一小写存储。
	Email string `json:"email" bson:"email"`
	// PasswordHash bcrypt 后的密码。
	PasswordHash string `json:"-" bson:"passwordHash"`
	Name         string `json:"name" bson:"name"`
	// Avatar 头像URL地址
	Avatar string `json:"avatar,omitempty" bson:"avatar,omitempty"`
	// Resume 简历，未填写时为空。
	Resume *ResumeDo `json:"resume,omitempty" bson:"resume,omitempty"`
	// RegisterTime 用户注册时间。
	RegisterTime time.Time `json:"registerTime" bson:"registerTime"`
	// LastLoginTime 上次登录时间。
	LastLoginTime time.Time `json:"lastLoginTime" bson:"lastLoginTime"`
}

// AccountTokenDo 已登录用户的信息，每个账号只保留一条，重新登录会使旧 token 失效。
type AccountTokenDo struct {
	ID        string `json:"id" bson:"_id"`
	AccountId string `json:"accountId" bson:"accountId"`
	// Token 本次登录使用的token。
	Token string `json:"token" bson:"token"`
	// TokenID token 中的 jti。
	TokenID        string    `json:"tokenId" bson:"tokenId"`
	ExpireAt       time.Time `json:"expireAt" bson:"expireAt"`
	LastModifyTime time.Time `json:"lastModifyTime" bson:"lastModifyTime"`
}

type ResumeSource string

const (
	ResumeSourceManual ResumeSource = "manual"
	ResumeSourceUpload ResumeSource = "upload"
)

// ResumeDo 候选人简历，手动填写或上传文件。
type ResumeDo struct {
	FullName        string         `json:"fullName" bson:"fullName"`
	Phone           string         `json:"phone" bson:"phone"`
	TargetRole      string         `json:"targetRole" bson:"targetRole"`
	ExperienceYears int            `json:"experienceYears" bson:"experienceYears"`
	Summary         string         `json:"summary" bson:"summary"`
	Skills          []string       `json:"skills" bson:"skills"`
	Education       []EducationDo  `json:"education" bson:"education"`
	Experience      []ExperienceDo `json:"experience" bson:"experience"`
	Projects        []ProjectDo    `json:"projects" bson:"projects"`
	FileURL         string         `json:"fileUrl,omitempty" bson:"fileUrl,omitempty"`
	FileName        string         `json:"fileName,omitempty" bson:"fileName,omitempty"`
	FileSize        int64          `json:"fileSize,omitempty" bson:"fileSize,omitempty"`
	Source          ResumeSource   `json:"source" bson:"source"`
	UpdatedTime     time.Time      `json:"updatedTime" bson:"updatedTime"`
}

type EducationDo struct {
	School    string `json:"school" bson:"school"`
	Degree    string `json:"degree" bson:"degree"`
	Field     string `json:"field" bson:"field"`
	StartYear int    `json:"startYear" bson:"startYear"`
	EndYear   int    `json:"endYear" bson:"endYear"`
}

type ExperienceDo struct {
	Company     string `json:"company" bson:"company"`
	Title       string `json:"title" bson:"title"`
	StartDate   string `json:"startDate" bson:"startDate"`
	EndDate     string `json:"endDate" bson:"endDate"`
	Description string `json:"description" bson:"description"`
}

type ProjectDo struct {
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	TechStack   []string `json:"techStack" bson:"techStack"`
}

// HasManualFields 是否已手动填写过简历内容。
func (r *ResumeDo) HasManualFields() bool {
	return r.FullName != "" || r.TargetRole != "" || len(r.Skills) > 0 ||
		len(r.Experience) > 0 || len(r.Education) > 0 || len(r.Projects) > 0
}
