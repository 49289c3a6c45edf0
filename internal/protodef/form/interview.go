package form

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/solutions/mock-interview/internal/protodef/model"
)

const (
	ErrRoleMsg          = "请填写应聘岗位或先完善简历"
	ErrQuestionCountMsg = "问题数需在1到20之间"
	ErrEventKindMsg     = "未知的监考事件类型"
)

const MaxQuestionCount = 20

// InterviewCreateForm 创建模拟面试参数，未填写的字段从简历中补全。
type InterviewCreateForm struct {
	Role            string   `json:"role" form:"role"`
	ExperienceYears int      `json:"experienceYears" form:"experienceYears"`
	Skills          []string `json:"skills" form:"skills"`
	QuestionCount   int      `json:"questionCount" form:"questionCount"`
}

// FillDefault 使用简历与配置补全默认值。
func (i *InterviewCreateForm) FillDefault(resume *model.ResumeDo, questionCount int) {
	i.Role = strings.TrimSpace(i.Role)
	if resume != nil {
		if i.Role == "" {
			i.Role = resume.TargetRole
		}
		if i.ExperienceYears == 0 {
			i.ExperienceYears = resume.ExperienceYears
		}
		if len(i.Skills) == 0 {
			i.Skills = resume.Skills
		}
	}
	if i.QuestionCount == 0 {
		i.QuestionCount = questionCount
	}
}

func (i *InterviewCreateForm) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.Role, validation.Required.Error(ErrRoleMsg), validation.RuneLength(1, 100)),
		validation.Field(&i.ExperienceYears, validation.Min(0), validation.Max(60)),
		validation.Field(&i.Skills, validation.Length(0, 50)),
		validation.Field(&i.QuestionCount, validation.Min(1).Error(ErrQuestionCountMsg), validation.Max(MaxQuestionCount).Error(ErrQuestionCountMsg)),
	)
}

// AnswerForm 提交回答，Index 为当前问题序号。
type AnswerForm struct {
	Index  int    `json:"index" form:"index"`
	Answer string `json:"answer" form:"answer"`
	Mode   string `json:"mode" form:"mode"`
}

func (a *AnswerForm) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Index, validation.Min(0)),
		validation.Field(&a.Mode, validation.In(string(model.AnswerModeSpoken), string(model.AnswerModeTyped), string(model.AnswerModeSkipped))),
	)
}

// ProctorEventForm 浏览器上报的监考事件，ClientTime 为毫秒时间戳。
type ProctorEventForm struct {
	Kind       string `json:"kind" form:"kind"`
	ClientTime int64  `json:"clientTime" form:"clientTime"`
}

func (p *ProctorEventForm) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Kind, validation.Required, validation.By(func(value interface{}) error {
			if !model.ProctorEventKind(value.(string)).IsKnown() {
				return validation.NewError("validation_proctor_kind", ErrEventKindMsg)
			}
			return nil
		})),
		validation.Field(&p.ClientTime, validation.Min(int64(0))),
	)
}
