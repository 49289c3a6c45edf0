package form

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/solutions/mock-interview/internal/protodef/model"
)

// ResumeForm 手动填写的简历。
type ResumeForm struct {
	FullName        string               `json:"fullName" form:"fullName"`
	Phone           string               `json:"phone" form:"phone"`
	TargetRole      string               `json:"targetRole" form:"targetRole"`
	ExperienceYears int                  `json:"experienceYears" form:"experienceYears"`
	Summary         string               `json:"summary" form:"summary"`
	Skills          []string             `json:"skills" form:"skills"`
	Education       []model.EducationDo  `json:"education"`
	Experience      []model.ExperienceDo `json:"experience"`
	Projects        []model.ProjectDo    `json:"projects"`
}

func (f *ResumeForm) Validate() error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.TargetRole = strings.TrimSpace(f.TargetRole)
	skills := make([]string, 0, len(f.Skills))
	for _, s := range f.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	f.Skills = skills
	return validation.ValidateStruct(f,
		validation.Field(&f.FullName, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&f.Phone, validation.RuneLength(0, 30)),
		validation.Field(&f.TargetRole, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&f.ExperienceYears, validation.Min(0), validation.Max(60)),
		validation.Field(&f.Summary, validation.RuneLength(0, 2000)),
		validation.Field(&f.Skills, validation.Length(0, 50), validation.Each(validation.RuneLength(1, 50))),
		validation.Field(&f.Education, validation.Length(0, 20)),
		validation.Field(&f.Experience, validation.Length(0, 30)),
		validation.Field(&f.Projects, validation.Length(0, 30)),
	)
}

// Merge 用表单覆盖手动填写的部分，保留已上传文件的信息。
func (f *ResumeForm) Merge(old *model.ResumeDo, now time.Time) *model.ResumeDo {
	resume := &model.ResumeDo{
		FullName:        f.FullName,
		Phone:           f.Phone,
		TargetRole:      f.TargetRole,
		ExperienceYears: f.ExperienceYears,
		Summary:         f.Summary,
		Skills:          f.Skills,
		Education:       f.Education,
		Experience:      f.Experience,
		Projects:        f.Projects,
		Source:          model.ResumeSourceManual,
		UpdatedTime:     now,
	}
	if old != nil {
		resume.FileURL = old.FileURL
		resume.FileName = old.FileName
		resume.FileSize = old.FileSize
	}
	return resume
}
