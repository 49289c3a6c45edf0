package model

import "time"

// SessionStatus 模拟面试状态。
type SessionStatus string

const (
	SessionStatusCreated    SessionStatus = "created"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusTerminated SessionStatus = "terminated"
	SessionStatusAbandoned  SessionStatus = "abandoned"
)

// IsTerminal 结束状态不再接受任何流程操作。
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusTerminated, SessionStatusAbandoned:
		return true
	}
	return false
}

type AnswerMode string

const (
	AnswerModeSpoken  AnswerMode = "spoken"
	AnswerModeTyped   AnswerMode = "typed"
	AnswerModeSkipped AnswerMode = "skipped"
)

const (
	TerminationReasonEndedByUser = "ended_by_user"
	TerminationReasonProctoring  = "proctoring_violations"
	TerminationReasonStale       = "stale"
)

// InterviewSessionDo 一场模拟面试。
type InterviewSessionDo struct {
	ID              string   `bson:"_id" json:"id"`
	UserID          string   `bson:"user_id" json:"userId"`
	Role            string   `bson:"role" json:"role"`
	ExperienceYears int      `bson:"experience_years" json:"experienceYears"`
	Skills          []string `bson:"skills" json:"skills"`
	// ResumeSummary 出题时提供给模型的简历摘要。
	ResumeSummary string        `bson:"resume_summary,omitempty" json:"-"`
	QuestionCount int           `bson:"question_count" json:"questionCount"`
	Status        SessionStatus `bson:"status" json:"status"`
	Turns         []TurnDo      `bson:"turns" json:"turns"`
	// ViolationCount 已计入的违规次数。
	ViolationCount    int       `bson:"violation_count" json:"violationCount"`
	LastViolationTime time.Time `bson:"last_violation_time,omitempty" json:"-"`
	TerminationReason string    `bson:"termination_reason,omitempty" json:"terminationReason,omitempty"`
	CreatedTime       time.Time `bson:"created_time" json:"createdTime"`
	StartedTime       time.Time `bson:"started_time,omitempty" json:"startedTime,omitempty"`
	EndedTime         time.Time `bson:"ended_time,omitempty" json:"endedTime,omitempty"`
	UpdatedTime       time.Time `bson:"updated_time" json:"updatedTime"`
}

// OpenTurn 返回最后一个未作答的问题，没有则返回 nil。
func (s *InterviewSessionDo) OpenTurn() *TurnDo {
	if len(s.Turns) == 0 {
		return nil
	}
	last := &s.Turns[len(s.Turns)-1]
	if last.AnsweredTime.IsZero() {
		return last
	}
	return nil
}

// AnsweredCount 已作答（含跳过）的问题数。
func (s *InterviewSessionDo) AnsweredCount() int {
	n := 0
	for _, t := range s.Turns {
		if !t.AnsweredTime.IsZero() {
			n++
		}
	}
	return n
}

// TurnDo 一问一答。
type TurnDo struct {
	Index        int        `bson:"index" json:"index"`
	Question     string     `bson:"question" json:"question"`
	Topic        string     `bson:"topic" json:"topic"`
	Engine       string     `bson:"engine" json:"engine"`
	Answer       string     `bson:"answer" json:"answer"`
	AnswerMode   AnswerMode `bson:"answer_mode,omitempty" json:"answerMode,omitempty"`
	AskedTime    time.Time  `bson:"asked_time" json:"askedTime"`
	AnsweredTime time.Time  `bson:"answered_time,omitempty" json:"answeredTime,omitempty"`
}

// ViolationEventDo 监考事件记录，信息类事件同样保存。
type ViolationEventDo struct {
	ID         string    `bson:"_id" json:"id"`
	SessionID  string    `bson:"session_id" json:"sessionId"`
	UserID     string    `bson:"user_id" json:"userId"`
	Kind       string    `bson:"kind" json:"kind"`
	Counted    bool      `bson:"counted" json:"counted"`
	CountAfter int       `bson:"count_after" json:"countAfter"`
	ClientTime time.Time `bson:"client_time,omitempty" json:"clientTime,omitempty"`
	ServerTime time.Time `bson:"server_time" json:"serverTime"`
}

// ReportDo 面试报告，以面试ID作为主键缓存。
type ReportDo struct {
	ID                string         `bson:"_id" json:"sessionId"`
	UserID            string         `bson:"user_id" json:"userId"`
	Role              string         `bson:"role" json:"role"`
	SessionStatus     SessionStatus  `bson:"session_status" json:"sessionStatus"`
	OverallScore      int            `bson:"overall_score" json:"overallScore"`
	Summary           string         `bson:"summary" json:"summary"`
	Strengths         []string       `bson:"strengths" json:"strengths"`
	Improvements      []string       `bson:"improvements" json:"improvements"`
	Items             []ReportItemDo `bson:"items" json:"items"`
	ViolationCount    int            `bson:"violation_count" json:"violationCount"`
	TerminationReason string         `bson:"termination_reason,omitempty" json:"terminationReason,omitempty"`
	Engine            string         `bson:"engine" json:"engine"`
	GeneratedTime     time.Time      `bson:"generated_time" json:"generatedTime"`
}

type ReportItemDo struct {
	Index        int      `bson:"index" json:"index"`
	Question     string   `bson:"question" json:"question"`
	Answer       string   `bson:"answer" json:"answer"`
	AnswerMode   string   `bson:"answer_mode" json:"answerMode"`
	Score        int      `bson:"score" json:"score"`
	Feedback     string   `bson:"feedback" json:"feedback"`
	Strengths    []string `bson:"strengths" json:"strengths"`
	Improvements []string `bson:"improvements" json:"improvements"`
}

// ProctorEventKind 浏览器上报的监考事件类型。
type ProctorEventKind string

const (
	ProctorEventFullscreenExit    ProctorEventKind = "fullscreen_exit"
	ProctorEventVisibilityHidden  ProctorEventKind = "visibility_hidden"
	ProctorEventWindowBlur        ProctorEventKind = "window_blur"
	ProctorEventFullscreenEnter   ProctorEventKind = "fullscreen_enter"
	ProctorEventVisibilityVisible ProctorEventKind = "visibility_visible"
	ProctorEventWindowFocus       ProctorEventKind = "window_focus"
)

// IsViolation 只有离开全屏、页面隐藏与失焦计为违规。
func (k ProctorEventKind) IsViolation() bool {
	switch k {
	case ProctorEventFullscreenExit, ProctorEventVisibilityHidden, ProctorEventWindowBlur:
		return true
	}
	return false
}

func (k ProctorEventKind) IsKnown() bool {
	switch k {
	case ProctorEventFullscreenEnter, ProctorEventVisibilityVisible, ProctorEventWindowFocus:
		return true
	}
	return k.IsViolation()
}
