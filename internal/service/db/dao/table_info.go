package dao

const (
	// CollectionAccount 存储账号信息的表，简历内嵌在账号文档中。
	CollectionAccount = "accounts"
	// CollectionAccountToken 存储已登录用户的表。
	CollectionAccountToken = "account_token"

	// CollectionInterview 模拟面试
	CollectionInterview = "interviews"
	// CollectionProctorEvent 监考事件流水
	CollectionProctorEvent = "interview_proctor_events"
	// CollectionReport 面试报告缓存
	CollectionReport = "interview_reports"
)
