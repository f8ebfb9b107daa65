package domain

import "time"

// SleepRecord 某用户某个日历日的睡眠记录
// 同一天重复分析时覆盖，不追加（每用户每天至多一条）
type SleepRecord struct {
	SleepHours   float64 `json:"sleep_hours"`
	Bedtime      string  `json:"bedtime"`
	QualityScore float64 `json:"quality_score"`
}

// HabitProgress 用户习惯的进度状态
// Completed 仅在 Progress 首次达到 100 时翻转为 true，且不可逆
type HabitProgress struct {
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
	Completed   bool      `json:"completed"`
}

// PointsEntry 积分变动历史条目（每用户一条 append-only 序列）
type PointsEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
}
