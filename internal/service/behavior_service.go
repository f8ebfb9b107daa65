package service

import (
	"dreamgenie/internal/scoring"
	"dreamgenie/internal/signal"

	"go.uber.org/zap"
)

// BehaviorResult 行为分析结果（0-10 乘法公式）
type BehaviorResult struct {
	Score        float64             `json:"score"`
	ScreenTime   float64             `json:"screen_time"`
	ExerciseTime float64             `json:"exercise_time"`
	Steps        int                 `json:"steps"`
	HealthLevel  scoring.HealthLevel `json:"health_level"`
	DataSource   signal.Source       `json:"data_source"`
}

// ActivityResult 原始活动数据分析结果（0-100 扣分公式）
type ActivityResult struct {
	Score  int      `json:"score"`
	Advice []string `json:"advice"`
}

// ClientData 客户端自报的设备数据（无服务端信号源时使用）
type ClientData struct {
	ScreenTimeHours float64 `json:"screen_time_hours"`
	Steps           int     `json:"steps"`
}

// BehaviorService 行为分析：解析信号源 → 归一化测量 → 评分
type BehaviorService struct {
	resolver *signal.Resolver
	logger   *zap.Logger
}

func NewBehaviorService(resolver *signal.Resolver, logger *zap.Logger) *BehaviorService {
	return &BehaviorService{resolver: resolver, logger: logger}
}

// Analyze 按当前信号源采集测量并计算行为分数
// client 非 nil 时直接采用客户端自报数据（视为 fallback 来源），不再探测
func (s *BehaviorService) Analyze(exerciseMinutes float64, client *ClientData) *BehaviorResult {
	var snap signal.Snapshot
	if client != nil {
		screen := client.ScreenTimeHours
		if screen <= 0 {
			screen = 2.5
		}
		steps := client.Steps
		if steps <= 0 {
			steps = 5000
		}
		snap = signal.Snapshot{
			Source:          signal.SourceFallback,
			ScreenTimeHours: screen,
			Steps:           steps,
			ExerciseMinutes: exerciseMinutes,
		}
	} else {
		snap = s.resolver.Collect(signal.Input{ExerciseMinutes: exerciseMinutes})
	}

	score := scoring.BehaviorScore(snap.ScreenTimeHours, snap.ExerciseMinutes)

	s.logger.Debug("behavior analyzed",
		zap.String("data_source", string(snap.Source)),
		zap.Float64("screen_time_hours", snap.ScreenTimeHours),
		zap.Float64("exercise_minutes", snap.ExerciseMinutes),
		zap.Float64("score", score),
	)

	return &BehaviorResult{
		Score:        score,
		ScreenTime:   snap.ScreenTimeHours,
		ExerciseTime: snap.ExerciseMinutes,
		Steps:        snap.Steps,
		HealthLevel:  scoring.Level(score),
		DataSource:   snap.Source,
	}
}

// AnalyzeActivity 原始活动数据直达时的 0-100 扣分评分
// 与 Analyze 的公式互不兼容，调用方按数据来源二选一
func (s *BehaviorService) AnalyzeActivity(screenTimeHours, exerciseMinutes float64, bedtime string) *ActivityResult {
	score, advice := scoring.ActivityScore(screenTimeHours, exerciseMinutes, bedtime)
	return &ActivityResult{Score: score, Advice: advice}
}

// Snapshot 当前信号源快照（诊断用）
func (s *BehaviorService) Snapshot() signal.Snapshot {
	return s.resolver.Collect(signal.Input{})
}
