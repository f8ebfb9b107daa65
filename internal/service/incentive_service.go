package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dreamgenie/internal/domain"
	"dreamgenie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 成就动作类型
const (
	ActionAnalyzeSleep    = "analyze_sleep"
	ActionAnalyzeBehavior = "analyze_behavior"
)

// 徽章名称
const (
	BadgeHabitMaster    = "habit_master"
	BadgeWeeklyAnalyzer = "weekly_analyzer"
	BadgeHealthMaster   = "health_master"
)

// 习惯完成的一次性奖励
const habitCompletionPoints = 50

// weeklyAnalyzerStreak 连续睡眠分析天数达标线
const weeklyAnalyzerStreak = 7

// streakSource 连续打卡天数来源（由睡眠历史提供，接口便于测试）
type streakSource interface {
	ConsecutiveDays(ctx context.Context, userID string) (int, error)
}

// AchievementData 成就判定用的行为数据
type AchievementData struct {
	Score float64 `json:"score"`
}

// IncentiveService 激励引擎：积分账本、徽章集合与习惯进度
// 每类资源一把锁，load-mutate-save 周期内互斥，防止并发请求丢更新
type IncentiveService struct {
	repo   repository.IncentiveRepo
	streak streakSource
	logger *zap.Logger
	now    func() time.Time

	pointsMu sync.Mutex
	badgesMu sync.Mutex
	habitsMu sync.Mutex
}

func NewIncentiveService(repo repository.IncentiveRepo, streak streakSource, logger *zap.Logger) *IncentiveService {
	return &IncentiveService{
		repo:   repo,
		streak: streak,
		logger: logger,
		now:    time.Now,
	}
}

// AddPoints 增加积分并追加历史条目，返回新的总分
func (s *IncentiveService) AddPoints(ctx context.Context, userID string, points int, reason string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user_id is required")
	}

	s.pointsMu.Lock()
	defer s.pointsMu.Unlock()

	total, err := s.repo.GetPoints(ctx, userID)
	if err != nil {
		return 0, err
	}
	total += points
	if err := s.repo.SetPoints(ctx, userID, total); err != nil {
		return 0, err
	}

	entry := domain.PointsEntry{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Points:    points,
		Reason:    reason,
	}
	if err := s.repo.AppendPointsHistory(ctx, userID, entry); err != nil {
		// 总分已更新，历史写入失败只记日志不回滚
		s.logger.Error("failed to append points history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return total, nil
}

// GetPoints 查询用户当前积分（无记录为 0）
func (s *IncentiveService) GetPoints(ctx context.Context, userID string) (int, error) {
	return s.repo.GetPoints(ctx, userID)
}

// PointsHistory 查询用户积分变动历史
func (s *IncentiveService) PointsHistory(ctx context.Context, userID string) ([]domain.PointsEntry, error) {
	return s.repo.ListPointsHistory(ctx, userID)
}

// AwardBadge 授予徽章；已持有时返回 false（幂等）
func (s *IncentiveService) AwardBadge(ctx context.Context, userID string, name string) (bool, error) {
	if userID == "" || name == "" {
		return false, fmt.Errorf("user_id and badge name are required")
	}

	s.badgesMu.Lock()
	defer s.badgesMu.Unlock()

	badges, err := s.repo.GetBadges(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, b := range badges {
		if b == name {
			return false, nil
		}
	}

	badges = append(badges, name)
	if err := s.repo.SetBadges(ctx, userID, badges); err != nil {
		return false, err
	}

	s.logger.Info("badge awarded",
		zap.String("user_id", userID),
		zap.String("badge", name),
	)
	return true, nil
}

// GetBadges 查询用户徽章（保持授予顺序）
func (s *IncentiveService) GetBadges(ctx context.Context, userID string) ([]string, error) {
	return s.repo.GetBadges(ctx, userID)
}

// GetHabits 查询用户全部习惯进度
func (s *IncentiveService) GetHabits(ctx context.Context, userID string) (map[string]domain.HabitProgress, error) {
	return s.repo.GetHabits(ctx, userID)
}

// UpdateHabit 更新习惯进度（首次引用时创建）
// progress 首次达到 100 时一次性：标记完成、奖励 50 积分、授予 habit_master；
// 之后再次提交 progress=100 只刷新 last_updated
func (s *IncentiveService) UpdateHabit(ctx context.Context, userID string, habitName string, progress int) (map[string]domain.HabitProgress, error) {
	if userID == "" || habitName == "" {
		return nil, fmt.Errorf("user_id and habit_name are required")
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	s.habitsMu.Lock()
	defer s.habitsMu.Unlock()

	habits, err := s.repo.GetHabits(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	habit, ok := habits[habitName]
	if !ok {
		habit = domain.HabitProgress{CreatedAt: now}
	}
	habit.Progress = progress
	habit.LastUpdated = now

	justCompleted := progress >= 100 && !habit.Completed
	if justCompleted {
		habit.Completed = true
	}
	habits[habitName] = habit

	if err := s.repo.SetHabits(ctx, userID, habits); err != nil {
		return nil, err
	}

	if justCompleted {
		if _, err := s.AddPoints(ctx, userID, habitCompletionPoints, fmt.Sprintf("完成习惯: %s", habitName)); err != nil {
			s.logger.Error("failed to award habit completion points",
				zap.String("user_id", userID),
				zap.String("habit", habitName),
				zap.Error(err),
			)
		}
		if _, err := s.AwardBadge(ctx, userID, BadgeHabitMaster); err != nil {
			s.logger.Error("failed to award habit_master badge",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return habits, nil
}

// CheckAchievements 按动作检查成就，返回本次新授予的徽章名
func (s *IncentiveService) CheckAchievements(ctx context.Context, userID string, action string, data AchievementData) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	var awarded []string

	switch action {
	case ActionAnalyzeSleep:
		days, err := s.streak.ConsecutiveDays(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check analysis streak: %w", err)
		}
		if days >= weeklyAnalyzerStreak {
			if ok, err := s.AwardBadge(ctx, userID, BadgeWeeklyAnalyzer); err != nil {
				return nil, err
			} else if ok {
				awarded = append(awarded, BadgeWeeklyAnalyzer)
			}
		}

	case ActionAnalyzeBehavior:
		if data.Score >= 90 {
			if ok, err := s.AwardBadge(ctx, userID, BadgeHealthMaster); err != nil {
				return nil, err
			} else if ok {
				awarded = append(awarded, BadgeHealthMaster)
			}
		}
	}

	return awarded, nil
}
