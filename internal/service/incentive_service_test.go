package service

import (
	"context"
	"testing"
	"time"

	"dreamgenie/internal/repository"
	"dreamgenie/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStreak 固定连续天数的成就数据源
type fakeStreak struct {
	days int
}

func (f *fakeStreak) ConsecutiveDays(_ context.Context, _ string) (int, error) {
	return f.days, nil
}

func newTestIncentiveService(streak *fakeStreak) (*IncentiveService, store.KV) {
	kv := store.NewMemoryKV()
	if streak == nil {
		streak = &fakeStreak{}
	}
	svc := NewIncentiveService(repository.NewKVIncentiveRepo(kv), streak, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return svc, kv
}

// TestAddPoints 积分累加并写入历史
func TestAddPoints(t *testing.T) {
	svc, _ := newTestIncentiveService(nil)
	ctx := context.Background()

	total, err := svc.AddPoints(ctx, "alice", 10, "每日睡眠分析")
	require.NoError(t, err)
	require.Equal(t, 10, total)

	total, err = svc.AddPoints(ctx, "alice", 5, "每日行为分析")
	require.NoError(t, err)
	require.Equal(t, 15, total)

	history, err := svc.PointsHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, 10, history[0].Points)
	require.Equal(t, "每日睡眠分析", history[0].Reason)
	require.NotEmpty(t, history[0].ID)
}

// TestGetPoints_UnknownUser 未知用户积分为 0
func TestGetPoints_UnknownUser(t *testing.T) {
	svc, _ := newTestIncentiveService(nil)

	total, err := svc.GetPoints(context.Background(), "nobody")
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

// TestAwardBadge_Idempotent 重复授予返回 (true, false)
func TestAwardBadge_Idempotent(t *testing.T) {
	svc, _ := newTestIncentiveService(nil)
	ctx := context.Background()

	added, err := svc.AwardBadge(ctx, "alice", "x")
	require.NoError(t, err)
	require.True(t, added)

	added, err = svc.AwardBadge(ctx, "alice", "x")
	require.NoError(t, err)
	require.False(t, added)

	badges, err := svc.GetBadges(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, badges)
}

// TestAwardBadge_OrderPreserved 徽章保持授予顺序
func TestAwardBadge_OrderPreserved(t *testing.T) {
	svc, _ := newTestIncentiveService(nil)
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		_, err := svc.AwardBadge(ctx, "alice", name)
		require.NoError(t, err)
	}

	badges, err := svc.GetBadges(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "a", "b"}, badges)
}

// TestUpdateHabit_CompletionOnce 完成奖励（50 分 + habit_master）只发一次
func TestUpdateHabit_CompletionOnce(t *testing.T) {
	svc, _ := newTestIncentiveService(nil)
	ctx := context.Background()

	habits, err := svc.UpdateHabit(ctx, "alice", "早睡", 60)
	require.NoError(t, err)
	require.Equal(t, 60, habits["早睡"].Progress)
	require.False(t, habits["早睡"].Completed)

	habits, err = svc.UpdateHabit(ctx, "alice", "早睡", 100)
	require.NoError(t, err)
	require.True(t, habits["早睡"].Completed)

	total, err := svc.GetPoints(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 50, total)

	badges, err := svc.GetBadges(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{BadgeHabitMaster}, badges)

	// 再次提交 100：完成状态与奖励不变
	habits, err = svc.UpdateHabit(ctx, "alice", "早睡", 100)
	require.NoError(t, err)
	require.True(t, habits["早睡"].Completed)

	total, err = svc.GetPoints(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 50, total)

	history, err := svc.PointsHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

// TestUpdateHabit_ProgressClamped 进度越界被收敛到 [0,100]
func TestUpdateHabit_ProgressClamped(t *testing.T) {
	svc, _ := newTestIncentiveService(nil)
	ctx := context.Background()

	habits, err := svc.UpdateHabit(ctx, "alice", "运动", 150)
	require.NoError(t, err)
	require.Equal(t, 100, habits["运动"].Progress)
	require.True(t, habits["运动"].Completed)

	habits, err = svc.UpdateHabit(ctx, "alice", "运动", -5)
	require.NoError(t, err)
	require.Equal(t, 0, habits["运动"].Progress)
	// 完成标记不可逆
	require.True(t, habits["运动"].Completed)
}

// TestIncentiveState_RoundTrip 持久化后重新加载得到相同状态
func TestIncentiveState_RoundTrip(t *testing.T) {
	svc, kv := newTestIncentiveService(nil)
	ctx := context.Background()

	_, err := svc.AddPoints(ctx, "alice", 30, "测试")
	require.NoError(t, err)
	_, err = svc.AwardBadge(ctx, "alice", "x")
	require.NoError(t, err)
	_, err = svc.UpdateHabit(ctx, "alice", "早睡", 80)
	require.NoError(t, err)

	// 同一 KV 上重建服务，状态应完整还原
	reloaded := NewIncentiveService(repository.NewKVIncentiveRepo(kv), &fakeStreak{}, zap.NewNop())

	total, err := reloaded.GetPoints(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 30, total)

	badges, err := reloaded.GetBadges(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, badges)

	habits, err := reloaded.GetHabits(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 80, habits["早睡"].Progress)
	require.False(t, habits["早睡"].Completed)
}

// TestCheckAchievements_WeeklyAnalyzer 连续 7 天分析授予 weekly_analyzer
func TestCheckAchievements_WeeklyAnalyzer(t *testing.T) {
	streak := &fakeStreak{days: 6}
	svc, _ := newTestIncentiveService(streak)
	ctx := context.Background()

	awarded, err := svc.CheckAchievements(ctx, "alice", ActionAnalyzeSleep, AchievementData{})
	require.NoError(t, err)
	require.Empty(t, awarded)

	streak.days = 7
	awarded, err = svc.CheckAchievements(ctx, "alice", ActionAnalyzeSleep, AchievementData{})
	require.NoError(t, err)
	require.Equal(t, []string{BadgeWeeklyAnalyzer}, awarded)

	// 已持有后不再重复上报
	awarded, err = svc.CheckAchievements(ctx, "alice", ActionAnalyzeSleep, AchievementData{})
	require.NoError(t, err)
	require.Empty(t, awarded)
}

// TestCheckAchievements_HealthMaster 行为评分达到 90 授予 health_master
func TestCheckAchievements_HealthMaster(t *testing.T) {
	svc, _ := newTestIncentiveService(nil)
	ctx := context.Background()

	awarded, err := svc.CheckAchievements(ctx, "alice", ActionAnalyzeBehavior, AchievementData{Score: 85})
	require.NoError(t, err)
	require.Empty(t, awarded)

	awarded, err = svc.CheckAchievements(ctx, "alice", ActionAnalyzeBehavior, AchievementData{Score: 95})
	require.NoError(t, err)
	require.Equal(t, []string{BadgeHealthMaster}, awarded)
}
