package service

import (
	"context"
	"testing"
	"time"

	"dreamgenie/internal/domain"
	"dreamgenie/internal/repository"
	"dreamgenie/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSleepService() (*SleepService, repository.SleepRecordsRepo) {
	repo := repository.NewKVSleepRecordsRepo(store.NewMemoryKV())
	svc := NewSleepService(repo, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

// TestRecordAndAnalyze_Basic 分析结果包含分数/建议/等级，且当日记录落盘
func TestRecordAndAnalyze_Basic(t *testing.T) {
	svc, repo := newTestSleepService()
	ctx := context.Background()

	analysis, err := svc.RecordAndAnalyze(ctx, "alice", 8.0, "22:30")
	require.NoError(t, err)
	require.Equal(t, 10.0, analysis.QualityScore)
	require.Equal(t, "优秀", analysis.HealthLevel.Level)
	require.NotEmpty(t, analysis.Suggestions)

	records, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 10.0, records["2026-08-28"].QualityScore)
}

// TestRecordAndAnalyze_OverwritesSameDay 同一天重复分析覆盖而非追加
func TestRecordAndAnalyze_OverwritesSameDay(t *testing.T) {
	svc, repo := newTestSleepService()
	ctx := context.Background()

	_, err := svc.RecordAndAnalyze(ctx, "alice", 8.0, "22:30")
	require.NoError(t, err)
	_, err = svc.RecordAndAnalyze(ctx, "alice", 3.0, "02:00")
	require.NoError(t, err)

	records, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 3.8, records["2026-08-28"].QualityScore)
	require.Equal(t, "02:00", records["2026-08-28"].Bedtime)
}

// TestTrends_Empty 窗口内无记录返回 nil
func TestTrends_Empty(t *testing.T) {
	svc, _ := newTestSleepService()

	trends, err := svc.Trends(context.Background(), "nobody", 7)
	require.NoError(t, err)
	require.Nil(t, trends)
}

// TestTrends_SkipsMissingDates 均值只对存在的记录计算，缺失日期跳过
func TestTrends_SkipsMissingDates(t *testing.T) {
	svc, repo := newTestSleepService()
	ctx := context.Background()

	// 今天 8.0 分，3 天前 6.0 分，其余日期无记录
	require.NoError(t, repo.Save(ctx, "alice", "2026-08-28", domain.SleepRecord{SleepHours: 8, Bedtime: "22:30", QualityScore: 8.0}))
	require.NoError(t, repo.Save(ctx, "alice", "2026-08-25", domain.SleepRecord{SleepHours: 6, Bedtime: "01:00", QualityScore: 6.0}))
	// 窗口外的记录不参与统计
	require.NoError(t, repo.Save(ctx, "alice", "2026-08-01", domain.SleepRecord{SleepHours: 4, Bedtime: "03:00", QualityScore: 2.0}))

	trends, err := svc.Trends(ctx, "alice", 7)
	require.NoError(t, err)
	require.NotNil(t, trends)
	require.Equal(t, 7.0, trends.AvgSleepHours)
	require.Equal(t, 7.0, trends.AvgQualityScore)
}

// TestTrends_Direction 两种趋势判定方向
func TestTrends_Direction(t *testing.T) {
	svc, repo := newTestSleepService()
	ctx := context.Background()

	// 最近（今天）8.0 分，最早（3 天前）6.0 分
	require.NoError(t, repo.Save(ctx, "alice", "2026-08-28", domain.SleepRecord{SleepHours: 8, QualityScore: 8.0}))
	require.NoError(t, repo.Save(ctx, "alice", "2026-08-25", domain.SleepRecord{SleepHours: 6, QualityScore: 6.0}))

	trends, err := svc.Trends(ctx, "alice", 7)
	require.NoError(t, err)
	require.Equal(t, "improving", trends.Trend)

	svc.SetTrendDirection(TrendOldestHigher)
	trends, err = svc.Trends(ctx, "alice", 7)
	require.NoError(t, err)
	require.Equal(t, "stable", trends.Trend)
}

// TestTrends_SingleRecordIsStable 少于 2 条记录不判定趋势
func TestTrends_SingleRecordIsStable(t *testing.T) {
	svc, repo := newTestSleepService()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "alice", "2026-08-28", domain.SleepRecord{SleepHours: 8, QualityScore: 8.0}))

	trends, err := svc.Trends(ctx, "alice", 7)
	require.NoError(t, err)
	require.Equal(t, "stable", trends.Trend)
}

// TestConsecutiveDays 连续天数从今天向前数，断档即停
func TestConsecutiveDays(t *testing.T) {
	svc, repo := newTestSleepService()
	ctx := context.Background()

	days, err := svc.ConsecutiveDays(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 0, days)

	require.NoError(t, repo.Save(ctx, "alice", "2026-08-28", domain.SleepRecord{QualityScore: 8}))
	require.NoError(t, repo.Save(ctx, "alice", "2026-08-27", domain.SleepRecord{QualityScore: 7}))
	require.NoError(t, repo.Save(ctx, "alice", "2026-08-26", domain.SleepRecord{QualityScore: 6}))
	// 断档
	require.NoError(t, repo.Save(ctx, "alice", "2026-08-24", domain.SleepRecord{QualityScore: 5}))

	days, err = svc.ConsecutiveDays(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 3, days)
}
