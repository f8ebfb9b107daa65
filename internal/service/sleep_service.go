package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"dreamgenie/internal/domain"
	"dreamgenie/internal/repository"
	"dreamgenie/internal/scoring"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// TrendDirection 睡眠趋势判定方向
// 旧版实现对比最早与最近记录的方向存在歧义（取决于持久化键的遍历顺序），
// 这里把两个方向都显式建模，默认取"最近得分更高视为改善"
type TrendDirection int

const (
	// TrendRecentHigher 最近记录得分高于窗口内最早记录 → "improving"
	TrendRecentHigher TrendDirection = iota
	// TrendOldestHigher 最早记录得分更高 → "improving"（旧版行为）
	TrendOldestHigher
)

// SleepAnalysis 单次睡眠分析结果
type SleepAnalysis struct {
	QualityScore float64             `json:"quality_score"`
	Suggestions  []string            `json:"suggestions"`
	HealthLevel  scoring.HealthLevel `json:"health_level"`
}

// SleepTrends 滚动窗口内的睡眠趋势统计
type SleepTrends struct {
	AvgSleepHours   float64 `json:"avg_sleep_hours"`
	AvgQualityScore float64 `json:"avg_quality_score"`
	Trend           string  `json:"trend"` // "improving" | "stable"
}

// SleepService 睡眠历史跟踪：按日记录评分并派生趋势统计
type SleepService struct {
	records  repository.SleepRecordsRepo
	logger   *zap.Logger
	trendDir TrendDirection
	now      func() time.Time

	// 每资源一把锁：load-mutate-save 周期的互斥边界
	mu sync.Mutex
}

func NewSleepService(records repository.SleepRecordsRepo, logger *zap.Logger) *SleepService {
	return &SleepService{
		records:  records,
		logger:   logger,
		trendDir: TrendRecentHigher,
		now:      time.Now,
	}
}

// SetTrendDirection 切换趋势判定方向
func (s *SleepService) SetTrendDirection(d TrendDirection) {
	s.trendDir = d
}

// RecordAndAnalyze 计算睡眠质量分数并覆盖写入当日记录
// 同一用户同一天重复调用时覆盖，不追加
func (s *SleepService) RecordAndAnalyze(ctx context.Context, userID string, sleepHours float64, bedtime string) (*SleepAnalysis, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	score := scoring.SleepScore(sleepHours, bedtime)

	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format(dateLayout)
	rec := domain.SleepRecord{
		SleepHours:   sleepHours,
		Bedtime:      bedtime,
		QualityScore: score,
	}
	if err := s.records.Save(ctx, userID, today, rec); err != nil {
		s.logger.Error("failed to save sleep record",
			zap.String("user_id", userID),
			zap.String("date", today),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save sleep record: %w", err)
	}

	return &SleepAnalysis{
		QualityScore: score,
		Suggestions:  scoring.SleepSuggestions(score),
		HealthLevel:  scoring.Level(score),
	}, nil
}

// Trends 扫描最近 days 个日历日（缺失日期直接跳过）并求均值
// 窗口内没有任何记录时返回 (nil, nil)
func (s *SleepService) Trends(ctx context.Context, userID string, days int) (*SleepTrends, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if days <= 0 {
		days = 7
	}

	all, err := s.records.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sleep records: %w", err)
	}

	// 扫描顺序：今天向前，recent[0] 为最近一条
	now := s.now()
	var recent []domain.SleepRecord
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -i).Format(dateLayout)
		if rec, ok := all[date]; ok {
			recent = append(recent, rec)
		}
	}
	if len(recent) == 0 {
		return nil, nil
	}

	var sumHours, sumScore float64
	for _, rec := range recent {
		sumHours += rec.SleepHours
		sumScore += rec.QualityScore
	}
	n := float64(len(recent))

	trend := "stable"
	if len(recent) >= 2 {
		newest, oldest := recent[0].QualityScore, recent[len(recent)-1].QualityScore
		switch s.trendDir {
		case TrendOldestHigher:
			if oldest > newest {
				trend = "improving"
			}
		default:
			if newest > oldest {
				trend = "improving"
			}
		}
	}

	return &SleepTrends{
		AvgSleepHours:   round1(sumHours / n),
		AvgQualityScore: round1(sumScore / n),
		Trend:           trend,
	}, nil
}

// ConsecutiveDays 从今天起向前连续有记录的天数（含今天）
// 用于"连续打卡"类成就的真实判定
func (s *SleepService) ConsecutiveDays(ctx context.Context, userID string) (int, error) {
	all, err := s.records.Load(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load sleep records: %w", err)
	}

	now := s.now()
	streak := 0
	for {
		date := now.AddDate(0, 0, -streak).Format(dateLayout)
		if _, ok := all[date]; !ok {
			break
		}
		streak++
	}
	return streak, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
