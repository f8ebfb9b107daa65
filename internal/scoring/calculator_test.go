package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSleepScore_IdealWindow 最佳入睡时间 + 理想时长
func TestSleepScore_IdealWindow(t *testing.T) {
	// 22:30 入睡：窗口 = 24-22.5+7 = 8.5，base = 8/8.5*10 ≈ 9.41
	// 9.41 * 1.2 * 1.1 > 10，封顶 10.0
	require.Equal(t, 10.0, SleepScore(8.0, "22:30"))
}

// TestSleepScore_LateNight 凌晨入睡惩罚
func TestSleepScore_LateNight(t *testing.T) {
	// 02:00 入睡：窗口 = 7-2 = 5，base = 3/5*10 = 6.0
	// 6.0 * 0.8 * 0.8 = 3.84 → 3.8
	require.Equal(t, 3.8, SleepScore(3.0, "02:00"))
}

// TestSleepScore_BestBand 理想区间内（7-9h，21:00-23:30）始终命中 1.2/1.1 档
func TestSleepScore_BestBand(t *testing.T) {
	cases := []struct {
		hours   float64
		bedtime string
		window  float64
	}{
		{7.0, "21:00", 10.0},
		{8.0, "22:00", 9.0},
		{9.0, "23:30", 7.5},
	}
	for _, c := range cases {
		expected := math.Min(10, c.hours/c.window*10*1.2*1.1)
		expected = math.Round(expected*10) / 10
		require.Equal(t, expected, SleepScore(c.hours, c.bedtime),
			"hours=%v bedtime=%s", c.hours, c.bedtime)
	}
}

// TestSleepScore_MalformedBedtime 无法解析时返回中性默认分
func TestSleepScore_MalformedBedtime(t *testing.T) {
	require.Equal(t, DefaultScore, SleepScore(8.0, "night"))
	require.Equal(t, DefaultScore, SleepScore(8.0, ""))
	require.Equal(t, DefaultScore, SleepScore(8.0, "22:30:15"))
}

// TestBehaviorScore_NoScreen 无屏幕使用给满分
func TestBehaviorScore_NoScreen(t *testing.T) {
	require.Equal(t, 10.0, BehaviorScore(0, 0))
	require.Equal(t, 10.0, BehaviorScore(0, 120))
	require.Equal(t, 10.0, BehaviorScore(-1, 30))
}

// TestBehaviorScore_ModerateUse 中度屏幕使用 + 适量运动
func TestBehaviorScore_ModerateUse(t *testing.T) {
	// ratio = min(10, 30/5) = 6，penalty = 0.8（>4h），bonus = 1.1（>=30min）
	// 6 * 0.8 * 1.1 = 5.28 → 5.3
	require.Equal(t, 5.3, BehaviorScore(5, 30))
}

// TestBehaviorScore_MonotonicInExercise 固定屏幕时间下，运动越多分数不降
func TestBehaviorScore_MonotonicInExercise(t *testing.T) {
	prev := 0.0
	for minutes := 0.0; minutes <= 180; minutes += 5 {
		score := BehaviorScore(6, minutes)
		require.GreaterOrEqual(t, score, prev, "minutes=%v", minutes)
		prev = score
	}
}

// TestBehaviorScore_HeavyScreenPenalty 重度屏幕使用减半
func TestBehaviorScore_HeavyScreenPenalty(t *testing.T) {
	// ratio = min(10, 60/10) = 6，penalty = 0.5，bonus = 1.2
	// 6 * 0.5 * 1.2 = 3.6
	require.Equal(t, 3.6, BehaviorScore(10, 60))
}

// TestComprehensiveScore 加权平均 + 完整性惩罚
func TestComprehensiveScore(t *testing.T) {
	require.Equal(t, 7.2, ComprehensiveScore(8, 6))
	// 行为分缺失：4.8 * 0.8 = 3.84 → 3.8
	require.Equal(t, 3.8, ComprehensiveScore(8, 0))
	require.Equal(t, 10.0, ComprehensiveScore(10, 10))
}

// TestLevel 健康等级分档
func TestLevel(t *testing.T) {
	require.Equal(t, "优秀", Level(9.0).Level)
	require.Equal(t, "良好", Level(7.5).Level)
	require.Equal(t, "一般", Level(5.0).Level)
	require.Equal(t, "较差", Level(3.2).Level)
	require.Equal(t, "很差", Level(1.0).Level)
}

// TestSleepSuggestions 建议按分数分档
func TestSleepSuggestions(t *testing.T) {
	require.Contains(t, SleepSuggestions(4.0)[0], "较差")
	require.Contains(t, SleepSuggestions(6.0)[0], "一般")
	require.Contains(t, SleepSuggestions(8.0)[0], "良好")
}

// TestActivityScore 扣分制规则与建议一一对应
func TestActivityScore(t *testing.T) {
	// 无违规
	score, advice := ActivityScore(2, 60, "22:00")
	require.Equal(t, 100, score)
	require.Empty(t, advice)

	// 屏幕超标
	score, advice = ActivityScore(5, 60, "22:00")
	require.Equal(t, 80, score)
	require.Len(t, advice, 1)

	// 屏幕超标 + 运动不足 + 晚睡
	score, advice = ActivityScore(5, 10, "01:00")
	require.Equal(t, 50, score)
	require.Len(t, advice, 3)

	// bedtime 无法解析时跳过晚睡规则
	score, advice = ActivityScore(5, 10, "bad")
	require.Equal(t, 65, score)
	require.Len(t, advice, 2)
}
