package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// 健康评分纯计算。所有评分函数不返回 error：
// 输入异常时退回默认分 DefaultScore，调用方总能拿到可用结果。

// DefaultScore 输入无法解析时的中性默认分
const DefaultScore = 5.0

// HealthLevel 健康等级（用于前端展示的等级/颜色/图标）
type HealthLevel struct {
	Level string `json:"level"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// SleepScore 计算睡眠健康分数（0-10，保留 1 位小数）
// bedtime 为 "HH:MM" 格式；解析失败时返回 DefaultScore
func SleepScore(sleepHours float64, bedtime string) float64 {
	b, err := parseBedtime(bedtime)
	if err != nil {
		return DefaultScore
	}

	// 理想睡眠窗口（21:00-23:30 为最佳入睡时间，窗口计至次日 07:00）
	var window, bonus float64
	switch {
	case b >= 21 && b <= 23.5:
		window = 24 - b + 7
		bonus = 1.2
	case b >= 20:
		window = 24 - b + 7
		bonus = 1.0
	default:
		// 凌晨入睡
		if b < 7 {
			window = 7 - b
		} else {
			window = 1
		}
		bonus = 0.8
	}

	base := sleepHours / math.Max(window, 1) * 10

	// 睡眠时长调整
	var duration float64
	switch {
	case sleepHours >= 7 && sleepHours <= 9:
		duration = 1.1
	case (sleepHours >= 6 && sleepHours < 7) || (sleepHours > 9 && sleepHours <= 10):
		duration = 1.0
	default:
		duration = 0.8
	}

	return round1(math.Min(10, base*bonus*duration))
}

// BehaviorScore 计算行为健康分数（0-10，保留 1 位小数）
// screenTimeHours <= 0 时视为无屏幕使用，直接满分
func BehaviorScore(screenTimeHours, exerciseMinutes float64) float64 {
	if screenTimeHours <= 0 {
		return 10.0
	}

	// 每小时屏幕时间对应的运动分钟数，封顶 10
	ratio := math.Min(10, exerciseMinutes/screenTimeHours)

	// 屏幕时间惩罚
	var penalty float64
	switch {
	case screenTimeHours > 8:
		penalty = 0.5
	case screenTimeHours > 4:
		penalty = 0.8
	default:
		penalty = 1.0
	}

	// 运动时间奖励
	var bonus float64
	switch {
	case exerciseMinutes >= 60:
		bonus = 1.2
	case exerciseMinutes >= 30:
		bonus = 1.1
	default:
		bonus = 1.0
	}

	score := math.Min(10, ratio*penalty*bonus)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return DefaultScore
	}
	return round1(score)
}

// ComprehensiveScore 计算综合健康分数（睡眠 60% + 行为 40%）
// 任一分数缺失（<=0）时按数据不完整打 0.8 折
func ComprehensiveScore(sleepScore, behaviorScore float64) float64 {
	comprehensive := sleepScore*0.6 + behaviorScore*0.4

	completeness := 0.8
	if sleepScore > 0 && behaviorScore > 0 {
		completeness = 1.0
	}

	return round1(math.Min(10, comprehensive*completeness))
}

// Level 根据分数（0-10）映射健康等级
func Level(score float64) HealthLevel {
	switch {
	case score >= 9:
		return HealthLevel{Level: "优秀", Color: "#4CAF50", Icon: "🏆"}
	case score >= 7:
		return HealthLevel{Level: "良好", Color: "#8BC34A", Icon: "👍"}
	case score >= 5:
		return HealthLevel{Level: "一般", Color: "#FFC107", Icon: "⚠️"}
	case score >= 3:
		return HealthLevel{Level: "较差", Color: "#FF9800", Icon: "📉"}
	default:
		return HealthLevel{Level: "很差", Color: "#F44336", Icon: "🚨"}
	}
}

// SleepSuggestions 根据睡眠分数给出建议
func SleepSuggestions(score float64) []string {
	switch {
	case score < 5:
		return []string{"睡眠质量较差，建议调整作息时间和睡眠环境"}
	case score < 7:
		return []string{"睡眠质量一般，建议21:00-23:30入睡，保证7-9小时睡眠"}
	default:
		return []string{"睡眠质量良好，请继续保持"}
	}
}

// ActivityScore 原始活动数据评分（0-100，扣分制）
// 与 BehaviorScore 是两套独立公式，调用方按数据来源各取所需，
// 不做合并。命中的每条规则各扣固定分并给出一条建议。
func ActivityScore(screenTimeHours, exerciseMinutes float64, bedtime string) (int, []string) {
	score := 100
	var advice []string

	if screenTimeHours > 4 {
		score -= 20
		advice = append(advice, "减少屏幕使用时间")
	}
	if exerciseMinutes < 30 {
		score -= 15
		advice = append(advice, "增加运动时间")
	}
	// 晚睡规则：23:30 之后或凌晨入睡扣分；bedtime 无法解析时跳过本条规则
	if b, err := parseBedtime(bedtime); err == nil && (b >= 23.5 || b < 5) {
		score -= 15
		advice = append(advice, "建议23:30前入睡")
	}

	if score < 0 {
		score = 0
	}
	return score, advice
}

// parseBedtime 将 "HH:MM" 解析为小数小时
func parseBedtime(bedtime string) (float64, error) {
	parts := strings.Split(bedtime, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid bedtime format: %q", bedtime)
	}
	hour, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bedtime hour: %q", bedtime)
	}
	minute, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bedtime minute: %q", bedtime)
	}
	return hour + minute/60, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
