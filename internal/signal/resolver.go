package signal

import (
	"math"
	"runtime"

	"go.uber.org/zap"
)

// Source 行为信号来源标签
type Source string

const (
	// SourceNative 本机即移动系统，直接读取系统服务
	SourceNative Source = "native"
	// SourceBridge 通过桥接守护进程查询相连的移动设备
	SourceBridge Source = "bridge"
	// SourceDesktop 桌面系统，遥测能力有限
	SourceDesktop Source = "desktop"
	// SourceFallback 无可用设备信号，由调用方提供数据
	SourceFallback Source = "fallback"
)

// 各来源采集失败时的固定默认值
const (
	nativeDefaultScreenHours = 3.0
	nativeDefaultSteps       = 6000
	bridgeDefaultScreenHours = 2.5
	bridgeDefaultSteps       = 5000
	fallbackScreenHours      = 2.5
)

// 步数换算运动时间的每来源参数
const (
	nativeStepsPerMinute = 120
	nativeMaxExerciseMin = 150
	bridgeStepsPerMinute = 100
	bridgeMaxExerciseMin = 100
)

// Snapshot 解析后的统一行为信号形态
type Snapshot struct {
	Source          Source  `json:"data_source"`
	ScreenTimeHours float64 `json:"screen_time_hours"`
	Steps           int     `json:"steps"`
	ExerciseMinutes float64 `json:"exercise_minutes"`
}

// Input 调用方提供的回退数据（fallback/desktop 来源使用）
type Input struct {
	ScreenTimeHours float64
	ExerciseMinutes float64
}

// Resolver 行为信号源解析器
// 按优先级选择可信的信号来源并归一化输出；解析与采集永不失败，
// 采集出错时静默退回该来源的固定默认值
type Resolver struct {
	bridge *BridgeClient
	logger *zap.Logger

	// 探测与采集函数可注入，便于测试
	probeNative  func() bool
	probeBridge  func() bool
	probeDesktop func() bool
	fetchNative  func() (float64, int, error)
}

// NewResolver 创建解析器；bridge 可为 nil（视为桥接不可用）
func NewResolver(bridge *BridgeClient, logger *zap.Logger) *Resolver {
	r := &Resolver{
		bridge:      bridge,
		logger:      logger,
		probeNative: isMobileOS,
		probeDesktop: func() bool {
			return runtime.GOOS == "windows"
		},
		fetchNative: fetchNativeUsage,
	}
	r.probeBridge = func() bool {
		return bridge != nil && bridge.Ping() == nil
	}
	return r
}

// Resolve 按优先级选择信号来源：native > bridge > desktop > fallback
func (r *Resolver) Resolve() Source {
	switch {
	case r.probeNative():
		return SourceNative
	case r.probeBridge():
		return SourceBridge
	case r.probeDesktop():
		return SourceDesktop
	default:
		return SourceFallback
	}
}

// Collect 采集当前信号源的屏幕时长/步数/运动时间
// in 为调用方提供的回退数据（fallback 与 desktop 来源的运动时间取自 in）
func (r *Resolver) Collect(in Input) Snapshot {
	switch src := r.Resolve(); src {
	case SourceNative:
		screen, steps, err := r.fetchNative()
		if err != nil {
			r.logger.Warn("native usage fetch failed, using defaults", zap.Error(err))
			screen, steps = nativeDefaultScreenHours, nativeDefaultSteps
		}
		return Snapshot{
			Source:          src,
			ScreenTimeHours: screen,
			Steps:           steps,
			ExerciseMinutes: exerciseFromSteps(steps, nativeStepsPerMinute, nativeMaxExerciseMin),
		}

	case SourceBridge:
		usage, err := r.bridge.Usage()
		if err != nil {
			r.logger.Warn("bridge usage fetch failed, using defaults", zap.Error(err))
			usage = &BridgeUsage{ScreenTimeHours: bridgeDefaultScreenHours, Steps: bridgeDefaultSteps}
		}
		return Snapshot{
			Source:          src,
			ScreenTimeHours: usage.ScreenTimeHours,
			Steps:           usage.Steps,
			ExerciseMinutes: exerciseFromSteps(usage.Steps, bridgeStepsPerMinute, bridgeMaxExerciseMin),
		}

	case SourceDesktop:
		// 桌面系统无屏幕使用/步数遥测，运动时间取调用方输入
		return Snapshot{
			Source:          src,
			ScreenTimeHours: 0,
			Steps:           estimateSteps(in.ExerciseMinutes),
			ExerciseMinutes: in.ExerciseMinutes,
		}

	default:
		screen := in.ScreenTimeHours
		if screen <= 0 {
			screen = fallbackScreenHours
		}
		return Snapshot{
			Source:          SourceFallback,
			ScreenTimeHours: screen,
			Steps:           estimateSteps(in.ExerciseMinutes),
			ExerciseMinutes: in.ExerciseMinutes,
		}
	}
}

// exerciseFromSteps 按步频将步数换算为运动分钟数，并按来源上限封顶
func exerciseFromSteps(steps int, stepsPerMinute, maxMinutes float64) float64 {
	minutes := float64(steps) / stepsPerMinute
	return round1(math.Min(minutes, maxMinutes))
}

// estimateSteps 无步数遥测时按运动时间估算（每分钟约 100 步）
func estimateSteps(exerciseMinutes float64) int {
	if exerciseMinutes <= 0 {
		return 0
	}
	return int(exerciseMinutes * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
