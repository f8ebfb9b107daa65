package signal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 本机即移动系统（native 信号源）时的探测与采集。
// 通过系统服务命令读取使用统计，任何失败都由调用方退回默认值。

const nativeFetchTimeout = 10 * time.Second

var (
	foregroundTimeRe = regexp.MustCompile(`totalTimeInForeground=(\d+)`)
	stepCountRe      = regexp.MustCompile(`(\d+)`)
)

// isMobileOS 探测当前主机是否为移动系统
func isMobileOS() bool {
	if os.Getenv("ANDROID_ROOT") != "" || os.Getenv("ANDROID_DATA") != "" {
		return true
	}
	if _, err := os.Stat("/system/build.prop"); err == nil {
		return true
	}
	return false
}

// fetchNativeUsage 读取本机屏幕使用时长（小时）与步数
func fetchNativeUsage() (float64, int, error) {
	screen, err := nativeScreenTime()
	if err != nil {
		return 0, 0, err
	}
	steps, err := nativeStepCount()
	if err != nil {
		return 0, 0, err
	}
	return screen, steps, nil
}

// nativeScreenTime 汇总各应用前台时长
func nativeScreenTime() (float64, error) {
	out, err := runWithTimeout("dumpsys", "usagestats")
	if err != nil {
		return 0, err
	}
	var totalMS int64
	for _, m := range foregroundTimeRe.FindAllStringSubmatch(out, -1) {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		totalMS += ms
	}
	return round1(float64(totalMS) / (1000 * 3600)), nil
}

// nativeStepCount 从传感器服务读取步数（上限 20000，过滤异常读数）
func nativeStepCount() (int, error) {
	out, err := runWithTimeout("dumpsys", "sensorservice")
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(out, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "step") || !strings.Contains(lower, "count") {
			continue
		}
		if m := stepCountRe.FindString(line); m != "" {
			steps, err := strconv.Atoi(m)
			if err != nil {
				continue
			}
			if steps > 20000 {
				steps = 20000
			}
			return steps, nil
		}
	}
	return 0, fmt.Errorf("step count not found in sensor output")
}

func runWithTimeout(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), nativeFetchTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return string(out), nil
}
