package signal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// BridgeResponse 桥接守护进程 API 响应
type BridgeResponse struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// BridgeUsage 桥接守护进程上报的设备使用数据
type BridgeUsage struct {
	ScreenTimeHours float64 `json:"screen_time_hours"`
	Steps           int     `json:"steps"`
}

// BridgeClient 随身设备桥接守护进程客户端
// 通过 HTTP 查询与主机相连的移动设备的屏幕使用与步数统计
type BridgeClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewBridgeClient 创建桥接客户端
func NewBridgeClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BridgeClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(1).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &BridgeClient{
		httpClient: client,
		logger:     logger,
	}
}

// Ping 探测桥接守护进程及其连接的设备是否可用
func (c *BridgeClient) Ping() error {
	var response BridgeResponse
	resp, err := c.httpClient.R().
		SetResult(&response).
		Get("/bridge/api/v1/ping")
	if err != nil {
		return fmt.Errorf("bridge ping failed: %w", err)
	}
	if resp.StatusCode() != 200 || response.Status != 0 {
		return fmt.Errorf("bridge not ready: %s (status: %d)", response.Msg, response.Status)
	}
	return nil
}

// Usage 获取设备当日屏幕使用时长与步数
func (c *BridgeClient) Usage() (*BridgeUsage, error) {
	var response BridgeResponse
	resp, err := c.httpClient.R().
		SetResult(&response).
		Get("/bridge/api/v1/usage")
	if err != nil {
		return nil, fmt.Errorf("failed to call bridge daemon: %w", err)
	}
	if resp.StatusCode() != 200 || response.Status != 0 {
		return nil, fmt.Errorf("bridge daemon error: %s (status: %d)", response.Msg, response.Status)
	}

	var usage BridgeUsage
	if err := json.Unmarshal(response.Data, &usage); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bridge usage: %w", err)
	}

	c.logger.Debug("bridge usage fetched",
		zap.Float64("screen_time_hours", usage.ScreenTimeHours),
		zap.Int("steps", usage.Steps),
	)
	return &usage, nil
}
