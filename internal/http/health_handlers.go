package httpapi

import (
	"math"
	"net/http"

	"dreamgenie/internal/service"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// HealthHandler 健康评分与激励引擎的 HTTP 入口
type HealthHandler struct {
	sleep     *service.SleepService
	behavior  *service.BehaviorService
	incentive *service.IncentiveService
	logger    *zap.Logger
}

func NewHealthHandler(
	sleep *service.SleepService,
	behavior *service.BehaviorService,
	incentive *service.IncentiveService,
	logger *zap.Logger,
) *HealthHandler {
	return &HealthHandler{
		sleep:     sleep,
		behavior:  behavior,
		incentive: incentive,
		logger:    logger,
	}
}

// ============================================
// 睡眠分析
// ============================================

type analyzeSleepRequest struct {
	UserID     string  `json:"user_id"`
	SleepHours float64 `json:"sleep_hours"`
	Bedtime    string  `json:"bedtime"`
}

type analyzeSleepResponse struct {
	UserID string `json:"user_id"`
	*service.SleepAnalysis
	TotalHealthScore int      `json:"total_health_score"`
	NewBadges        []string `json:"new_badges"`
}

// POST /health/api/v1/sleep/analyze
func (h *HealthHandler) AnalyzeSleep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req analyzeSleepRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user_id is required"))
		return
	}

	analysis, err := h.sleep.RecordAndAnalyze(ctx, req.UserID, req.SleepHours, req.Bedtime)
	if err != nil {
		h.logger.Error("sleep analysis failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to analyze sleep"))
		return
	}

	// 质量分数计入用户健康总分
	total, err := h.incentive.AddPoints(ctx, req.UserID, int(math.Round(analysis.QualityScore)), "睡眠分析")
	if err != nil {
		h.logger.Warn("failed to add health score", zap.String("user_id", req.UserID), zap.Error(err))
	}

	badges, err := h.incentive.CheckAchievements(ctx, req.UserID, service.ActionAnalyzeSleep, service.AchievementData{})
	if err != nil {
		h.logger.Warn("achievement check failed", zap.String("user_id", req.UserID), zap.Error(err))
	}
	if badges == nil {
		badges = []string{}
	}

	writeJSON(w, http.StatusOK, Ok(analyzeSleepResponse{
		UserID:           req.UserID,
		SleepAnalysis:    analysis,
		TotalHealthScore: total,
		NewBadges:        badges,
	}))
}

// GET /health/api/v1/sleep/trends?user_id=&days=
func (h *HealthHandler) SleepTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user_id is required"))
		return
	}
	days := parseInt(r.URL.Query().Get("days"), 7)

	trends, err := h.sleep.Trends(ctx, userID, days)
	if err != nil {
		h.logger.Error("failed to get sleep trends",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get sleep trends"))
		return
	}

	// 无记录时 result 为 null
	writeJSON(w, http.StatusOK, Ok(trends))
}

// ============================================
// 行为分析
// ============================================

type analyzeBehaviorRequest struct {
	UserID     string              `json:"user_id"`
	Exercise   float64             `json:"exercise"`
	ClientData *service.ClientData `json:"client_data"`
}

type analyzeBehaviorResponse struct {
	UserID string `json:"user_id"`
	*service.BehaviorResult
	TotalHealthScore int `json:"total_health_score"`
}

// POST /health/api/v1/behavior/analyze
func (h *HealthHandler) AnalyzeBehavior(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req analyzeBehaviorRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user_id is required"))
		return
	}

	result := h.behavior.Analyze(req.Exercise, req.ClientData)

	total, err := h.incentive.AddPoints(ctx, req.UserID, int(math.Round(result.Score)), "行为分析")
	if err != nil {
		h.logger.Warn("failed to add health score", zap.String("user_id", req.UserID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, Ok(analyzeBehaviorResponse{
		UserID:           req.UserID,
		BehaviorResult:   result,
		TotalHealthScore: total,
	}))
}

type activityRequest struct {
	UserID     string  `json:"user_id"`
	ScreenTime float64 `json:"screen_time"`
	Exercise   float64 `json:"exercise"`
	Bedtime    string  `json:"bedtime"`
}

type activityResponse struct {
	*service.ActivityResult
	NewBadges []string `json:"new_badges"`
}

// POST /health/api/v1/behavior/activity
// 原始活动数据直达时的 0-100 扣分评分（与 analyze 的公式互不兼容）
func (h *HealthHandler) AnalyzeActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req activityRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user_id is required"))
		return
	}

	result := h.behavior.AnalyzeActivity(req.ScreenTime, req.Exercise, req.Bedtime)

	badges, err := h.incentive.CheckAchievements(ctx, req.UserID, service.ActionAnalyzeBehavior,
		service.AchievementData{Score: float64(result.Score)})
	if err != nil {
		h.logger.Warn("achievement check failed", zap.String("user_id", req.UserID), zap.Error(err))
	}
	if badges == nil {
		badges = []string{}
	}

	writeJSON(w, http.StatusOK, Ok(activityResponse{
		ActivityResult: result,
		NewBadges:      badges,
	}))
}

// GET /health/api/v1/system/signal-source
func (h *HealthHandler) SignalSource(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.behavior.Snapshot()))
}

// ============================================
// 激励
// ============================================

// GET /health/api/v1/incentive/summary?user_id=
func (h *HealthHandler) IncentiveSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user_id is required"))
		return
	}

	points, err := h.incentive.GetPoints(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load points"))
		return
	}
	badges, err := h.incentive.GetBadges(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load badges"))
		return
	}
	if badges == nil {
		badges = []string{}
	}
	habits, err := h.incentive.GetHabits(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load habits"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"points": points,
		"badges": badges,
		"habits": habits,
	}))
}

type addPointsRequest struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// POST /health/api/v1/incentive/points
func (h *HealthHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addPointsRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user_id is required"))
		return
	}

	total, err := h.incentive.AddPoints(ctx, req.UserID, req.Points, req.Reason)
	if err != nil {
		h.logger.Error("failed to add points", zap.String("user_id", req.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to add points"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"total_points": total}))
}

// GET /health/api/v1/incentive/points/history?user_id=
func (h *HealthHandler) PointsHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user_id is required"))
		return
	}

	history, err := h.incentive.PointsHistory(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load points history"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"history": history}))
}

type updateHabitRequest struct {
	UserID    string `json:"user_id"`
	HabitName string `json:"habit_name"`
	Progress  int    `json:"progress"`
}

// POST /health/api/v1/incentive/habits
func (h *HealthHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateHabitRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.UserID == "" || req.HabitName == "" {
		writeJSON(w, http.StatusBadRequest, Fail("user_id and habit_name are required"))
		return
	}

	habits, err := h.incentive.UpdateHabit(ctx, req.UserID, req.HabitName, req.Progress)
	if err != nil {
		h.logger.Error("failed to update habit",
			zap.String("user_id", req.UserID),
			zap.String("habit", req.HabitName),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to update habit"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"habits": habits}))
}
