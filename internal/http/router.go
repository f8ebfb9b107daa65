package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoutes 注册健康评分与激励引擎的全部路由
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	// 睡眠
	r.Handle("/health/api/v1/sleep/analyze", requireMethod(http.MethodPost, h.AnalyzeSleep))
	r.Handle("/health/api/v1/sleep/trends", requireMethod(http.MethodGet, h.SleepTrends))

	// 行为
	r.Handle("/health/api/v1/behavior/analyze", requireMethod(http.MethodPost, h.AnalyzeBehavior))
	r.Handle("/health/api/v1/behavior/activity", requireMethod(http.MethodPost, h.AnalyzeActivity))

	// 信号源诊断
	r.Handle("/health/api/v1/system/signal-source", requireMethod(http.MethodGet, h.SignalSource))

	// 激励
	r.Handle("/health/api/v1/incentive/summary", requireMethod(http.MethodGet, h.IncentiveSummary))
	r.Handle("/health/api/v1/incentive/points", requireMethod(http.MethodPost, h.AddPoints))
	r.Handle("/health/api/v1/incentive/points/history", requireMethod(http.MethodGet, h.PointsHistory))
	r.Handle("/health/api/v1/incentive/habits", requireMethod(http.MethodPost, h.UpdateHabit))
}

func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, req)
	}
}
