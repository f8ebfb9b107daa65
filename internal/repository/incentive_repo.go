package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"dreamgenie/internal/domain"
	"dreamgenie/internal/store"
)

// IncentiveRepo 激励状态存取接口（积分/徽章/习惯/积分历史）
// 所有 Get 对缺失用户返回零值状态；积分历史是 append-only 序列
type IncentiveRepo interface {
	GetPoints(ctx context.Context, userID string) (int, error)
	SetPoints(ctx context.Context, userID string, total int) error

	GetBadges(ctx context.Context, userID string) ([]string, error)
	SetBadges(ctx context.Context, userID string, badges []string) error

	GetHabits(ctx context.Context, userID string) (map[string]domain.HabitProgress, error)
	SetHabits(ctx context.Context, userID string, habits map[string]domain.HabitProgress) error

	AppendPointsHistory(ctx context.Context, userID string, entry domain.PointsEntry) error
	ListPointsHistory(ctx context.Context, userID string) ([]domain.PointsEntry, error)
}

const (
	pointsKeyPrefix        = "health:points:"
	pointsHistoryKeyPrefix = "health:points:history:"
	badgesKeyPrefix        = "health:badges:"
	habitsKeyPrefix        = "health:habits:"
)

// KVIncentiveRepo KV 实现：每用户每资源一份 JSON 文档
type KVIncentiveRepo struct {
	kv store.KV
}

func NewKVIncentiveRepo(kv store.KV) *KVIncentiveRepo {
	return &KVIncentiveRepo{kv: kv}
}

func (r *KVIncentiveRepo) GetPoints(ctx context.Context, userID string) (int, error) {
	raw, err := r.kv.Get(ctx, pointsKeyPrefix+userID)
	if err != nil {
		if err == store.ErrMiss {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load points: %w", err)
	}
	total, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse points: %w", err)
	}
	return total, nil
}

func (r *KVIncentiveRepo) SetPoints(ctx context.Context, userID string, total int) error {
	if err := r.kv.Set(ctx, pointsKeyPrefix+userID, strconv.Itoa(total), 0); err != nil {
		return fmt.Errorf("failed to save points: %w", err)
	}
	return nil
}

func (r *KVIncentiveRepo) GetBadges(ctx context.Context, userID string) ([]string, error) {
	var badges []string
	if err := r.getJSON(ctx, badgesKeyPrefix+userID, &badges); err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	return badges, nil
}

func (r *KVIncentiveRepo) SetBadges(ctx context.Context, userID string, badges []string) error {
	if err := r.setJSON(ctx, badgesKeyPrefix+userID, badges); err != nil {
		return fmt.Errorf("failed to save badges: %w", err)
	}
	return nil
}

func (r *KVIncentiveRepo) GetHabits(ctx context.Context, userID string) (map[string]domain.HabitProgress, error) {
	habits := make(map[string]domain.HabitProgress)
	if err := r.getJSON(ctx, habitsKeyPrefix+userID, &habits); err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	if habits == nil {
		habits = make(map[string]domain.HabitProgress)
	}
	return habits, nil
}

func (r *KVIncentiveRepo) SetHabits(ctx context.Context, userID string, habits map[string]domain.HabitProgress) error {
	if err := r.setJSON(ctx, habitsKeyPrefix+userID, habits); err != nil {
		return fmt.Errorf("failed to save habits: %w", err)
	}
	return nil
}

func (r *KVIncentiveRepo) AppendPointsHistory(ctx context.Context, userID string, entry domain.PointsEntry) error {
	history, err := r.ListPointsHistory(ctx, userID)
	if err != nil {
		return err
	}
	history = append(history, entry)
	if err := r.setJSON(ctx, pointsHistoryKeyPrefix+userID, history); err != nil {
		return fmt.Errorf("failed to save points history: %w", err)
	}
	return nil
}

func (r *KVIncentiveRepo) ListPointsHistory(ctx context.Context, userID string) ([]domain.PointsEntry, error) {
	var history []domain.PointsEntry
	if err := r.getJSON(ctx, pointsHistoryKeyPrefix+userID, &history); err != nil {
		return nil, fmt.Errorf("failed to load points history: %w", err)
	}
	return history, nil
}

// getJSON 读取并反序列化；键缺失时保持 out 的零值（空状态）
func (r *KVIncentiveRepo) getJSON(ctx context.Context, key string, out any) error {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if err == store.ErrMiss {
			return nil
		}
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (r *KVIncentiveRepo) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, string(data), 0)
}
