package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"dreamgenie/internal/domain"
	"dreamgenie/internal/store"
)

// SleepRecordsRepo 睡眠记录存取接口
// 记录按 (user_id, 日历日 "2006-01-02") 定位，同日保存即覆盖
type SleepRecordsRepo interface {
	// Load 加载某用户的全部睡眠记录（date → record）；无记录返回空 map
	Load(ctx context.Context, userID string) (map[string]domain.SleepRecord, error)

	// Save 写入某用户某日的记录（存在即覆盖）
	Save(ctx context.Context, userID string, date string, rec domain.SleepRecord) error
}

const sleepRecordsKeyPrefix = "health:sleep:"

// KVSleepRecordsRepo KV 实现：每用户一份 JSON 文档
type KVSleepRecordsRepo struct {
	kv store.KV
}

func NewKVSleepRecordsRepo(kv store.KV) *KVSleepRecordsRepo {
	return &KVSleepRecordsRepo{kv: kv}
}

func (r *KVSleepRecordsRepo) Load(ctx context.Context, userID string) (map[string]domain.SleepRecord, error) {
	raw, err := r.kv.Get(ctx, sleepRecordsKeyPrefix+userID)
	if err != nil {
		if err == store.ErrMiss {
			// 键缺失等价于空状态，不是错误
			return map[string]domain.SleepRecord{}, nil
		}
		return nil, fmt.Errorf("failed to load sleep records: %w", err)
	}

	records := make(map[string]domain.SleepRecord)
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sleep records: %w", err)
	}
	return records, nil
}

func (r *KVSleepRecordsRepo) Save(ctx context.Context, userID string, date string, rec domain.SleepRecord) error {
	records, err := r.Load(ctx, userID)
	if err != nil {
		return err
	}
	records[date] = rec

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal sleep records: %w", err)
	}
	if err := r.kv.Set(ctx, sleepRecordsKeyPrefix+userID, string(data), 0); err != nil {
		return fmt.Errorf("failed to save sleep records: %w", err)
	}
	return nil
}
