package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-study-assistant-be/internal/model"
	"ai-study-assistant-be/internal/repository/contract"
	"ai-study-assistant-be/internal/repository/updates"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRecordRepository struct {
	db  *gorm.DB
	bus *updates.Bus
	ttl time.Duration
}

var _ contract.IRecordRepository = (*GormRecordRepository)(nil)

// NewGormRecordRepository stores records in study_records. ttl <= 0 keeps them forever.
func NewGormRecordRepository(db *gorm.DB, bus *updates.Bus, ttl time.Duration) *GormRecordRepository {
	return &GormRecordRepository{db: db, bus: bus, ttl: ttl}
}

func (r *GormRecordRepository) Save(ctx context.Context, key string, record contract.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	m := &model.StudyRecord{Key: key, Data: data}
	if r.ttl > 0 {
		exp := time.Now().Add(r.ttl)
		m.ExpiresAt = &exp
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	return r.bus.Publish(key, record)
}

func (r *GormRecordRepository) Get(ctx context.Context, key string) (contract.Record, bool, error) {
	var m model.StudyRecord
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var record contract.Record
	if err := json.Unmarshal(m.Data, &record); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (r *GormRecordRepository) Delete(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.StudyRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrRecordNotFound
	}
	return r.bus.Publish(key, nil)
}

func (r *GormRecordRepository) StreamUpdates(ctx context.Context, key string, callback func(contract.Record)) error {
	return r.bus.Watch(ctx, key, func() (contract.Record, bool, error) {
		return r.Get(ctx, key)
	}, callback)
}

// PurgeExpired removes rows whose ttl has passed.
func (r *GormRecordRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).Delete(&model.StudyRecord{})
	return res.RowsAffected, res.Error
}
