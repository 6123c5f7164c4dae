package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one durable key-value entry.
type Setting struct {
	Name  string `gorm:"primaryKey" json:"name"`
	Value string `json:"value"`
}

// KVRepository defines decoupled operations for key-value persistence.
type KVRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// gormKVRepo is a GORM-backed implementation of KVRepository.
// Use constructor NewKVRepository to obtain an instance.
type gormKVRepo struct{ db *gorm.DB }

// NewKVRepository creates a KVRepository. Accepts *gorm.DB to avoid global access.
func NewKVRepository(db *gorm.DB) KVRepository { return &gormKVRepo{db: db} }

func (r *gormKVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if r.db == nil {
		return "", false, fmt.Errorf("repository not initialized")
	}
	var s Setting
	err := r.db.WithContext(ctx).First(&s, "name = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (r *gormKVRepo) Set(ctx context.Context, key, value string) error {
	return r.SetMany(ctx, map[string]string{key: value})
}

// SetMany writes all values in one transaction.
func (r *gormKVRepo) SetMany(ctx context.Context, values map[string]string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	if len(values) == 0 {
		return nil
	}
	rows := make([]Setting, 0, len(values))
	for k, v := range values {
		rows = append(rows, Setting{Name: k, Value: v})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
}

// Delete removes all keys with a single statement; missing keys are ignored.
func (r *gormKVRepo) Delete(ctx context.Context, keys ...string) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("name IN ?", keys).Delete(&Setting{}).Error
}
