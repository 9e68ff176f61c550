package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"deco-ledger/internal/domain/ledger"
)

var errReadOnly = errors.New("sqlstore: write in read-only view")

// entry is one key of the ledger key space; values are JSON.
type entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:191"`
	Value     []byte    `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (entry) TableName() string { return "ledger_entries" }

// lockRow is locked FOR UPDATE by every write transaction, so writers are
// serialized across processes sharing the database.
type lockRow struct {
	ID uint `gorm:"column:id;primaryKey"`
}

func (lockRow) TableName() string { return "ledger_lock" }

// Migrate creates the tables and the single lock row.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entry{}, &lockRow{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lockRow{ID: 1}).Error
}

// KVStore implements uow.Store over a gorm handle, usually a transaction.
type KVStore struct {
	db       *gorm.DB
	readOnly bool
}

func NewKVStore(db *gorm.DB) *KVStore { return &KVStore{db: db} }

func (s *KVStore) Get(ctx context.Context, key ledger.Key, out any) (bool, error) {
	var e entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key.String()).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *KVStore) Has(ctx context.Context, key ledger.Key) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&entry{}).Where("entry_key = ?", key.String()).Count(&n).Error
	return n > 0, err
}

func (s *KVStore) Put(ctx context.Context, key ledger.Key, value any) error {
	if s.readOnly {
		return errReadOnly
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&entry{Key: key.String(), Value: b}).Error
}

func (s *KVStore) Delete(ctx context.Context, key ledger.Key) error {
	if s.readOnly {
		return errReadOnly
	}
	return s.db.WithContext(ctx).Where("entry_key = ?", key.String()).Delete(&entry{}).Error
}
