package sqlstore

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"deco-ledger/internal/domain/uow"
)

type GormUoW struct {
	db *gorm.DB
	// mu serializes writers inside this process; the lock row does it across processes.
	mu sync.Mutex
}

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(s uow.Store) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock the ledger before any read so check-then-write cannot race
		var l lockRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, 1).Error; err != nil {
			return fmt.Errorf("lock ledger: %w", err)
		}
		return fn(&KVStore{db: tx})
	})
}

func (u *GormUoW) View(ctx context.Context, fn func(s uow.Store) error) error {
	return fn(&KVStore{db: u.db.WithContext(ctx), readOnly: true})
}
