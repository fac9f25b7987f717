package journal

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TradeRepo interface {
	BulkCreate(ctx context.Context, records []*TradeRecord) ([]*TradeRecord, error)
}

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

func (r *TradeSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// BulkCreate ignores trade ids that are already stored, so redelivered
// batches are harmless.
func (r *TradeSQLRepo) BulkCreate(ctx context.Context, records []*TradeRecord) ([]*TradeRecord, error) {
	if len(records) == 0 {
		return records, nil
	}
	return records, r.dbWithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(records).Error
}

