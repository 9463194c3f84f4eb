package database

import (
	"gorm.io/gorm"

	"github.com/kdudkov/tgsubs/pkg/model"
)

type GroupQuery struct {
	Query[model.TelegramGroup]
	telegramID string
	productID  uint
	unmapped   bool
	full       bool
}

func NewGroupQuery(db *gorm.DB) *GroupQuery {
	return &GroupQuery{
		Query: Query[model.TelegramGroup]{
			db:    db,
			limit: 1000,
			order: "id",
		},
	}
}

func (q *GroupQuery) TelegramID(id string) *GroupQuery {
	q.telegramID = id
	return q
}

func (q *GroupQuery) Product(id uint) *GroupQuery {
	q.productID = id
	return q
}

// Unmapped limits the query to groups without a product.
func (q *GroupQuery) Unmapped() *GroupQuery {
	q.unmapped = true
	return q
}

func (q *GroupQuery) Full() *GroupQuery {
	q.full = true
	return q
}

func (q *GroupQuery) where() *gorm.DB {
	tx := q.db

	if q.telegramID != "" {
		tx = tx.Where("telegram_group_id = ?", q.telegramID)
	}

	if q.productID != 0 {
		tx = tx.Where("product_id = ?", q.productID)
	}

	if q.unmapped {
		tx = tx.Where("product_id IS NULL")
	}

	if q.full {
		tx = tx.Preload("Product")
	}

	return tx
}

func (q *GroupQuery) Get() []*model.TelegramGroup {
	return q.get(q.where().Model(&model.TelegramGroup{}))
}

func (q *GroupQuery) One() *model.TelegramGroup {
	return q.one(q.where().Model(&model.TelegramGroup{}))
}

func (q *GroupQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.TelegramGroup{}), updates)
}
