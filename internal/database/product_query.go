package database

import (
	"gorm.io/gorm"

	"github.com/kdudkov/tgsubs/pkg/model"
)

type ProductQuery struct {
	Query[model.Product]
	id   uint
	name string
	full bool
}

func NewProductQuery(db *gorm.DB) *ProductQuery {
	return &ProductQuery{
		Query: Query[model.Product]{
			db:    db,
			limit: 1000,
			order: "id",
		},
	}
}

func (q *ProductQuery) Id(id uint) *ProductQuery {
	q.id = id
	return q
}

func (q *ProductQuery) Name(name string) *ProductQuery {
	q.name = name
	return q
}

// Full loads the mapped group too.
func (q *ProductQuery) Full() *ProductQuery {
	q.full = true
	return q
}

func (q *ProductQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.name != "" {
		tx = tx.Where("name = ?", q.name)
	}

	if q.full {
		tx = tx.Preload("TelegramGroup")
	}

	return tx
}

func (q *ProductQuery) Get() []*model.Product {
	return q.get(q.where().Model(&model.Product{}))
}

func (q *ProductQuery) One() *model.Product {
	return q.one(q.where().Model(&model.Product{}))
}

func (q *ProductQuery) Count() int64 {
	return q.count(q.where().Model(&model.Product{}))
}

func (q *ProductQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Product{}), updates)
}
