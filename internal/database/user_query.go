package database

import (
	"gorm.io/gorm"

	"github.com/kdudkov/tgsubs/pkg/model"
)

type UserQuery struct {
	Query[model.User]
	id    uint
	email string
}

func NewUserQuery(db *gorm.DB) *UserQuery {
	return &UserQuery{
		Query: Query[model.User]{
			db:    db,
			limit: 10000,
			order: "id",
		},
	}
}

func (q *UserQuery) Id(id uint) *UserQuery {
	q.id = id
	return q
}

func (q *UserQuery) Email(email string) *UserQuery {
	q.email = email
	return q
}

func (q *UserQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.email != "" {
		tx = tx.Where("email = ?", q.email)
	}

	return tx
}

func (q *UserQuery) Get() []*model.User {
	return q.get(q.where().Model(&model.User{}))
}

func (q *UserQuery) One() *model.User {
	return q.one(q.where().Model(&model.User{}))
}
