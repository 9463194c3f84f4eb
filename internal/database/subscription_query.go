package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kdudkov/tgsubs/pkg/model"
)

// sortable columns of the subscription list
var sortColumns = map[string]string{
	"id":                      "subscriptions.id",
	"created_at":              "subscriptions.created_at",
	"subscription_expires_at": "subscriptions.subscription_expires_at",
	"status":                  "subscriptions.status",
	"email":                   "users.email",
	"product":                 "products.name",
}

type SubscriptionQuery struct {
	Query[model.Subscription]
	id          uint
	userID      uint
	productID   uint
	status      model.Status
	search      string
	expiredAt   time.Time
	inviteToken string
}

func NewSubscriptionQuery(db *gorm.DB) *SubscriptionQuery {
	return &SubscriptionQuery{
		Query: Query[model.Subscription]{
			db:    db,
			limit: 100,
			order: "subscriptions.created_at DESC, subscriptions.id DESC",
		},
	}
}

// Sort orders by one of the list columns. Unknown columns sort by creation time.
func (q *SubscriptionQuery) Sort(col string, order model.SortOrder) *SubscriptionQuery {
	c, ok := sortColumns[col]
	if !ok {
		c = sortColumns["created_at"]
	}

	dir := "DESC"
	if order == model.SortAsc {
		dir = "ASC"
	}

	q.order = fmt.Sprintf("%s %s, subscriptions.id %s", c, dir, dir)

	return q
}

func (q *SubscriptionQuery) Limit(n int) *SubscriptionQuery {
	q.limit = n
	return q
}

func (q *SubscriptionQuery) Offset(n int) *SubscriptionQuery {
	q.offset = n
	return q
}

func (q *SubscriptionQuery) Id(id uint) *SubscriptionQuery {
	q.id = id
	return q
}

func (q *SubscriptionQuery) User(id uint) *SubscriptionQuery {
	q.userID = id
	return q
}

func (q *SubscriptionQuery) Product(id uint) *SubscriptionQuery {
	q.productID = id
	return q
}

func (q *SubscriptionQuery) Status(s model.Status) *SubscriptionQuery {
	q.status = s
	return q
}

// Search matches email, telegram username or product name, ignoring case.
func (q *SubscriptionQuery) Search(s string) *SubscriptionQuery {
	q.search = strings.ToLower(strings.TrimSpace(s))
	return q
}

// ExpiredAt selects subscriptions whose term ended at or before t.
func (q *SubscriptionQuery) ExpiredAt(t time.Time) *SubscriptionQuery {
	q.expiredAt = t
	return q
}

func (q *SubscriptionQuery) InviteToken(token string) *SubscriptionQuery {
	q.inviteToken = token
	return q
}

func (q *SubscriptionQuery) where() *gorm.DB {
	tx := q.db.Model(&model.Subscription{}).
		Joins("JOIN users ON users.id = subscriptions.user_id").
		Joins("JOIN products ON products.id = subscriptions.product_id")

	if q.id != 0 {
		tx = tx.Where("subscriptions.id = ?", q.id)
	}

	if q.userID != 0 {
		tx = tx.Where("subscriptions.user_id = ?", q.userID)
	}

	if q.productID != 0 {
		tx = tx.Where("subscriptions.product_id = ?", q.productID)
	}

	if q.status != "" {
		tx = tx.Where("subscriptions.status = ?", q.status)
	}

	if q.search != "" {
		p := "%" + q.search + "%"
		tx = tx.Where("(LOWER(users.email) LIKE ? OR LOWER(users.telegram_username) LIKE ? OR LOWER(products.name) LIKE ?)", p, p, p)
	}

	if !q.expiredAt.IsZero() {
		tx = tx.Where("subscriptions.subscription_expires_at <= ?", q.expiredAt)
	}

	if q.inviteToken != "" {
		tx = tx.Where("subscriptions.invite_link_token = ?", q.inviteToken)
	}

	return tx
}

func (q *SubscriptionQuery) full(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User").Preload("Product")
}

func (q *SubscriptionQuery) Get() []*model.Subscription {
	return q.get(q.full(q.where()))
}

func (q *SubscriptionQuery) One() *model.Subscription {
	return q.one(q.full(q.where()))
}

func (q *SubscriptionQuery) Count() int64 {
	return q.count(q.where())
}

// Update changes the selected rows. Joins are not allowed in UPDATE, so the
// rows are picked by id.
func (q *SubscriptionQuery) Update(updates map[string]any) (int64, error) {
	var ids []uint

	if err := q.where().Pluck("subscriptions.id", &ids).Error; err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}

	tx := q.db.Model(&model.Subscription{}).Where("id IN ?", ids).Updates(updates)

	return tx.RowsAffected, tx.Error
}
