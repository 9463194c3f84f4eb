package model

import (
	"strconv"
	"time"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Page is the paginated answer of list endpoints.
type Page[T any] struct {
	Items   []T `json:"items"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// ListQuery holds the parameters of GET /subscriptions.
// Zero filter values mean "no filter".
type ListQuery struct {
	Page      int
	PerPage   int
	SortBy    string
	SortOrder SortOrder
	Search    string
	Status    Status
	ProductID uint
	UserID    uint
}

func (q ListQuery) Args() map[string]string {
	args := map[string]string{
		"page":       strconv.Itoa(q.Page),
		"per_page":   strconv.Itoa(q.PerPage),
		"sort_by":    q.SortBy,
		"sort_order": string(q.SortOrder),
	}

	if q.Search != "" {
		args["search"] = q.Search
	}

	if q.Status != "" {
		args["status"] = string(q.Status)
	}

	if q.ProductID != 0 {
		args["product_id"] = strconv.FormatUint(uint64(q.ProductID), 10)
	}

	if q.UserID != 0 {
		args["user_id"] = strconv.FormatUint(uint64(q.UserID), 10)
	}

	return args
}

type ProductRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description"`
}

type MapRequest struct {
	TelegramGroupID   string `json:"telegram_group_id" validate:"required"`
	TelegramGroupName string `json:"telegram_group_name" validate:"required"`
}

type SubscribeRequest struct {
	Email              string     `json:"email" validate:"required,email"`
	ProductID          uint       `json:"product_id" validate:"required"`
	ExpirationDatetime *time.Time `json:"expiration_datetime,omitempty"`
}

type SubscribeResult struct {
	Message               string   `json:"message"`
	InviteLink            string   `json:"invite_link"`
	InviteExpiresAt       NullTime `json:"invite_expires_at"`
	SubscriptionExpiresAt NullTime `json:"subscription_expires_at"`
}

// Message is the body of plain answers and of every error answer.
type Message struct {
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}
