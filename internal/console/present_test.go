package console

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdudkov/tgsubs/pkg/model"
	"github.com/kdudkov/tgsubs/pkg/request"
)

func TestStatusBadge(t *testing.T) {
	for s, b := range map[model.Status]Badge{
		model.StatusActive:      BadgePositive,
		model.StatusPendingJoin: BadgeCautionary,
		model.StatusExpired:     BadgeNegative,
		model.StatusCancelled:   BadgeNeutral,
		"suspended":             BadgeNeutral,
	} {
		assert.Equal(t, b, StatusBadge(s), s)
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "-", FormatTime(model.NullTime{}))

	tm := time.Date(2024, 3, 5, 14, 7, 0, 0, time.Local)
	assert.Equal(t, "05-03-2024 14:07", FormatTime(model.NullTime(tm)))
}

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel(sub(1, "a@b.c", 1, model.StatusActive)))
	assert.True(t, CanCancel(sub(1, "a@b.c", 1, model.StatusExpired)))
	assert.False(t, CanCancel(sub(1, "a@b.c", 1, model.StatusCancelled)))
	assert.False(t, CanCancel(nil))
}

func TestColumns(t *testing.T) {
	assert.Equal(t, "Not joined yet", TelegramInfo(&model.UserDTO{Email: "a@b.c"}))
	assert.Equal(t, "Not joined yet", TelegramInfo(nil))
	assert.Equal(t, "ID: 42 @alice", TelegramInfo(&model.UserDTO{TelegramUserID: "42", TelegramUsername: "alice"}))
	assert.Equal(t, "ID: 42", TelegramInfo(&model.UserDTO{TelegramUserID: "42"}))

	s := sub(1, "a@b.c", 1, model.StatusPendingJoin)
	assert.Equal(t, "No link", InviteInfo(s))

	s.InviteLinkURL = "https://t.me/+abc"
	assert.Equal(t, "https://t.me/+abc (Expires: -)", InviteInfo(s))
}

func TestPager(t *testing.T) {
	p := Pager{Page: 1, PerPage: 10, Total: 25, Pages: 3}

	assert.Equal(t, "Showing 1 to 10 of 25 entries", p.Summary())

	b := p.Buttons()
	require.Len(t, b, 5)
	assert.Equal(t, PageButton{Label: "Previous", Page: 0, Disabled: true}, b[0])
	assert.Equal(t, PageButton{Label: "1", Page: 1, Current: true}, b[1])
	assert.Equal(t, "3", b[3].Label)
	assert.Equal(t, PageButton{Label: "Next", Page: 2}, b[4])

	p.Page = 3
	assert.Equal(t, "Showing 21 to 25 of 25 entries", p.Summary())
	assert.True(t, p.Buttons()[4].Disabled)
	assert.False(t, p.Buttons()[0].Disabled)
}

func TestPagerWindow(t *testing.T) {
	labels := func(p Pager) []string {
		var res []string

		for _, b := range p.Buttons()[1 : len(p.Buttons())-1] {
			res = append(res, b.Label)
		}

		return res
	}

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, labels(Pager{Page: 1, PerPage: 10, Total: 200, Pages: 20}))
	assert.Equal(t, []string{"8", "9", "10", "11", "12"}, labels(Pager{Page: 10, PerPage: 10, Total: 200, Pages: 20}))
	assert.Equal(t, []string{"16", "17", "18", "19", "20"}, labels(Pager{Page: 20, PerPage: 10, Total: 200, Pages: 20}))
	assert.Empty(t, labels(Pager{Page: 1, PerPage: 10}))
}

func TestRefine(t *testing.T) {
	subs := []*model.SubscriptionDTO{
		sub(1, "a@x", 1, model.StatusActive),
		nil,
		sub(2, "b@x", 2, model.StatusActive),
		sub(3, "c@x", 1, model.StatusExpired),
	}

	assert.Len(t, Refine(subs, Filter{}), 3)
	assert.Len(t, Refine(subs, Filter{Status: model.StatusActive}), 2)
	assert.Len(t, Refine(subs, Filter{ProductID: 1}), 2)

	res := Refine(subs, Filter{Status: model.StatusActive, ProductID: 1})
	require.Len(t, res, 1)
	assert.Equal(t, uint(1), res[0].ID)

	// idempotent
	f := Filter{Status: model.StatusExpired}
	assert.Equal(t, Refine(subs, f), Refine(Refine(subs, f), f))

	assert.Empty(t, Refine(nil, f))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "fallback", userMessage(errBoom, "fallback"))
	assert.Equal(t, "Product not found",
		userMessage(fmt.Errorf("load: %w", &request.StatusError{Code: 404, Message: "Product not found"}), "fallback"))
	assert.Equal(t, "fallback", userMessage(&request.StatusError{Code: 500}, "fallback"))

	err := validateStruct(&model.SubscribeRequest{Email: "nope", ProductID: 1})
	require.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Please enter a valid email address", userMessage(err, "fallback"))
}
